package fs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bft-labs/gifship/internal/ports"
)

// CreateSink returns a ports.SinkOpener that creates (or truncates) path,
// creating parent directories first.
func CreateSink(path string) ports.SinkOpener {
	return func() (io.WriteCloser, error) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		return os.Create(path)
	}
}
