package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/gifship/internal/domain"
	"github.com/bft-labs/gifship/pkg/log"
)

// PrepareCaptureDir creates dir and removes frames, partial writes and the
// manifest left behind by an earlier session, so they cannot be mixed into
// the next encode. Files the pipeline does not own are left alone.
// It returns the number of files removed.
func PrepareCaptureDir(dir, ext string, logger log.Logger) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		stale := name == ManifestFileName || strings.HasSuffix(name, partialSuffix)
		if _, ok := domain.ParseFrameName(name, ext); ok {
			stale = true
		}
		if !stale {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		logger.Info("removed stale capture files",
			log.String("dir", dir),
			log.Int("files", removed),
		)
	}
	return removed, nil
}
