package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bft-labs/gifship/internal/domain"
)

// ManifestFileName is the sidecar written into each capture directory.
const ManifestFileName = "session.json"

// ManifestFileRepository implements ports.ManifestRepository using a JSON file.
type ManifestFileRepository struct {
	dir string
}

// NewManifestFileRepository creates a repository for the given capture directory.
func NewManifestFileRepository(dir string) *ManifestFileRepository {
	return &ManifestFileRepository{dir: dir}
}

// Load reads the manifest. ok is false when no manifest exists.
func (r *ManifestFileRepository) Load(ctx context.Context) (domain.Manifest, bool, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Manifest{}, false, nil
		}
		return domain.Manifest{}, false, err
	}

	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.Manifest{}, false, err
	}
	return m, true, nil
}

// Save persists the manifest atomically (temp file, then rename).
func (r *ManifestFileRepository) Save(ctx context.Context, m domain.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(r.Path(), data, 0o644)
}

// Path returns the full path to the manifest file.
func (r *ManifestFileRepository) Path() string {
	return filepath.Join(r.dir, ManifestFileName)
}
