package ports

import (
	"context"

	"github.com/bft-labs/gifship/internal/domain"
)

// ManifestRepository persists the sidecar describing a capture directory.
type ManifestRepository interface {
	// Load returns the manifest, or ok=false if none was written.
	Load(ctx context.Context) (domain.Manifest, bool, error)

	// Save writes the manifest atomically.
	Save(ctx context.Context, m domain.Manifest) error
}
