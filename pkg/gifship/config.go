package gifship

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/bft-labs/gifship/internal/domain"
)

// Capture backends.
const (
	BackendScreenshot = "screenshot"
	BackendPortal     = "portal"
)

// Defaults applied by SetDefaults.
const (
	DefaultFPS           = 15
	DefaultPortalTimeout = 10 * time.Second
)

// Config configures a Gifship instance.
type Config struct {
	// CaptureDir receives one PNG per frame plus the session manifest.
	// Frames left there by an earlier recording are removed on Record.
	CaptureDir string

	// OutputFile is the GIF to write.
	OutputFile string

	FPS      int
	Duration time.Duration

	// StopFile ends the recording when a file appears at this path.
	StopFile string

	// Workers bounds concurrent captures. Zero means runtime.NumCPU().
	Workers int

	// Loop makes the animation repeat forever; otherwise it plays once.
	Loop bool

	// Comment is embedded in the GIF when non-empty.
	Comment string

	Backend       string
	Region        image.Rectangle
	PortalTimeout time.Duration
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Backend == "" {
		c.Backend = BackendScreenshot
	}
	if c.PortalTimeout <= 0 {
		c.PortalTimeout = DefaultPortalTimeout
	}
	if c.CaptureDir == "" || c.OutputFile == "" {
		base := "out"
		if h, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(h, "Desktop", "out")
		}
		if c.CaptureDir == "" {
			c.CaptureDir = filepath.Join(base, "captured")
		}
		if c.OutputFile == "" {
			c.OutputFile = filepath.Join(base, "out.gif")
		}
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.FPS <= 0 || c.FPS > 1000 {
		return fmt.Errorf("%w: fps must be in 1..1000, got %d", domain.ErrInvalidConfig, c.FPS)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: negative duration", domain.ErrInvalidConfig)
	}
	if c.CaptureDir == "" || c.OutputFile == "" {
		return fmt.Errorf("%w: capture dir and output file are required", domain.ErrInvalidConfig)
	}
	switch c.Backend {
	case BackendScreenshot:
	case BackendPortal:
		if !c.Region.Empty() {
			return fmt.Errorf("%w: region is not supported by the portal backend", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidConfig, c.Backend)
	}
	return nil
}
