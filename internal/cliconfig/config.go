package cliconfig

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/gifship/internal/domain"
)

// Capture backends.
const (
	BackendScreenshot = "screenshot"
	BackendPortal     = "portal"
)

const (
	DefaultFPS           = 15
	DefaultDuration      = 2 * time.Second
	DefaultComment       = "Created by gifship"
	DefaultPortalTimeout = 10 * time.Second

	captureSubdir = "captured"
	outputName    = "out.gif"
)

// Config holds CLI configuration for gifship.
type Config struct {
	// OutDir is the base directory; CaptureDir and OutputFile derive from it.
	OutDir     string
	CaptureDir string
	OutputFile string

	FPS      int
	Duration time.Duration
	StopFile string
	Workers  int

	Loop    bool
	Comment string

	Backend       string
	Region        string
	PortalTimeout time.Duration

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		OutDir:        "", // Derived from $HOME during Validate
		FPS:           DefaultFPS,
		Duration:      DefaultDuration,
		Workers:       runtime.NumCPU(),
		Comment:       DefaultComment,
		Backend:       BackendScreenshot,
		PortalTimeout: DefaultPortalTimeout,
		LogLevel:      "info",
	}
}

// DefaultOutDir returns $HOME/Desktop/out.
func DefaultOutDir() (string, error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: out-dir is required (no home directory: %v)", domain.ErrInvalidConfig, err)
	}
	return filepath.Join(h, "Desktop", "out"), nil
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", domain.ErrInvalidConfig, c.FPS)
	}
	if c.FPS > 1000 {
		return fmt.Errorf("%w: fps must not exceed 1000, got %d", domain.ErrInvalidConfig, c.FPS)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", domain.ErrInvalidConfig)
	}
	if c.Duration == 0 && c.StopFile == "" {
		return fmt.Errorf("%w: duration or stop-file is required", domain.ErrInvalidConfig)
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	if c.OutDir == "" && (c.CaptureDir == "" || c.OutputFile == "") {
		dir, err := DefaultOutDir()
		if err != nil {
			return err
		}
		c.OutDir = dir
	}
	if c.CaptureDir == "" {
		c.CaptureDir = filepath.Join(c.OutDir, captureSubdir)
	}
	if c.OutputFile == "" {
		c.OutputFile = filepath.Join(c.OutDir, outputName)
	}

	switch c.Backend {
	case "":
		c.Backend = BackendScreenshot
	case BackendScreenshot, BackendPortal:
	default:
		return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidConfig, c.Backend)
	}

	if c.Region != "" {
		if c.Backend != BackendScreenshot {
			return fmt.Errorf("%w: region requires the %s backend", domain.ErrInvalidConfig, BackendScreenshot)
		}
		if _, err := ParseRegion(c.Region); err != nil {
			return err
		}
	}

	if c.PortalTimeout <= 0 {
		c.PortalTimeout = DefaultPortalTimeout
	}
	return nil
}

// ParseRegion parses "x,y,width,height" into a rectangle.
func ParseRegion(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("%w: region %q must be x,y,width,height", domain.ErrInvalidConfig, s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("%w: region %q: %v", domain.ErrInvalidConfig, s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: region %q has empty size", domain.ErrInvalidConfig, s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
