package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	OutDir        string `toml:"out_dir"`
	CaptureDir    string `toml:"capture_dir"`
	OutputFile    string `toml:"output"`
	FPS           int    `toml:"fps"`
	Duration      string `toml:"duration"`
	StopFile      string `toml:"stop_file"`
	Workers       int    `toml:"workers"`
	Loop          *bool  `toml:"loop"`
	Comment       string `toml:"comment"`
	Backend       string `toml:"backend"`
	Region        string `toml:"region"`
	PortalTimeout string `toml:"portal_timeout"`
	LogLevel      string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.gifship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".gifship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("out-dir", fc.OutDir, &cfg.OutDir)
	s.setString("capture-dir", fc.CaptureDir, &cfg.CaptureDir)
	s.setString("output", fc.OutputFile, &cfg.OutputFile)
	s.setString("stop-file", fc.StopFile, &cfg.StopFile)
	s.setString("comment", fc.Comment, &cfg.Comment)
	s.setString("backend", fc.Backend, &cfg.Backend)
	s.setString("region", fc.Region, &cfg.Region)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("duration", fc.Duration, &cfg.Duration); err != nil {
		return err
	}
	if err := s.setDuration("portal-timeout", fc.PortalTimeout, &cfg.PortalTimeout); err != nil {
		return err
	}

	s.setInt("fps", fc.FPS, &cfg.FPS)
	s.setInt("workers", fc.Workers, &cfg.Workers)

	s.setBool("loop", fc.Loop, &cfg.Loop)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
