package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (GIFSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("out-dir", os.Getenv("GIFSHIP_OUT_DIR"), &cfg.OutDir)
	s.setString("capture-dir", os.Getenv("GIFSHIP_CAPTURE_DIR"), &cfg.CaptureDir)
	s.setString("output", os.Getenv("GIFSHIP_OUTPUT"), &cfg.OutputFile)
	s.setString("stop-file", os.Getenv("GIFSHIP_STOP_FILE"), &cfg.StopFile)
	s.setString("comment", os.Getenv("GIFSHIP_COMMENT"), &cfg.Comment)
	s.setString("backend", os.Getenv("GIFSHIP_BACKEND"), &cfg.Backend)
	s.setString("region", os.Getenv("GIFSHIP_REGION"), &cfg.Region)
	s.setString("log-level", os.Getenv("GIFSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("duration", os.Getenv("GIFSHIP_DURATION"), &cfg.Duration); err != nil {
		return err
	}
	if err := s.setDuration("portal-timeout", os.Getenv("GIFSHIP_PORTAL_TIMEOUT"), &cfg.PortalTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("fps", os.Getenv("GIFSHIP_FPS"), &cfg.FPS); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("GIFSHIP_WORKERS"), &cfg.Workers); err != nil {
		return err
	}

	s.setBoolFromString("loop", os.Getenv("GIFSHIP_LOOP"), &cfg.Loop)

	return nil
}
