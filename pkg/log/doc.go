// Package log provides the structured logging abstraction used by gifship.
//
// The capture scheduler, sequencer and encoder only depend on the Logger
// interface. A zerolog-backed implementation is provided for the CLI and a
// no-op implementation for tests and for library users that do not pass one.
//
// # Usage
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	logger.Info("capture finished", log.Int("frames", 30))
//
// Session-scoped loggers carry fields on every line:
//
//	sessionLog := logger.With(log.String("session", id))
package log
