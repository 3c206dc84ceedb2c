// Package ports defines the interfaces that connect the capture pipeline to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [FrameSink]: captures one still image and persists it to a path
//   - [SinkOpener]: opens the binary output for the encoder
//   - [ManifestRepository]: persists the capture-directory sidecar
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with the screenshot library,
// the desktop portal, and the local file system.
package ports
