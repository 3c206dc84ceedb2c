// Package domain contains the core entities and value objects for gifship.
//
// This package has no dependencies on infrastructure concerns (file system,
// screen capture, logging) and contains only the rules the pipeline relies on.
//
// # Entities
//
//   - [CaptureSession]: fps, duration or stop predicate, and frame directory
//   - [FrameHandle]: one captured frame (sequence number + artifact path)
//   - [OrderedFrameSet]: frame handles in strictly increasing sequence order
//   - [AnimationSpec]: per-frame delay and loop directive derived from a session
//   - [CaptureResult]: what the scheduler issued, captured and lost
//   - [Manifest]: sidecar description of a finished capture directory
package domain
