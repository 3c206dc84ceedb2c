package ports

import "context"

// FrameSink captures one screen image and writes it to dest.
//
// Implementations must only make dest visible once the image is completely
// written. A non-nil error means no frame exists at dest.
type FrameSink interface {
	Capture(ctx context.Context, dest string) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(ctx context.Context, dest string) error

// Capture calls f(ctx, dest).
func (f FrameSinkFunc) Capture(ctx context.Context, dest string) error {
	return f(ctx, dest)
}
