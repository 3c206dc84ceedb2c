package ports

import "io"

// SinkOpener opens the output stream for an encode.
// It is called at most once per encode, after the first frame was loaded.
type SinkOpener func() (io.WriteCloser, error)
