// Package gifstream writes animated GIF89a streams one frame at a time.
//
// The standard library's image/gif encoder needs every frame in memory
// before it writes anything. A Writer instead emits the header when the first
// frame arrives, appends frames as they are supplied, and writes the trailer
// on Close, so long captures are encoded with one frame resident at a time.
//
// # Usage
//
//	tmpl, err := gifstream.NewTemplate(first)
//	w, err := gifstream.NewWriter(out, tmpl, gifstream.Options{Delay: 6, LoopCount: 1})
//	for _, img := range frames {
//	    if err := w.WriteFrame(img); err != nil {
//	        break
//	    }
//	}
//	err = w.Close() // always, even after a failed WriteFrame
//
// # Stream layout
//
// Header, logical screen descriptor and global colour table come from the
// [Template]. A NETSCAPE2.0 application extension carries the loop count and
// an optional comment extension follows. Every frame gets the same graphic
// control extension (disposal none, no user input, no transparency).
//
// # State Machine
//
//   - Prepared -> Writing (first WriteFrame)
//   - Prepared, Writing -> Finalized (Close)
//
// Finalized is terminal.
package gifstream
