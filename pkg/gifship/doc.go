// Package gifship records the screen into an animated GIF and can be used
// as a library as well as through the gifship command.
//
// # Basic Usage
//
//	cfg := gifship.Config{
//	    CaptureDir: "/tmp/out/captured",
//	    OutputFile: "/tmp/out/out.gif",
//	    FPS:        15,
//	    Duration:   2 * time.Second,
//	}
//
//	rec, err := gifship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := rec.Record(ctx)
//
// Record runs three phases in order. Capturing ticks at 1000/FPS
// milliseconds and hands every tick to a [FrameSink] on a bounded pool of
// workers; a failed capture is recorded and skipped. Sequencing orders the
// frames in the capture directory by their sequence number. Encoding writes
// them into one GIF whose frame delay is the tick interval.
//
// Cancelling ctx stops ticking. Frames already being captured are still
// written and the encode still runs, so an interrupted recording produces
// a shorter animation instead of none.
//
// # Stopping
//
// A recording ends when Duration elapses, when the file at Config.StopFile
// appears, or when the predicate passed with [WithStop] returns false,
// whichever happens first. At least one of them must be configured.
//
// # Capture Backends
//
// The default [BackendScreenshot] grabs the screen directly and supports a
// capture region. [BackendPortal] asks xdg-desktop-portal for every frame,
// which works on Wayland sessions. [WithFrameSink] replaces both.
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to observe
// phase changes and per-frame capture results. Frame events arrive from
// worker goroutines concurrently.
//
// # Encoding Existing Frames
//
// [Gifship.Encode] skips capture and encodes a directory written by an
// earlier recording. The session.json manifest in that directory supplies
// the frame delay and the list of frames known to be missing.
package gifship
