package fs

import (
	"io"
	"os"
	"path/filepath"
)

// partialSuffix marks files that are still being written. It never matches a
// frame extension, so the sequencer cannot pick up a half-written frame.
const partialSuffix = ".part"

// WriteFileAtomic writes data to path via a temporary sibling and a rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteAtomic streams fill into a temporary sibling of path and renames it
// into place once fill and Close both succeed. The temporary file is removed
// on any failure.
func WriteAtomic(path string, perm os.FileMode, fill func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + partialSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if err := fill(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
