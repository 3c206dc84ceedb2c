package app

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/gifship/internal/domain"
)

func TestSequencer_OrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	// Unpadded names sort wrongly as strings.
	for _, name := range []string{"10.png", "9.png", "1.png", "100.png", "2.png"} {
		writePNG(t, filepath.Join(dir, name), solidImage(2, 2, color.White))
	}

	frames, err := NewSequencer(nil).Order(dir, domain.FrameExtension)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	want := []uint64{1, 2, 9, 10, 100}
	got := frames.Sequences()
	if len(got) != len(want) {
		t.Fatalf("sequences = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequences = %v, want %v", got, want)
		}
	}
	if filepath.Base(frames.First().Path) != "1.png" {
		t.Errorf("first path = %s", frames.First().Path)
	}
}

func TestSequencer_SkipsUntrustedNames(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"000001.png",
		"000002.png",
		"000003.png.part",
		"session.json",
		"notes.txt",
		"frame-4.png",
		"000000.png",
		".png",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "000005.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	frames, err := NewSequencer(nil).Order(dir, domain.FrameExtension)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if frames.Len() != 2 {
		t.Errorf("found %d frames (%v), want 2", frames.Len(), frames.Sequences())
	}
}

func TestSequencer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		wantErr error
	}{
		{"empty dir", nil, domain.ErrEmptyCapture},
		{"only foreign files", []string{"a.txt", "b.jpg"}, domain.ErrEmptyCapture},
		{"duplicate sequence", []string{"7.png", "000007.png"}, domain.ErrDuplicateFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			_, err := NewSequencer(nil).Order(dir, domain.FrameExtension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Order = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSequencer_MissingDirIsEmptyCapture(t *testing.T) {
	_, err := NewSequencer(nil).Order(filepath.Join(t.TempDir(), "missing"), "")
	if !errors.Is(err, domain.ErrEmptyCapture) {
		t.Errorf("Order = %v, want ErrEmptyCapture", err)
	}
}
