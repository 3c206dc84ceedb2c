package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterWithLogger(zerolog.New(&buf))

	logger.Info("frame captured",
		Uint64("seq", 7),
		String("path", "/tmp/000007.png"),
		Duration("took", 5*time.Millisecond),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{`"seq":7`, `"path":"/tmp/000007.png"`, `"error":"boom"`, `"message":"frame captured"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestZerologAdapter_WithCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewZerologAdapterWithLogger(zerolog.New(&buf))

	scoped := base.With(String("session", "abc"), Int("fps", 15))
	scoped.Warn("slow capture")

	out := buf.String()
	if !strings.Contains(out, `"session":"abc"`) || !strings.Contains(out, `"fps":15`) {
		t.Fatalf("scoped fields missing from %q", out)
	}
}

func TestZerologAdapter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug message written at info level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
