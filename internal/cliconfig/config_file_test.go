package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				OutDir:   "/test/out",
				FPS:      24,
				Duration: "10s",
				Loop:     &trueVal,
			},
			changed: map[string]bool{},
			expected: Config{
				OutDir:   "/test/out",
				FPS:      24,
				Duration: 10 * time.Second,
				Loop:     true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				OutDir: "/config/out",
				FPS:    24,
			},
			changed: map[string]bool{"out-dir": true},
			initial: Config{OutDir: "/flag/out", FPS: 15},
			expected: Config{
				OutDir: "/flag/out", // unchanged because flag was set
				FPS:    24,
			},
		},
		{
			name:       "zero duration selects stop-file mode",
			fileConfig: FileConfig{Duration: "0s", StopFile: "/tmp/stop"},
			changed:    map[string]bool{},
			initial:    Config{Duration: 2 * time.Second},
			expected:   Config{StopFile: "/tmp/stop"},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Duration: "invalid"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name:       "returns error for invalid portal timeout",
			fileConfig: FileConfig{PortalTimeout: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name:       "explicit false overrides",
			fileConfig: FileConfig{Loop: &falseVal},
			changed:    map[string]bool{},
			initial:    Config{Loop: true},
			expected:   Config{Loop: false},
		},
		{
			name: "handles all field types correctly",
			fileConfig: FileConfig{
				OutDir:        "/out",
				CaptureDir:    "/frames",
				OutputFile:    "/anim.gif",
				FPS:           10,
				Duration:      "1m",
				StopFile:      "/stop",
				Workers:       4,
				Loop:          &trueVal,
				Comment:       "hi",
				Backend:       "portal",
				Region:        "1,2,3,4",
				PortalTimeout: "5s",
				LogLevel:      "warn",
			},
			changed: map[string]bool{},
			expected: Config{
				OutDir:        "/out",
				CaptureDir:    "/frames",
				OutputFile:    "/anim.gif",
				FPS:           10,
				Duration:      time.Minute,
				StopFile:      "/stop",
				Workers:       4,
				Loop:          true,
				Comment:       "hi",
				Backend:       "portal",
				Region:        "1,2,3,4",
				PortalTimeout: 5 * time.Second,
				LogLevel:      "warn",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}
			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	// Create a temporary TOML file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
out_dir = "/tmp/out"
fps = 30
duration = "5s"
backend = "portal"
loop = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.OutDir != "/tmp/out" {
		t.Errorf("OutDir = %v, want /tmp/out", fc.OutDir)
	}
	if fc.FPS != 30 {
		t.Errorf("FPS = %v, want 30", fc.FPS)
	}
	if fc.Duration != "5s" {
		t.Errorf("Duration = %v, want 5s", fc.Duration)
	}
	if fc.Backend != "portal" {
		t.Errorf("Backend = %v, want portal", fc.Backend)
	}
	if fc.Loop == nil || *fc.Loop != true {
		t.Errorf("Loop = %v, want true", fc.Loop)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
fps = 15
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	// Should return a path containing .gifship
	if path != "" && !strings.Contains(path, ".gifship") {
		t.Errorf("DefaultConfigPath() = %v, should contain .gifship", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
