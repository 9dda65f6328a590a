package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv(t *testing.T) {
	content := `# Telemetry config
OTEL_ENDPOINT=localhost:4318
OTEL_INSECURE=true

# Quoted values
DRUDGE_SCENARIO="laundry day"
DRUDGE_SAVE='morning'

# Spaces around =
DRUDGE_TURNS = 500
`

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Clear any existing values.
	for _, k := range []string{"OTEL_ENDPOINT", "OTEL_INSECURE", "DRUDGE_SCENARIO", "DRUDGE_SAVE", "DRUDGE_TURNS"} {
		os.Unsetenv(k)
	}

	if err := LoadDotenv(path); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key, want string
	}{
		{"OTEL_ENDPOINT", "localhost:4318"},
		{"OTEL_INSECURE", "true"},
		{"DRUDGE_SCENARIO", "laundry day"},
		{"DRUDGE_SAVE", "morning"},
		{"DRUDGE_TURNS", "500"},
	}

	for _, tt := range tests {
		got := os.Getenv(tt.key)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLoadDotenvNoOverride(t *testing.T) {
	content := `DRUDGE_EXISTING=new-value`
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DRUDGE_EXISTING", "original")

	if err := LoadDotenv(path); err != nil {
		t.Fatal(err)
	}

	if got := os.Getenv("DRUDGE_EXISTING"); got != "original" {
		t.Errorf("expected existing var to be preserved, got %q", got)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	err := LoadDotenv("/nonexistent/.env")
	if err != nil {
		t.Errorf("missing file should be silently ignored, got: %v", err)
	}
}
