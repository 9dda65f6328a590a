package config

import (
	"os"
	"path/filepath"
)

// DrudgePath returns the root directory for drudge data.
// It uses $DRUDGE_PATH if set, otherwise defaults to ~/.drudge.
func DrudgePath() string {
	if v := os.Getenv("DRUDGE_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".drudge")
	}
	return filepath.Join(home, ".drudge")
}

// ConfigPath returns the path to the drudge config file.
func ConfigPath() string {
	return filepath.Join(DrudgePath(), "config.jsonc")
}

// DotenvPath returns the path to the drudge .env file.
func DotenvPath() string {
	return filepath.Join(DrudgePath(), ".env")
}

// SavesPath returns the directory holding saved runs.
func SavesPath() string {
	return filepath.Join(DrudgePath(), "saves")
}

// ScenariosPath returns the directory holding scenario files.
func ScenariosPath() string {
	return filepath.Join(DrudgePath(), "scenarios")
}

// HeartbeatPath returns the path to the daemon heartbeat file.
func HeartbeatPath() string {
	return filepath.Join(DrudgePath(), "heartbeat.json")
}
