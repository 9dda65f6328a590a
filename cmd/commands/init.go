package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/drudge/internal/config"
)

// NewInitCommand returns the onboarding subcommand.
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Initialize the drudge home directory (~/.drudge)",
		Action: runInit,
	}
}

func runInit(_ context.Context, _ *cli.Command) error {
	root := config.DrudgePath()
	created := false

	// Ensure directories exist.
	dirs := []string{
		root,
		config.SavesPath(),
		config.ScenariosPath(),
		filepath.Join(root, "items"),
		filepath.Join(root, "logs"),
	}
	for _, d := range dirs {
		if _, err := os.Stat(d); err != nil {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", d, err)
			}
			fmt.Printf("  Created %s\n", d)
			created = true
		}
	}

	// Write default config if missing.
	configPath := config.ConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("  Created %s\n", configPath)
		created = true
	}

	// Write default .env if missing.
	dotenvPath := config.DotenvPath()
	if _, err := os.Stat(dotenvPath); err != nil {
		if err := os.WriteFile(dotenvPath, []byte(defaultDotenv), 0o600); err != nil {
			return fmt.Errorf("write .env: %w", err)
		}
		fmt.Printf("  Created %s\n", dotenvPath)
		created = true
	}

	// Write the sample scenario if missing.
	samplePath := filepath.Join(config.ScenariosPath(), "laundry.jsonc")
	if _, err := os.Stat(samplePath); err != nil {
		if err := os.WriteFile(samplePath, []byte(sampleScenario), 0o644); err != nil {
			return fmt.Errorf("write sample scenario: %w", err)
		}
		fmt.Printf("  Created %s\n", samplePath)
		created = true
	}

	if !created {
		fmt.Printf("Already set up — %s is complete. Nothing to do.\n", root)
		return nil
	}

	fmt.Println(initMessage(root))
	return nil
}

const defaultConfig = `{
	// Drudge Configuration
	// Docs: https://github.com/dohr-michael/drudge

	"gateway": {
		"host": "127.0.0.1",
		"port": 18730
	},

	"sim": {
		// Wall-clock pacing between turns in daemon mode.
		"turn_interval": "250ms",
		// Checkpoint the character every N turns (0 disables).
		"autosave_every": 25,
		// Stop a runaway run after N turns (0 means no limit).
		"max_turns": 10000
	},

	"events": {
		"buffer_size": 1024
	},

	"journal": {
		// SQLite run history. Defaults to ~/.drudge/journal.db.
		// "path": "${{ .Env.DRUDGE_JOURNAL }}"
	},

	// Trace export. Leave the endpoint empty to disable.
	"telemetry": {
		// "endpoint": "127.0.0.1:4318"
	},

	"items": {
		// Extra item definition directories, merged over the built-ins.
		"dirs": []
	}
}
`

const defaultDotenv = `# Drudge environment variables
# This file is loaded automatically. Existing env vars are never overridden.

# DRUDGE_JOURNAL=/var/lib/drudge/journal.db
# OTEL_ENDPOINT=127.0.0.1:4318
`

const sampleScenario = `{
	// A morning of laundry: three soiled shirts, a couple of rags,
	// and just enough detergent.

	"name": "laundry",
	"character": {
		"name": "milo",
		"inventory": {
			"water": -1,
			"detergent": 5,
			"shirt_soiled": 3,
			"rag_soiled": 2
		}
	},
	"activities": [
		{
			"kind": "wash",
			"wash": {
				"items": [
					{ "id": "shirt_soiled", "count": 3 },
					{ "id": "rag_soiled", "count": 2 }
				]
			}
		}
	]
}
`

func initMessage(root string) string {
	return fmt.Sprintf(`
  Ready to work.

  Home set up at %s
  Config, saves, scenarios, items — all in there.

  Next steps:
    1. Look over %s/config.jsonc
    2. Try the sample: drudge run laundry
    3. Or keep a daemon going: drudge gateway
`, root, root)
}
