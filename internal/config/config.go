package config

import "time"

// Config is the root configuration for drudge.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Sim       SimConfig       `json:"sim"`
	Events    EventsConfig    `json:"events"`
	Journal   JournalConfig   `json:"journal"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Items     ItemsConfig     `json:"items"`
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SimConfig holds the turn loop settings.
type SimConfig struct {
	// TurnInterval paces turns in daemon mode. Zero runs the loop flat
	// out; simulation semantics never depend on it.
	TurnInterval Duration `json:"turn_interval,omitempty"`

	// AutosaveEvery writes a checkpoint every N turns. Zero disables.
	AutosaveEvery int `json:"autosave_every"`

	// MaxTurns stops a runaway run. Zero means no limit.
	MaxTurns int `json:"max_turns"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// JournalConfig holds the run journal settings.
type JournalConfig struct {
	Path     string `json:"path"` // sqlite file (default: $DRUDGE_PATH/journal.db)
	Disabled bool   `json:"disabled,omitempty"`
}

// TelemetryConfig configures trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	Endpoint string `json:"endpoint,omitempty"` // OTLP/HTTP collector, host:port
	Insecure bool   `json:"insecure,omitempty"`
}

// ItemsConfig configures item catalog loading.
type ItemsConfig struct {
	Dirs []string `json:"dirs"` // item directories (default: [$DRUDGE_PATH/items])
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
