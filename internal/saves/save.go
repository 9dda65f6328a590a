// Package saves persists run checkpoints so an interrupted run can pick
// up where it left off, mid-activity included.
package saves

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SaveStatus represents the lifecycle state of a saved run.
type SaveStatus string

const (
	SaveActive    SaveStatus = "active"
	SaveCompleted SaveStatus = "completed"
	SaveCanceled  SaveStatus = "canceled"
)

// Save is the metadata for one saved run. The character snapshot lives in
// a companion character.json, per-turn records in turns.jsonl.
type Save struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Scenario  string     `json:"scenario,omitempty"`
	Turn      int        `json:"turn"`
	Status    SaveStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TurnRecord is one line of turns.jsonl: what the character was doing
// when a checkpoint was written.
type TurnRecord struct {
	Ts        time.Time `json:"ts"`
	Turn      int       `json:"turn"`
	Stamina   float64   `json:"stamina"`
	Kind      string    `json:"kind,omitempty"`
	MovesLeft int       `json:"moves_left,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// GenerateSaveID creates a unique save identifier.
func GenerateSaveID() string {
	u := uuid.New().String()
	return "save_" + strings.ReplaceAll(u[:8], "-", "")
}
