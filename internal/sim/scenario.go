package sim

import (
	"fmt"
	"os"

	"github.com/marcozac/go-jsonc"

	"github.com/dohr-michael/drudge/internal/character"
	"github.com/dohr-michael/drudge/internal/item"
)

// Scenario is a JSONC file describing a character loadout and the
// activities to run through.
type Scenario struct {
	Name       string        `json:"name"`
	Character  CharacterSpec `json:"character"`
	Activities []Request     `json:"activities"`
}

// CharacterSpec is the scenario's character loadout. Speed and Stamina
// fall back to character defaults when omitted.
type CharacterSpec struct {
	Name      string         `json:"name"`
	Speed     int            `json:"speed,omitempty"`
	Stamina   float64        `json:"stamina,omitempty"`
	Inventory map[string]int `json:"inventory"` // -1 means unlimited
}

// LoadScenario reads and validates a scenario file. JSONC comments are
// allowed, same as the config file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := jsonc.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("unmarshal scenario: %w", err)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario shape.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if sc.Character.Name == "" {
		return fmt.Errorf("scenario character name is required")
	}
	if sc.Character.Speed < 0 {
		return fmt.Errorf("character speed must not be negative")
	}
	if sc.Character.Stamina < 0 {
		return fmt.Errorf("character stamina must not be negative")
	}
	for id, n := range sc.Character.Inventory {
		if n < -1 {
			return fmt.Errorf("inventory %s: count must be >= 0, or -1 for unlimited", id)
		}
	}
	for i, req := range sc.Activities {
		if err := req.Validate(); err != nil {
			return fmt.Errorf("activity %d: %w", i, err)
		}
	}
	return nil
}

// BuildCharacter creates the character this scenario describes.
func (sc *Scenario) BuildCharacter() *character.Character {
	who := character.New(sc.Character.Name)
	if sc.Character.Speed > 0 {
		who.Speed = sc.Character.Speed
	}
	if sc.Character.Stamina > 0 {
		who.Stamina = sc.Character.Stamina
	}
	for id, n := range sc.Character.Inventory {
		if n == -1 {
			who.AddCharges(item.ID(id), item.Unbounded)
			continue
		}
		if n > 0 {
			who.AddCharges(item.ID(id), item.Charges(n))
		}
	}
	return who
}
