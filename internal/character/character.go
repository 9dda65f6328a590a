// Package character models the simulated person performing activities: a
// consumable inventory, stamina, and the activity slot plus backlog of
// suspended work.
package character

import (
	"encoding/json"
	"fmt"

	"github.com/dohr-michael/drudge/internal/activity"
	"github.com/dohr-michael/drudge/internal/item"
)

// Defaults for a fresh character.
const (
	DefaultSpeed   = 10
	DefaultStamina = 100.0
)

// Character owns an inventory of consumable charges and performs at most
// one activity at a time. Suspended activities wait in the backlog and can
// be resumed instead of restarting equivalent work.
type Character struct {
	Name      string                   `json:"name"`
	Speed     int                      `json:"speed"`
	Stamina   float64                  `json:"stamina"`
	Inventory map[item.ID]item.Charges `json:"inventory"`
	Activity  activity.Slot            `json:"activity"`
	Backlog   []activity.Slot          `json:"backlog,omitempty"`
}

// New creates a character with default speed and stamina and an empty
// inventory.
func New(name string) *Character {
	return &Character{
		Name:      name,
		Speed:     DefaultSpeed,
		Stamina:   DefaultStamina,
		Inventory: make(map[item.ID]item.Charges),
	}
}

// Charges reports how many charges of id the character holds.
func (c *Character) Charges(id item.ID) item.Charges {
	return c.Inventory[id]
}

// ConsumeCharges removes n charges of id, reporting whether the inventory
// covered them. On false nothing is removed.
func (c *Character) ConsumeCharges(id item.ID, n item.Charges) bool {
	left, ok := c.Inventory[id].Consume(n)
	if !ok {
		return false
	}
	c.Inventory[id] = left
	return true
}

// AddCharges grants n charges of id.
func (c *Character) AddCharges(id item.ID, n item.Charges) {
	if n <= 0 {
		return
	}
	c.Inventory[id] = c.Inventory[id].Add(n)
}

// Busy reports whether an activity is in progress.
func (c *Character) Busy() bool {
	return c.Activity.Active()
}

// StartActivity installs act, resuming a suspended equivalent from the
// backlog when one exists. Returns true when an earlier activity was
// resumed instead of starting fresh.
func (c *Character) StartActivity(act activity.Activity) bool {
	for i := range c.Backlog {
		if activity.CanResumeWith(c.Backlog[i].Activity(), act, c) {
			c.Activity = c.Backlog[i]
			c.Backlog = append(c.Backlog[:i], c.Backlog[i+1:]...)
			return true
		}
	}
	c.Activity.Set(act, c)
	return false
}

// CancelActivity stops the current activity, running its cancellation
// hook. Suspendable activities keep their progress in the backlog so an
// equivalent request can pick them back up.
func (c *Character) CancelActivity() {
	if !c.Activity.Active() {
		return
	}
	if activity.Suspendable(c.Activity.Activity()) {
		c.Backlog = append([]activity.Slot{c.Activity.Clone()}, c.Backlog...)
	}
	c.Activity.Cancel(c)
}

// DrainStamina spends stamina, clamped at zero.
func (c *Character) DrainStamina(amount float64) {
	c.Stamina -= amount
	if c.Stamina < 0 {
		c.Stamina = 0
	}
}

// EffectiveSpeed is the move budget per turn: winded characters work at
// half pace.
func (c *Character) EffectiveSpeed() int {
	if c.Stamina > 0 {
		return c.Speed
	}
	half := c.Speed / 2
	if half < 1 {
		half = 1
	}
	return half
}

// Clone returns an independent deep copy, including the activity slot and
// backlog.
func (c *Character) Clone() *Character {
	out := &Character{
		Name:      c.Name,
		Speed:     c.Speed,
		Stamina:   c.Stamina,
		Inventory: make(map[item.ID]item.Charges, len(c.Inventory)),
		Activity:  c.Activity.Clone(),
	}
	for id, charges := range c.Inventory {
		out.Inventory[id] = charges
	}
	if len(c.Backlog) > 0 {
		out.Backlog = make([]activity.Slot, len(c.Backlog))
		for i := range c.Backlog {
			out.Backlog[i] = c.Backlog[i].Clone()
		}
	}
	return out
}

// characterJSON mirrors Character for decoding: activity records need the
// registry, so they stay raw until Decode resolves them.
type characterJSON struct {
	Name      string                   `json:"name"`
	Speed     int                      `json:"speed"`
	Stamina   float64                  `json:"stamina"`
	Inventory map[item.ID]item.Charges `json:"inventory"`
	Activity  json.RawMessage          `json:"activity,omitempty"`
	Backlog   []json.RawMessage        `json:"backlog,omitempty"`
}

// Decode reconstructs a character from JSON, resolving persisted
// activities through the registry. Unknown or malformed activity records
// fail the whole decode.
func Decode(data []byte, reg *activity.Registry) (*Character, error) {
	var raw characterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode character: %w", err)
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("decode character: name is required")
	}

	c := &Character{
		Name:      raw.Name,
		Speed:     raw.Speed,
		Stamina:   raw.Stamina,
		Inventory: raw.Inventory,
	}
	if c.Speed <= 0 {
		c.Speed = DefaultSpeed
	}
	if c.Inventory == nil {
		c.Inventory = make(map[item.ID]item.Charges)
	}

	if len(raw.Activity) > 0 {
		slot, err := reg.UnmarshalSlot(raw.Activity)
		if err != nil {
			return nil, fmt.Errorf("decode character %q activity: %w", raw.Name, err)
		}
		c.Activity = slot
	}
	for i, data := range raw.Backlog {
		slot, err := reg.UnmarshalSlot(data)
		if err != nil {
			return nil, fmt.Errorf("decode character %q backlog[%d]: %w", raw.Name, i, err)
		}
		c.Backlog = append(c.Backlog, slot)
	}
	return c, nil
}
