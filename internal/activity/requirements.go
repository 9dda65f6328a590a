package activity

import (
	"math"

	"github.com/dohr-michael/drudge/internal/item"
)

// Consumable pools washing draws from.
const (
	WaterItem    = item.ID("water")
	CleanserItem = item.ID("detergent")
)

// Unlimited marks an unmetered component in availability results, e.g. a
// performer drawing water from a connected tap.
const Unlimited = math.MaxFloat64

// Requirements expresses fractional amounts of the washing consumables.
// Components are charges and never negative; fractions arise because
// per-unit costs rarely divide into whole charges.
type Requirements struct {
	Water    float64 `json:"water"`
	Cleanser float64 `json:"cleanser"`
}

// Add returns the component-wise sum.
func (r Requirements) Add(o Requirements) Requirements {
	return Requirements{
		Water:    r.Water + o.Water,
		Cleanser: r.Cleanser + o.Cleanser,
	}
}

// Sub returns the component-wise difference, clamped at zero.
func (r Requirements) Sub(o Requirements) Requirements {
	return Requirements{
		Water:    max(r.Water-o.Water, 0),
		Cleanser: max(r.Cleanser-o.Cleanser, 0),
	}
}

// Div returns the per-unit share when r covers n units.
func (r Requirements) Div(n int) Requirements {
	if n <= 0 {
		return Requirements{}
	}
	return Requirements{
		Water:    r.Water / float64(n),
		Cleanser: r.Cleanser / float64(n),
	}
}

// RoundUp rounds each component up to a whole number of charges.
func (r Requirements) RoundUp() Requirements {
	return Requirements{
		Water:    math.Ceil(r.Water),
		Cleanser: math.Ceil(r.Cleanser),
	}
}

// RoundDown rounds each component down to a whole number of charges.
func (r Requirements) RoundDown() Requirements {
	return Requirements{
		Water:    math.Floor(r.Water),
		Cleanser: math.Floor(r.Cleanser),
	}
}

// Meets reports whether r covers every component of need.
func (r Requirements) Meets(need Requirements) bool {
	return r.Water >= need.Water && r.Cleanser >= need.Cleanser
}

// IsZero reports whether both components are zero.
func (r Requirements) IsZero() bool {
	return r.Water == 0 && r.Cleanser == 0
}

// Valid reports whether both components are non-negative. NaN fails the
// comparison and is therefore rejected too.
func (r Requirements) Valid() bool {
	return r.Water >= 0 && r.Cleanser >= 0
}
