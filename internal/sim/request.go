package sim

import (
	"fmt"

	"github.com/dohr-michael/drudge/internal/activity"
	"github.com/dohr-michael/drudge/internal/item"
)

// Request asks the sim to start one activity. Exactly one of the
// per-kind parameter blocks must be set, matching Kind.
type Request struct {
	Kind string      `json:"kind"`
	Wash *WashParams `json:"wash,omitempty"`
	Dig  *DigParams  `json:"dig,omitempty"`
}

// WashParams lists which soiled items to wash, by catalog ID.
type WashParams struct {
	Items []WashCount `json:"items"`
}

// WashCount is one stack of identical items to wash.
type WashCount struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// DigParams describes a pit to dig.
type DigParams struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Moves int    `json:"moves"`
	Yield string `json:"yield,omitempty"` // defaults to "earth"
	Count int    `json:"count,omitempty"` // defaults to 1
}

// Validate checks the request shape before it reaches the queue.
func (r Request) Validate() error {
	switch r.Kind {
	case string(activity.KindWash):
		if r.Wash == nil || len(r.Wash.Items) == 0 {
			return fmt.Errorf("wash request needs at least one item")
		}
		for _, it := range r.Wash.Items {
			if it.ID == "" {
				return fmt.Errorf("wash item id is required")
			}
			if it.Count <= 0 {
				return fmt.Errorf("wash item %s: count must be positive", it.ID)
			}
		}
		return nil
	case string(activity.KindDig):
		if r.Dig == nil {
			return fmt.Errorf("dig request needs dig parameters")
		}
		if r.Dig.Moves <= 0 {
			return fmt.Errorf("dig moves must be positive")
		}
		return nil
	case "":
		return fmt.Errorf("request kind is required")
	default:
		return fmt.Errorf("unknown request kind %q", r.Kind)
	}
}

// ResolveWash turns wash parameters into concrete targets using the
// catalog: per-unit costs scale by count, and the clean result comes
// from the item's wash entry. Returns the targets and total moves.
func ResolveWash(cat *item.Catalog, p *WashParams) ([]activity.WashTarget, int, error) {
	if p == nil || len(p.Items) == 0 {
		return nil, 0, fmt.Errorf("nothing to wash")
	}

	var targets []activity.WashTarget
	var moves int
	for _, it := range p.Items {
		def := cat.Get(item.ID(it.ID))
		if def == nil {
			return nil, 0, fmt.Errorf("unknown item %q", it.ID)
		}
		if def.Wash == nil {
			return nil, 0, fmt.Errorf("item %q is not washable", it.ID)
		}
		if it.Count <= 0 {
			continue
		}
		n := float64(it.Count)
		targets = append(targets, activity.WashTarget{
			Item:    def.ID,
			Becomes: def.Wash.Becomes,
			Count:   it.Count,
			Usage: activity.Requirements{
				Water:    def.Wash.Water * n,
				Cleanser: def.Wash.Cleanser * n,
			},
		})
		moves += def.Wash.Moves * it.Count
	}
	if len(targets) == 0 {
		return nil, 0, fmt.Errorf("nothing to wash")
	}
	return targets, moves, nil
}

// Build constructs the activity a request describes. The request must
// already be valid.
func Build(cat *item.Catalog, r Request) (activity.Activity, error) {
	switch r.Kind {
	case string(activity.KindWash):
		targets, moves, err := ResolveWash(cat, r.Wash)
		if err != nil {
			return nil, err
		}
		return activity.NewWash(targets, moves), nil
	case string(activity.KindDig):
		yield := item.ID(r.Dig.Yield)
		if yield == "" {
			yield = "earth"
		}
		count := r.Dig.Count
		if count <= 0 {
			count = 1
		}
		pos := activity.Position{X: r.Dig.X, Y: r.Dig.Y}
		return activity.NewDig(pos, r.Dig.Moves, yield, count), nil
	default:
		return nil, fmt.Errorf("unknown request kind %q", r.Kind)
	}
}
