// Package activity models long-running, interruptible work a character
// performs over discrete simulation turns: the activity contract, the slot
// that drives one activity at a time, the registry that reconstructs
// persisted activities, and the concrete activities themselves.
//
// All concrete activities live in this package so that the resumption
// check can stay behind an unexported method; see CanResumeWith.
package activity

import (
	"encoding/json"

	"github.com/dohr-michael/drudge/internal/item"
)

// Kind identifies a concrete activity type. It doubles as the tag in
// persisted activity records.
type Kind string

// Exertion grades how strenuous an activity is. The simulation turns it
// into per-turn stamina drain.
type Exertion string

const (
	ExertionNone     Exertion = "none"
	ExertionLight    Exertion = "light"
	ExertionModerate Exertion = "moderate"
	ExertionHeavy    Exertion = "heavy"
)

// StaminaCost returns the stamina drained per turn at this exertion.
func (e Exertion) StaminaCost() float64 {
	switch e {
	case ExertionLight:
		return 0.5
	case ExertionModerate:
		return 1
	case ExertionHeavy:
		return 2
	default:
		return 0
	}
}

// Performer is the side of a character an activity is allowed to touch:
// the consumable inventory. Who is performing is the runner's concern,
// not the activity's.
type Performer interface {
	Charges(id item.ID) item.Charges
	// ConsumeCharges removes n charges of id and reports whether the
	// inventory covered them. On false the inventory is untouched.
	ConsumeCharges(id item.ID, n item.Charges) bool
	AddCharges(id item.ID, n item.Charges)
}

// Activity is a unit of long-running work driven by a Slot.
//
// Start is called exactly once, when the activity is installed; it sets up
// the slot's move counters. DoTurn is called once per simulation turn after
// the turn's moves have been spent from the slot; it may terminate the
// activity early by clearing the slot (the only self-abort path). When the
// slot's counter reaches zero and the activity did not clear it, Finish is
// called exactly once; an external cancellation calls Canceled instead.
// None of the lifecycle calls return errors: degraded conditions either
// self-terminate or degrade to no-ops.
type Activity interface {
	Kind() Kind
	Start(slot *Slot, who Performer)
	DoTurn(slot *Slot, who Performer)
	Finish(slot *Slot, who Performer)
	Canceled(slot *Slot, who Performer)

	// ProgressMessage renders a short human-readable progress line.
	ProgressMessage(slot *Slot) string

	// Exertion reports how strenuous the activity is.
	Exertion() Exertion

	// Clone returns a deep copy sharing no mutable state with the
	// receiver.
	Clone() Activity

	// MarshalState serializes the activity's internal state. The registry
	// wraps it in a tagged envelope; the matching factory must restore an
	// equivalent activity from it.
	MarshalState() (json.RawMessage, error)
}

// resumable is implemented by activities that can pick up where a
// suspended instance left off. The method is unexported so every caller
// goes through CanResumeWith, which verifies the kinds match first;
// implementations may therefore assert other to their own concrete type
// without a guard.
type resumable interface {
	canResumeWith(other Activity, who Performer) bool
}

// Suspendable reports whether act opts into resumption at all. Only
// suspendable activities are worth keeping in a backlog.
func Suspendable(act Activity) bool {
	_, ok := act.(resumable)
	return ok
}

// CanResumeWith reports whether the suspended activity can be resumed in
// place of starting requested. The kind check happens here, before any
// concrete comparison; activities that do not implement resumable never
// resume.
func CanResumeWith(suspended, requested Activity, who Performer) bool {
	if suspended == nil || requested == nil {
		return false
	}
	if suspended.Kind() != requested.Kind() {
		return false
	}
	r, ok := suspended.(resumable)
	if !ok {
		return false
	}
	return r.canResumeWith(requested, who)
}
