package activity

import (
	"encoding/json"
	"fmt"
)

// Slot drives a single activity for one character: it holds the move
// counters the activity reads and writes, and the boxed activity itself.
// The zero value is an idle slot.
type Slot struct {
	MovesTotal int
	MovesLeft  int

	box Box
}

// Set installs act and calls its Start hook. Start may clear the slot
// again (degenerate work self-terminates immediately); callers should
// check Active afterwards.
func (s *Slot) Set(act Activity, who Performer) {
	s.MovesTotal = 0
	s.MovesLeft = 0
	s.box = BoxOf(act)
	act.Start(s, who)
}

// Active reports whether an activity is installed.
func (s *Slot) Active() bool {
	return !s.box.Empty()
}

// Activity returns the installed activity, or nil when idle. Borrowed;
// callers must not retain it.
func (s *Slot) Activity() Activity {
	return s.box.Get()
}

// Advance spends up to moves from the remaining budget. The counter never
// increases and never drops below zero.
func (s *Slot) Advance(moves int) {
	if moves <= 0 || !s.Active() {
		return
	}
	s.MovesLeft -= moves
	if s.MovesLeft < 0 {
		s.MovesLeft = 0
	}
}

// DoTurn runs the activity's per-turn processing against the already
// advanced counters. No-op when idle.
func (s *Slot) DoTurn(who Performer) {
	if act := s.box.Get(); act != nil {
		act.DoTurn(s, who)
	}
}

// Done reports whether the activity has exhausted its move budget and
// still occupies the slot.
func (s *Slot) Done() bool {
	return s.Active() && s.MovesLeft <= 0
}

// Finish runs the activity's completion hook and clears the slot.
func (s *Slot) Finish(who Performer) {
	act := s.box.Get()
	if act == nil {
		return
	}
	act.Finish(s, who)
	s.Clear()
}

// Cancel runs the activity's cancellation hook and clears the slot.
func (s *Slot) Cancel(who Performer) {
	act := s.box.Get()
	if act == nil {
		return
	}
	act.Canceled(s, who)
	s.Clear()
}

// Clear empties the slot. Activities call this from DoTurn or Start to
// abort themselves; progress already applied stays applied.
func (s *Slot) Clear() {
	s.MovesTotal = 0
	s.MovesLeft = 0
	s.box = Box{}
}

// Clone returns an independent copy of the slot, deep-copying the boxed
// activity.
func (s *Slot) Clone() Slot {
	return Slot{
		MovesTotal: s.MovesTotal,
		MovesLeft:  s.MovesLeft,
		box:        s.box.Clone(),
	}
}

// Percent reports completion in [0, 100]. An idle slot reports 0.
func (s *Slot) Percent() float64 {
	if !s.Active() || s.MovesTotal <= 0 {
		return 0
	}
	return float64(s.MovesTotal-s.MovesLeft) / float64(s.MovesTotal) * 100
}

// ProgressMessage renders the active activity's progress line, or "" when
// idle.
func (s *Slot) ProgressMessage() string {
	if act := s.box.Get(); act != nil {
		return act.ProgressMessage(s)
	}
	return ""
}

type slotJSON struct {
	MovesTotal int             `json:"moves_total"`
	MovesLeft  int             `json:"moves_left"`
	Activity   json.RawMessage `json:"activity,omitempty"`
}

// MarshalJSON encodes the slot with its activity as a tagged envelope.
func (s Slot) MarshalJSON() ([]byte, error) {
	out := slotJSON{
		MovesTotal: s.MovesTotal,
		MovesLeft:  s.MovesLeft,
	}
	if !s.box.Empty() {
		data, err := s.box.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal slot activity: %w", err)
		}
		out.Activity = data
	}
	return json.Marshal(out)
}

// UnmarshalSlot decodes a slot previously produced by Slot.MarshalJSON,
// reconstructing the activity through the registry.
func (r *Registry) UnmarshalSlot(data []byte) (Slot, error) {
	var raw slotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Slot{}, fmt.Errorf("%w: slot: %v", ErrMalformedRecord, err)
	}
	if raw.MovesTotal < 0 || raw.MovesLeft < 0 || raw.MovesLeft > raw.MovesTotal {
		return Slot{}, fmt.Errorf("%w: slot counters out of range (%d/%d)", ErrMalformedRecord, raw.MovesLeft, raw.MovesTotal)
	}
	slot := Slot{
		MovesTotal: raw.MovesTotal,
		MovesLeft:  raw.MovesLeft,
	}
	if len(raw.Activity) > 0 {
		box, err := r.UnmarshalBox(raw.Activity)
		if err != nil {
			return Slot{}, err
		}
		slot.box = box
	}
	return slot, nil
}
