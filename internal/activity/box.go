package activity

import "encoding/json"

// Box owns an Activity. The zero value is empty. Plain assignment shares
// the underlying activity; use Clone wherever two owners must not observe
// each other's mutations (snapshots, backlogs, saves).
type Box struct {
	act Activity
}

// BoxOf wraps act, taking ownership. The caller must not retain act.
func BoxOf(act Activity) Box {
	return Box{act: act}
}

// Empty reports whether the box holds no activity.
func (b Box) Empty() bool {
	return b.act == nil
}

// Get returns the boxed activity, or nil. The returned value is borrowed:
// callers must not retain it past the box's own lifetime.
func (b Box) Get() Activity {
	return b.act
}

// Clone returns a box owning a deep copy of the activity.
func (b Box) Clone() Box {
	if b.act == nil {
		return Box{}
	}
	return Box{act: b.act.Clone()}
}

// MarshalJSON encodes the boxed activity as a tagged envelope, or null
// when empty. Decoding requires a Registry; see Registry.UnmarshalBox.
func (b Box) MarshalJSON() ([]byte, error) {
	if b.act == nil {
		return []byte("null"), nil
	}
	return MarshalActivity(b.act)
}
