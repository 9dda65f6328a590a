package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Deserialization failures. ErrUnknownKind means the record's tag has no
// registered factory; ErrMalformedRecord means the record or its state
// could not be decoded. Both are wrapped with context.
var (
	ErrUnknownKind     = errors.New("unknown activity kind")
	ErrMalformedRecord = errors.New("malformed activity record")
)

// Factory reconstructs an activity from its serialized state.
type Factory func(state json.RawMessage) (Activity, error)

// Registry maps activity kinds to their deserialization factories. It is
// created once at startup, owned by the application context, and passed to
// whatever loads persisted activities; it is not mutated afterwards.
type Registry struct {
	factories map[Kind]Factory
}

// NewRegistry creates an empty activity registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Kind]Factory),
	}
}

// NewDefaultRegistry creates a registry with every built-in activity kind
// registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	// Built-in registrations are fixed at compile time; a failure here is
	// a programming error.
	mustRegister := func(kind Kind, factory Factory) {
		if err := r.Register(kind, factory); err != nil {
			panic(err)
		}
	}
	mustRegister(KindWash, unmarshalWash)
	mustRegister(KindDig, unmarshalDig)
	return r
}

// Register adds a factory for kind.
func (r *Registry) Register(kind Kind, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("activity kind is required")
	}
	if factory == nil {
		return fmt.Errorf("activity %q: factory is required", kind)
	}
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("activity %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Kinds returns all registered kinds sorted alphabetically.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// envelope is the self-describing on-disk shape of an activity record.
type envelope struct {
	Kind  Kind            `json:"kind"`
	State json.RawMessage `json:"state,omitempty"`
}

// MarshalActivity encodes act as a tagged envelope.
func MarshalActivity(act Activity) ([]byte, error) {
	state, err := act.MarshalState()
	if err != nil {
		return nil, fmt.Errorf("marshal %q state: %w", act.Kind(), err)
	}
	return json.Marshal(envelope{Kind: act.Kind(), State: state})
}

// Unmarshal decodes a tagged activity record. Unknown tags fail with
// ErrUnknownKind; undecodable records or state fail with
// ErrMalformedRecord. Failures are never silent.
func (r *Registry) Unmarshal(data []byte) (Activity, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind tag", ErrMalformedRecord)
	}
	factory, ok := r.factories[env.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	act, err := factory(env.State)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedRecord, env.Kind, err)
	}
	return act, nil
}

// UnmarshalBox decodes a Box envelope; JSON null yields the empty box.
func (r *Registry) UnmarshalBox(data []byte) (Box, error) {
	if len(data) == 0 || string(data) == "null" {
		return Box{}, nil
	}
	act, err := r.Unmarshal(data)
	if err != nil {
		return Box{}, err
	}
	return BoxOf(act), nil
}
