package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// RUN EVENTS
// =============================================================================

type RunStartedPayload struct {
	RunID     string `json:"run_id"`
	Scenario  string `json:"scenario"`
	Character string `json:"character"`
}

func (RunStartedPayload) EventType() EventType { return EventRunStarted }

type RunCompletedPayload struct {
	RunID      string `json:"run_id"`
	Turns      int    `json:"turns"`
	MovesSpent int    `json:"moves_spent"`
}

func (RunCompletedPayload) EventType() EventType { return EventRunCompleted }

type RunCanceledPayload struct {
	RunID  string `json:"run_id"`
	Reason string `json:"reason,omitempty"`
	Turns  int    `json:"turns"`
}

func (RunCanceledPayload) EventType() EventType { return EventRunCanceled }

// =============================================================================
// TURN EVENTS
// =============================================================================

type TurnAdvancedPayload struct {
	Turn       int     `json:"turn"`
	MovesSpent int     `json:"moves_spent"`
	Stamina    float64 `json:"stamina"`
}

func (TurnAdvancedPayload) EventType() EventType { return EventTurnAdvanced }

// =============================================================================
// ACTIVITY EVENTS
// =============================================================================

type ActivityStartedPayload struct {
	Who        string `json:"who"`
	Kind       string `json:"kind"`
	MovesTotal int    `json:"moves_total"`
}

func (ActivityStartedPayload) EventType() EventType { return EventActivityStarted }

type ActivityResumedPayload struct {
	Who        string `json:"who"`
	Kind       string `json:"kind"`
	MovesLeft  int    `json:"moves_left"`
	MovesTotal int    `json:"moves_total"`
}

func (ActivityResumedPayload) EventType() EventType { return EventActivityResumed }

type ActivityProgressPayload struct {
	Who       string  `json:"who"`
	Kind      string  `json:"kind"`
	Percent   float64 `json:"percent"`
	MovesLeft int     `json:"moves_left"`
	Message   string  `json:"message,omitempty"`
}

func (ActivityProgressPayload) EventType() EventType { return EventActivityProgress }

type ActivityFinishedPayload struct {
	Who  string `json:"who"`
	Kind string `json:"kind"`
}

func (ActivityFinishedPayload) EventType() EventType { return EventActivityFinished }

type ActivityCanceledPayload struct {
	Who       string `json:"who"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason,omitempty"`
	Suspended bool   `json:"suspended"`
}

func (ActivityCanceledPayload) EventType() EventType { return EventActivityCanceled }

// ActivityAbortedPayload reports self-termination, e.g. supplies running
// out mid-wash.
type ActivityAbortedPayload struct {
	Who    string `json:"who"`
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

func (ActivityAbortedPayload) EventType() EventType { return EventActivityAborted }

// =============================================================================
// PERSISTENCE EVENTS
// =============================================================================

type SaveWrittenPayload struct {
	SaveID string `json:"save_id"`
	Turn   int    `json:"turn"`
}

func (SaveWrittenPayload) EventType() EventType { return EventSaveWritten }

type SaveLoadedPayload struct {
	SaveID string `json:"save_id"`
	Turn   int    `json:"turn"`
}

func (SaveLoadedPayload) EventType() EventType { return EventSaveLoaded }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func NewTypedEventWithRun(source EventSource, payload EventPayload, runID string) Event {
	return Event{
		ID:        generateEventID(),
		RunID:     runID,
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetTurnAdvancedPayload(e Event) (TurnAdvancedPayload, bool) {
	return ExtractPayload[TurnAdvancedPayload](e)
}

func GetActivityStartedPayload(e Event) (ActivityStartedPayload, bool) {
	return ExtractPayload[ActivityStartedPayload](e)
}

func GetActivityProgressPayload(e Event) (ActivityProgressPayload, bool) {
	return ExtractPayload[ActivityProgressPayload](e)
}

func GetActivityAbortedPayload(e Event) (ActivityAbortedPayload, bool) {
	return ExtractPayload[ActivityAbortedPayload](e)
}

func GetRunCompletedPayload(e Event) (RunCompletedPayload, bool) {
	return ExtractPayload[RunCompletedPayload](e)
}
