package storage

import (
	"sync"

	"github.com/dohr-michael/drudge/internal/events"
)

// RunStats aggregates what happened during a run.
type RunStats struct {
	RunID      string `json:"run_id"`
	Turns      int    `json:"turns"`
	MovesSpent int    `json:"moves_spent"`
	Started    int    `json:"activities_started"`
	Finished   int    `json:"activities_finished"`
	Canceled   int    `json:"activities_canceled"`
	Aborted    int    `json:"activities_aborted"`
}

// StatsTracker subscribes to sim events and accumulates per-run counters.
// The gateway serves these so a client can see how a run went without
// replaying its event log.
type StatsTracker struct {
	mu          sync.Mutex
	bus         *events.Bus
	runs        map[string]*RunStats
	unsubscribe func()
}

// NewStatsTracker creates a StatsTracker listening for turn and activity events.
func NewStatsTracker(bus *events.Bus) *StatsTracker {
	st := &StatsTracker{
		bus:  bus,
		runs: make(map[string]*RunStats),
	}
	st.unsubscribe = bus.Subscribe(st.handleEvent,
		events.EventTurnAdvanced,
		events.EventActivityStarted,
		events.EventActivityFinished,
		events.EventActivityCanceled,
		events.EventActivityAborted,
	)
	return st
}

// Close unsubscribes the tracker from the event bus.
func (st *StatsTracker) Close() {
	if st.unsubscribe != nil {
		st.unsubscribe()
	}
}

// Get returns the stats for a run, or false if the run is unknown.
func (st *StatsTracker) Get(runID string) (RunStats, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.runs[runID]
	if !ok {
		return RunStats{}, false
	}
	return *s, true
}

// All returns a snapshot of every tracked run.
func (st *StatsTracker) All() []RunStats {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]RunStats, 0, len(st.runs))
	for _, s := range st.runs {
		out = append(out, *s)
	}
	return out
}

func (st *StatsTracker) handleEvent(e events.Event) {
	if e.RunID == "" {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.runs[e.RunID]
	if !ok {
		s = &RunStats{RunID: e.RunID}
		st.runs[e.RunID] = s
	}

	switch e.Type {
	case events.EventTurnAdvanced:
		p, ok := events.GetTurnAdvancedPayload(e)
		if !ok {
			return
		}
		s.Turns = p.Turn
		s.MovesSpent += p.MovesSpent
	case events.EventActivityStarted:
		s.Started++
	case events.EventActivityFinished:
		s.Finished++
	case events.EventActivityCanceled:
		s.Canceled++
	case events.EventActivityAborted:
		s.Aborted++
	}
}
