package storage

import (
	"testing"
	"time"

	"github.com/dohr-michael/drudge/internal/events"
)

func publishTurn(bus *events.Bus, runID string, turn, moves int) {
	payload := events.TurnAdvancedPayload{
		Turn:       turn,
		MovesSpent: moves,
		Stamina:    100,
	}
	bus.Publish(events.NewTypedEventWithRun(events.SourceSim, payload, runID))
}

func TestStatsTracker_Accumulation(t *testing.T) {
	bus := events.NewBus(64)
	defer bus.Close()

	st := NewStatsTracker(bus)
	defer st.Close()

	runID := "run_abc123"

	bus.Publish(events.NewTypedEventWithRun(events.SourceSim, events.ActivityStartedPayload{
		Who: "poe", Kind: "wash", MovesTotal: 30,
	}, runID))
	publishTurn(bus, runID, 1, 10)
	publishTurn(bus, runID, 2, 10)
	publishTurn(bus, runID, 3, 10)
	bus.Publish(events.NewTypedEventWithRun(events.SourceSim, events.ActivityFinishedPayload{
		Who: "poe", Kind: "wash",
	}, runID))

	time.Sleep(150 * time.Millisecond)

	got, ok := st.Get(runID)
	if !ok {
		t.Fatal("expected stats for run")
	}
	if got.Turns != 3 {
		t.Errorf("turns: got %d, want 3", got.Turns)
	}
	if got.MovesSpent != 30 {
		t.Errorf("moves: got %d, want 30", got.MovesSpent)
	}
	if got.Started != 1 || got.Finished != 1 {
		t.Errorf("started/finished: got %d/%d, want 1/1", got.Started, got.Finished)
	}
}

func TestStatsTracker_AbortCounted(t *testing.T) {
	bus := events.NewBus(64)
	defer bus.Close()

	st := NewStatsTracker(bus)
	defer st.Close()

	runID := "run_short"

	bus.Publish(events.NewTypedEventWithRun(events.SourceSim, events.ActivityAbortedPayload{
		Who: "poe", Kind: "wash", Reason: "supplies exhausted",
	}, runID))

	time.Sleep(150 * time.Millisecond)

	got, ok := st.Get(runID)
	if !ok {
		t.Fatal("expected stats for run")
	}
	if got.Aborted != 1 {
		t.Errorf("aborted: got %d, want 1", got.Aborted)
	}
	if got.Finished != 0 {
		t.Errorf("finished: got %d, want 0", got.Finished)
	}
}

func TestStatsTracker_NoRunID(t *testing.T) {
	bus := events.NewBus(64)
	defer bus.Close()

	st := NewStatsTracker(bus)
	defer st.Close()

	// Events with no run are dropped, not tracked under "".
	publishTurn(bus, "", 1, 10)

	time.Sleep(150 * time.Millisecond)

	if len(st.All()) != 0 {
		t.Errorf("expected no tracked runs, got %d", len(st.All()))
	}
}

func TestStatsTracker_SeparateRuns(t *testing.T) {
	bus := events.NewBus(64)
	defer bus.Close()

	st := NewStatsTracker(bus)
	defer st.Close()

	publishTurn(bus, "run_a", 1, 10)
	publishTurn(bus, "run_b", 1, 7)
	publishTurn(bus, "run_b", 2, 7)

	time.Sleep(150 * time.Millisecond)

	a, _ := st.Get("run_a")
	b, _ := st.Get("run_b")

	if a.MovesSpent != 10 {
		t.Errorf("run_a moves: got %d, want 10", a.MovesSpent)
	}
	if b.MovesSpent != 14 || b.Turns != 2 {
		t.Errorf("run_b: got moves %d turns %d, want 14/2", b.MovesSpent, b.Turns)
	}
	if len(st.All()) != 2 {
		t.Errorf("expected 2 tracked runs, got %d", len(st.All()))
	}
}
