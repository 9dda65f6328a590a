package journal

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestInitIdempotent(t *testing.T) {
	j := openTestJournal(t)

	// A second Init must be a no-op, not a failed re-migration.
	if err := j.Init(); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	j := openTestJournal(t)

	if err := j.StartRun("run_abc", "laundry", "poe"); err != nil {
		t.Fatalf("start run: %v", err)
	}

	r, err := j.GetRun("run_abc")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if r.Status != "running" {
		t.Errorf("status: got %q, want running", r.Status)
	}
	if r.Scenario != "laundry" || r.Character != "poe" {
		t.Errorf("run fields: got %+v", r)
	}
	if r.StartedAt == "" {
		t.Error("started_at not set")
	}
	if r.FinishedAt != "" {
		t.Errorf("finished_at should be empty, got %q", r.FinishedAt)
	}

	if err := j.FinishRun("run_abc", "completed", 12, 120); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	r, err = j.GetRun("run_abc")
	if err != nil {
		t.Fatalf("get run after finish: %v", err)
	}
	if r.Status != "completed" || r.Turns != 12 || r.MovesSpent != 120 {
		t.Errorf("finished run: got %+v", r)
	}
	if r.FinishedAt == "" {
		t.Error("finished_at not set")
	}
}

func TestGetRunNotFound(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.GetRun("run_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateRunRejected(t *testing.T) {
	j := openTestJournal(t)

	if err := j.StartRun("run_dup", "laundry", "poe"); err != nil {
		t.Fatalf("start run: %v", err)
	}
	if err := j.StartRun("run_dup", "laundry", "poe"); err == nil {
		t.Fatal("expected error for duplicate run_id")
	}
}

func TestListRuns(t *testing.T) {
	j := openTestJournal(t)

	for _, id := range []string{"run_a", "run_b", "run_c"} {
		if err := j.StartRun(id, "laundry", "poe"); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
	}

	all, err := j.ListRuns(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list: got %d, want 3", len(all))
	}

	limited, err := j.ListRuns(2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("list limited: got %d, want 2", len(limited))
	}
}

func TestActivityLog(t *testing.T) {
	j := openTestJournal(t)

	if err := j.StartRun("run_log", "laundry", "poe"); err != nil {
		t.Fatalf("start run: %v", err)
	}

	entries := []struct {
		turn   int
		kind   string
		event  string
		detail string
	}{
		{1, "wash", "started", "3 items"},
		{4, "wash", "finished", ""},
		{5, "dig", "started", "pit at 2,3"},
	}
	for _, e := range entries {
		if err := j.LogActivity("run_log", e.turn, e.kind, e.event, e.detail); err != nil {
			t.Fatalf("log activity: %v", err)
		}
	}

	log, err := j.ActivityLog("run_log")
	if err != nil {
		t.Fatalf("activity log: %v", err)
	}
	if len(log) != 3 {
		t.Fatalf("activity log: got %d entries, want 3", len(log))
	}
	// Insertion order preserved.
	if log[0].Event != "started" || log[0].Kind != "wash" || log[0].Turn != 1 {
		t.Errorf("entry 0: got %+v", log[0])
	}
	if log[2].Kind != "dig" || log[2].Detail != "pit at 2,3" {
		t.Errorf("entry 2: got %+v", log[2])
	}
	if log[0].RecordedAt == "" {
		t.Error("recorded_at not set")
	}
}

func TestActivityLogEmptyRun(t *testing.T) {
	j := openTestJournal(t)

	log, err := j.ActivityLog("run_none")
	if err != nil {
		t.Fatalf("activity log: %v", err)
	}
	if len(log) != 0 {
		t.Errorf("expected empty log, got %d entries", len(log))
	}
}
