package saves

import (
	"testing"
	"time"

	"github.com/dohr-michael/drudge/internal/activity"
	"github.com/dohr-michael/drudge/internal/character"
	"github.com/dohr-michael/drudge/internal/item"
)

func TestFileStoreCRUD(t *testing.T) {
	store := NewFileStore(t.TempDir())

	// Create
	save := &Save{
		Name:     "laundry day",
		Scenario: "laundry",
	}
	if err := store.Create(save); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if save.ID == "" {
		t.Fatal("expected non-empty save ID")
	}
	if save.Status != SaveActive {
		t.Errorf("Status: got %q, want %q", save.Status, SaveActive)
	}

	// Get
	got, err := store.Get(save.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "laundry day" {
		t.Errorf("Name: got %q, want %q", got.Name, "laundry day")
	}

	// Update
	got.Turn = 17
	got.Status = SaveCompleted
	if err := store.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got2, err := store.Get(save.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got2.Turn != 17 || got2.Status != SaveCompleted {
		t.Errorf("after update: got turn %d status %q", got2.Turn, got2.Status)
	}

	// Delete
	if err := store.Delete(save.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(save.ID); err == nil {
		t.Fatal("expected error after delete, got nil")
	}
}

func TestFileStoreList(t *testing.T) {
	store := NewFileStore(t.TempDir())

	for _, name := range []string{"first", "second", "third"} {
		if err := store.Create(&Save{Name: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		// Small sleep to ensure distinct UpdatedAt
		time.Sleep(10 * time.Millisecond)
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List: got %d, want 3", len(all))
	}
	// Most recently updated first.
	if all[0].Name != "third" {
		t.Errorf("List[0]: got %q, want %q", all[0].Name, "third")
	}
}

func TestFileStoreCharacterRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	reg := activity.NewDefaultRegistry()

	save := &Save{Name: "mid-wash"}
	if err := store.Create(save); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A character two turns into washing a shirt.
	who := character.New("poe")
	who.AddCharges("water", item.Unbounded)
	who.AddCharges("detergent", 5)
	who.AddCharges("shirt_soiled", 1)

	targets := []activity.WashTarget{{
		Item:    "shirt_soiled",
		Becomes: "shirt",
		Count:   1,
		Usage:   activity.Requirements{Water: 2, Cleanser: 1},
	}}
	who.StartActivity(activity.NewWash(targets, 30))
	who.Activity.Advance(who.EffectiveSpeed())
	who.Activity.DoTurn(who)

	if err := store.WriteCharacter(save.ID, who); err != nil {
		t.Fatalf("WriteCharacter: %v", err)
	}

	restored, err := store.LoadCharacter(save.ID, reg)
	if err != nil {
		t.Fatalf("LoadCharacter: %v", err)
	}

	if restored.Name != "poe" {
		t.Errorf("Name: got %q, want %q", restored.Name, "poe")
	}
	if !restored.Busy() {
		t.Fatal("expected restored character to still be washing")
	}
	if restored.Activity.MovesLeft != who.Activity.MovesLeft {
		t.Errorf("MovesLeft: got %d, want %d", restored.Activity.MovesLeft, who.Activity.MovesLeft)
	}
	if restored.Charges("detergent") != who.Charges("detergent") {
		t.Errorf("detergent: got %s, want %s", restored.Charges("detergent"), who.Charges("detergent"))
	}
}

func TestFileStoreLoadCharacterMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	reg := activity.NewDefaultRegistry()

	save := &Save{Name: "empty"}
	if err := store.Create(save); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := store.LoadCharacter(save.ID, reg); err == nil {
		t.Fatal("expected error for save without character snapshot")
	}
}

func TestFileStoreTurns(t *testing.T) {
	store := NewFileStore(t.TempDir())

	save := &Save{Name: "turn-log"}
	if err := store.Create(save); err != nil {
		t.Fatalf("Create: %v", err)
	}

	recs := []TurnRecord{
		{Ts: time.Now(), Turn: 1, Stamina: 100, Kind: "wash", MovesLeft: 20},
		{Ts: time.Now(), Turn: 2, Stamina: 99, Kind: "wash", MovesLeft: 10},
	}
	for _, r := range recs {
		if err := store.AppendTurn(save.ID, r); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	got, err := store.LoadTurns(save.ID)
	if err != nil {
		t.Fatalf("LoadTurns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadTurns: got %d, want 2", len(got))
	}
	if got[0].Turn != 1 || got[1].MovesLeft != 10 {
		t.Errorf("records: got %+v", got)
	}
}

func TestFileStoreLoadTurnsEmpty(t *testing.T) {
	store := NewFileStore(t.TempDir())

	recs, err := store.LoadTurns("nonexistent")
	if err != nil {
		t.Fatalf("LoadTurns nonexistent: %v", err)
	}
	if recs != nil {
		t.Errorf("expected nil, got %v", recs)
	}
}
