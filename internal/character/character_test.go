package character

import (
	"encoding/json"
	"testing"

	"github.com/dohr-michael/drudge/internal/activity"
	"github.com/dohr-michael/drudge/internal/item"
)

func TestCharacter_ChargeAccounting(t *testing.T) {
	c := New("ann")
	c.AddCharges("water", 5)

	if !c.ConsumeCharges("water", 3) {
		t.Fatal("consume within supply should succeed")
	}
	if got := c.Charges("water"); got != 2 {
		t.Errorf("water = %d, want 2", got)
	}
	if c.ConsumeCharges("water", 3) {
		t.Error("consume beyond supply should fail")
	}
	if got := c.Charges("water"); got != 2 {
		t.Error("failed consume must not mutate inventory")
	}

	c.AddCharges("water", item.Unbounded)
	if !c.ConsumeCharges("water", 1000) {
		t.Error("unbounded supply covers anything")
	}
	if !c.Charges("water").IsUnbounded() {
		t.Error("unbounded supply must not deplete")
	}
}

func TestCharacter_BacklogResumption(t *testing.T) {
	c := New("ann")

	resumed := c.StartActivity(activity.NewDig(activity.Position{X: 2, Y: 3}, 100, "earth", 4))
	if resumed {
		t.Fatal("first start cannot resume")
	}
	// Work part of it, then get interrupted.
	c.Activity.Advance(40)
	c.Activity.DoTurn(c)
	c.CancelActivity()

	if c.Busy() {
		t.Fatal("cancel should idle the character")
	}
	if len(c.Backlog) != 1 {
		t.Fatalf("suspendable dig should be backlogged, backlog = %d", len(c.Backlog))
	}

	// An unrelated dig starts fresh and leaves the backlog alone.
	if c.StartActivity(activity.NewDig(activity.Position{X: 9, Y: 9}, 100, "earth", 4)) {
		t.Error("different position must not resume")
	}
	if len(c.Backlog) != 1 {
		t.Errorf("backlog should be untouched, got %d", len(c.Backlog))
	}
	c.CancelActivity()
	if len(c.Backlog) != 2 {
		t.Fatalf("second suspended dig should be backlogged, got %d", len(c.Backlog))
	}

	// Requesting the original dig again resumes its progress.
	if !c.StartActivity(activity.NewDig(activity.Position{X: 2, Y: 3}, 100, "earth", 4)) {
		t.Fatal("equivalent dig should resume from backlog")
	}
	if c.Activity.MovesLeft != 60 {
		t.Errorf("resumed with %d moves left, want 60", c.Activity.MovesLeft)
	}
	if len(c.Backlog) != 1 {
		t.Errorf("resumed slot should leave the backlog, got %d", len(c.Backlog))
	}
}

func TestCharacter_WashIsNotBacklogged(t *testing.T) {
	c := New("ann")
	c.AddCharges("water", 10)
	c.AddCharges("rag_soiled", 2)

	c.StartActivity(activity.NewWash([]activity.WashTarget{
		{Item: "rag_soiled", Becomes: "rag", Count: 2, Usage: activity.Requirements{Water: 2}},
	}, 20))
	c.CancelActivity()

	if len(c.Backlog) != 0 {
		t.Errorf("wash does not opt into resumption, backlog = %d", len(c.Backlog))
	}
}

func TestCharacter_JSONRoundTrip(t *testing.T) {
	reg := activity.NewDefaultRegistry()

	c := New("ann")
	c.AddCharges("water", 20)
	c.AddCharges("detergent", 3)
	c.AddCharges("shirt_soiled", 3)

	// A suspended dig in the backlog and a wash in progress.
	c.StartActivity(activity.NewDig(activity.Position{X: 1, Y: 1}, 80, "earth", 2))
	c.Activity.Advance(30)
	c.CancelActivity()
	c.StartActivity(activity.NewWash([]activity.WashTarget{
		{Item: "shirt_soiled", Becomes: "shirt", Count: 3, Usage: activity.Requirements{Water: 6, Cleanser: 3}},
	}, 30))
	c.Activity.Advance(10)
	c.Activity.DoTurn(c)

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored, err := Decode(data, reg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.Name != "ann" || restored.Speed != c.Speed {
		t.Errorf("identity drifted: %+v", restored)
	}
	if got := restored.Charges("shirt"); got != c.Charges("shirt") {
		t.Errorf("inventory drifted: %d != %d", got, c.Charges("shirt"))
	}
	if !restored.Busy() {
		t.Fatal("restored character should still be washing")
	}
	if restored.Activity.Activity().Kind() != activity.KindWash {
		t.Errorf("active kind = %s", restored.Activity.Activity().Kind())
	}
	if restored.Activity.MovesLeft != c.Activity.MovesLeft {
		t.Errorf("progress drifted: %d != %d", restored.Activity.MovesLeft, c.Activity.MovesLeft)
	}
	if len(restored.Backlog) != 1 {
		t.Fatalf("backlog lost: %d", len(restored.Backlog))
	}
	if restored.Backlog[0].MovesLeft != 50 {
		t.Errorf("backlog progress = %d, want 50", restored.Backlog[0].MovesLeft)
	}

	// The restored backlog must still satisfy the resumption check.
	if !restored.StartActivity(activity.NewDig(activity.Position{X: 1, Y: 1}, 80, "earth", 2)) {
		t.Error("restored backlog entry should resume")
	}
}

func TestCharacter_DecodeRejectsUnknownActivity(t *testing.T) {
	reg := activity.NewDefaultRegistry()
	data := []byte(`{"name":"ann","speed":10,"inventory":{},"activity":{"moves_total":10,"moves_left":5,"activity":{"kind":"knit","state":{}}}}`)
	if _, err := Decode(data, reg); err == nil {
		t.Fatal("unknown activity kind must fail the decode")
	}
}

func TestCharacter_EffectiveSpeed(t *testing.T) {
	c := New("ann")
	c.Speed = 10
	if c.EffectiveSpeed() != 10 {
		t.Error("rested character works at full speed")
	}
	c.DrainStamina(DefaultStamina + 5)
	if c.Stamina != 0 {
		t.Errorf("stamina should clamp at 0, got %f", c.Stamina)
	}
	if c.EffectiveSpeed() != 5 {
		t.Errorf("winded speed = %d, want 5", c.EffectiveSpeed())
	}
}

func TestCharacter_CloneIndependence(t *testing.T) {
	c := New("ann")
	c.AddCharges("water", 4)
	c.StartActivity(activity.NewDig(activity.Position{X: 0, Y: 0}, 50, "earth", 1))

	snap := c.Clone()
	c.ConsumeCharges("water", 4)
	c.Activity.Advance(50)

	if snap.Charges("water") != 4 {
		t.Error("clone inventory mutated by original")
	}
	if snap.Activity.MovesLeft != 50 {
		t.Error("clone slot mutated by original")
	}
}
