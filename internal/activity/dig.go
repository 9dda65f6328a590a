package activity

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dohr-michael/drudge/internal/item"
)

// KindDig identifies the digging activity.
const KindDig Kind = "dig"

// Position is a spot on the simulation grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// digActivity excavates a position over a fixed move budget and yields
// items on completion. Digging at the same spot for the same yield can be
// resumed after an interruption instead of starting over.
type digActivity struct {
	pos        Position
	totalMoves int
	yield      item.ID
	yieldCount int
}

// NewDig creates a digging activity at pos costing totalMoves and
// producing count units of yield when finished.
func NewDig(pos Position, totalMoves int, yield item.ID, count int) Activity {
	return &digActivity{
		pos:        pos,
		totalMoves: totalMoves,
		yield:      yield,
		yieldCount: count,
	}
}

func (d *digActivity) Kind() Kind {
	return KindDig
}

func (d *digActivity) Start(slot *Slot, who Performer) {
	if d.totalMoves <= 0 {
		slog.Info("nothing to dig", "pos", d.pos)
		slot.Clear()
		return
	}
	slot.MovesTotal = d.totalMoves
	slot.MovesLeft = d.totalMoves
}

func (d *digActivity) DoTurn(slot *Slot, who Performer) {
	// Pure countdown: the slot drains the moves, the dirt offers no
	// resistance worth modeling.
}

func (d *digActivity) Finish(slot *Slot, who Performer) {
	if d.yield != "" && d.yieldCount > 0 {
		who.AddCharges(d.yield, item.Charges(d.yieldCount))
	}
	slog.Info("digging finished",
		"pos", d.pos,
		"yield", d.yield,
		"count", d.yieldCount)
}

func (d *digActivity) Canceled(slot *Slot, who Performer) {
	slog.Info("digging interrupted", "pos", d.pos)
}

func (d *digActivity) ProgressMessage(slot *Slot) string {
	return fmt.Sprintf("digging at %s, %.0f%% done", d.pos, slot.Percent())
}

func (d *digActivity) Exertion() Exertion {
	return ExertionHeavy
}

func (d *digActivity) Clone() Activity {
	c := *d
	return &c
}

// canResumeWith resumes a dig only at the same spot for the same yield.
// The concrete assertion is safe: CanResumeWith verified the kind before
// delegating here.
func (d *digActivity) canResumeWith(other Activity, who Performer) bool {
	o := other.(*digActivity)
	return d.pos == o.pos && d.yield == o.yield && d.yieldCount == o.yieldCount
}

type digState struct {
	Pos        Position `json:"pos"`
	TotalMoves int      `json:"total_moves"`
	Yield      item.ID  `json:"yield,omitempty"`
	YieldCount int      `json:"yield_count,omitempty"`
}

func (d *digActivity) MarshalState() (json.RawMessage, error) {
	return json.Marshal(digState{
		Pos:        d.pos,
		TotalMoves: d.totalMoves,
		Yield:      d.yield,
		YieldCount: d.yieldCount,
	})
}

func unmarshalDig(state json.RawMessage) (Activity, error) {
	if len(state) == 0 {
		return nil, fmt.Errorf("missing state")
	}
	var s digState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, err
	}
	if s.TotalMoves < 0 || s.YieldCount < 0 {
		return nil, fmt.Errorf("negative counters")
	}
	return &digActivity{
		pos:        s.Pos,
		totalMoves: s.TotalMoves,
		yield:      s.Yield,
		yieldCount: s.YieldCount,
	}, nil
}
