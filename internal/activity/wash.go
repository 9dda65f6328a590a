package activity

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dohr-michael/drudge/internal/item"
)

// KindWash identifies the clothes-washing activity.
const KindWash Kind = "wash"

// WashTarget is one batch of soiled items queued for washing. Usage is the
// total requirement to wash the whole batch; the per-unit share is derived
// from it as units are processed. Becomes is the clean kind a washed unit
// turns into, resolved from the catalog when the activity is built.
type WashTarget struct {
	Item    item.ID      `json:"item"`
	Becomes item.ID      `json:"becomes"`
	Count   int          `json:"count"`
	Usage   Requirements `json:"usage"`
}

// WashAvailable reports the washing consumables the performer can draw on.
// An unbounded pool maps to Unlimited.
func WashAvailable(who Performer) Requirements {
	return Requirements{
		Water:    chargeValue(who.Charges(WaterItem)),
		Cleanser: chargeValue(who.Charges(CleanserItem)),
	}
}

func chargeValue(c item.Charges) float64 {
	if c.IsUnbounded() {
		return Unlimited
	}
	return float64(c)
}

// WashTotal sums the usage of all targets.
func WashTotal(targets []WashTarget) Requirements {
	var total Requirements
	for _, t := range targets {
		total = total.Add(t.Usage)
	}
	return total
}

// CanWash reports whether the performer's supplies cover the targets.
// Fractional totals are rounded up: consumption happens in whole charges.
func CanWash(who Performer, targets []WashTarget) bool {
	return WashAvailable(who).Meets(WashTotal(targets).RoundUp())
}

// washActivity washes batches of soiled items, converting each unit to its
// clean counterpart and consuming water and cleanser as it goes. Per-unit
// costs are fractional while consumption happens in whole charges, so the
// sub-charge remainder of each unit is carried into the next one.
type washActivity struct {
	targets    []WashTarget
	totalMoves int

	// movesPerItem is the average move cost per unit, fixed at start.
	movesPerItem float64

	// prevMovesLeft snapshots the slot counter so the next DoTurn can
	// compute how many moves elapsed.
	prevMovesLeft int

	// movesRemainder accumulates elapsed moves not yet converted into
	// washed units. Stays in [0, movesPerItem) after processing.
	movesRemainder float64

	// carryover is consumption owed from previous units, below one whole
	// charge per component. Stays in [0, 1) per component.
	carryover Requirements
}

// NewWash creates a washing activity over targets with the given total
// move budget. Targets with no units are dropped.
func NewWash(targets []WashTarget, totalMoves int) Activity {
	kept := make([]WashTarget, 0, len(targets))
	for _, t := range targets {
		if t.Count > 0 {
			kept = append(kept, t)
		}
	}
	return &washActivity{
		targets:    kept,
		totalMoves: totalMoves,
	}
}

func (w *washActivity) Kind() Kind {
	return KindWash
}

func (w *washActivity) Start(slot *Slot, who Performer) {
	count := w.unitsLeft()
	if count <= 0 {
		slog.Info("nothing to wash")
		slot.Clear()
		return
	}
	slot.MovesTotal = w.totalMoves
	slot.MovesLeft = w.totalMoves
	w.movesPerItem = float64(w.totalMoves) / float64(count)
	w.prevMovesLeft = slot.MovesLeft
}

func (w *washActivity) DoTurn(slot *Slot, who Performer) {
	elapsed := w.prevMovesLeft - slot.MovesLeft
	if elapsed < 0 {
		// The runner upholds a non-increasing counter; tolerate a
		// misbehaving one rather than corrupting the remainder.
		elapsed = 0
	}
	w.movesRemainder += float64(elapsed)

	for w.movesRemainder >= w.movesPerItem && len(w.targets) > 0 {
		if !w.washOne(who) {
			slog.Info("washing stopped, out of supplies",
				"item", w.targets[0].Item,
				"units_left", w.unitsLeft())
			slot.Clear()
			return
		}
		w.movesRemainder -= w.movesPerItem
	}

	w.prevMovesLeft = slot.MovesLeft
}

func (w *washActivity) Finish(slot *Slot, who Performer) {
	// Float rounding of movesPerItem can leave the final units a hair
	// short of a full processing cycle when the counter bottoms out.
	// Settle them here: the moves were already spent.
	for len(w.targets) > 0 {
		slog.Warn("settling residual wash units at finish",
			"item", w.targets[0].Item,
			"units_left", w.unitsLeft())
		if !w.washOne(who) {
			slog.Warn("washing finished with unwashed units, out of supplies",
				"units_left", w.unitsLeft())
			return
		}
	}
	slog.Info("washing finished")
}

func (w *washActivity) Canceled(slot *Slot, who Performer) {
	// No refunds: charges spent on washed units stay spent, only the
	// unprocessed remainder is abandoned.
	slog.Info("washing canceled", "units_left", w.unitsLeft())
}

func (w *washActivity) ProgressMessage(slot *Slot) string {
	if len(w.targets) == 0 {
		return "washing, wringing out"
	}
	return fmt.Sprintf("washing %s, %d left", w.targets[0].Item, w.unitsLeft())
}

func (w *washActivity) Exertion() Exertion {
	return ExertionModerate
}

func (w *washActivity) Clone() Activity {
	c := *w
	c.targets = make([]WashTarget, len(w.targets))
	copy(c.targets, w.targets)
	return &c
}

// washOne processes a single unit of the front target: consume its share
// of the supplies in whole charges, carry the sub-charge fraction into the
// next unit, and convert the item to its clean counterpart. On the final
// unit the outstanding fraction is settled by rounding up instead, when
// the supplies cover it, so a full run consumes the rounded-up total.
// Returns false when the performer cannot cover the cost; nothing is
// consumed in that case.
func (w *washActivity) washOne(who Performer) bool {
	t := &w.targets[0]
	perUnit := t.Usage.Div(t.Count)
	needed := perUnit.Add(w.carryover)

	consume := needed.RoundDown()
	last := len(w.targets) == 1 && t.Count == 1
	if last {
		if settled := needed.RoundUp(); WashAvailable(who).Meets(settled) {
			consume = settled
		}
	}

	if !w.deduct(who, consume) {
		return false
	}
	w.carryover = needed.Sub(consume)
	if last {
		// Any fraction not settled above is forgiven, never owed across
		// the end of the run.
		w.carryover = Requirements{}
	}

	if who.ConsumeCharges(t.Item, 1) {
		who.AddCharges(t.Becomes, 1)
	} else {
		slog.Warn("washed item missing from inventory", "item", t.Item)
	}

	t.Usage = t.Usage.Sub(perUnit)
	t.Count--
	if t.Count <= 0 {
		w.targets = w.targets[1:]
	}
	return true
}

// deduct removes whole charges for both components, touching nothing
// unless both are covered.
func (w *washActivity) deduct(who Performer, reqs Requirements) bool {
	if !WashAvailable(who).Meets(reqs) {
		return false
	}
	if !who.ConsumeCharges(WaterItem, item.Charges(reqs.Water)) {
		return false
	}
	if !who.ConsumeCharges(CleanserItem, item.Charges(reqs.Cleanser)) {
		// Unreachable after the availability check; restore to stay
		// consistent anyway.
		who.AddCharges(WaterItem, item.Charges(reqs.Water))
		return false
	}
	return true
}

func (w *washActivity) unitsLeft() int {
	count := 0
	for _, t := range w.targets {
		count += t.Count
	}
	return count
}

type washState struct {
	Targets        []WashTarget `json:"targets"`
	TotalMoves     int          `json:"total_moves"`
	MovesPerItem   float64      `json:"moves_per_item"`
	PrevMovesLeft  int          `json:"prev_moves_left"`
	MovesRemainder float64      `json:"moves_remainder"`
	Carryover      Requirements `json:"carryover"`
}

func (w *washActivity) MarshalState() (json.RawMessage, error) {
	return json.Marshal(washState{
		Targets:        w.targets,
		TotalMoves:     w.totalMoves,
		MovesPerItem:   w.movesPerItem,
		PrevMovesLeft:  w.prevMovesLeft,
		MovesRemainder: w.movesRemainder,
		Carryover:      w.carryover,
	})
}

func unmarshalWash(state json.RawMessage) (Activity, error) {
	if len(state) == 0 {
		return nil, fmt.Errorf("missing state")
	}
	var s washState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, err
	}
	if s.TotalMoves < 0 || s.MovesPerItem < 0 || s.PrevMovesLeft < 0 || s.MovesRemainder < 0 {
		return nil, fmt.Errorf("negative progress counters")
	}
	if !s.Carryover.Valid() || s.Carryover.Water >= 1 || s.Carryover.Cleanser >= 1 {
		return nil, fmt.Errorf("carryover out of range: %+v", s.Carryover)
	}
	for _, t := range s.Targets {
		if t.Count < 0 {
			return nil, fmt.Errorf("target %q: negative count", t.Item)
		}
		if !t.Usage.Valid() {
			return nil, fmt.Errorf("target %q: negative usage", t.Item)
		}
	}
	return &washActivity{
		targets:        s.Targets,
		totalMoves:     s.TotalMoves,
		movesPerItem:   s.MovesPerItem,
		prevMovesLeft:  s.PrevMovesLeft,
		movesRemainder: s.MovesRemainder,
		carryover:      s.Carryover,
	}, nil
}
