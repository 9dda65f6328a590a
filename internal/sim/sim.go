// Package sim runs the turn loop. Each turn it grants the character
// moves, lets the current activity consume them, and starts the next
// queued request when the character goes idle. Lifecycle transitions
// go out on the event bus and into the journal.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dohr-michael/drudge/internal/activity"
	"github.com/dohr-michael/drudge/internal/character"
	"github.com/dohr-michael/drudge/internal/config"
	"github.com/dohr-michael/drudge/internal/events"
	"github.com/dohr-michael/drudge/internal/item"
	"github.com/dohr-michael/drudge/internal/journal"
	"github.com/dohr-michael/drudge/internal/saves"
)

// Options wires a Sim's dependencies. Bus, Journal and Saves are
// optional; the rest fall back to defaults when nil.
type Options struct {
	Config    *config.Config
	Character *character.Character
	Catalog   *item.Catalog
	Registry  *activity.Registry
	Bus       *events.Bus
	Journal   *journal.Journal
	Saves     *saves.FileStore
	SaveID    string
	Scenario  string
	RunID     string
	Queue     []Request

	// KeepAlive keeps the run loop alive when the queue drains, waiting
	// for submissions instead of completing. The gateway daemon sets it.
	KeepAlive bool
}

// Sim advances one character through queued activities, turn by turn.
type Sim struct {
	mu         sync.Mutex
	cfg        *config.Config
	who        *character.Character
	catalog    *item.Catalog
	registry   *activity.Registry
	bus        *events.Bus
	journal    *journal.Journal
	store      *saves.FileStore
	saveID     string
	scenario   string
	runID      string
	turn       int
	movesSpent int
	queue      []Request
	keepAlive  bool

	tracer  trace.Tracer
	runCtx  context.Context
	actSpan trace.Span
}

// New creates a Sim. Missing optional dependencies are defaulted.
func New(opts Options) *Sim {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	who := opts.Character
	if who == nil {
		who = character.New("drudge")
	}
	cat := opts.Catalog
	if cat == nil {
		cat = item.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = activity.NewDefaultRegistry()
	}
	runID := opts.RunID
	if runID == "" {
		runID = GenerateRunID()
	}

	return &Sim{
		cfg:       cfg,
		who:       who,
		catalog:   cat,
		registry:  reg,
		bus:       opts.Bus,
		journal:   opts.Journal,
		store:     opts.Saves,
		saveID:    opts.SaveID,
		scenario:  opts.Scenario,
		runID:     runID,
		queue:     append([]Request(nil), opts.Queue...),
		keepAlive: opts.KeepAlive,
		tracer:    otel.Tracer("drudge/sim"),
		runCtx:    context.Background(),
	}
}

// GenerateRunID creates a unique run identifier.
func GenerateRunID() string {
	u := uuid.New().String()
	return "run_" + strings.ReplaceAll(u[:8], "-", "")
}

// RunID returns the run identifier.
func (s *Sim) RunID() string {
	return s.runID
}

// Turn returns the current turn number.
func (s *Sim) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Kinds returns the activity kinds this sim can decode and run.
func (s *Sim) Kinds() []string {
	return s.registry.Kinds()
}

// Submit queues a request. The sim picks it up next time the character
// goes idle.
func (s *Sim) Submit(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, req)
	return nil
}

// Idle reports whether there is nothing left to do.
func (s *Sim) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.who.Busy() && len(s.queue) == 0
}

// Step advances the simulation by one turn.
func (s *Sim) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turn++

	if !s.who.Busy() && len(s.queue) > 0 {
		req := s.queue[0]
		s.queue = s.queue[1:]
		s.startLocked(req)
	}

	movesThisTurn := 0
	if s.who.Busy() {
		act := s.who.Activity.Activity()
		kind := string(act.Kind())
		cost := act.Exertion().StaminaCost()

		moves := s.who.EffectiveSpeed()
		s.who.Activity.Advance(moves)
		s.who.Activity.DoTurn(s.who)
		movesThisTurn = moves
		s.movesSpent += moves

		switch {
		case !s.who.Busy():
			// The activity bailed out mid-turn and cleared its own slot.
			s.publish(events.ActivityAbortedPayload{Who: s.who.Name, Kind: kind, Reason: "stopped early"})
			s.logActivity(kind, "aborted", "stopped early")
			s.endSpanLocked("aborted")
		case s.who.Activity.Done():
			s.who.Activity.Finish(s.who)
			s.publish(events.ActivityFinishedPayload{Who: s.who.Name, Kind: kind})
			s.logActivity(kind, "finished", "")
			s.endSpanLocked("finished")
		default:
			s.publish(events.ActivityProgressPayload{
				Who:       s.who.Name,
				Kind:      kind,
				Percent:   s.who.Activity.Percent(),
				MovesLeft: s.who.Activity.MovesLeft,
				Message:   s.who.Activity.ProgressMessage(),
			})
		}

		s.who.DrainStamina(cost)
	}

	s.publish(events.TurnAdvancedPayload{
		Turn:       s.turn,
		MovesSpent: movesThisTurn,
		Stamina:    s.who.Stamina,
	})
}

// startLocked pops one request into the activity slot. Requests that
// cannot start are dropped with an aborted event rather than wedging
// the queue.
func (s *Sim) startLocked(req Request) {
	var act activity.Activity

	switch req.Kind {
	case string(activity.KindWash):
		targets, moves, err := ResolveWash(s.catalog, req.Wash)
		if err != nil {
			s.dropLocked(req.Kind, err.Error())
			return
		}
		if !activity.CanWash(s.who, targets) {
			s.dropLocked(req.Kind, "insufficient supplies")
			return
		}
		act = activity.NewWash(targets, moves)
	default:
		built, err := Build(s.catalog, req)
		if err != nil {
			s.dropLocked(req.Kind, err.Error())
			return
		}
		act = built
	}

	kind := string(act.Kind())
	resumed := s.who.StartActivity(act)
	if !s.who.Busy() {
		// Start refused the slot (nothing to do).
		s.dropLocked(kind, "refused at start")
		return
	}

	s.startSpanLocked(kind)
	if resumed {
		slog.Info("activity resumed",
			"who", s.who.Name,
			"kind", kind,
			"moves_left", s.who.Activity.MovesLeft)
		s.publish(events.ActivityResumedPayload{
			Who:        s.who.Name,
			Kind:       kind,
			MovesLeft:  s.who.Activity.MovesLeft,
			MovesTotal: s.who.Activity.MovesTotal,
		})
		s.logActivity(kind, "resumed", fmt.Sprintf("%d moves left", s.who.Activity.MovesLeft))
	} else {
		slog.Info("activity started",
			"who", s.who.Name,
			"kind", kind,
			"moves_total", s.who.Activity.MovesTotal)
		s.publish(events.ActivityStartedPayload{
			Who:        s.who.Name,
			Kind:       kind,
			MovesTotal: s.who.Activity.MovesTotal,
		})
		s.logActivity(kind, "started", "")
	}
}

func (s *Sim) dropLocked(kind, reason string) {
	slog.Warn("dropping request", "who", s.who.Name, "kind", kind, "reason", reason)
	s.publish(events.ActivityAbortedPayload{Who: s.who.Name, Kind: kind, Reason: reason})
	s.logActivity(kind, "aborted", reason)
}

// CancelCurrent interrupts the running activity. Resumable work is
// suspended to the backlog; the rest is gone for good.
func (s *Sim) CancelCurrent(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.who.Busy() {
		return false
	}

	act := s.who.Activity.Activity()
	kind := string(act.Kind())
	suspended := activity.Suspendable(act)

	s.who.CancelActivity()

	slog.Info("activity canceled",
		"who", s.who.Name,
		"kind", kind,
		"reason", reason,
		"suspended", suspended)
	s.publish(events.ActivityCanceledPayload{Who: s.who.Name, Kind: kind, Reason: reason, Suspended: suspended})
	s.logActivity(kind, "canceled", reason)
	s.endSpanLocked("canceled")
	return true
}

// Run steps the sim until the queue drains, the turn cap is hit, or ctx
// is canceled. Pacing and autosaves follow the config. In keep-alive
// mode an idle sim waits for submissions instead of completing, and
// turns only advance while there is work.
func (s *Sim) Run(ctx context.Context) error {
	ctx, runSpan := s.tracer.Start(ctx, "sim.run", trace.WithAttributes(
		attribute.String("run.id", s.runID),
		attribute.String("run.scenario", s.scenario),
	))
	defer runSpan.End()

	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.StartRun(s.runID, s.scenario, s.who.Name); err != nil {
			slog.Warn("journal start run", "error", err)
		}
	}
	s.publish(events.RunStartedPayload{RunID: s.runID, Scenario: s.scenario, Character: s.who.Name})
	slog.Info("run started", "run_id", s.runID, "scenario", s.scenario, "character", s.who.Name)

	interval := s.cfg.Sim.TurnInterval.Duration()
	autosave := s.cfg.Sim.AutosaveEvery
	maxTurns := s.cfg.Sim.MaxTurns

	for {
		select {
		case <-ctx.Done():
			s.finishRun("canceled", ctx.Err().Error())
			return ctx.Err()
		default:
		}

		if s.keepAlive && s.Idle() {
			wait := interval
			if wait <= 0 {
				wait = 50 * time.Millisecond
			}
			select {
			case <-ctx.Done():
				s.finishRun("canceled", ctx.Err().Error())
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		s.Step()

		if autosave > 0 && s.store != nil && s.saveID != "" && s.Turn()%autosave == 0 {
			if err := s.Snapshot("autosave"); err != nil {
				slog.Warn("autosave failed", "save_id", s.saveID, "error", err)
			}
		}

		if !s.keepAlive && s.Idle() {
			s.finishRun("completed", "")
			return nil
		}

		if maxTurns > 0 && s.Turn() >= maxTurns {
			s.finishRun("canceled", "max turns reached")
			return fmt.Errorf("run stopped after %d turns", maxTurns)
		}

		if interval > 0 {
			select {
			case <-ctx.Done():
				s.finishRun("canceled", ctx.Err().Error())
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
}

func (s *Sim) finishRun(status, reason string) {
	s.mu.Lock()
	turns := s.turn
	moves := s.movesSpent
	s.endSpanLocked(status)
	s.mu.Unlock()

	if s.store != nil && s.saveID != "" {
		if err := s.Snapshot("run " + status); err != nil {
			slog.Warn("final snapshot failed", "save_id", s.saveID, "error", err)
		}
		if meta, err := s.store.Get(s.saveID); err == nil {
			if status == "completed" {
				meta.Status = saves.SaveCompleted
			} else {
				meta.Status = saves.SaveCanceled
			}
			if err := s.store.Update(meta); err != nil {
				slog.Warn("update save status", "save_id", s.saveID, "error", err)
			}
		}
	}

	if s.journal != nil {
		if err := s.journal.FinishRun(s.runID, status, turns, moves); err != nil {
			slog.Warn("journal finish run", "error", err)
		}
	}

	if status == "completed" {
		s.publish(events.RunCompletedPayload{RunID: s.runID, Turns: turns, MovesSpent: moves})
		slog.Info("run completed", "run_id", s.runID, "turns", turns, "moves_spent", moves)
	} else {
		s.publish(events.RunCanceledPayload{RunID: s.runID, Reason: reason, Turns: turns})
		slog.Info("run canceled", "run_id", s.runID, "reason", reason, "turns", turns)
	}
}

// Snapshot writes the character (current activity included) to the save
// store and appends a turn record.
func (s *Sim) Snapshot(note string) error {
	if s.store == nil || s.saveID == "" {
		return fmt.Errorf("no save store configured")
	}

	s.mu.Lock()
	clone := s.who.Clone()
	turn := s.turn
	stamina := s.who.Stamina
	kind := ""
	movesLeft := 0
	if s.who.Busy() {
		kind = string(s.who.Activity.Activity().Kind())
		movesLeft = s.who.Activity.MovesLeft
	}
	s.mu.Unlock()

	if err := s.store.WriteCharacter(s.saveID, clone); err != nil {
		return err
	}

	meta, err := s.store.Get(s.saveID)
	if err != nil {
		return err
	}
	meta.Turn = turn
	if err := s.store.Update(meta); err != nil {
		return err
	}

	rec := saves.TurnRecord{
		Ts:        time.Now(),
		Turn:      turn,
		Stamina:   stamina,
		Kind:      kind,
		MovesLeft: movesLeft,
		Note:      note,
	}
	if err := s.store.AppendTurn(s.saveID, rec); err != nil {
		return err
	}

	s.publish(events.SaveWrittenPayload{SaveID: s.saveID, Turn: turn})
	slog.Debug("snapshot written", "save_id", s.saveID, "turn", turn)
	return nil
}

// State is a point-in-time view of the sim for the gateway.
type State struct {
	RunID      string         `json:"run_id"`
	Scenario   string         `json:"scenario,omitempty"`
	Turn       int            `json:"turn"`
	MovesSpent int            `json:"moves_spent"`
	Queued     int            `json:"queued"`
	Character  CharacterState `json:"character"`
}

// CharacterState describes the character and whatever they are doing.
type CharacterState struct {
	Name      string            `json:"name"`
	Stamina   float64           `json:"stamina"`
	Speed     int               `json:"speed"`
	Busy      bool              `json:"busy"`
	Kind      string            `json:"kind,omitempty"`
	Percent   float64           `json:"percent,omitempty"`
	MovesLeft int               `json:"moves_left,omitempty"`
	Message   string            `json:"message,omitempty"`
	Backlog   int               `json:"backlog,omitempty"`
	Inventory map[string]string `json:"inventory"`
}

// State snapshots the sim.
func (s *Sim) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := make(map[string]string, len(s.who.Inventory))
	for id, n := range s.who.Inventory {
		inv[string(id)] = n.String()
	}

	cs := CharacterState{
		Name:      s.who.Name,
		Stamina:   s.who.Stamina,
		Speed:     s.who.EffectiveSpeed(),
		Busy:      s.who.Busy(),
		Backlog:   len(s.who.Backlog),
		Inventory: inv,
	}
	if s.who.Busy() {
		cs.Kind = string(s.who.Activity.Activity().Kind())
		cs.Percent = s.who.Activity.Percent()
		cs.MovesLeft = s.who.Activity.MovesLeft
		cs.Message = s.who.Activity.ProgressMessage()
	}

	return State{
		RunID:      s.runID,
		Scenario:   s.scenario,
		Turn:       s.turn,
		MovesSpent: s.movesSpent,
		Queued:     len(s.queue),
		Character:  cs,
	}
}

func (s *Sim) publish(p events.EventPayload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.NewTypedEventWithRun(events.SourceSim, p, s.runID))
}

func (s *Sim) logActivity(kind, event, detail string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.LogActivity(s.runID, s.turn, kind, event, detail); err != nil {
		slog.Warn("journal log activity", "error", err)
	}
}

func (s *Sim) startSpanLocked(kind string) {
	_, span := s.tracer.Start(s.runCtx, "activity."+kind, trace.WithAttributes(
		attribute.String("activity.kind", kind),
	))
	s.actSpan = span
}

func (s *Sim) endSpanLocked(outcome string) {
	if s.actSpan == nil {
		return
	}
	s.actSpan.SetAttributes(attribute.String("activity.outcome", outcome))
	s.actSpan.End()
	s.actSpan = nil
}
