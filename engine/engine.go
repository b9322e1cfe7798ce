// Package engine provides the dispatch orchestrator that wires together
// rule matching, condition gating, selection, settings resolution and
// handler execution into a single trigger firing.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/actions"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/conditions"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/events"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/parser"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/rules"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/save"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/logger"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// ErrHandlerPanic wraps a panic recovered from a handler.
var ErrHandlerPanic = errors.New("handler panicked")

// Options configure New.
type Options struct {
	Seed   int64
	Logger *slog.Logger
	// Evaluator decides condition strings. Defaults to a sandboxed Lua
	// evaluator over the world.
	Evaluator conditions.Evaluator
	// NoFollowUps disables dispatching handler events as follow-up triggers.
	NoFollowUps bool
}

// Engine holds the compiled rules, the handler registry and the world they
// act on.
type Engine struct {
	Rules    *rules.Set
	Registry *actions.Registry
	World    *state.World
	RNG      *RNG
	Gate     *conditions.Gate
	Logger   *slog.Logger

	followUps bool
	lua       *conditions.LuaEvaluator // owned; nil when a custom evaluator is used
	mu        sync.Mutex               // one firing at a time

	qmu     sync.Mutex // guards firing and pending
	firing  bool
	pending []queuedTrigger
}

// queuedTrigger is a trigger raised while a firing was in progress.
type queuedTrigger struct {
	tc   types.TriggerContext
	line string
}

// New creates an engine over set and world and registers the built-in
// handlers. Hosts register their own handlers on e.Registry before the
// first firing.
func New(set *rules.Set, world *state.World, opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if world == nil {
		world = state.NewWorld(nil)
	}
	if set == nil {
		set, _ = rules.Compile(nil)
	}

	e := &Engine{
		Rules:     set,
		World:     world,
		RNG:       NewRNG(opts.Seed),
		Logger:    log,
		followUps: !opts.NoFollowUps,
	}

	eval := opts.Evaluator
	if eval == nil {
		e.lua = conditions.NewLuaEvaluator(world, e.RNG)
		eval = e.lua
	}
	e.Gate = conditions.NewGate(eval, log)

	e.Registry = actions.NewRegistry(log)
	if err := actions.RegisterBuiltins(e.Registry, e.Env()); err != nil {
		e.Close()
		return nil, fmt.Errorf("register built-in actions: %w", err)
	}
	return e, nil
}

// Env returns the environment handlers run against.
func (e *Engine) Env() actions.Env {
	return actions.Env{
		World:  e.World,
		RNG:    e.RNG,
		Gate:   e.Gate,
		Logger: e.Logger,
	}
}

// Close releases the condition evaluator.
func (e *Engine) Close() {
	if e.lua != nil {
		e.lua.Close()
		e.lua = nil
	}
}

// OnTriggerRaised is the host entry point. It never panics and returns
// nothing; failures are reported through the logger.
func (e *Engine) OnTriggerRaised(name string, args []any, location, actor string, targetItem, inputItem *types.Item) {
	defer func() {
		if p := recover(); p != nil {
			e.Logger.Error("trigger dispatch panicked", "trigger", name, "panic", p)
		}
	}()
	e.Fire(types.TriggerContext{
		Trigger:    name,
		Args:       args,
		Location:   location,
		Actor:      actor,
		TargetItem: targetItem,
		InputItem:  inputItem,
	})
}

// FireLine parses a console line, records it in the world log and fires it.
func (e *Engine) FireLine(line string) (types.Report, error) {
	tc, err := parser.ParseLine(line)
	if err != nil {
		return types.Report{}, err
	}
	return e.fire(tc, line), nil
}

// Fire processes one trigger to completion and reports what happened.
//
// A trigger raised while a firing is in progress (by a handler calling back
// into the engine, or by another goroutine) is queued rather than blocking.
// The running firing dispatches it after its own work, into the same report,
// and the caller gets a report with Queued set.
func (e *Engine) Fire(tc types.TriggerContext) types.Report {
	return e.fire(tc, "")
}

func (e *Engine) fire(tc types.TriggerContext, line string) types.Report {
	if tc.Args == nil {
		tc.Args = []any{}
	}

	e.qmu.Lock()
	if e.firing {
		e.pending = append(e.pending, queuedTrigger{tc: tc, line: line})
		e.qmu.Unlock()
		e.Logger.Debug("trigger queued", "trigger", tc.Trigger)
		return types.Report{ID: uuid.NewString(), Trigger: tc.Trigger, Queued: true}
	}
	e.firing = true
	e.qmu.Unlock()

	drained := false
	defer func() {
		if !drained {
			e.qmu.Lock()
			e.firing = false
			e.pending = nil
			e.qmu.Unlock()
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	report := types.Report{ID: uuid.NewString(), Trigger: tc.Trigger}
	next := queuedTrigger{tc: tc, line: line}
	for {
		e.run(next, &report)

		e.qmu.Lock()
		if len(e.pending) == 0 {
			e.firing = false
			drained = true
			e.qmu.Unlock()
			break
		}
		next = e.pending[0]
		e.pending = e.pending[1:]
		e.qmu.Unlock()
	}

	e.Logger.Debug("trigger fired",
		"trigger", tc.Trigger,
		"report", report.ID,
		"matched", report.RulesMatched,
		"passed", report.RulesPassed,
		"executions", len(report.Executions),
		"diagnostics", len(report.Diagnostics))
	return report
}

// run dispatches one trigger and then its follow-ups. Caller holds mu.
func (e *Engine) run(q queuedTrigger, report *types.Report) {
	if q.line != "" {
		e.World.Log = append(e.World.Log, q.line)
	}
	e.World.Fired++
	start := len(report.Events)

	// 1-4. Match, gate, select and execute.
	e.dispatch(q.tc, report)

	// 5. Follow-ups from handler events (single pass, not re-dispatched).
	if e.followUps && len(report.Events) > start {
		emitted := append([]types.Event(nil), report.Events[start:]...)
		for _, fu := range events.FollowUps(emitted, q.tc) {
			e.dispatch(fu, report)
		}
	}
}

func (e *Engine) dispatch(tc types.TriggerContext, report *types.Report) {
	// 1. Matching. Unmatched triggers are silent.
	matched := e.Rules.Match(tc.Trigger)
	report.RulesMatched += len(matched)

	for _, r := range matched {
		// 2. Condition gating.
		ok, err := r.Passes(e.Gate, tc)
		if err != nil {
			e.diagnose(report, types.DiagCondition, tc, r, nil, err)
		}
		if !ok {
			continue
		}
		report.RulesPassed++

		// 3. Repeating selection.
		n := r.Repetitions(e.RNG)
		for rep := 0; rep < n; rep++ {
			report.Repetitions++
			passing, errs := r.Passing(e.Gate, tc)
			for _, err := range errs {
				var ce *rules.ConditionError
				var c *rules.Candidate
				if errors.As(err, &ce) {
					c = ce.Candidate
				}
				e.diagnose(report, types.DiagCondition, tc, r, c, err)
			}

			// 4. Executing.
			for _, c := range rules.Select(r.ActionsMode, passing, e.RNG) {
				e.execute(tc, r, c, rep, report)
			}
		}
	}
}

// execute runs one selected candidate. Every failure is reported against the
// candidate and never reaches its siblings.
func (e *Engine) execute(tc types.TriggerContext, r *rules.Rule, c *rules.Candidate, rep int, report *types.Report) {
	defer func() {
		if p := recover(); p != nil {
			e.diagnose(report, types.DiagExecution, tc, r, c, fmt.Errorf("%w: %v", ErrHandlerPanic, p))
		}
	}()

	h, err := e.Registry.Resolve(c.Action)
	if err != nil {
		e.diagnose(report, types.DiagConfig, tc, r, c, err)
		return
	}

	raw := c.Settings
	if raw == nil {
		raw = map[string]any{}
	}
	s, err := h.ParseSettings(raw)
	if err != nil {
		e.diagnose(report, types.DiagConfig, tc, r, c, err)
		return
	}

	result, err := h.Execute(s, tc)
	report.Executions = append(report.Executions, types.Execution{
		Rule:       r.Label(),
		Candidate:  c.Label(),
		Action:     c.Action,
		Repetition: rep,
		Result:     result,
	})
	report.Output = append(report.Output, result.Output...)
	report.Events = append(report.Events, result.Events...)
	if err != nil {
		e.diagnose(report, types.DiagExecution, tc, r, c, err)
		return
	}
	e.Logger.Debug("action executed",
		"trigger", tc.Trigger, "rule", r.Label(), "candidate", c.Label(),
		"action", c.Action, "changed", result.Changed)
}

// diagnose records a failure on the report and logs it. Condition failures
// are already logged once by the gate.
func (e *Engine) diagnose(report *types.Report, kind types.DiagnosticKind, tc types.TriggerContext, r *rules.Rule, c *rules.Candidate, err error) {
	d := types.Diagnostic{
		Kind:    kind,
		Trigger: tc.Trigger,
		Rule:    r.Label(),
		Err:     err,
	}
	if c != nil {
		d.Candidate = c.Label()
	}
	report.Diagnostics = append(report.Diagnostics, d)

	if kind == types.DiagCondition {
		return
	}
	logger.WithTrigger(e.Logger, d.Trigger).Error(string(kind)+" error",
		"rule", d.Rule,
		"candidate", d.Candidate,
		"error", err)
}

// Snapshot captures the world and RNG position for saving.
func (e *Engine) Snapshot() *save.SaveData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return save.Capture(e.World, e.RNG.Seed(), e.RNG.Position())
}

// Restore replaces the world state and RNG position with sd. Handlers and
// the condition evaluator keep their references to the same world and RNG.
func (e *Engine) Restore(sd *save.SaveData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := save.Apply(e.World, sd); err != nil {
		return err
	}
	e.RNG.Reset(sd.RNGSeed, sd.RNGPosition)
	return nil
}
