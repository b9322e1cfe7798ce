package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/save"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// DefaultSlot is used by /save and /load when no slot is named.
const DefaultSlot = "quicksave"

// Response is what one console line produced.
type Response struct {
	Output      []string // handler output
	System      []string // meta-command output
	Diagnostics []string
	Trace       []string
	Report      *types.Report // nil for meta-commands
	Quit        bool
}

// Lines flattens the response in display order. System lines are bracketed.
func (r Response) Lines() []string {
	var out []string
	out = append(out, r.Output...)
	for _, l := range r.System {
		out = append(out, "["+l+"]")
	}
	out = append(out, r.Diagnostics...)
	out = append(out, r.Trace...)
	return out
}

// Session holds the console state shared by the line console and the TUI:
// the engine, the save store and the last trigger line for "again".
type Session struct {
	Engine *engine.Engine
	Store  save.Store
	Title  string
	Trace  bool

	lastLine string
}

// NewSession creates a session over eng. store may be nil, which disables
// /save and /load.
func NewSession(eng *engine.Engine, store save.Store) *Session {
	return &Session{Engine: eng, Store: store, Title: eng.World.Defs.Title}
}

// Exec runs one console line: a meta-command starting with '/', "again" (or
// "g") to repeat the last trigger, or a trigger line.
func (s *Session) Exec(ctx context.Context, input string) Response {
	input = strings.TrimSpace(input)
	if input == "" {
		return Response{}
	}
	if strings.HasPrefix(input, "/") {
		return s.meta(ctx, input)
	}

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if s.lastLine == "" {
			return Response{System: []string{"Nothing to repeat."}}
		}
		input = s.lastLine
	}

	report, err := s.Engine.FireLine(input)
	if err != nil {
		return Response{System: []string{fmt.Sprintf("Cannot fire %q: %v", input, err)}}
	}
	s.lastLine = input

	resp := Response{Output: report.Output, Report: &report}
	for _, d := range report.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, "[error] "+d.String())
	}
	if s.Trace {
		resp.Trace = FormatTrace(report)
	}
	if len(resp.Output) == 0 && len(resp.Diagnostics) == 0 && report.RulesMatched == 0 {
		resp.System = append(resp.System, fmt.Sprintf("No rule matches %s.", report.Trigger))
	}
	return resp
}

func (s *Session) meta(ctx context.Context, input string) Response {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return Response{System: []string{"Goodbye."}, Quit: true}
	case "/save":
		return Response{System: s.cmdSave(ctx, arg)}
	case "/load":
		return Response{System: s.cmdLoad(ctx, arg)}
	case "/saves":
		return Response{System: s.cmdSaves(ctx)}
	case "/help":
		return Response{Output: HelpLines()}
	case "/state":
		return Response{Output: StateLines(s.Engine)}
	case "/rules":
		return Response{Output: RuleLines(s.Engine)}
	case "/trace":
		s.Trace = !s.Trace
		if s.Trace {
			return Response{System: []string{"Trace output enabled."}}
		}
		return Response{System: []string{"Trace output disabled."}}
	default:
		return Response{System: []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}}
	}
}

func (s *Session) cmdSave(ctx context.Context, slot string) []string {
	if s.Store == nil {
		return []string{"Saving is not configured."}
	}
	if slot == "" {
		slot = DefaultSlot
	}

	data, err := save.Save(s.Engine.Snapshot())
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := s.Store.Put(ctx, slot, data); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Saved to %s.", slot)}
}

func (s *Session) cmdLoad(ctx context.Context, slot string) []string {
	if s.Store == nil {
		return []string{"Saving is not configured."}
	}
	if slot == "" {
		slot = DefaultSlot
	}

	data, err := s.Store.Get(ctx, slot)
	if errors.Is(err, save.ErrNotFound) {
		return []string{fmt.Sprintf("No save named %s.", slot)}
	}
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	sd, err := save.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	if err := s.Engine.Restore(sd); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	return []string{fmt.Sprintf("Loaded %s (%d triggers fired).", slot, sd.Fired)}
}

func (s *Session) cmdSaves(ctx context.Context) []string {
	if s.Store == nil {
		return []string{"Saving is not configured."}
	}
	slots, err := s.Store.List(ctx)
	if err != nil {
		return []string{fmt.Sprintf("Listing saves failed: %v", err)}
	}
	if len(slots) == 0 {
		return []string{"No saves."}
	}
	return []string{"Saves: " + strings.Join(slots, ", ")}
}

// HelpLines describes the console commands.
func HelpLines() []string {
	return []string{
		"Triggers:",
		"  <trigger> [args...] [@Location] [actor=Name] [item=Id[:stack]] [input=Id[:stack]]",
		"  e.g. dayStarted @Farm actor=Player item=(O)388",
		"  again (g)       Fire the last trigger line again",
		"",
		"System:",
		"  /save [slot]    Save world and random state (default: quicksave)",
		"  /load [slot]    Load a save (default: quicksave)",
		"  /saves          List saves",
		"  /state          Show flags, counters and placed objects",
		"  /rules          List loaded rules",
		"  /trace          Toggle dispatch trace output",
		"  /help           Show this help",
		"  /quit           Exit",
	}
}

// StateLines dumps the world for /state.
func StateLines(eng *engine.Engine) []string {
	w := eng.World
	lines := []string{
		fmt.Sprintf("Fired: %d", w.Fired),
		fmt.Sprintf("Seed: %d (position %d)", eng.RNG.Seed(), eng.RNG.Position()),
	}
	if len(w.Flags) > 0 {
		lines = append(lines, "Flags: "+sortedPairs(w.Flags))
	}
	if len(w.Counters) > 0 {
		lines = append(lines, "Counters: "+sortedPairs(w.Counters))
	}
	for _, id := range w.LocationIDs() {
		objs := w.ObjectsIn(id)
		if len(objs) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d object(s)", id, len(objs)))
		for _, o := range objs {
			lines = append(lines, fmt.Sprintf("  %s x%d at %s", o.ItemID, o.Stack, o.Tile))
		}
	}
	return lines
}

// RuleLines lists the loaded rules for /rules.
func RuleLines(eng *engine.Engine) []string {
	rs := eng.Rules.Rules()
	if len(rs) == 0 {
		return []string{"No rules loaded."}
	}
	lines := make([]string, 0, len(rs))
	for i := range rs {
		r := &rs[i]
		actions := make([]string, len(r.Candidates))
		for j, c := range r.Candidates {
			actions[j] = c.Action
		}
		lines = append(lines, fmt.Sprintf("%s: %s -> %s (%s, x%d-%d)",
			r.Label(), r.Pattern, strings.Join(actions, ", "), r.ActionsMode, r.Times.Min, r.Times.Max))
	}
	return lines
}

// FormatTrace renders a firing report as trace lines.
func FormatTrace(report types.Report) []string {
	lines := []string{fmt.Sprintf("[trace] %s: %d matched, %d passed, %d repetition(s)",
		report.Trigger, report.RulesMatched, report.RulesPassed, report.Repetitions)}
	for _, ex := range report.Executions {
		lines = append(lines, fmt.Sprintf("[trace]   %s / %s: %s rep %d changed %d",
			ex.Rule, ex.Candidate, ex.Action, ex.Repetition, ex.Result.Changed))
	}
	if len(report.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(report.Events)))
		for _, e := range report.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
	return lines
}

func sortedPairs[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return strings.Join(parts, " ")
}
