package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Esca-MMC/FarmTypeManager-sub001/cli"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/rules"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

func TestLocationDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"Farm", "Farm"},
		{"farm", "Farm"},
		{"BusStop", "Bus Stop"},
		{"farm_cave", "Farm Cave"},
		{"secret-woods", "Secret Woods"},
		{"NPC", "NPC"},
	}
	for _, tt := range tests {
		if got := locationDisplayName(tt.id); got != tt.want {
			t.Errorf("locationDisplayName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"Spawned (O)388 x1 at Farm (0,0).", kindWorld},
		{"Removed 2 object(s) from Farm.", kindWorld},
		{"No free tile in Farm for (O)388.", kindWarn},
		{"[Saved to quicksave.]", kindSystem},
		{"[trace] dayStarted: 1 matched", kindTrace},
		{"[error] config error: trigger=x", kindError},
		{"Welcome to the farm.", kindOutput},
		{"", kindOutput},
	}
	for _, tt := range tests {
		if got := classifyLine(tt.line); got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestLineLocation(t *testing.T) {
	assert.Equal(t, "Farm", lineLocation("dayStarted 1 @Farm actor=Player"))
	assert.Equal(t, "", lineLocation("dayStarted @"))
	assert.Equal(t, "", lineLocation("dayStarted"))
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("dayStarted")
	h.Push("itemUsed item=(O)388")
	h.Push("/state")

	for _, want := range []string{"/state", "itemUsed item=(O)388", "dayStarted", "dayStarted"} {
		prev, ok := h.Prev()
		if !ok || prev != want {
			t.Errorf("expected %q, got %q (ok=%v)", want, prev, ok)
		}
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("a")
	h.Push("b")

	h.Prev() // "b"
	h.Prev() // "a"

	next, ok := h.Next()
	if !ok || next != "b" {
		t.Errorf("expected 'b', got %q (ok=%v)", next, ok)
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_EmptyBlankAndDuplicates(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Prev(); ok {
		t.Error("expected false on empty history")
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false on empty history")
	}

	h.Push("   ")
	h.Push("look")
	h.Push("look ")
	assert.Equal(t, 1, h.Len())
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c") // "a" evicted

	assert.Equal(t, 2, h.Len())
	prev, _ := h.Prev()
	assert.Equal(t, "c", prev)
	prev, _ = h.Prev()
	assert.Equal(t, "b", prev)
	prev, _ = h.Prev()
	assert.Equal(t, "b", prev, "oldest entry is the boundary")
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("a")
	h.Push("b")

	h.Prev()
	h.Prev()
	h.ResetCursor()

	prev, ok := h.Prev()
	if !ok || prev != "b" {
		t.Errorf("expected 'b' after reset, got %q", prev)
	}
}

func testModel(t *testing.T) Model {
	t.Helper()
	set, errs := rules.Compile([]types.ActionRule{{
		ID:          "spawn",
		Triggers:    "dayStarted",
		ActionsMode: types.ActionsAll,
		MinTimes:    1,
		MaxTimes:    1,
		CustomActions: []types.ActionCandidate{{
			Action:   "SpawnObject",
			Weight:   1,
			Settings: map[string]any{"Location": "Here", "Item": "(O)388"},
		}},
	}})
	require.Empty(t, errs)

	world := state.NewWorld(&state.Defs{
		Title: "Test Farm",
		Locations: map[string]state.LocationDef{
			"BusStop": {ID: "BusStop", Width: 2, Height: 2},
		},
	})
	eng, err := engine.New(set, world, engine.Options{
		Seed:   3,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	m := New(context.Background(), cli.NewSession(eng, nil))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	return next.(Model)
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func scrollback(m Model) string {
	var b strings.Builder
	for _, rl := range m.rawLines {
		b.WriteString(rl.text)
		b.WriteString("\n")
	}
	return b.String()
}

func TestModel_FiresTriggerAndUpdatesStatus(t *testing.T) {
	m := testModel(t)
	m, cmd := submit(t, m, "dayStarted @BusStop")
	assert.Nil(t, cmd)

	out := scrollback(m)
	assert.Contains(t, out, "> dayStarted @BusStop")
	assert.Contains(t, out, "Spawned (O)388 x1 at BusStop")
	assert.Equal(t, "dayStarted", m.lastTrigger)
	assert.Equal(t, "BusStop", m.lastLocation)

	bar := m.renderStatusBar()
	assert.Contains(t, bar, "Test Farm | dayStarted @ Bus Stop")
	assert.Contains(t, bar, "Objects: 1 | Fired: 1")
	assert.Equal(t, "", m.input.Value())
	assert.Equal(t, 1, m.history.Len())
}

func TestModel_MetaCommands(t *testing.T) {
	m := testModel(t)
	m, _ = submit(t, m, "/trace")
	assert.True(t, m.session.Trace)
	assert.Contains(t, m.renderStatusBar(), "| trace")

	m, _ = submit(t, m, "/help")
	out := scrollback(m)
	assert.Contains(t, out, "/copy")
	assert.Contains(t, out, "PgUp/PgDn")

	m, _ = submit(t, m, "/bogus")
	assert.Contains(t, scrollback(m), "Unknown command: /bogus")
}

func TestModel_Quit(t *testing.T) {
	m := testModel(t)
	m, cmd := submit(t, m, "/quit")
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Equal(t, "", m.View())
}

func TestModel_Copy(t *testing.T) {
	m := testModel(t)
	var copied string
	m.copyFn = func(s string) error { copied = s; return nil }

	m, _ = submit(t, m, "/copy")
	assert.Contains(t, scrollback(m), "[Nothing to copy.]")

	m, _ = submit(t, m, "dayStarted @BusStop")
	m, _ = submit(t, m, "/copy")
	assert.True(t, strings.HasPrefix(copied, "Spawned (O)388 x1 at BusStop"))
	assert.Contains(t, scrollback(m), "[Copied last output to the clipboard.]")

	m.copyFn = func(string) error { return errors.New("no clipboard") }
	m, _ = submit(t, m, "/copy")
	assert.Contains(t, scrollback(m), "[Copy failed: no clipboard]")
}

func TestModel_EmptyEnterIsIgnored(t *testing.T) {
	m := testModel(t)
	before := len(m.rawLines)
	m, _ = submit(t, m, "   ")
	assert.Equal(t, before, len(m.rawLines))
}

func TestModel_HistoryKeys(t *testing.T) {
	m := testModel(t)
	m, _ = submit(t, m, "dayStarted @BusStop")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Equal(t, "dayStarted @BusStop", m.input.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, "", m.input.Value())
}

func TestModel_ViewBeforeAndAfterResize(t *testing.T) {
	m := New(context.Background(), testModel(t).session)
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 10})
	m = next.(Model)
	next, _ = m.Update(outputMsg{lines: []string{"hello there"}})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "hello there")
	assert.Contains(t, view, "Fired: 0")
}

func TestModel_BannerCommand(t *testing.T) {
	m := testModel(t)
	msg := m.banner()()
	out, ok := msg.(outputMsg)
	require.True(t, ok)
	assert.Equal(t, "Test Farm", out.lines[0])
	assert.Contains(t, out.lines[len(out.lines)-1], "/help")
}
