package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// locationDisplayName derives a readable name from a location id.
// "BusStop" -> "Bus Stop", "farm_cave" -> "Farm Cave".
func locationDisplayName(id string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range id {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			r = ' '
		case unicode.IsUpper(r) && prev != 0 && prev != ' ' && !unicode.IsUpper(prev):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	titleCaser := cases.Title(language.English)
	words := strings.Fields(b.String())
	for i, w := range words {
		// Keep existing capitals ("NPC", "BusStop") and only lift lowercase words.
		if strings.ToLower(w) == w {
			words[i] = titleCaser.String(w)
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// last trigger and location, object count and triggers fired.
func (m Model) renderStatusBar() string {
	w := m.session.Engine.World

	left := " " + m.session.Title
	if m.lastTrigger != "" {
		left += " | " + m.lastTrigger
		if m.lastLocation != "" {
			left += " @ " + locationDisplayName(m.lastLocation)
		}
	}
	if m.session.Trace {
		left += " | trace"
	}
	right := fmt.Sprintf("Objects: %d | Fired: %d ", w.ObjectCount(), w.Fired)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return styleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
