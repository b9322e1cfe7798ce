package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/Esca-MMC/FarmTypeManager-sub001/cli"
)

// rawLine stores an unstyled output line with its classification, so it can
// be re-wrapped when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool // echoed input line
}

// Model is the Bubble Tea model for the trigger console.
type Model struct {
	session *cli.Session
	ctx     context.Context

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine
	lastOut  []string // lines produced by the last submitted input, for /copy
	copyFn   func(string) error

	lastTrigger  string
	lastLocation string

	width    int
	height   int
	ready    bool
	quitting bool
}

// outputMsg carries console output into the Update loop.
type outputMsg struct {
	input string // echoed input (empty for the banner)
	lines []string
}

// New creates a TUI model over a console session.
func New(ctx context.Context, session *cli.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 512
	ti.PromptStyle = styleInputPrompt

	return Model{
		session: session,
		ctx:     ctx,
		input:   ti,
		history: NewHistory(100),
		copyFn:  clipboard.WriteAll,
	}
}

// Run starts the Bubble Tea program.
func Run(ctx context.Context, session *cli.Session) error {
	p := tea.NewProgram(New(ctx, session),
		tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init returns the initial command that shows the banner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.banner())
}

func (m Model) banner() tea.Cmd {
	return func() tea.Msg {
		var lines []string
		if m.session.Title != "" {
			lines = append(lines, m.session.Title, "")
		}
		lines = append(lines, "[Type a trigger line, or /help for commands.]")
		return outputMsg{lines: lines}
	}
}

// Update handles key presses, window resizes and console output.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case outputMsg:
		m = m.appendOutput(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEnter runs the submitted line through the session.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	if strings.EqualFold(input, "/copy") {
		return m.appendOutput(outputMsg{input: input, lines: []string{m.copyLast()}}), nil
	}

	resp := m.session.Exec(m.ctx, input)
	if resp.Report != nil {
		m.lastTrigger = resp.Report.Trigger
		if n := len(m.session.Engine.World.Log); n > 0 {
			m.lastLocation = lineLocation(m.session.Engine.World.Log[n-1])
		}
	}

	lines := resp.Lines()
	if strings.EqualFold(input, "/help") {
		lines = append(lines,
			"  /copy           Copy the last output to the clipboard",
			"",
			"Navigation: PgUp/PgDn to scroll, Up/Down for line history")
	}
	m.lastOut = lines
	m = m.appendOutput(outputMsg{input: input, lines: lines})

	if resp.Quit {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) copyLast() string {
	if len(m.lastOut) == 0 {
		return "[Nothing to copy.]"
	}
	if err := m.copyFn(strings.Join(m.lastOut, "\n")); err != nil {
		return "[Copy failed: " + err.Error() + "]"
	}
	return "[Copied last output to the clipboard.]"
}

// lineLocation pulls the @Location token out of a trigger line.
func lineLocation(line string) string {
	for _, f := range strings.Fields(line) {
		if loc, ok := strings.CutPrefix(f, "@"); ok && loc != "" {
			return loc
		}
	}
	return ""
}

// appendOutput adds lines to the scrollback and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}
	for _, line := range msg.lines {
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: classifyLine(line)})
	}
	// Blank line between submissions.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordwrap.String(rl.text, width)
		if rl.isInput {
			styled = append(styled, styleEcho.Render(wrapped))
			continue
		}
		styled = append(styled, render(wrapped, rl.kind))
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// View renders the viewport, status bar and input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled, since those
// recall input history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
