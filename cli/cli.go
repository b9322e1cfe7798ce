// Package cli provides the line-oriented trigger console: terminal I/O,
// output formatting and meta-command dispatch over a dispatch engine.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/save"
)

// CLI reads trigger lines and prints what they did.
type CLI struct {
	Session   *Session
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI wired to the given engine and save store.
func New(eng *engine.Engine, store save.Store) *CLI {
	return &CLI{
		Session: NewSession(eng, store),
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run loops prompt → input → dispatch → output until input ends or /quit.
func (c *CLI) Run(ctx context.Context) {
	if c.Session.Title != "" {
		c.printLine(c.Session.Title)
		c.printLine("")
	}

	scanner := bufio.NewScanner(c.In)
	for {
		if ctx.Err() != nil {
			return
		}
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		resp := c.Session.Exec(ctx, input)
		for _, line := range resp.Lines() {
			c.printLine(line)
		}
		if resp.Quit {
			return
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}
