// Package console renders loop progress to the terminal. Scripts and
// panels go through a markdown renderer when one is available, with a
// plain-text fallback for dumb terminals and piped output.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Console writes user-facing output for a convergence session.
type Console struct {
	out     io.Writer
	in      *bufio.Reader
	verbose bool
	render  func(string) (string, error)
	profile termenv.Profile
}

// New builds a Console writing to out and reading confirmations from in.
func New(out io.Writer, in io.Reader, verbose bool) *Console {
	c := &Console{
		out:     out,
		in:      bufio.NewReader(in),
		verbose: verbose,
		profile: termenv.ColorProfile(),
	}
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
		c.render = r.Render
	}
	return c
}

// Verbose reports whether per-iteration detail should be shown.
func (c *Console) Verbose() bool {
	return c.verbose
}

// Script renders a proposed script as a highlighted python block.
func (c *Console) Script(title, script string) {
	c.title(title)
	block := "```python\n" + script + "\n```"
	if c.render != nil {
		if out, err := c.render(block); err == nil {
			fmt.Fprintln(c.out, strings.TrimRight(out, "\n"))
			return
		}
	}
	fmt.Fprintln(c.out, script)
}

// Panel prints a titled body of plain text.
func (c *Console) Panel(title, body string) {
	c.title(title)
	c.Print(body)
}

// Print writes body followed by a single newline.
func (c *Console) Print(body string) {
	fmt.Fprintln(c.out, strings.TrimRight(body, "\n"))
}

// Success prints msg in green.
func (c *Console) Success(msg string) {
	fmt.Fprintln(c.out, c.profile.String(msg).Foreground(c.profile.Color("#22c55e")))
}

// Failure prints msg in red.
func (c *Console) Failure(msg string) {
	fmt.Fprintln(c.out, c.profile.String(msg).Foreground(c.profile.Color("#ef4444")))
}

// Notice prints msg in amber.
func (c *Console) Notice(msg string) {
	fmt.Fprintln(c.out, c.profile.String(msg).Foreground(c.profile.Color("#eab308")))
}

func (c *Console) title(s string) {
	fmt.Fprintln(c.out, c.profile.String(s).Bold())
}

// Confirm asks a yes/no question and returns the answer. Empty input
// and EOF both count as a refusal.
func (c *Console) Confirm(prompt string) bool {
	for {
		fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no", "":
			return false
		}
		if err != nil {
			return false
		}
	}
}
