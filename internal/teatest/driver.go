// Package teatest drives bubbletea models synchronously in tests.
//
// Update is called directly and returned commands are executed inline, so a
// test can step a model without starting a tea.Program. Commands that do
// not return promptly (tea.Tick and friends) are dropped.
package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// maxDepth bounds command chains so a self-rescheduling model cannot hang a
// test.
const maxDepth = 64

// slowCmd is how long a command may run before it is treated as a timer and
// skipped. Service calls against an in-memory database finish well inside it.
const slowCmd = 20 * time.Millisecond

type Driver struct {
	t     *testing.T
	Model tea.Model
	// Quit is set once the model returns tea.Quit.
	Quit bool
}

func New(t *testing.T, m tea.Model) *Driver {
	t.Helper()
	return &Driver{t: t, Model: m}
}

// Init runs the model's Init command and everything it leads to.
func (d *Driver) Init() *Driver {
	d.t.Helper()
	d.run(d.Model.Init(), 0)
	return d
}

// Send feeds msg through Update and runs the resulting commands.
func (d *Driver) Send(msg tea.Msg) {
	d.t.Helper()
	if d.Quit {
		return
	}
	next, cmd := d.Model.Update(msg)
	d.Model = next
	d.run(cmd, 0)
}

// Press sends a single key. Named keys ("esc", "enter", "ctrl+c") map to
// their key types; anything else is sent as runes.
func (d *Driver) Press(k string) {
	d.t.Helper()
	switch k {
	case "esc":
		d.Send(tea.KeyMsg{Type: tea.KeyEsc})
	case "enter":
		d.Send(tea.KeyMsg{Type: tea.KeyEnter})
	case "ctrl+c":
		d.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	default:
		d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) run(cmd tea.Cmd, depth int) {
	d.t.Helper()
	if cmd == nil {
		return
	}
	if depth >= maxDepth {
		d.t.Logf("teatest: command chain deeper than %d, stopping", maxDepth)
		return
	}

	msg, ok := runWithin(cmd, slowCmd)
	if !ok || msg == nil {
		return
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			d.run(c, depth+1)
		}
	case tea.QuitMsg:
		d.Quit = true
	default:
		next, nextCmd := d.Model.Update(msg)
		d.Model = next
		d.run(nextCmd, depth+1)
	}
}

func runWithin(cmd tea.Cmd, limit time.Duration) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(limit):
		return nil, false
	}
}
