package cli

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/roofline/internal/cli/formatter"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// How often the watch view re-reads the ledger; the elapsed counter itself
// ticks every second from the local clock.
const watchRefreshEvery = 30 * time.Second

type watchKeys struct {
	Refresh  key.Binding
	ClockOut key.Binding
	Quit     key.Binding
}

func (k watchKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.ClockOut, k.Quit}
}

func (k watchKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultWatchKeys() watchKeys {
	return watchKeys{
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		ClockOut: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "clock out")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type (
	watchTickMsg   time.Time
	watchStatusMsg struct {
		status *service.ClockStatus
		err    error
	}
	watchClockedOutMsg struct {
		entry *domain.TimeEntry
		err   error
	}
)

// watchModel shows the caller's active entry with a live elapsed counter.
type watchModel struct {
	ctx    context.Context
	app    *App
	caller domain.Caller

	keys watchKeys
	help help.Model

	status    *service.ClockStatus
	fetchedAt time.Time
	now       time.Time
	notice    string
	err       error
}

func newWatchModel(ctx context.Context, app *App, caller domain.Caller) watchModel {
	return watchModel{
		ctx:    ctx,
		app:    app,
		caller: caller,
		keys:   defaultWatchKeys(),
		help:   help.New(),
		now:    app.now(),
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return watchTickMsg(t) })
}

func (m watchModel) fetch() tea.Cmd {
	return func() tea.Msg {
		st, err := m.app.Ledger.GetStatus(m.ctx, m.caller)
		return watchStatusMsg{status: st, err: err}
	}
}

func (m watchModel) clockOut() tea.Cmd {
	return func() tea.Msg {
		e, err := m.app.Ledger.ClockOut(m.ctx, m.caller, service.ClockOutInput{})
		return watchClockedOutMsg{entry: e, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.notice = ""
			return m, m.fetch()
		case key.Matches(msg, m.keys.ClockOut):
			if m.status == nil || !m.status.IsClockedIn {
				m.notice = "not clocked in"
				return m, nil
			}
			return m, m.clockOut()
		}
		return m, nil

	case watchTickMsg:
		m.now = m.app.now()
		if !m.fetchedAt.IsZero() && m.now.Sub(m.fetchedAt) >= watchRefreshEvery {
			return m, tea.Batch(m.fetch(), tick())
		}
		return m, tick()

	case watchStatusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.now = m.app.now()
		m.fetchedAt = m.now
		return m, nil

	case watchClockedOutMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = "clocked out: " + formatter.Hours(msg.entry.TotalHours)
		m.status = &service.ClockStatus{}
		return m, nil
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	switch {
	case m.status == nil && m.err == nil:
		b.WriteString(formatter.Dim("loading..."))
	case m.status != nil:
		b.WriteString(formatter.FormatClockStatus(m.status.ActiveEntry, m.now, m.app.location()))
	}
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(formatter.StyleGreen.Render(m.notice) + "\n")
	}
	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}
