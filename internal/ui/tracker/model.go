// Package tracker implements the interactive schedule view.
//
// The model re-reads the tracker's computed views on every store change
// event and after each of its own actions.
package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/airdate/internal/keys"
	"github.com/zjrosen/airdate/internal/log"
	"github.com/zjrosen/airdate/internal/pubsub"
	"github.com/zjrosen/airdate/internal/schedule"
	"github.com/zjrosen/airdate/internal/store"
	"github.com/zjrosen/airdate/internal/ui/help"
)

// MessageTimeout is how long a status message stays in the status bar.
const MessageTimeout = 3 * time.Second

const (
	historyRows = 6
	logRows     = 8
)

// statusCycle is the order the status filter steps through.
var statusCycle = []schedule.Status{
	"",
	schedule.StatusWatching,
	schedule.StatusPlanned,
	schedule.StatusCompleted,
	schedule.StatusDropped,
}

// Options configures the initial view.
type Options struct {
	ShowCounts bool
	ShowStats  bool
	Now        func() time.Time
}

// dismissMsg clears the status message it was scheduled for.
type dismissMsg struct{ seq int }

// Model is the Bubble Tea model for the schedule view.
type Model struct {
	tracker    *schedule.Tracker
	keys       keys.KeyMap
	filterKeys keys.FilterKeyMap
	help       help.Model
	input      textinput.Model
	listener   *pubsub.ContinuousListener[store.Change]
	logs       *log.LogListener
	now        func() time.Time

	groups []schedule.DayGroup
	rows   []schedule.Show
	stats  schedule.Stats
	cursor int

	filtering   bool
	showHelp    bool
	showCounts  bool
	showStats   bool
	showHistory bool
	showLog     bool
	logLines    []string

	message    string
	messageErr bool
	messageSeq int

	width  int
	height int
}

// New creates the model and subscribes it to the tracker's store. The
// subscription ends when ctx is cancelled.
func New(ctx context.Context, t *schedule.Tracker, opts Options) Model {
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "title or network"
	input.CharLimit = 80

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		tracker:    t,
		keys:       keys.DefaultKeyMap(),
		filterKeys: keys.DefaultFilterKeyMap(),
		help:       help.New(),
		input:      input,
		listener:   pubsub.NewContinuousListener(ctx, t.Store().Changes(ctx)),
		logs:       log.NewListener(ctx),
		now:        now,
		showCounts: opts.ShowCounts,
		showStats:  opts.ShowStats,
	}
	m.refresh()
	return m
}

// Init starts listening for store changes, and for log entries when
// logging is on.
func (m Model) Init() tea.Cmd {
	if m.logs == nil {
		return m.listener.Listen()
	}
	return tea.Batch(m.listener.Listen(), m.logs.Listen())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help = m.help.SetSize(msg.Width, msg.Height)
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case pubsub.Event[store.Change]:
		log.Debug(log.CatUI, "store changed", "path", msg.Payload.Path, "type", msg.Type)
		m.refresh()
		return m, m.listener.Listen()

	case log.LogEvent:
		m.logLines = append(m.logLines, strings.TrimRight(msg.Payload, "\n"))
		if len(m.logLines) > logRows {
			m.logLines = slices.Clone(m.logLines[len(m.logLines)-logRows:])
		}
		if m.logs == nil {
			return m, nil
		}
		return m, m.logs.Listen()

	case dismissMsg:
		if msg.seq == m.messageSeq {
			m.message = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Escape) {
			m.showHelp = false
		} else if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(len(m.rows)-1, 0)

	case key.Matches(msg, m.keys.Watch):
		show, ok := m.selected()
		if !ok {
			return m, nil
		}
		updated, err := m.tracker.MarkWatched(show.ID)
		if err != nil {
			return m.fail(err)
		}
		m.refresh()
		m.selectID(updated.ID)
		return m.notify(fmt.Sprintf("%s %s", updated.Title, updated.Progress()))

	case key.Matches(msg, m.keys.Remove):
		show, ok := m.selected()
		if !ok {
			return m, nil
		}
		if _, err := m.tracker.Remove(show.ID); err != nil {
			return m.fail(err)
		}
		m.refresh()
		return m.notify("Removed " + show.Title + " (u to undo)")

	case key.Matches(msg, m.keys.Filter):
		query, _ := m.tracker.Filter()
		m.input.SetValue(query)
		m.input.CursorEnd()
		m.filtering = true
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.CycleStatus):
		query, status := m.tracker.Filter()
		next := nextStatus(status)
		if err := m.tracker.SetFilter(query, next); err != nil {
			return m.fail(err)
		}
		m.refresh()
		return m.notify("Status: " + statusLabel(next))

	case key.Matches(msg, m.keys.ClearFilter):
		if err := m.tracker.SetFilter("", ""); err != nil {
			return m.fail(err)
		}
		m.refresh()

	case key.Matches(msg, m.keys.Undo):
		if !m.tracker.Store().Undo() {
			return m.notify("Nothing to undo")
		}
		m.refresh()
		return m.notify("Undone")

	case key.Matches(msg, m.keys.Redo):
		if !m.tracker.Store().Redo() {
			return m.notify("Nothing to redo")
		}
		m.refresh()
		return m.notify("Redone")

	case key.Matches(msg, m.keys.ToggleStats):
		m.showStats = !m.showStats

	case key.Matches(msg, m.keys.ToggleCounts):
		m.showCounts = !m.showCounts

	case key.Matches(msg, m.keys.ToggleHistory):
		m.showHistory = !m.showHistory

	case key.Matches(msg, m.keys.ToggleLog):
		m.showLog = !m.showLog
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.filterKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.filterKeys.Apply):
		m.filtering = false
		m.input.Blur()
		_, status := m.tracker.Filter()
		if err := m.tracker.SetFilter(m.input.Value(), status); err != nil {
			return m.fail(err)
		}
		m.refresh()
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.filterKeys.Cancel):
		m.filtering = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh re-reads the computed views and keeps the cursor in range.
func (m *Model) refresh() {
	m.groups = m.tracker.ByDay()
	m.stats = m.tracker.Stats()
	m.rows = nil
	for _, g := range m.groups {
		m.rows = append(m.rows, g.Shows...)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m Model) selected() (schedule.Show, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return schedule.Show{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) selectID(id string) {
	for i, s := range m.rows {
		if s.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) notify(text string) (tea.Model, tea.Cmd) {
	m.messageSeq++
	m.message = text
	m.messageErr = false
	return m, scheduleDismiss(m.messageSeq)
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	log.ErrorErr(log.CatUI, "action failed", err)
	m.messageSeq++
	m.message = err.Error()
	m.messageErr = true
	return m, scheduleDismiss(m.messageSeq)
}

func scheduleDismiss(seq int) tea.Cmd {
	return tea.Tick(MessageTimeout, func(time.Time) tea.Msg {
		return dismissMsg{seq: seq}
	})
}

func nextStatus(current schedule.Status) schedule.Status {
	for i, s := range statusCycle {
		if s == current {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return statusCycle[0]
}

func statusLabel(s schedule.Status) string {
	if s == "" {
		return "all"
	}
	return string(s)
}
