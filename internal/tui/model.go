// Package tui is a Bubble Tea presenter for the loader: a scrolling people
// list that prefetches as rows come into view, refreshes on demand, and shows
// loader notifications as alerts.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/feedloader/pkg/loader"
	"github.com/Sternrassler/feedloader/pkg/pagination"
)

const (
	// Title is shown above the list.
	Title = "People"

	defaultWidth  = 80
	defaultHeight = 24

	// chromeLines is the number of rows taken by the header and footer.
	chromeLines = 4

	eventBuffer = 64
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle   = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	emptyStyle    = lipgloss.NewStyle().Italic(true).Faint(true)
	alertStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// loadedMsg is sent when a load or refresh completes.
type loadedMsg struct {
	success bool
}

// notifyMsg carries a loader notification.
type notifyMsg struct {
	message  string
	terminal bool
}

// refreshEndedMsg is sent when the watchdog ends a stalled refresh.
type refreshEndedMsg struct{}

// events bridges loader callbacks, which run on fetch goroutines, into the
// Bubble Tea update loop.
type events struct {
	ch chan tea.Msg
}

func newEvents() *events {
	return &events{ch: make(chan tea.Msg, eventBuffer)}
}

// Notify implements loader.Notifier.
func (e *events) Notify(message string, terminal bool) {
	e.send(notifyMsg{message: message, terminal: terminal})
}

func (e *events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	default:
		log.Warn().Str("msg", fmt.Sprintf("%T", msg)).Msg("Presenter event buffer full, dropping event")
	}
}

func (e *events) wait() tea.Cmd {
	return func() tea.Msg {
		return <-e.ch
	}
}

// alert is a dismissible notification.
type alert struct {
	message  string
	terminal bool
}

// Model is the Bubble Tea model for the people list.
type Model struct {
	ctx       context.Context
	loader    *loader.Loader
	refresher *loader.Refresher
	events    *events

	records  []pagination.Record
	selected int
	offset   int
	width    int
	height   int

	initialLoad bool
	alert       *alert
}

// New creates a presenter for l and attaches itself as l's notifier.
// refreshTimeout bounds a refresh before the watchdog ends it.
func New(ctx context.Context, l *loader.Loader, refreshTimeout time.Duration) *Model {
	ev := newEvents()
	l.SetNotifier(ev)

	return &Model{
		ctx:       ctx,
		loader:    l,
		refresher: loader.NewRefresher(l, refreshTimeout, func() { ev.send(refreshEndedMsg{}) }),
		events:    ev,
		width:     defaultWidth,
		height:    defaultHeight,
	}
}

// Init starts the first load (required for tea.Model interface).
func (m *Model) Init() tea.Cmd {
	m.initialLoad = m.loader.Load(m.ctx, false, m.onLoaded)
	return m.events.wait()
}

func (m *Model) onLoaded(success bool) {
	m.events.send(loadedMsg{success: success})
}

// Update handles keyboard, resize and loader messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scrollToSelection()
		m.prefetch()
		return m, nil

	case loadedMsg:
		if msg.success {
			m.initialLoad = false
			m.records = m.loader.Snapshot().Records
			m.clampSelection()
		}
		m.prefetch()
		return m, m.events.wait()

	case notifyMsg:
		m.alert = &alert{message: msg.message, terminal: msg.terminal}
		return m, m.events.wait()

	case refreshEndedMsg:
		return m, m.events.wait()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, m.quit()
	}

	if m.alert != nil {
		return m, m.handleAlertKey(key)
	}

	switch key {
	case "q":
		return m, m.quit()
	case "up", "k":
		m.selected--
	case "down", "j":
		m.selected++
	case "pgup":
		m.selected -= m.listHeight()
	case "pgdown":
		m.selected += m.listHeight()
	case "home", "g":
		m.selected = 0
	case "end", "G":
		m.selected = len(m.records) - 1
	case "r":
		m.refresher.BeginRefresh(m.ctx, m.onLoaded)
		return m, nil
	default:
		return m, nil
	}

	m.clampSelection()
	m.prefetch()
	return m, nil
}

func (m *Model) handleAlertKey(key string) tea.Cmd {
	switch key {
	case "enter":
		a := m.alert
		m.alert = nil
		if a.terminal {
			m.selected = len(m.records) - 1
			m.clampSelection()
			return nil
		}
		m.loader.Load(m.ctx, false, m.onLoaded)
	case "esc":
		m.alert = nil
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.refresher.Stop()
	m.loader.SetNotifier(nil)
	return tea.Quit
}

// prefetch evaluates the loader's prefetch trigger for every row on screen
// and starts a load when it fires.
func (m *Model) prefetch() {
	from, to := m.visibleRange()
	for i := from; i < to; i++ {
		if m.loader.ShouldPrefetch(i) {
			m.loader.Load(m.ctx, false, m.onLoaded)
			return
		}
	}
}

func (m *Model) listHeight() int {
	h := m.height - chromeLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) clampSelection() {
	switch {
	case len(m.records) == 0 || m.selected < 0:
		m.selected = 0
	case m.selected >= len(m.records):
		m.selected = len(m.records) - 1
	}
	m.scrollToSelection()
}

func (m *Model) scrollToSelection() {
	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// visibleRange returns the rows on screen as [from, to).
func (m *Model) visibleRange() (int, int) {
	to := m.offset + m.listHeight()
	if to > len(m.records) {
		to = len(m.records)
	}
	return m.offset, to
}

// View renders the list, its status line and any alert.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(Title))
	if status := m.status(); status != "" {
		b.WriteString("  " + statusStyle.Render(status))
	}
	b.WriteString("\n\n")

	if m.alert != nil {
		b.WriteString(m.renderAlert())
		b.WriteString("\n")
		return b.String()
	}

	from, to := m.visibleRange()
	for i := from; i < to; i++ {
		line := formatRecord(m.records[i])
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if len(m.records) == 1 {
		b.WriteString("\n" + emptyStyle.Render(loader.EmptyListMessage) + "\n")
	}

	b.WriteString("\n" + statusStyle.Render("↑/↓ move • r refresh • q quit"))
	return b.String()
}

func (m *Model) status() string {
	switch {
	case m.refresher.IsRefreshing():
		return "Refreshing..."
	case m.initialLoad || m.loader.IsLoading():
		return "Loading..."
	case m.loader.ReachedEnd():
		return fmt.Sprintf("%d people", len(m.records))
	default:
		return ""
	}
}

func (m *Model) renderAlert() string {
	action := "[enter] Try again  [esc] Cancel"
	if m.alert.terminal {
		action = "[enter] OK"
	}
	body := m.alert.message + "\nTry again later.\n\n" + action
	return alertStyle.Render(body)
}

func formatRecord(r pagination.Record) string {
	return fmt.Sprintf("%s (%d)", r.DisplayName, r.ID)
}
