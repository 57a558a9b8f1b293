package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"github.com/desertthunder/dexwatch/internal/board"
	"github.com/desertthunder/dexwatch/internal/formatter"
	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
	"github.com/desertthunder/dexwatch/internal/sse"
)

const (
	cellWidth     = 14
	readoutsWidth = 28
)

// ModelOpts configures a [Model].
type ModelOpts struct {
	Board      *board.Board
	Dispatcher *Dispatcher
	Status     <-chan sse.StatusUpdate // Optional connection status feed
	Columns    int                     // Slots per grid row; defaults to [formatter.Columns]
	Endpoint   string                  // Shown in the header
	Logger     *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	board      *board.Board
	dispatcher *Dispatcher
	status     <-chan sse.StatusUpdate
	endpoint   string
	logger     *log.Logger
	columns    int

	box      int
	cursor   int
	width    int
	height   int
	conn     sse.StatusUpdate
	lastKind string
	applied  int

	readouts list.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	columns := opts.Columns
	if columns <= 0 {
		columns = formatter.Columns
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Model{
		ctx:        ctx,
		board:      opts.Board,
		dispatcher: opts.Dispatcher,
		status:     opts.Status,
		endpoint:   opts.Endpoint,
		logger:     logger,
		columns:    columns,
		conn:       sse.StatusUpdate{State: sse.Connecting, Attempt: 1},
		readouts:   newReadoutList(opts.Board),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// SetEndpoint sets the endpoint shown in the header.
func (m *Model) SetEndpoint(endpoint string) {
	m.endpoint = endpoint
}

// Applied records an applied stream event. It runs inside Update through the dispatcher.
func (m *Model) Applied(ev livesync.Event) {
	m.applied++
	m.lastKind = ev.Kind
}

// Init starts listening for dispatched tasks and connection status.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForTask(), m.waitForStatus())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.readouts.SetSize(readoutsWidth, max(msg.Height-6, 4))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgTask:
			if task, ok := msg.data.(func()); ok {
				task()
				m.readouts.SetItems(readoutItems(m.board))
			}
			return m, m.waitForTask()
		case MsgStatus:
			m.conn = msg.data.(sse.StatusUpdate)
			m.logger.Debug("connection status", "state", m.conn.State, "attempt", m.conn.Attempt)
			return m, m.waitForStatus()
		}
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	slots := m.slotCount()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.up):
		if m.cursor-m.columns >= 0 {
			m.cursor -= m.columns
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor+m.columns < slots {
			m.cursor += m.columns
		}
	case key.Matches(msg, m.keys.left):
		if m.cursor%m.columns != 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.right):
		if (m.cursor+1)%m.columns != 0 && m.cursor+1 < slots {
			m.cursor++
		}
	case key.Matches(msg, m.keys.nextBox):
		m.moveBox(1)
	case key.Matches(msg, m.keys.prevBox):
		m.moveBox(-1)
	}
	return m, nil
}

func (m *Model) moveBox(delta int) {
	n := len(m.board.Boxes())
	if n == 0 {
		return
	}
	m.box = ((m.box+delta)%n + n) % n
	if slots := m.slotCount(); m.cursor >= slots {
		m.cursor = max(slots-1, 0)
	}
}

func (m *Model) slotCount() int {
	boxes := m.board.Boxes()
	if m.box >= len(boxes) {
		return 0
	}
	return len(boxes[m.box].Slots)
}

func (m *Model) waitForTask() tea.Cmd {
	if m.dispatcher == nil {
		return nil
	}
	return m.dispatcher.wait()
}

func (m *Model) waitForStatus() tea.Cmd {
	if m.status == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-m.status:
			return statusMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the board, the readouts and the footer.
func (m *Model) View() string {
	header := m.renderHeader()
	grid := m.renderGrid()
	body := lipgloss.JoinHorizontal(lipgloss.Top, grid, "  ", m.readouts.View())

	var helpView string
	if m.help.ShowAll {
		helpView = m.help.FullHelpView(m.keys.FullHelp())
	} else {
		helpView = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", header, body, m.renderFooter(), helpView)
}

func (m *Model) renderHeader() string {
	caught, total := m.board.Progress()
	title := styles.title.Render(fmt.Sprintf("%s  %d / %d", m.board.Game().Name, caught, total))

	var conn string
	switch m.conn.State {
	case sse.Open:
		conn = styles.ok.Render(m.conn.Message())
	case sse.Reconnecting:
		conn = styles.warn.Render(m.conn.Message())
	case sse.Closed:
		conn = styles.err.Render(m.conn.Message())
	default:
		conn = styles.help.Render(m.conn.Message())
	}

	line := conn
	if m.endpoint != "" {
		line += styles.help.Render("  " + m.endpoint)
	}
	if m.applied > 0 {
		line += styles.help.Render(fmt.Sprintf("  %d updates, last %s", m.applied, m.lastKind))
	}
	return title + "\n" + line
}

func (m *Model) renderGrid() string {
	boxes := m.board.Boxes()
	if len(boxes) == 0 {
		return styles.help.Render("No boxes for this game")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Box %d / %d\n", m.box+1, len(boxes)))

	for j, s := range boxes[m.box].Slots {
		name := s.Expected
		if s.Filler() {
			name = ""
		}
		text := ansi.Truncate(formatter.Symbol(s.Status)+" "+name, cellWidth-1, "…")
		text += strings.Repeat(" ", max(cellWidth-ansi.StringWidth(text), 0))

		style := styles.Status(s.Status)
		if j == m.cursor {
			style = style.Inherit(styles.selected)
		}
		b.WriteString(style.Render(text))

		if (j+1)%m.columns == 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	s, ok := m.board.SlotAt(m.box, m.cursor)
	if !ok {
		return ""
	}

	expected := s.Expected
	if s.Filler() {
		expected = "(filler)"
	}
	parts := []string{
		fmt.Sprintf("Box %d, slot %d", m.box+1, m.cursor+1),
		expected,
		styles.Status(s.Status).Render(string(s.Status)),
	}
	if !s.Status.Known() {
		parts = append(parts, "unrecognised status")
	}
	if s.Annotation != "" {
		parts = append(parts, s.Annotation)
	}
	return strings.Join(parts, " · ")
}
