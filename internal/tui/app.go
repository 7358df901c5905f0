// Package tui renders the machine-lane board in the terminal. It follows the
// Elm-style bubbletea loop: messages update the model, the view renders it.
// All schedule state lives in the board reconciliation model; this package
// only translates key presses into board events and server calls into
// messages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"schedcore/internal/board"
	"schedcore/pkg/domain"
)

// EditStep is the interval granularity for key-driven gestures.
const EditStep = 5 * time.Minute

const (
	refreshInterval = 5 * time.Second
	revertFlash     = 600 * time.Millisecond
	requestTimeout  = 10 * time.Second
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Edit    key.Binding
	Left    key.Binding
	Right   key.Binding
	Grow    key.Binding
	Shrink  key.Binding
	Submit  key.Binding
	Cancel  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.Submit, k.Cancel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Edit, k.Refresh},
		{k.Left, k.Right, k.Grow, k.Shrink},
		{k.Submit, k.Cancel, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "move earlier")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "move later")),
		Grow:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "longer")),
		Shrink:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "shorter")),
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	laneStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	opStyle      = lipgloss.NewStyle().Padding(0, 1)
	cursorStyle  = opStyle.Reverse(true)
	editStyle    = opStyle.Foreground(lipgloss.Color("212"))
	pendingStyle = opStyle.Foreground(lipgloss.Color("214"))
	revertStyle  = opStyle.Foreground(lipgloss.Color("196"))
	relatedStyle = opStyle.Foreground(lipgloss.Color("81"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Messages flowing through the update loop.
type (
	scheduleMsg struct {
		orders []domain.WorkOrder
		err    error
	}
	updateResultMsg struct {
		operationID string
		committed   domain.Operation
		err         error
	}
	revertDoneMsg  struct{ operationID string }
	refreshTickMsg struct{}
)

// App is the bubbletea model for the lane board.
type App struct {
	client *board.Client
	model  *board.Model

	keys    keyMap
	help    help.Model
	cursor  int
	editing string // operation id with an open draft, empty when none
	loaded  bool
	lastErr string
	width   int
	height  int
}

// NewApp wires the board client into a fresh TUI model.
func NewApp(client *board.Client) *App {
	return &App{
		client: client,
		model:  board.New(nil),
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Init kicks off the initial schedule fetch and the refresh ticker.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetchSchedule(), refreshTick())
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (a *App) fetchSchedule() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		orders, err := client.WorkOrders(ctx)
		return scheduleMsg{orders: orders, err: err}
	}
}

func (a *App) submitUpdate(id string, start, end time.Time) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		committed, err := client.UpdateOperation(ctx, id, start, end)
		return updateResultMsg{operationID: id, committed: committed, err: err}
	}
}

// Update advances the model by one message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		return a, nil

	case scheduleMsg:
		if msg.err != nil {
			a.lastErr = msg.err.Error()
			return a, nil
		}
		a.lastErr = ""
		a.loaded = true
		a.model.Reset(msg.orders)
		a.clampCursor()
		return a, nil

	case refreshTickMsg:
		// Skip the background refresh while a draft is open so it cannot
		// clobber the user's unsaved interval.
		if a.editing != "" {
			return a, refreshTick()
		}
		return a, tea.Batch(a.fetchSchedule(), refreshTick())

	case updateResultMsg:
		if msg.err == nil {
			_ = a.model.Apply(board.CommitAccepted{
				OperationID: msg.operationID,
				Start:       msg.committed.Start,
				End:         msg.committed.End,
			})
			return a, nil
		}
		rejected := board.CommitRejected{OperationID: msg.operationID, Message: msg.err.Error()}
		var rv domain.RuleViolationError
		if errors.As(msg.err, &rv) {
			rejected.Rule = rv.Violation.Rule
			rejected.Message = rv.Violation.Message
		}
		_ = a.model.Apply(rejected)
		id := msg.operationID
		return a, tea.Tick(revertFlash, func(time.Time) tea.Msg { return revertDoneMsg{operationID: id} })

	case revertDoneMsg:
		_ = a.model.Apply(board.RevertRendered{OperationID: msg.operationID})
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := a.keys
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Up):
		a.moveCursor(-1)
		return a, nil

	case key.Matches(msg, keys.Down):
		a.moveCursor(1)
		return a, nil

	case key.Matches(msg, keys.Refresh):
		if a.editing == "" {
			return a, a.fetchSchedule()
		}
		return a, nil

	case key.Matches(msg, keys.Edit):
		id, ok := a.cursorOperation()
		if !ok {
			return a, nil
		}
		if err := a.model.Apply(board.EditStarted{OperationID: id}); err != nil {
			a.lastErr = err.Error()
			return a, nil
		}
		a.lastErr = ""
		a.editing = id
		return a, nil

	case key.Matches(msg, keys.Left):
		a.shift(-EditStep, -EditStep)
		return a, nil

	case key.Matches(msg, keys.Right):
		a.shift(EditStep, EditStep)
		return a, nil

	case key.Matches(msg, keys.Grow):
		a.shift(0, EditStep)
		return a, nil

	case key.Matches(msg, keys.Shrink):
		a.shift(0, -EditStep)
		return a, nil

	case key.Matches(msg, keys.Submit):
		if a.editing == "" {
			return a, nil
		}
		id := a.editing
		op, ok := a.model.Operation(id)
		if !ok {
			a.editing = ""
			return a, nil
		}
		if err := a.model.Apply(board.EditSubmitted{OperationID: id}); err != nil {
			a.lastErr = err.Error()
			return a, nil
		}
		a.editing = ""
		return a, a.submitUpdate(id, op.Start, op.End)

	case key.Matches(msg, keys.Cancel):
		if a.editing != "" {
			_ = a.model.Apply(board.EditDiscarded{OperationID: a.editing})
			a.editing = ""
			return a, nil
		}
		_ = a.model.Apply(board.Deselected{})
		return a, nil
	}
	return a, nil
}

func (a *App) shift(startDelta, endDelta time.Duration) {
	if a.editing == "" {
		return
	}
	if err := a.model.ShiftDraft(a.editing, startDelta, endDelta); err != nil {
		a.lastErr = err.Error()
	}
}

func (a *App) moveCursor(delta int) {
	if a.editing != "" {
		return
	}
	ops := a.model.Operations()
	if len(ops) == 0 {
		return
	}
	a.cursor += delta
	a.clampCursor()
	_ = a.model.Apply(board.Selected{OperationID: ops[a.cursor].ID})
}

func (a *App) clampCursor() {
	n := len(a.model.Operations())
	if n == 0 {
		a.cursor = 0
		return
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
	if a.cursor >= n {
		a.cursor = n - 1
	}
}

func (a *App) cursorOperation() (string, bool) {
	ops := a.model.Operations()
	if len(ops) == 0 {
		return "", false
	}
	a.clampCursor()
	return ops[a.cursor].ID, true
}

// View renders the lanes, one row per machine, operations left to right.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SCHEDCORE BOARD"))
	b.WriteString("\n\n")

	if !a.loaded {
		b.WriteString(faintStyle.Render("loading schedule..."))
		b.WriteString("\n")
	} else {
		a.renderLanes(&b)
	}

	b.WriteString("\n")
	if a.lastErr != "" {
		b.WriteString(errorStyle.Render(a.lastErr))
		b.WriteString("\n")
	} else if notice := a.model.Notice(); notice != "" {
		b.WriteString(noticeStyle.Render(notice))
		b.WriteString("\n")
	}
	b.WriteString(a.help.View(a.keys))
	return b.String()
}

func (a *App) renderLanes(b *strings.Builder) {
	ops := a.model.Operations()
	var lane string
	for i, op := range ops {
		if op.MachineID != lane {
			if lane != "" {
				b.WriteString("\n")
			}
			lane = op.MachineID
			b.WriteString(laneStyle.Render(lane))
			b.WriteString("  ")
		}
		b.WriteString(a.renderOperation(op, i == a.cursor))
	}
	b.WriteString("\n")
}

func (a *App) renderOperation(op domain.Operation, underCursor bool) string {
	label := fmt.Sprintf("%s %s %s–%s", op.ID, op.Name,
		op.Start.Format("15:04"), op.End.Format("15:04"))
	switch {
	case underCursor && a.editing == op.ID:
		return editStyle.Render("[" + label + "]")
	case underCursor:
		return cursorStyle.Render(label)
	case a.model.State(op.ID) == board.StatePendingCommit:
		return pendingStyle.Render(label + " …")
	case a.model.State(op.ID) == board.StateRevertingLocal:
		return revertStyle.Render(label + " ✗")
	case a.model.Highlighted(op.ID):
		return relatedStyle.Render(label)
	default:
		return opStyle.Render(label)
	}
}

// Run starts the program on the alternate screen.
func Run(client *board.Client) error {
	_, err := tea.NewProgram(NewApp(client), tea.WithAltScreen()).Run()
	return err
}
