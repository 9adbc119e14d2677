package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/evanschultz/hexaboard/internal/app"
	"github.com/evanschultz/hexaboard/internal/domain"
)

// Service is the board surface driven by the TUI. *app.Store satisfies it.
type Service interface {
	State() app.Result
	AddNamedColumn(context.Context, string) app.Result
	RenameColumn(context.Context, string, string) app.Result
	DeleteColumn(context.Context, string) app.Result
	AddTask(context.Context, string, string) app.Result
	RenameTask(context.Context, string, string, string) app.Result
	DeleteTask(context.Context, string, string) app.Result
	Propose(app.DragGesture) (app.PendingMove, bool)
	ProposeColumnMove(string, string, string) (app.PendingMove, bool)
	Commit(context.Context, app.PendingMove, bool) app.Result
}

// ActivityReader lists recorded board changes, newest first.
type ActivityReader interface {
	ListActivity(context.Context, int) ([]domain.ChangeEvent, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddColumn
	modeRenameColumn
	modeAddTask
	modeRenameTask
	modeConfirmAction
	modeColumnPicker
	modeDrag
	modeActivityLog
	modeMarkdown
)

// activity log limits used by modal rendering and retention.
const (
	activityLogViewWindow = 14
	defaultActivityLimit  = 50
)

// confirmKind identifies what a confirmation modal applies.
type confirmKind string

const (
	confirmMove         confirmKind = "move"
	confirmDeleteTask   confirmKind = "delete-task"
	confirmDeleteColumn confirmKind = "delete-column"
)

// confirmAction describes a pending confirmation action.
type confirmAction struct {
	Kind     confirmKind
	Message  string
	Move     app.PendingMove
	ColumnID string
	TaskID   string
}

// activityEntry describes one recorded board change for the activity modal.
type activityEntry struct {
	At       time.Time
	Revision uint64
	Summary  string
	Target   string
}

// Model represents model data used by this package.
type Model struct {
	svc           Service
	activity      ActivityReader
	activityLimit int

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	boardTitle string
	confirm    ConfirmConfig

	board          domain.Board
	revision       uint64
	selectedColumn int
	selectedTask   int

	mode            inputMode
	input           textinput.Model
	editingColumnID string
	editingTaskID   string

	pendingConfirm confirmAction
	confirmChoice  int
	pickerIndex    int
	drag           dragState

	activityLog     []activityEntry
	markdown        *markdownRenderer
	copyToClipboard func(string) error
}

// loadedMsg carries the initial board snapshot.
type loadedMsg struct {
	result app.Result
	err    error
}

// actionMsg carries the outcome of one board mutation.
type actionMsg struct {
	result          app.Result
	status          string
	noopStatus      string
	focusTaskID     string
	focusLastTaskIn string
	focusLastColumn bool
}

// activityLogLoadedMsg carries journal entries for the activity modal.
type activityLogLoadedMsg struct {
	entries []activityEntry
	err     error
}

// clipboardMsg reports the outcome of a copy-title request.
type clipboardMsg struct {
	title string
	err   error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:             svc,
		activityLimit:   defaultActivityLimit,
		status:          "loading...",
		help:            h,
		keys:            newKeyMap(),
		boardTitle:      "Kanban Board",
		confirm:         DefaultConfirmConfig(),
		activityLog:     []activityEntry{},
		markdown:        &markdownRenderer{},
		copyToClipboard: clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.applyResult(msg.result)
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		m.applyResult(msg.result)
		switch {
		case msg.result.Changed && msg.status != "":
			m.status = msg.status
		case !msg.result.Changed && msg.noopStatus != "":
			m.status = msg.noopStatus
		}
		if !msg.result.Changed {
			return m, nil
		}
		switch {
		case msg.focusTaskID != "":
			m.focusTaskByID(msg.focusTaskID)
		case msg.focusLastTaskIn != "":
			m.focusLastTaskInColumn(msg.focusLastTaskIn)
		case msg.focusLastColumn:
			m.selectedColumn = max(0, len(m.board.Columns)-1)
			m.selectedTask = 0
		}
		return m, nil

	case activityLogLoadedMsg:
		if msg.err != nil {
			if m.mode == modeActivityLog {
				m.status = "activity log unavailable: " + msg.err.Error()
			}
			return m, nil
		}
		m.activityLog = append([]activityEntry(nil), msg.entries...)
		if m.mode == modeActivityLog {
			m.status = "activity log"
		}
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("copied %q", truncate(msg.title, 28))
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

// View handles view.
func (m Model) View() tea.View {
	view := tea.NewView(m.render())
	view.AltScreen = true
	return view
}

// render returns the full screen content for the current state.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress q to quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("hexaboard") + "  " + m.boardTitle
	header += statusStyle.Render("  [" + m.modeLabel() + "]")
	header += statusStyle.Render(fmt.Sprintf("  rev %d", m.revision))

	var body string
	if len(m.board.Columns) == 0 {
		body = strings.Join([]string{
			"No columns yet.",
			"Press c to add a column.",
			"Press q to quit.",
		}, "\n")
	} else {
		body = m.renderColumns(accent, muted, dim)
	}

	sections := []string{header, "", body}
	if prompt := m.modePrompt(); prompt != "" {
		sections = append(sections, statusStyle.Render(prompt))
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	var helpKeys help.KeyMap = m.keys
	if m.mode == modeDrag {
		helpKeys = dragHelp{keys: m.keys}
	}
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(helpKeys))

	if m.height > 0 {
		contentHeight := max(0, m.height-lipgloss.Height(helpLine))
		content = fitLines(content, contentHeight)
	}
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(accent, muted, dim, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// loadData loads the current board snapshot.
func (m Model) loadData() tea.Msg {
	if m.svc == nil {
		return loadedMsg{err: errors.New("board service unavailable")}
	}
	return loadedMsg{result: m.svc.State()}
}

// loadActivityLog loads recent journal entries.
func (m Model) loadActivityLog() tea.Msg {
	if m.activity == nil {
		return activityLogLoadedMsg{entries: nil}
	}
	events, err := m.activity.ListActivity(context.Background(), m.activityLimit)
	if err != nil {
		return activityLogLoadedMsg{err: err}
	}
	return activityLogLoadedMsg{entries: mapChangeEventsToActivityEntries(events)}
}

// openActivityLog enters activity-log mode and triggers a journal fetch.
func (m *Model) openActivityLog() tea.Cmd {
	if m.activity == nil {
		m.status = "activity log unavailable"
		return nil
	}
	m.mode = modeActivityLog
	m.status = "activity log"
	return m.loadActivityLog
}

// mapChangeEventsToActivityEntries converts newest-first journal events into modal rows.
func mapChangeEventsToActivityEntries(events []domain.ChangeEvent) []activityEntry {
	if len(events) == 0 {
		return []activityEntry{}
	}
	entries := make([]activityEntry, 0, len(events))
	// Journal events are newest-first; modal rendering expects chronological order.
	for idx := len(events) - 1; idx >= 0; idx-- {
		entries = append(entries, mapChangeEventToActivityEntry(events[idx]))
	}
	return entries
}

// mapChangeEventToActivityEntry derives a compact activity row from one journal event.
func mapChangeEventToActivityEntry(event domain.ChangeEvent) activityEntry {
	summary := strings.ReplaceAll(string(event.Operation), "_", " ")
	if summary == "" {
		summary = "change"
	}
	target := strings.TrimSpace(event.Metadata["title"])
	if target == "" {
		target = strings.TrimSpace(event.TaskID)
	}
	if target == "" {
		target = strings.TrimSpace(event.ColumnID)
	}
	if target == "" {
		target = "-"
	}
	return activityEntry{
		At:       event.OccurredAt.UTC(),
		Revision: event.Revision,
		Summary:  summary,
		Target:   target,
	}
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// startInput opens one single-line title prompt.
func (m *Model) startInput(mode inputMode, prompt, placeholder, value string) tea.Cmd {
	m.help.ShowAll = false
	m.mode = mode
	m.input = newModalInput(prompt, placeholder, value, 200)
	m.input.SetWidth(max(20, m.width-24))
	return m.input.Focus()
}

// handleNormalModeKey handles board navigation and action keys.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.board.Columns)-1 {
			m.selectedColumn++
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if col, ok := m.currentColumn(); ok && m.selectedTask < len(col.Tasks)-1 {
			m.selectedTask++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil
	case key.Matches(msg, m.keys.addColumn):
		return m, m.startInput(modeAddColumn, "title: ", domain.DefaultColumnTitle, "")
	case key.Matches(msg, m.keys.renameColumn):
		col, ok := m.currentColumn()
		if !ok {
			m.status = "no column selected"
			return m, nil
		}
		m.editingColumnID = col.ID
		return m, m.startInput(modeRenameColumn, "title: ", "column title", col.Title)
	case key.Matches(msg, m.keys.deleteColumn):
		return m.confirmDeleteColumn()
	case key.Matches(msg, m.keys.addTask):
		col, ok := m.currentColumn()
		if !ok {
			m.status = "add a column first"
			return m, nil
		}
		m.editingColumnID = col.ID
		return m, m.startInput(modeAddTask, "title: ", "task title", "")
	case key.Matches(msg, m.keys.renameTask):
		col, task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.editingColumnID = col.ID
		m.editingTaskID = task.ID
		return m, m.startInput(modeRenameTask, "title: ", "task title", task.Title)
	case key.Matches(msg, m.keys.deleteTask):
		return m.confirmDeleteTask()
	case key.Matches(msg, m.keys.moveToColumn):
		return m.startColumnPicker()
	case key.Matches(msg, m.keys.grabTask):
		return m.startDrag()
	case key.Matches(msg, m.keys.copyTitle):
		_, task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.copyTitleCmd(task.Title)
	case key.Matches(msg, m.keys.activityLog):
		return m, m.openActivityLog()
	case key.Matches(msg, m.keys.markdownView):
		m.help.ShowAll = false
		m.mode = modeMarkdown
		m.status = "markdown view"
		return m, nil
	default:
		return m, nil
	}
}

// handleInputModeKey routes keys while a modal mode is active.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeActivityLog:
		if msg.String() == "esc" || key.Matches(msg, m.keys.activityLog) {
			m.mode = modeNone
			m.status = "ready"
		}
		return m, nil

	case modeMarkdown:
		if msg.String() == "esc" || key.Matches(msg, m.keys.markdownView) {
			m.mode = modeNone
			m.status = "ready"
		}
		return m, nil

	case modeConfirmAction:
		switch msg.String() {
		case "esc", "n":
			return m.resolveConfirm(false)
		case "h", "left", "l", "right":
			if m.confirmChoice == 0 {
				m.confirmChoice = 1
			} else {
				m.confirmChoice = 0
			}
			return m, nil
		case "y":
			m.confirmChoice = 0
			return m.resolveConfirm(true)
		case "enter":
			return m.resolveConfirm(m.confirmChoice == 0)
		default:
			return m, nil
		}

	case modeColumnPicker:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.status = "cancelled"
			return m, nil
		case "j", "down":
			if m.pickerIndex < len(m.board.Columns)-1 {
				m.pickerIndex++
			}
			return m, nil
		case "k", "up":
			if m.pickerIndex > 0 {
				m.pickerIndex--
			}
			return m, nil
		case "enter":
			return m.submitColumnPicker()
		default:
			return m, nil
		}

	case modeDrag:
		return m.handleDragKey(msg)

	case modeAddColumn, modeRenameColumn, modeAddTask, modeRenameTask:
		switch {
		case msg.Code == tea.KeyEscape || msg.String() == "esc":
			m.mode = modeNone
			m.editingColumnID = ""
			m.editingTaskID = ""
			m.status = "cancelled"
			return m, nil
		case msg.Code == tea.KeyEnter || msg.String() == "enter":
			return m.submitInputMode()
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

	default:
		m.mode = modeNone
		return m, nil
	}
}

// submitInputMode applies the title prompt. Blank titles go to the store,
// which leaves the board unchanged.
func (m Model) submitInputMode() (tea.Model, tea.Cmd) {
	mode := m.mode
	title := m.input.Value()
	columnID := m.editingColumnID
	taskID := m.editingTaskID
	m.mode = modeNone
	m.editingColumnID = ""
	m.editingTaskID = ""

	noop := "no change"
	if strings.TrimSpace(title) == "" {
		noop = "empty title ignored"
	}

	switch mode {
	case modeAddColumn:
		return m, m.mutateCmd(actionMsg{status: "column added", noopStatus: "no change", focusLastColumn: true}, func(ctx context.Context) app.Result {
			return m.svc.AddNamedColumn(ctx, title)
		})
	case modeRenameColumn:
		return m, m.mutateCmd(actionMsg{status: "column renamed", noopStatus: noop}, func(ctx context.Context) app.Result {
			return m.svc.RenameColumn(ctx, columnID, title)
		})
	case modeAddTask:
		return m, m.mutateCmd(actionMsg{status: "task added", noopStatus: noop, focusLastTaskIn: columnID}, func(ctx context.Context) app.Result {
			return m.svc.AddTask(ctx, columnID, title)
		})
	case modeRenameTask:
		return m, m.mutateCmd(actionMsg{status: "task renamed", noopStatus: noop, focusTaskID: taskID}, func(ctx context.Context) app.Result {
			return m.svc.RenameTask(ctx, columnID, taskID, title)
		})
	default:
		return m, nil
	}
}

// mutateCmd runs one store mutation and reports it through an actionMsg based on template.
func (m Model) mutateCmd(template actionMsg, fn func(context.Context) app.Result) tea.Cmd {
	return func() tea.Msg {
		out := template
		out.result = fn(context.Background())
		return out
	}
}

// copyTitleCmd writes title to the system clipboard.
func (m Model) copyTitleCmd(title string) tea.Cmd {
	write := m.copyToClipboard
	return func() tea.Msg {
		return clipboardMsg{title: title, err: write(title)}
	}
}

// confirmDeleteTask asks before deleting the selected task.
func (m Model) confirmDeleteTask() (tea.Model, tea.Cmd) {
	col, task, ok := m.selectedTaskInCurrentColumn()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	message, ok := app.DeleteTaskPrompt(m.board, col.ID, task.ID)
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	action := confirmAction{Kind: confirmDeleteTask, Message: message, ColumnID: col.ID, TaskID: task.ID}
	if !m.confirm.DeleteTask {
		return m.applyConfirmedAction(action, true)
	}
	m.openConfirm(action, 1)
	return m, nil
}

// confirmDeleteColumn asks before deleting the selected column and its tasks.
func (m Model) confirmDeleteColumn() (tea.Model, tea.Cmd) {
	col, ok := m.currentColumn()
	if !ok {
		m.status = "no column selected"
		return m, nil
	}
	message, ok := app.DeleteColumnPrompt(m.board, col.ID)
	if !ok {
		m.status = "no column selected"
		return m, nil
	}
	action := confirmAction{Kind: confirmDeleteColumn, Message: message, ColumnID: col.ID}
	if !m.confirm.DeleteColumn {
		return m.applyConfirmedAction(action, true)
	}
	m.openConfirm(action, 1)
	return m, nil
}

// requestMove asks for confirmation of pm, or commits it directly when needsConfirm is false.
func (m Model) requestMove(pm app.PendingMove, needsConfirm bool) (tea.Model, tea.Cmd) {
	action := confirmAction{Kind: confirmMove, Message: pm.Message, Move: pm}
	if !needsConfirm {
		return m.applyConfirmedAction(action, true)
	}
	m.openConfirm(action, 0)
	return m, nil
}

// openConfirm shows the confirmation modal with the given default choice.
func (m *Model) openConfirm(action confirmAction, choice int) {
	m.help.ShowAll = false
	m.mode = modeConfirmAction
	m.pendingConfirm = action
	m.confirmChoice = choice
	m.status = "confirm action"
}

// resolveConfirm closes the modal and applies the decision.
func (m Model) resolveConfirm(decision bool) (tea.Model, tea.Cmd) {
	action := m.pendingConfirm
	m.mode = modeNone
	m.pendingConfirm = confirmAction{}
	m.confirmChoice = 0
	return m.applyConfirmedAction(action, decision)
}

// applyConfirmedAction applies one answered confirmation.
func (m Model) applyConfirmedAction(action confirmAction, decision bool) (tea.Model, tea.Cmd) {
	switch action.Kind {
	case confirmMove:
		pm := action.Move
		template := actionMsg{status: "task moved", noopStatus: "no change", focusTaskID: pm.TaskID}
		if !decision {
			template.noopStatus = "move declined"
		}
		m.status = "applying move..."
		return m, m.mutateCmd(template, func(ctx context.Context) app.Result {
			return m.svc.Commit(ctx, pm, decision)
		})
	case confirmDeleteTask:
		if !decision {
			m.status = "cancelled"
			return m, nil
		}
		columnID, taskID := action.ColumnID, action.TaskID
		return m, m.mutateCmd(actionMsg{status: "task deleted", noopStatus: "no change"}, func(ctx context.Context) app.Result {
			return m.svc.DeleteTask(ctx, columnID, taskID)
		})
	case confirmDeleteColumn:
		if !decision {
			m.status = "cancelled"
			return m, nil
		}
		columnID := action.ColumnID
		return m, m.mutateCmd(actionMsg{status: "column deleted", noopStatus: "no change"}, func(ctx context.Context) app.Result {
			return m.svc.DeleteColumn(ctx, columnID)
		})
	default:
		m.status = "unknown confirm action"
		return m, nil
	}
}

// startColumnPicker opens the move-to-column picker for the selected task.
func (m Model) startColumnPicker() (tea.Model, tea.Cmd) {
	if _, _, ok := m.selectedTaskInCurrentColumn(); !ok {
		m.status = "no task selected"
		return m, nil
	}
	m.help.ShowAll = false
	m.mode = modeColumnPicker
	m.pickerIndex = m.selectedColumn
	m.status = "move to column"
	return m, nil
}

// submitColumnPicker proposes a move into the highlighted column.
func (m Model) submitColumnPicker() (tea.Model, tea.Cmd) {
	m.mode = modeNone
	col, task, ok := m.selectedTaskInCurrentColumn()
	if !ok || len(m.board.Columns) == 0 {
		m.status = "no task selected"
		return m, nil
	}
	dest := m.board.Columns[clamp(m.pickerIndex, 0, len(m.board.Columns)-1)]
	pm, ok := m.svc.ProposeColumnMove(col.ID, task.ID, dest.ID)
	if !ok {
		m.status = "task already in " + dest.Title
		return m, nil
	}
	return m.requestMove(pm, m.confirm.ColumnMove)
}

// applyResult installs one store snapshot.
func (m *Model) applyResult(res app.Result) {
	m.board = res.Board
	m.revision = res.Revision
	m.clampSelections()
}

// clampSelections keeps the cursor inside the board.
func (m *Model) clampSelections() {
	if len(m.board.Columns) == 0 {
		m.selectedColumn = 0
		m.selectedTask = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.board.Columns)-1)
	tasks := m.board.Columns[m.selectedColumn].Tasks
	if len(tasks) == 0 {
		m.selectedTask = 0
		return
	}
	m.selectedTask = clamp(m.selectedTask, 0, len(tasks)-1)
}

// focusTaskByID moves the cursor onto taskID when it exists.
func (m *Model) focusTaskByID(taskID string) {
	loc, ok := m.board.FindTask(taskID)
	if !ok {
		return
	}
	m.selectedColumn = m.board.ColumnIndex(loc.ColumnID)
	m.selectedTask = loc.Index
}

// focusLastTaskInColumn moves the cursor onto the last task of columnID.
func (m *Model) focusLastTaskInColumn(columnID string) {
	idx := m.board.ColumnIndex(columnID)
	if idx < 0 {
		return
	}
	m.selectedColumn = idx
	m.selectedTask = max(0, len(m.board.Columns[idx].Tasks)-1)
}

// currentColumn returns the column under the cursor.
func (m Model) currentColumn() (domain.Column, bool) {
	if len(m.board.Columns) == 0 {
		return domain.Column{}, false
	}
	return m.board.Columns[clamp(m.selectedColumn, 0, len(m.board.Columns)-1)], true
}

// selectedTaskInCurrentColumn returns the task under the cursor with its column.
func (m Model) selectedTaskInCurrentColumn() (domain.Column, domain.Task, bool) {
	col, ok := m.currentColumn()
	if !ok || len(col.Tasks) == 0 {
		return domain.Column{}, domain.Task{}, false
	}
	idx := clamp(m.selectedTask, 0, len(col.Tasks)-1)
	return col, col.Tasks[idx], true
}

// renderColumns renders every column side by side.
func (m Model) renderColumns(accent, muted, dim color.Color) string {
	colWidth := m.columnWidthFor(m.width)
	colHeight := m.columnHeight()
	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(1, 2).
		MarginRight(1).
		Width(colWidth)
	selColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	draggedStyle := lipgloss.NewStyle().Foreground(muted).Italic(true)
	dropStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	columnViews := make([]string, 0, len(m.board.Columns))
	for colIdx, column := range m.board.Columns {
		headerLines := []string{colTitle.Render(fmt.Sprintf("%s (%s)", column.Title, app.TaskCountLabel(len(column.Tasks))))}

		dropAt := m.dropMarkerIndex(column)
		dropLine := dropStyle.Render(strings.Repeat("┈", max(1, colWidth-6)))
		taskLines := make([]string, 0, max(1, len(column.Tasks)*2))
		selectedStart := -1
		selectedEnd := -1
		if len(column.Tasks) == 0 && dropAt < 0 {
			taskLines = append(taskLines, emptyStyle.Render("(empty)"))
		}
		for taskIdx, task := range column.Tasks {
			if taskIdx == dropAt {
				taskLines = append(taskLines, dropLine)
			}
			selected := colIdx == m.selectedColumn && taskIdx == m.selectedTask && m.mode != modeDrag
			dragged := m.mode == modeDrag && task.ID == m.drag.TaskID

			prefix := "   "
			if selected {
				prefix = "│  "
			}
			title := prefix + truncate(task.Title, max(1, colWidth-10))
			switch {
			case dragged:
				title = draggedStyle.Render(title + " (dragging)")
			case selected:
				title = selectedTaskStyle.Render(title)
			}
			rowStart := len(taskLines)
			taskLines = append(taskLines, title)
			if taskIdx < len(column.Tasks)-1 {
				taskLines = append(taskLines, "")
			}
			if selected || (dragged && colIdx == m.selectedColumn) {
				selectedStart = rowStart
				selectedEnd = len(taskLines) - 1
			}
		}
		if dropAt >= len(column.Tasks) {
			taskLines = append(taskLines, dropLine)
		}

		innerHeight := max(1, colHeight-4)
		taskWindowHeight := max(1, innerHeight-len(headerLines))
		scrollTop := 0
		if colIdx == m.selectedColumn && selectedStart >= 0 {
			if selectedEnd >= scrollTop+taskWindowHeight {
				scrollTop = selectedEnd - taskWindowHeight + 1
			}
			if selectedStart < scrollTop {
				scrollTop = selectedStart
			}
		}
		maxScrollTop := max(0, len(taskLines)-taskWindowHeight)
		scrollTop = clamp(scrollTop, 0, maxScrollTop)
		if len(taskLines) > taskWindowHeight {
			taskLines = taskLines[scrollTop : scrollTop+taskWindowHeight]
		}

		lines := append(append([]string{}, headerLines...), taskLines...)
		content := fitLines(strings.Join(lines, "\n"), innerHeight)
		highlighted := colIdx == m.selectedColumn
		if m.mode == modeDrag {
			highlighted = column.ID == m.drag.Target.ColumnID
		}
		if highlighted {
			columnViews = append(columnViews, selColStyle.Render(content))
		} else {
			columnViews = append(columnViews, baseColStyle.Render(content))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderHelpOverlay renders the expanded help modal.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("HEXABOARD Help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Workflows"),
		"1. c add column  •  E rename column  •  D delete column with its tasks",
		"2. n add task  •  e rename task  •  d delete task  •  y copy title",
		"3. m grab task  •  h/j/k/l move drop target  •  enter drop  •  esc cancel",
		"4. s pick a destination column  •  every move asks before it applies",
		"5. g activity log  •  v markdown view of the board",
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderModeOverlay renders the modal for the active mode.
func (m Model) renderModeOverlay(accent, muted, dim color.Color, maxWidth int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeAddColumn, modeRenameColumn, modeAddTask, modeRenameTask:
		if maxWidth > 0 {
			style = style.Width(clamp(maxWidth, 36, 72))
		}
		title := map[inputMode]string{
			modeAddColumn:    "New Column",
			modeRenameColumn: "Rename Column",
			modeAddTask:      "New Task",
			modeRenameTask:   "Rename Task",
		}[m.mode]
		lines := []string{
			titleStyle.Render(title),
			m.input.View(),
			hintStyle.Render("enter save • esc cancel"),
		}
		return style.Render(strings.Join(lines, "\n"))

	case modeConfirmAction:
		if maxWidth > 0 {
			style = style.Width(clamp(maxWidth, 36, 88))
		}
		message := strings.TrimSpace(m.pendingConfirm.Message)
		if message == "" {
			message = "(unknown action)"
		}
		confirmStyle := lipgloss.NewStyle().Foreground(muted)
		cancelStyle := lipgloss.NewStyle().Foreground(muted)
		if m.confirmChoice == 0 {
			confirmStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
		} else {
			cancelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
		}
		lines := []string{
			titleStyle.Render("Confirm Action"),
			message,
			confirmStyle.Render("[confirm]") + "  " + cancelStyle.Render("[cancel]"),
			hintStyle.Render("enter apply • esc cancel • h/l switch • y confirm • n cancel"),
		}
		return style.Render(strings.Join(lines, "\n"))

	case modeColumnPicker:
		if maxWidth > 0 {
			style = style.Width(clamp(maxWidth, 32, 64))
		}
		lines := []string{titleStyle.Render("Move To Column")}
		for idx, col := range m.board.Columns {
			label := fmt.Sprintf("%s (%s)", col.Title, app.TaskCountLabel(len(col.Tasks)))
			if idx == m.selectedColumn {
				label += " • current"
			}
			if idx == m.pickerIndex {
				lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accent).Render("> "+label))
			} else {
				lines = append(lines, "  "+label)
			}
		}
		lines = append(lines, hintStyle.Render("j/k select • enter choose • esc cancel"))
		return style.Render(strings.Join(lines, "\n"))

	case modeActivityLog:
		if maxWidth > 0 {
			style = style.Width(clamp(maxWidth, 44, 96))
		}
		lines := []string{titleStyle.Render("Activity Log")}
		if len(m.activityLog) == 0 {
			lines = append(lines, hintStyle.Render("(no activity yet)"))
		} else {
			rendered := 0
			for idx := len(m.activityLog) - 1; idx >= 0; idx-- {
				entry := m.activityLog[idx]
				lines = append(lines, fmt.Sprintf("%s  r%d %s • %s", formatActivityTimestamp(entry.At), entry.Revision, entry.Summary, truncate(entry.Target, 42)))
				rendered++
				if rendered >= activityLogViewWindow {
					break
				}
			}
		}
		lines = append(lines, hintStyle.Render("esc close"))
		return style.Render(strings.Join(lines, "\n"))

	case modeMarkdown:
		width := clamp(maxWidth, 40, 100)
		if maxWidth > 0 {
			style = style.Width(width)
		}
		rendered := m.markdown.render(app.RenderMarkdown(m.boardTitle, m.board), width-4)
		if m.height > 0 {
			rendered = fitLines(rendered, max(4, m.height-8))
		}
		lines := []string{
			titleStyle.Render("Markdown"),
			rendered,
			hintStyle.Render("esc close"),
		}
		return style.Render(strings.Join(lines, "\n"))

	default:
		return ""
	}
}

// modeLabel handles mode label.
func (m Model) modeLabel() string {
	switch m.mode {
	case modeAddColumn:
		return "add-column"
	case modeRenameColumn:
		return "rename-column"
	case modeAddTask:
		return "add-task"
	case modeRenameTask:
		return "rename-task"
	case modeConfirmAction:
		return "confirm"
	case modeColumnPicker:
		return "move"
	case modeDrag:
		return "drag"
	case modeActivityLog:
		return "activity"
	case modeMarkdown:
		return "markdown"
	default:
		return "normal"
	}
}

// modePrompt handles mode prompt.
func (m Model) modePrompt() string {
	switch m.mode {
	case modeDrag:
		return fmt.Sprintf("drop target: %s #%d (enter drop, esc cancel)", m.columnTitle(m.drag.Target.ColumnID), m.drag.Target.Index+1)
	case modeColumnPicker:
		return "move to column: j/k select, enter choose, esc cancel"
	case modeConfirmAction:
		return "confirm action: enter confirm, esc cancel"
	default:
		return ""
	}
}

// columnTitle returns the title of columnID or the id itself.
func (m Model) columnTitle(columnID string) string {
	if col, ok := m.board.Column(columnID); ok {
		return col.Title
	}
	return columnID
}

// formatActivityTimestamp formats activity timestamps for compact modal rendering.
func formatActivityTimestamp(at time.Time) string {
	if at.IsZero() {
		return "--:--:--"
	}
	local := at.Local()
	now := time.Now().In(local.Location())
	if local.Year() != now.Year() || local.YearDay() != now.YearDay() {
		return local.Format("01-02 15:04")
	}
	return local.Format("15:04:05")
}

// columnWidthFor returns column width for.
func (m Model) columnWidthFor(boardWidth int) int {
	if len(m.board.Columns) == 0 {
		return 24
	}
	w := 28
	if boardWidth > 0 {
		// Per-column overhead: left/right border (2), horizontal padding (4), margin-right (1)
		const colOverhead = 7
		usable := boardWidth - len(m.board.Columns)*colOverhead
		candidate := usable / len(m.board.Columns)
		if candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 18, 42)
}

// columnHeight returns column height.
func (m Model) columnHeight() int {
	const headerLines = 3
	const footerLines = 5
	h := m.height - headerLines - footerLines
	if h < 10 {
		return 10
	}
	return h
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit <= 1 {
		return string(rs[:limit])
	}
	return string(rs[:limit-1]) + "…"
}
