package tui

import (
	"fmt"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/hexaboard/internal/app"
	"github.com/evanschultz/hexaboard/internal/domain"
)

// dragState tracks a grabbed task and its current drop target. Target.Index
// is measured after the task leaves its source column.
type dragState struct {
	TaskID string
	Title  string
	Source domain.Location
	Target domain.Location
}

// startDrag grabs the selected task.
func (m Model) startDrag() (tea.Model, tea.Cmd) {
	col, task, ok := m.selectedTaskInCurrentColumn()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	src := domain.Location{ColumnID: col.ID, Index: clamp(m.selectedTask, 0, len(col.Tasks)-1)}
	m.help.ShowAll = false
	m.mode = modeDrag
	m.drag = dragState{TaskID: task.ID, Title: task.Title, Source: src, Target: src}
	m.status = fmt.Sprintf("dragging %q", truncate(task.Title, 28))
	return m, nil
}

// handleDragKey moves the drop target or ends the drag.
func (m Model) handleDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancelDrag):
		return m.endDrag(app.DragGesture{DraggedTaskID: m.drag.TaskID, Source: m.drag.Source})
	case key.Matches(msg, m.keys.dropTask):
		target := m.drag.Target
		return m.endDrag(app.DragGesture{DraggedTaskID: m.drag.TaskID, Source: m.drag.Source, Destination: &target})
	case key.Matches(msg, m.keys.moveLeft):
		m.shiftDragColumn(-1)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.shiftDragColumn(1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.drag.Target.Index = clamp(m.drag.Target.Index-1, 0, m.maxDropIndex(m.drag.Target.ColumnID))
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.drag.Target.Index = clamp(m.drag.Target.Index+1, 0, m.maxDropIndex(m.drag.Target.ColumnID))
		return m, nil
	default:
		return m, nil
	}
}

// shiftDragColumn moves the drop target delta columns, keeping the index in range.
func (m *Model) shiftDragColumn(delta int) {
	idx := m.board.ColumnIndex(m.drag.Target.ColumnID)
	if idx < 0 || len(m.board.Columns) == 0 {
		return
	}
	idx = clamp(idx+delta, 0, len(m.board.Columns)-1)
	columnID := m.board.Columns[idx].ID
	m.drag.Target = domain.Location{
		ColumnID: columnID,
		Index:    clamp(m.drag.Target.Index, 0, m.maxDropIndex(columnID)),
	}
}

// maxDropIndex returns the last valid drop index in columnID.
func (m Model) maxDropIndex(columnID string) int {
	col, ok := m.board.Column(columnID)
	if !ok {
		return 0
	}
	if columnID == m.drag.Source.ColumnID {
		return max(0, len(col.Tasks)-1)
	}
	return len(col.Tasks)
}

// dropMarkerIndex returns the display row of the drop marker inside column, or -1.
func (m Model) dropMarkerIndex(column domain.Column) int {
	if m.mode != modeDrag || column.ID != m.drag.Target.ColumnID {
		return -1
	}
	idx := m.drag.Target.Index
	if column.ID == m.drag.Source.ColumnID && idx >= m.drag.Source.Index {
		idx++
	}
	return idx
}

// endDrag resolves the gesture and asks for confirmation when it would change the board.
func (m Model) endDrag(g app.DragGesture) (tea.Model, tea.Cmd) {
	m.mode = modeNone
	m.drag = dragState{}
	pm, ok := m.svc.Propose(g)
	if !ok {
		if g.Destination == nil {
			m.status = "drag cancelled"
		} else {
			m.status = "no move"
		}
		return m, nil
	}
	return m.requestMove(pm, m.confirm.Drag)
}
