package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Board is the full, ordered collection of columns and their tasks.
//
// Every mutating method returns a new Board and leaves the receiver untouched.
// Unknown ids, out-of-range indexes and blank titles make the operation a no-op
// that returns the receiver unchanged.
type Board struct {
	Columns []Column `json:"columns"`
}

// Location addresses one slot inside a column's task list.
type Location struct {
	ColumnID string `json:"column_id"`
	Index    int    `json:"index"`
}

// NewBoard builds a board from the given columns.
func NewBoard(columns ...Column) Board {
	b := Board{Columns: make([]Column, 0, len(columns))}
	for _, col := range columns {
		b.Columns = append(b.Columns, col.clone())
	}
	return b
}

// ColumnIndex returns the position of columnID, or -1.
func (b Board) ColumnIndex(columnID string) int {
	return slices.IndexFunc(b.Columns, func(c Column) bool { return c.ID == columnID })
}

// Column returns the column with the given id.
func (b Board) Column(columnID string) (Column, bool) {
	idx := b.ColumnIndex(columnID)
	if idx < 0 {
		return Column{}, false
	}
	return b.Columns[idx], true
}

// FindTask locates a task anywhere on the board.
func (b Board) FindTask(taskID string) (Location, bool) {
	for _, col := range b.Columns {
		if idx := col.TaskIndex(taskID); idx >= 0 {
			return Location{ColumnID: col.ID, Index: idx}, true
		}
	}
	return Location{}, false
}

// TaskCount returns the number of tasks across all columns.
func (b Board) TaskCount() int {
	total := 0
	for _, col := range b.Columns {
		total += len(col.Tasks)
	}
	return total
}

// HasID reports whether id is already used by any column or task.
func (b Board) HasID(id string) bool {
	if b.ColumnIndex(id) >= 0 {
		return true
	}
	_, ok := b.FindTask(id)
	return ok
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	return NewBoard(b.Columns...)
}

// Validate checks id uniqueness and title invariants.
func (b Board) Validate() error {
	seenColumns := map[string]struct{}{}
	seenTasks := map[string]struct{}{}
	for i, col := range b.Columns {
		if strings.TrimSpace(col.ID) == "" {
			return fmt.Errorf("columns[%d]: %w", i, ErrInvalidID)
		}
		if strings.TrimSpace(col.Title) == "" {
			return fmt.Errorf("columns[%d]: %w", i, ErrInvalidTitle)
		}
		if _, ok := seenColumns[col.ID]; ok {
			return fmt.Errorf("column %q: %w", col.ID, ErrDuplicateID)
		}
		seenColumns[col.ID] = struct{}{}
		for j, task := range col.Tasks {
			if strings.TrimSpace(task.ID) == "" {
				return fmt.Errorf("columns[%d].tasks[%d]: %w", i, j, ErrInvalidID)
			}
			if strings.TrimSpace(task.Title) == "" {
				return fmt.Errorf("columns[%d].tasks[%d]: %w", i, j, ErrInvalidTitle)
			}
			if _, ok := seenTasks[task.ID]; ok {
				return fmt.Errorf("task %q: %w", task.ID, ErrDuplicateID)
			}
			seenTasks[task.ID] = struct{}{}
		}
	}
	return nil
}

// AddColumn appends an empty column. A blank title falls back to DefaultColumnTitle.
func (b Board) AddColumn(id, title string) Board {
	id = strings.TrimSpace(id)
	if id == "" || b.ColumnIndex(id) >= 0 {
		return b
	}
	title, ok := normalizeTitle(title)
	if !ok {
		title = DefaultColumnTitle
	}
	out := b.shallowCopy()
	out.Columns = append(out.Columns, Column{ID: id, Title: title, Tasks: []Task{}})
	return out
}

// RenameColumn replaces a column title when the trimmed title is non-empty.
func (b Board) RenameColumn(columnID, title string) Board {
	idx := b.ColumnIndex(columnID)
	if idx < 0 {
		return b
	}
	title, ok := normalizeTitle(title)
	if !ok || b.Columns[idx].Title == title {
		return b
	}
	col := b.Columns[idx]
	col.Title = title
	return b.withColumn(idx, col)
}

// DeleteColumn removes a column together with all of its tasks.
func (b Board) DeleteColumn(columnID string) Board {
	idx := b.ColumnIndex(columnID)
	if idx < 0 {
		return b
	}
	out := b.shallowCopy()
	out.Columns = slices.Delete(out.Columns, idx, idx+1)
	return out
}

// AddTask appends a task to the end of a column.
func (b Board) AddTask(columnID, taskID, title string) Board {
	idx := b.ColumnIndex(columnID)
	if idx < 0 {
		return b
	}
	task, err := NewTask(taskID, title)
	if err != nil {
		return b
	}
	if _, exists := b.FindTask(task.ID); exists {
		return b
	}
	col := b.Columns[idx].clone()
	col.Tasks = append(col.Tasks, task)
	return b.withColumn(idx, col)
}

// RenameTask replaces a task title when the trimmed title is non-empty.
func (b Board) RenameTask(columnID, taskID, title string) Board {
	colIdx := b.ColumnIndex(columnID)
	if colIdx < 0 {
		return b
	}
	taskIdx := b.Columns[colIdx].TaskIndex(taskID)
	if taskIdx < 0 {
		return b
	}
	title, ok := normalizeTitle(title)
	if !ok || b.Columns[colIdx].Tasks[taskIdx].Title == title {
		return b
	}
	col := b.Columns[colIdx].clone()
	col.Tasks[taskIdx].Title = title
	return b.withColumn(colIdx, col)
}

// DeleteTask removes a task from the named column.
func (b Board) DeleteTask(columnID, taskID string) Board {
	colIdx := b.ColumnIndex(columnID)
	if colIdx < 0 {
		return b
	}
	taskIdx := b.Columns[colIdx].TaskIndex(taskID)
	if taskIdx < 0 {
		return b
	}
	col := b.Columns[colIdx].clone()
	col.Tasks = slices.Delete(col.Tasks, taskIdx, taskIdx+1)
	return b.withColumn(colIdx, col)
}

// MoveTaskToColumn moves a task to the end of another column.
func (b Board) MoveTaskToColumn(sourceColumnID, destColumnID, taskID string) Board {
	if sourceColumnID == destColumnID {
		return b
	}
	srcIdx := b.ColumnIndex(sourceColumnID)
	dstIdx := b.ColumnIndex(destColumnID)
	if srcIdx < 0 || dstIdx < 0 {
		return b
	}
	fromIndex := b.Columns[srcIdx].TaskIndex(taskID)
	if fromIndex < 0 {
		return b
	}
	return b.transfer(srcIdx, dstIdx, fromIndex, len(b.Columns[dstIdx].Tasks))
}

// ReorderTaskWithinColumn removes the task at fromIndex and reinserts it at toIndex.
//
// toIndex is measured after the removal and clamped into the list bounds. The
// task at fromIndex must be taskID.
func (b Board) ReorderTaskWithinColumn(columnID, taskID string, fromIndex, toIndex int) Board {
	colIdx := b.ColumnIndex(columnID)
	if colIdx < 0 || !b.Columns[colIdx].HasTaskAt(fromIndex, taskID) {
		return b
	}
	col := b.Columns[colIdx].clone()
	task := col.Tasks[fromIndex]
	col.Tasks = slices.Delete(col.Tasks, fromIndex, fromIndex+1)
	toIndex = clampIndex(toIndex, len(col.Tasks))
	if toIndex == fromIndex {
		return b
	}
	col.Tasks = slices.Insert(col.Tasks, toIndex, task)
	return b.withColumn(colIdx, col)
}

// MoveTaskBetweenColumnsAtIndex removes the task at fromIndex in the source
// column and inserts it at toIndex in the destination column.
func (b Board) MoveTaskBetweenColumnsAtIndex(sourceColumnID, destColumnID, taskID string, fromIndex, toIndex int) Board {
	if sourceColumnID == destColumnID {
		return b.ReorderTaskWithinColumn(sourceColumnID, taskID, fromIndex, toIndex)
	}
	srcIdx := b.ColumnIndex(sourceColumnID)
	dstIdx := b.ColumnIndex(destColumnID)
	if srcIdx < 0 || dstIdx < 0 || !b.Columns[srcIdx].HasTaskAt(fromIndex, taskID) {
		return b
	}
	return b.transfer(srcIdx, dstIdx, fromIndex, toIndex)
}

// transfer moves the task at fromIndex of column srcIdx into column dstIdx.
func (b Board) transfer(srcIdx, dstIdx, fromIndex, toIndex int) Board {
	src := b.Columns[srcIdx].clone()
	dst := b.Columns[dstIdx].clone()
	task := src.Tasks[fromIndex]
	src.Tasks = slices.Delete(src.Tasks, fromIndex, fromIndex+1)
	dst.Tasks = slices.Insert(dst.Tasks, clampIndex(toIndex, len(dst.Tasks)), task)

	out := b.shallowCopy()
	out.Columns[srcIdx] = src
	out.Columns[dstIdx] = dst
	return out
}

// shallowCopy copies the column slice; column task slices stay shared.
func (b Board) shallowCopy() Board {
	cols := make([]Column, len(b.Columns))
	copy(cols, b.Columns)
	return Board{Columns: cols}
}

// withColumn returns a copy of b with the column at idx replaced.
func (b Board) withColumn(idx int, col Column) Board {
	out := b.shallowCopy()
	out.Columns[idx] = col
	return out
}

// HasTaskAt reports whether taskID sits at index.
func (c Column) HasTaskAt(index int, taskID string) bool {
	return index >= 0 && index < len(c.Tasks) && c.Tasks[index].ID == taskID
}

func clampIndex(idx, length int) int {
	if idx < 0 {
		return 0
	}
	if idx > length {
		return length
	}
	return idx
}

// Equal reports whether o holds the same columns and tasks in the same order.
func (b Board) Equal(o Board) bool {
	return slices.EqualFunc(b.Columns, o.Columns, func(x, y Column) bool {
		return x.ID == y.ID && x.Title == y.Title && slices.Equal(x.Tasks, y.Tasks)
	})
}
