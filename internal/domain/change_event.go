package domain

import "time"

// ChangeOperation describes one recorded board mutation.
type ChangeOperation string

// ChangeOperation values used by the session activity journal.
const (
	ChangeOperationAddColumn    ChangeOperation = "add_column"
	ChangeOperationRenameColumn ChangeOperation = "rename_column"
	ChangeOperationDeleteColumn ChangeOperation = "delete_column"
	ChangeOperationAddTask      ChangeOperation = "add_task"
	ChangeOperationRenameTask   ChangeOperation = "rename_task"
	ChangeOperationDeleteTask   ChangeOperation = "delete_task"
	ChangeOperationMoveTask     ChangeOperation = "move_task"
	ChangeOperationReorderTask  ChangeOperation = "reorder_task"
)

// ChangeEvent represents a single activity-log entry for the board.
type ChangeEvent struct {
	ID         int64             `json:"id"`
	Revision   uint64            `json:"revision"`
	Operation  ChangeOperation   `json:"operation"`
	ColumnID   string            `json:"column_id,omitempty"`
	TaskID     string            `json:"task_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
