// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/evanschultz/hexaboard/internal/app"
	"github.com/evanschultz/hexaboard/internal/domain"
)

// ErrInvalidRequest reports malformed transport input such as a missing required id.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrActivityUnavailable reports missing activity-journal backing support.
var ErrActivityUnavailable = errors.New("activity surface unavailable")

// BoardState is one snapshot together with its revision.
type BoardState struct {
	Board    domain.Board `json:"board"`
	Revision uint64       `json:"revision"`
}

// MutationResult is the response of every board mutation. Changed is false for no-ops.
type MutationResult struct {
	Board    domain.Board `json:"board"`
	Revision uint64       `json:"revision"`
	Changed  bool         `json:"changed"`
}

// AddColumnRequest adds one column; a blank title uses the configured default.
type AddColumnRequest struct {
	Title string `json:"title"`
}

// RenameColumnRequest renames one column.
type RenameColumnRequest struct {
	ColumnID string `json:"column_id"`
	Title    string `json:"title"`
}

// DeleteColumnRequest deletes one column and its tasks.
type DeleteColumnRequest struct {
	ColumnID string `json:"column_id"`
}

// AddTaskRequest appends one task to a column.
type AddTaskRequest struct {
	ColumnID string `json:"column_id"`
	Title    string `json:"title"`
}

// RenameTaskRequest renames one task.
type RenameTaskRequest struct {
	ColumnID string `json:"column_id"`
	TaskID   string `json:"task_id"`
	Title    string `json:"title"`
}

// DeleteTaskRequest deletes one task.
type DeleteTaskRequest struct {
	ColumnID string `json:"column_id"`
	TaskID   string `json:"task_id"`
}

// MoveTaskRequest appends a task to another column.
type MoveTaskRequest struct {
	SourceColumnID string `json:"source_column_id"`
	DestColumnID   string `json:"dest_column_id"`
	TaskID         string `json:"task_id"`
}

// ReorderTaskRequest moves a task inside its column.
type ReorderTaskRequest struct {
	ColumnID  string `json:"column_id"`
	TaskID    string `json:"task_id"`
	FromIndex int    `json:"from_index"`
	ToIndex   int    `json:"to_index"`
}

// MoveTaskAtRequest moves a task to an index in another (or the same) column.
type MoveTaskAtRequest struct {
	SourceColumnID string `json:"source_column_id"`
	DestColumnID   string `json:"dest_column_id"`
	TaskID         string `json:"task_id"`
	FromIndex      int    `json:"from_index"`
	ToIndex        int    `json:"to_index"`
}

// DragProposal reports a pending drag awaiting confirmation. Pending is false
// when the gesture needs no confirmation because it changes nothing.
type DragProposal struct {
	Pending bool             `json:"pending"`
	Token   string           `json:"token,omitempty"`
	Message string           `json:"message,omitempty"`
	Move    *app.PendingMove `json:"move,omitempty"`
}

// CommitDragRequest resolves one pending drag.
type CommitDragRequest struct {
	Token   string `json:"token"`
	Confirm bool   `json:"confirm"`
}

// BoardService exposes board reads and mutations to transports.
type BoardService interface {
	GetBoard(context.Context) (BoardState, error)
	BoardMarkdown(context.Context) (string, error)
	AddColumn(context.Context, AddColumnRequest) (MutationResult, error)
	RenameColumn(context.Context, RenameColumnRequest) (MutationResult, error)
	DeleteColumn(context.Context, DeleteColumnRequest) (MutationResult, error)
	AddTask(context.Context, AddTaskRequest) (MutationResult, error)
	RenameTask(context.Context, RenameTaskRequest) (MutationResult, error)
	DeleteTask(context.Context, DeleteTaskRequest) (MutationResult, error)
	MoveTask(context.Context, MoveTaskRequest) (MutationResult, error)
	ReorderTask(context.Context, ReorderTaskRequest) (MutationResult, error)
	MoveTaskAt(context.Context, MoveTaskAtRequest) (MutationResult, error)
	ProposeDrag(context.Context, app.DragGesture) (DragProposal, error)
	CommitDrag(context.Context, CommitDragRequest) (MutationResult, error)
}

// ActivityService lists recorded board changes. Transports treat a nil value as unavailable.
type ActivityService interface {
	ListActivity(context.Context, int) ([]domain.ChangeEvent, error)
}
