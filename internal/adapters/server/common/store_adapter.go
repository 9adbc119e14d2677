package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/hexaboard/internal/app"
	"github.com/evanschultz/hexaboard/internal/domain"
)

// StoreAdapter maps transport contracts onto an app.Store and its pending-move registry.
type StoreAdapter struct {
	store   *app.Store
	pending *app.PendingMoves
	title   string
}

// NewStoreAdapter builds one common adapter. title heads the markdown export.
func NewStoreAdapter(store *app.Store, pending *app.PendingMoves, title string) *StoreAdapter {
	return &StoreAdapter{store: store, pending: pending, title: title}
}

// GetBoard returns the current snapshot.
func (a *StoreAdapter) GetBoard(_ context.Context) (BoardState, error) {
	if err := a.ready(); err != nil {
		return BoardState{}, err
	}
	res := a.store.State()
	return BoardState{Board: res.Board, Revision: res.Revision}, nil
}

// BoardMarkdown renders the current snapshot as markdown.
func (a *StoreAdapter) BoardMarkdown(_ context.Context) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	return app.RenderMarkdown(a.title, a.store.Snapshot()), nil
}

// AddColumn adds one column.
func (a *StoreAdapter) AddColumn(ctx context.Context, in AddColumnRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.AddNamedColumn(ctx, in.Title)), nil
}

// RenameColumn renames one column.
func (a *StoreAdapter) RenameColumn(ctx context.Context, in RenameColumnRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("rename column", "column_id", in.ColumnID); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.RenameColumn(ctx, clean(in.ColumnID), in.Title)), nil
}

// DeleteColumn deletes one column.
func (a *StoreAdapter) DeleteColumn(ctx context.Context, in DeleteColumnRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("delete column", "column_id", in.ColumnID); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.DeleteColumn(ctx, clean(in.ColumnID))), nil
}

// AddTask appends one task.
func (a *StoreAdapter) AddTask(ctx context.Context, in AddTaskRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("add task", "column_id", in.ColumnID); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.AddTask(ctx, clean(in.ColumnID), in.Title)), nil
}

// RenameTask renames one task.
func (a *StoreAdapter) RenameTask(ctx context.Context, in RenameTaskRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("rename task", "column_id", in.ColumnID, "task_id", in.TaskID); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.RenameTask(ctx, clean(in.ColumnID), clean(in.TaskID), in.Title)), nil
}

// DeleteTask deletes one task.
func (a *StoreAdapter) DeleteTask(ctx context.Context, in DeleteTaskRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("delete task", "column_id", in.ColumnID, "task_id", in.TaskID); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.DeleteTask(ctx, clean(in.ColumnID), clean(in.TaskID))), nil
}

// MoveTask appends a task to another column.
func (a *StoreAdapter) MoveTask(ctx context.Context, in MoveTaskRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("move task", "source_column_id", in.SourceColumnID, "dest_column_id", in.DestColumnID, "task_id", in.TaskID); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.MoveTaskToColumn(ctx, clean(in.SourceColumnID), clean(in.DestColumnID), clean(in.TaskID))), nil
}

// ReorderTask moves a task inside its column.
func (a *StoreAdapter) ReorderTask(ctx context.Context, in ReorderTaskRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("reorder task", "column_id", in.ColumnID, "task_id", in.TaskID); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.ReorderTaskWithinColumn(ctx, clean(in.ColumnID), clean(in.TaskID), in.FromIndex, in.ToIndex)), nil
}

// MoveTaskAt moves a task to an index in a destination column.
func (a *StoreAdapter) MoveTaskAt(ctx context.Context, in MoveTaskAtRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("move task at", "source_column_id", in.SourceColumnID, "dest_column_id", in.DestColumnID, "task_id", in.TaskID); err != nil {
		return MutationResult{}, err
	}
	return toMutation(a.store.MoveTaskBetweenColumnsAtIndex(ctx, clean(in.SourceColumnID), clean(in.DestColumnID), clean(in.TaskID), in.FromIndex, in.ToIndex)), nil
}

// ProposeDrag resolves a gesture and parks it under a token until committed.
func (a *StoreAdapter) ProposeDrag(_ context.Context, g app.DragGesture) (DragProposal, error) {
	if err := a.ready(); err != nil {
		return DragProposal{}, err
	}
	if err := requireIDs("propose drag", "dragged_task_id", g.DraggedTaskID, "source.column_id", g.Source.ColumnID); err != nil {
		return DragProposal{}, err
	}
	pm, ok := a.store.Propose(g)
	if !ok {
		return DragProposal{Pending: false}, nil
	}
	token, err := a.pending.Put(pm)
	if err != nil {
		return DragProposal{}, mapAppError("propose drag", err)
	}
	return DragProposal{Pending: true, Token: token, Message: pm.Message, Move: &pm}, nil
}

// CommitDrag resolves a pending drag with the caller's decision.
func (a *StoreAdapter) CommitDrag(ctx context.Context, in CommitDragRequest) (MutationResult, error) {
	if err := a.ready(); err != nil {
		return MutationResult{}, err
	}
	if err := requireIDs("commit drag", "token", in.Token); err != nil {
		return MutationResult{}, err
	}
	pm, err := a.pending.Take(clean(in.Token))
	if err != nil {
		return MutationResult{}, mapAppError("commit drag", err)
	}
	return toMutation(a.store.Commit(ctx, pm, in.Confirm)), nil
}

// ListActivity lists recorded board changes.
func (a *StoreAdapter) ListActivity(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	events, err := a.store.ListActivity(ctx, limit)
	if err != nil {
		return nil, mapAppError("list activity", err)
	}
	return events, nil
}

// ready reports whether the adapter has its required collaborators.
func (a *StoreAdapter) ready() error {
	if a == nil || a.store == nil || a.pending == nil {
		return fmt.Errorf("store adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

// requireIDs validates name/value pairs of required identifiers.
func requireIDs(operation string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if clean(pairs[i+1]) == "" {
			return fmt.Errorf("%s: %s is required: %w", operation, pairs[i], ErrInvalidRequest)
		}
	}
	return nil
}

// mapAppError maps app-layer errors onto transport sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrNoJournal):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrActivityUnavailable, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

func toMutation(res app.Result) MutationResult {
	return MutationResult{Board: res.Board, Revision: res.Revision, Changed: res.Changed}
}

func clean(v string) string {
	return strings.TrimSpace(v)
}
