package app

import (
	"context"
	"fmt"

	"github.com/evanschultz/hexaboard/internal/domain"
)

// MoveKind identifies which board operation a pending move commits to.
type MoveKind string

// MoveKindReorder and related constants define package defaults.
const (
	MoveKindReorder  MoveKind = "reorder"
	MoveKindTransfer MoveKind = "transfer"
	MoveKindColumn   MoveKind = "column"
)

// DragGesture is the outcome of one drag. A nil Destination means the drag was cancelled.
type DragGesture struct {
	DraggedTaskID string           `json:"dragged_task_id"`
	Source        domain.Location  `json:"source"`
	Destination   *domain.Location `json:"destination,omitempty"`
}

// PendingMove is a resolved move awaiting a yes/no decision.
type PendingMove struct {
	Kind             MoveKind        `json:"kind"`
	TaskID           string          `json:"task_id"`
	TaskTitle        string          `json:"task_title"`
	Source           domain.Location `json:"source"`
	Destination      domain.Location `json:"destination"`
	SourceTitle      string          `json:"source_title"`
	DestinationTitle string          `json:"destination_title"`
	Message          string          `json:"message"`
}

// Confirmer answers a yes/no question.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(message string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(message string) bool {
	return f(message)
}

// Propose resolves a drag gesture against b. It reports false when the
// gesture cannot change the board and no confirmation should be asked,
// including when the dragged task no longer sits at the source index.
func Propose(b domain.Board, g DragGesture) (PendingMove, bool) {
	if g.Destination == nil {
		return PendingMove{}, false
	}
	dst := *g.Destination
	if dst.ColumnID == g.Source.ColumnID && dst.Index == g.Source.Index {
		return PendingMove{}, false
	}
	src, ok := b.Column(g.Source.ColumnID)
	if !ok {
		return PendingMove{}, false
	}
	if !src.HasTaskAt(g.Source.Index, g.DraggedTaskID) {
		return PendingMove{}, false
	}
	task := src.Tasks[g.Source.Index]
	pm := PendingMove{
		TaskID:      task.ID,
		TaskTitle:   task.Title,
		Source:      g.Source,
		Destination: dst,
		SourceTitle: src.Title,
	}
	if dst.ColumnID == src.ID {
		pm.Kind = MoveKindReorder
		pm.DestinationTitle = src.Title
		pm.Message = fmt.Sprintf(`Move task within "%s" to position %d?`, src.Title, dst.Index+1)
		return pm, true
	}
	dest, ok := b.Column(dst.ColumnID)
	if !ok {
		return PendingMove{}, false
	}
	pm.Kind = MoveKindTransfer
	pm.DestinationTitle = dest.Title
	pm.Message = fmt.Sprintf(`Move task "%s" from "%s" to "%s"?`, task.Title, src.Title, dest.Title)
	return pm, true
}

// ProposeColumnMove resolves a column-picker move of taskID into destColumnID.
func ProposeColumnMove(b domain.Board, sourceColumnID, taskID, destColumnID string) (PendingMove, bool) {
	if sourceColumnID == destColumnID {
		return PendingMove{}, false
	}
	src, ok := b.Column(sourceColumnID)
	if !ok {
		return PendingMove{}, false
	}
	idx := src.TaskIndex(taskID)
	if idx < 0 {
		return PendingMove{}, false
	}
	dest, ok := b.Column(destColumnID)
	if !ok {
		return PendingMove{}, false
	}
	task := src.Tasks[idx]
	return PendingMove{
		Kind:             MoveKindColumn,
		TaskID:           task.ID,
		TaskTitle:        task.Title,
		Source:           domain.Location{ColumnID: src.ID, Index: idx},
		Destination:      domain.Location{ColumnID: dest.ID, Index: len(dest.Tasks)},
		SourceTitle:      src.Title,
		DestinationTitle: dest.Title,
		Message:          fmt.Sprintf(`Move task "%s" to "%s"?`, task.Title, dest.Title),
	}, true
}

// ApplyMove commits pm to b when decision is true.
//
// A move proposed against an older snapshot is a no-op once the task has left
// its recorded source position.
func ApplyMove(b domain.Board, pm PendingMove, decision bool) domain.Board {
	if !decision {
		return b
	}
	next, _ := resolveMove(b, pm)
	return next
}

// resolveMove computes the board after pm and the change event describing it.
func resolveMove(b domain.Board, pm PendingMove) (domain.Board, domain.ChangeEvent) {
	src, dst := pm.Source, pm.Destination
	switch pm.Kind {
	case MoveKindReorder:
		return b.ReorderTaskWithinColumn(src.ColumnID, pm.TaskID, src.Index, dst.Index),
			reorderEvent(src.ColumnID, pm.TaskID, src.Index, dst.Index)
	case MoveKindTransfer:
		return b.MoveTaskBetweenColumnsAtIndex(src.ColumnID, dst.ColumnID, pm.TaskID, src.Index, dst.Index),
			transferEvent(src.ColumnID, dst.ColumnID, pm.TaskID, src.Index, dst.Index)
	case MoveKindColumn:
		return b.MoveTaskToColumn(src.ColumnID, dst.ColumnID, pm.TaskID),
			columnMoveEvent(src.ColumnID, dst.ColumnID, pm.TaskID)
	default:
		return b, domain.ChangeEvent{}
	}
}

// Propose resolves g against the current snapshot.
func (s *Store) Propose(g DragGesture) (PendingMove, bool) {
	return Propose(s.Snapshot(), g)
}

// ProposeColumnMove resolves a column-picker move against the current snapshot.
func (s *Store) ProposeColumnMove(sourceColumnID, taskID, destColumnID string) (PendingMove, bool) {
	return ProposeColumnMove(s.Snapshot(), sourceColumnID, taskID, destColumnID)
}

// Commit applies pm when decision is true. Declined moves leave the board unchanged.
func (s *Store) Commit(ctx context.Context, pm PendingMove, decision bool) Result {
	if !decision {
		return s.State()
	}
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		return resolveMove(b, pm)
	})
}

// HandleDragEnd proposes g, asks confirmer, and commits the answer.
// A nil confirmer declines every move.
func (s *Store) HandleDragEnd(ctx context.Context, g DragGesture, confirmer Confirmer) Result {
	pm, ok := s.Propose(g)
	if !ok {
		return s.State()
	}
	decision := confirmer != nil && confirmer.Confirm(pm.Message)
	return s.Commit(ctx, pm, decision)
}

// DeleteColumnPrompt returns the confirmation text for deleting a column.
func DeleteColumnPrompt(b domain.Board, columnID string) (string, bool) {
	col, ok := b.Column(columnID)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(`Delete column "%s" and all its tasks?`, col.Title), true
}

// DeleteTaskPrompt returns the confirmation text for deleting a task.
func DeleteTaskPrompt(b domain.Board, columnID, taskID string) (string, bool) {
	col, ok := b.Column(columnID)
	if !ok {
		return "", false
	}
	task, ok := col.Task(taskID)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(`Delete task "%s"?`, task.Title), true
}
