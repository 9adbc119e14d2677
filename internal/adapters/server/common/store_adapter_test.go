package common

import (
	"context"
	"errors"
	"testing"

	"github.com/evanschultz/hexaboard/internal/app"
	"github.com/evanschultz/hexaboard/internal/domain"
)

// newTestAdapter builds an adapter over a seeded store with deterministic ids.
func newTestAdapter(t *testing.T) *StoreAdapter {
	t.Helper()
	seed := domain.NewBoard(
		domain.Column{ID: "backlog", Title: "Backlog", Tasks: []domain.Task{{ID: "t1", Title: "one"}, {ID: "t2", Title: "two"}}},
		domain.Column{ID: "review", Title: "Review"},
	)
	store := app.NewStore(nil, app.CounterIDs("id"), nil, app.StoreConfig{Seed: seed})
	return NewStoreAdapter(store, app.NewPendingMoves(app.CounterIDs("tok"), 0), "Board")
}

// TestStoreAdapterRequiresIDs verifies missing identifiers map to ErrInvalidRequest.
func TestStoreAdapterRequiresIDs(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	calls := map[string]func() error{
		"rename column": func() error { _, err := a.RenameColumn(ctx, RenameColumnRequest{Title: "x"}); return err },
		"add task":      func() error { _, err := a.AddTask(ctx, AddTaskRequest{ColumnID: " ", Title: "x"}); return err },
		"move task": func() error {
			_, err := a.MoveTask(ctx, MoveTaskRequest{SourceColumnID: "backlog", TaskID: "t1"})
			return err
		},
		"commit drag":  func() error { _, err := a.CommitDrag(ctx, CommitDragRequest{}); return err },
		"propose drag": func() error { _, err := a.ProposeDrag(ctx, app.DragGesture{}); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%s: error = %v, want ErrInvalidRequest", name, err)
		}
	}
}

// TestStoreAdapterUnknownIDsAreNoOps verifies the permissive not-found policy.
func TestStoreAdapterUnknownIDsAreNoOps(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	res, err := a.DeleteTask(ctx, DeleteTaskRequest{ColumnID: "backlog", TaskID: "missing"})
	if err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if res.Changed || res.Revision != 0 || res.Board.TaskCount() != 2 {
		t.Fatalf("unexpected no-op result %#v", res)
	}
}

// TestStoreAdapterDragRoundTrip verifies propose then commit with a token that resolves once.
func TestStoreAdapterDragRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t)
	proposal, err := a.ProposeDrag(ctx, app.DragGesture{
		DraggedTaskID: "t1",
		Source:        domain.Location{ColumnID: "backlog", Index: 0},
		Destination:   &domain.Location{ColumnID: "review", Index: 0},
	})
	if err != nil {
		t.Fatalf("ProposeDrag() error = %v", err)
	}
	if !proposal.Pending || proposal.Token != "tok-1" || proposal.Message != `Move task "one" from "Backlog" to "Review"?` {
		t.Fatalf("unexpected proposal %#v", proposal)
	}
	res, err := a.CommitDrag(ctx, CommitDragRequest{Token: proposal.Token, Confirm: true})
	if err != nil {
		t.Fatalf("CommitDrag() error = %v", err)
	}
	if !res.Changed || res.Revision != 1 {
		t.Fatalf("unexpected commit result %#v", res)
	}
	if loc, ok := res.Board.FindTask("t1"); !ok || loc.ColumnID != "review" {
		t.Fatalf("t1 location = %#v, %v", loc, ok)
	}
	if _, err := a.CommitDrag(ctx, CommitDragRequest{Token: proposal.Token, Confirm: true}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second CommitDrag() error = %v, want ErrNotFound", err)
	}
}

// TestStoreAdapterCancelledDragNeedsNoToken verifies gestures without destination never park a token.
func TestStoreAdapterCancelledDragNeedsNoToken(t *testing.T) {
	a := newTestAdapter(t)
	proposal, err := a.ProposeDrag(context.Background(), app.DragGesture{
		DraggedTaskID: "t1",
		Source:        domain.Location{ColumnID: "backlog"},
	})
	if err != nil {
		t.Fatalf("ProposeDrag() error = %v", err)
	}
	if proposal.Pending || proposal.Token != "" {
		t.Fatalf("expected no pending move, got %#v", proposal)
	}
}

// TestStoreAdapterNilIsNotConfigured verifies a zero adapter fails closed.
func TestStoreAdapterNilIsNotConfigured(t *testing.T) {
	var a *StoreAdapter
	if _, err := a.GetBoard(context.Background()); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("GetBoard() error = %v, want ErrInvalidRequest", err)
	}
}

// TestStoreAdapterProposeDragTokenExhaustion verifies a stuck token generator surfaces an error.
func TestStoreAdapterProposeDragTokenExhaustion(t *testing.T) {
	store := app.NewStore(nil, app.CounterIDs("id"), nil, app.StoreConfig{Seed: domain.NewBoard(
		domain.Column{ID: "backlog", Title: "Backlog", Tasks: []domain.Task{{ID: "t1", Title: "one"}}},
		domain.Column{ID: "review", Title: "Review"},
	)})
	a := NewStoreAdapter(store, app.NewPendingMoves(func() string { return "" }, 0), "Board")
	_, err := a.ProposeDrag(context.Background(), app.DragGesture{
		DraggedTaskID: "t1",
		Source:        domain.Location{ColumnID: "backlog", Index: 0},
		Destination:   &domain.Location{ColumnID: "review", Index: 0},
	})
	if !errors.Is(err, app.ErrIDsExhausted) {
		t.Fatalf("ProposeDrag() error = %v, want ErrIDsExhausted", err)
	}
	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrNotFound) {
		t.Fatalf("ProposeDrag() error = %v, want an internal error", err)
	}
}

// TestStoreAdapterActivityWithoutJournal verifies the journal-less store maps to ErrActivityUnavailable.
func TestStoreAdapterActivityWithoutJournal(t *testing.T) {
	a := newTestAdapter(t)
	if _, err := a.ListActivity(context.Background(), 5); !errors.Is(err, ErrActivityUnavailable) {
		t.Fatalf("ListActivity() error = %v, want ErrActivityUnavailable", err)
	}
}
