package app

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func mustPut(t *testing.T, reg *PendingMoves, pm PendingMove) string {
	t.Helper()
	token, err := reg.Put(pm)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return token
}

func TestPendingMovesResolveOnce(t *testing.T) {
	reg := NewPendingMoves(nil, 0)
	token := mustPut(t, reg, PendingMove{Kind: MoveKindReorder, TaskID: "t1"})
	if token == "" {
		t.Fatal("expected token")
	}
	got, err := reg.Take(token)
	if err != nil || got.TaskID != "t1" {
		t.Fatalf("Take() = %#v, %v", got, err)
	}
	if _, err := reg.Take(token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Take() error = %v, want ErrNotFound", err)
	}
}

func TestPendingMovesExpire(t *testing.T) {
	reg := NewPendingMoves(nil, 20*time.Millisecond)
	token := mustPut(t, reg, PendingMove{TaskID: "t1"})
	time.Sleep(80 * time.Millisecond)
	if _, err := reg.Take(token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Take() error = %v, want ErrNotFound for expired token", err)
	}
}

func TestPendingMovesEvictOldest(t *testing.T) {
	reg := NewPendingMoves(nil, 0)
	first := mustPut(t, reg, PendingMove{TaskID: "first"})
	var last string
	for i := range defaultPendingCapacity {
		last = mustPut(t, reg, PendingMove{TaskID: fmt.Sprintf("t%d", i)})
	}
	if _, err := reg.Take(first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected oldest token to be evicted, err = %v", err)
	}
	if got, err := reg.Take(last); err != nil || got.TaskID != fmt.Sprintf("t%d", defaultPendingCapacity-1) {
		t.Fatalf("Take(last) = %#v, %v", got, err)
	}
}

func TestPendingMovesSkipsDuplicateTokens(t *testing.T) {
	tokens := []string{"a", "a", "", "b"}
	next := 0
	reg := NewPendingMoves(func() string {
		tok := tokens[next]
		next++
		return tok
	}, 0)
	if got := mustPut(t, reg, PendingMove{}); got != "a" {
		t.Fatalf("first token = %q", got)
	}
	if got := mustPut(t, reg, PendingMove{}); got != "b" {
		t.Fatalf("second token = %q, want b", got)
	}
}

func TestPendingMovesStopsOnRepeatingGenerator(t *testing.T) {
	calls := 0
	reg := NewPendingMoves(func() string {
		calls++
		return "same"
	}, 0)
	mustPut(t, reg, PendingMove{TaskID: "t1"})

	done := make(chan error, 1)
	go func() {
		_, err := reg.Put(PendingMove{TaskID: "t2"})
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, ErrIDsExhausted) {
			t.Fatalf("Put() error = %v, want ErrIDsExhausted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Put() did not return with a repeating token generator")
	}
	if calls != 1+maxIDAttempts {
		t.Fatalf("generator calls = %d, want %d", calls, 1+maxIDAttempts)
	}
}

func TestPendingMovesStopsOnBlankGenerator(t *testing.T) {
	reg := NewPendingMoves(func() string { return "" }, 0)
	if _, err := reg.Put(PendingMove{}); !errors.Is(err, ErrIDsExhausted) {
		t.Fatalf("Put() error = %v, want ErrIDsExhausted", err)
	}
}
