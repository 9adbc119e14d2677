package tui

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/exp/teatest/v2"
)

func waitForOutput(t *testing.T, tm *teatest.TestModel, want string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), want)
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))
}

// TestModelWithTeatest renders the seeded board and quits.
func TestModelWithTeatest(t *testing.T) {
	tm := teatest.NewTestModel(t, NewModel(newTestStore()), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	waitForOutput(t, tm, "Create project structure")

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

// TestModelWithTeatestHelpOverlay opens and closes the help overlay.
func TestModelWithTeatestHelpOverlay(t *testing.T) {
	tm := teatest.NewTestModel(t, NewModel(newTestStore()), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	waitForOutput(t, tm, "Backlog")
	tm.Send(tea.KeyPressMsg{Code: '?', Text: "?"})
	waitForOutput(t, tm, "HEXABOARD Help")
	tm.Send(tea.KeyPressMsg{Code: tea.KeyEscape})

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

// TestModelWithTeatestDragConfirm drags the first task one column right and confirms.
func TestModelWithTeatestDragConfirm(t *testing.T) {
	store := newTestStore()
	tm := teatest.NewTestModel(t, NewModel(store), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	waitForOutput(t, tm, "Create project structure")
	tm.Send(tea.KeyPressMsg{Code: 'm', Text: "m"})
	tm.Send(tea.KeyPressMsg{Code: 'l', Text: "l"})
	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})
	waitForOutput(t, tm, "Confirm Action")
	tm.Send(tea.KeyPressMsg{Code: 'y', Text: "y"})
	waitForOutput(t, tm, "task moved")

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	if !ok {
		t.Fatalf("expected final Model, got %T", tm.FinalModel(t))
	}
	if got := columnTaskIDs(final.board, "progress"); got != "t1,t3" {
		t.Fatalf("expected progress=t1,t3, got %q", got)
	}
	if store.Revision() != 1 {
		t.Fatalf("expected revision 1, got %d", store.Revision())
	}
}
