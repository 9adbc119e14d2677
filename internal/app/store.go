package app

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/hexaboard/internal/domain"
)

// maxIDAttempts bounds how often a colliding generated id is retried.
const maxIDAttempts = 8

// defaultActivityLimit caps ListActivity when the caller passes no limit.
const defaultActivityLimit = 50

// IDGenerator returns unique identifiers for new columns and tasks.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// StoreConfig holds configuration for store.
type StoreConfig struct {
	DefaultColumnTitle string
	Seed               domain.Board
	Logger             *log.Logger
}

// Result is the outcome of one store operation.
type Result struct {
	Board    domain.Board
	Revision uint64
	Changed  bool
}

// Store owns the canonical board snapshot and serializes every mutation.
type Store struct {
	mu       sync.Mutex
	board    domain.Board
	revision uint64

	journal            Journal
	idGen              IDGenerator
	clock              Clock
	defaultColumnTitle string
	logger             *log.Logger
}

// NewStore constructs a store seeded from cfg. journal may be nil.
func NewStore(journal Journal, idGen IDGenerator, clock Clock, cfg StoreConfig) *Store {
	if idGen == nil {
		idGen = CounterIDs("id")
	}
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	title := strings.TrimSpace(cfg.DefaultColumnTitle)
	if title == "" {
		title = domain.DefaultColumnTitle
	}
	board := cfg.Seed.Clone()
	if err := board.Validate(); err != nil {
		logger.Warn("invalid seed board; starting empty", "err", err)
		board = domain.NewBoard()
	}
	return &Store{
		board:              board,
		journal:            journal,
		idGen:              idGen,
		clock:              clock,
		defaultColumnTitle: title,
		logger:             logger,
	}
}

// CounterIDs returns a generator yielding prefix-1, prefix-2, and so on.
func CounterIDs(prefix string) IDGenerator {
	var n atomic.Uint64
	return func() string {
		return prefix + "-" + strconv.FormatUint(n.Add(1), 10)
	}
}

// Snapshot returns a copy of the current board.
func (s *Store) Snapshot() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

// Revision returns the number of effective mutations applied so far.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// State returns the snapshot together with its revision.
func (s *Store) State() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Result{Board: s.board.Clone(), Revision: s.revision}
}

// AddColumn appends an empty column titled with the configured default.
func (s *Store) AddColumn(ctx context.Context) Result {
	return s.AddNamedColumn(ctx, "")
}

// AddNamedColumn appends an empty column; a blank title uses the configured default.
func (s *Store) AddNamedColumn(ctx context.Context, title string) Result {
	title = strings.TrimSpace(title)
	if title == "" {
		title = s.defaultColumnTitle
	}
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		id, err := s.nextID(b)
		if err != nil {
			return b, domain.ChangeEvent{}
		}
		return b.AddColumn(id, title), domain.ChangeEvent{
			Operation: domain.ChangeOperationAddColumn,
			ColumnID:  id,
			Metadata:  map[string]string{"title": title},
		}
	})
}

// RenameColumn renames a column.
func (s *Store) RenameColumn(ctx context.Context, columnID, title string) Result {
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		return b.RenameColumn(columnID, title), domain.ChangeEvent{
			Operation: domain.ChangeOperationRenameColumn,
			ColumnID:  columnID,
			Metadata:  map[string]string{"title": strings.TrimSpace(title)},
		}
	})
}

// DeleteColumn removes a column and its tasks.
func (s *Store) DeleteColumn(ctx context.Context, columnID string) Result {
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		ev := domain.ChangeEvent{Operation: domain.ChangeOperationDeleteColumn, ColumnID: columnID}
		if col, ok := b.Column(columnID); ok {
			ev.Metadata = map[string]string{
				"title": col.Title,
				"tasks": strconv.Itoa(len(col.Tasks)),
			}
		}
		return b.DeleteColumn(columnID), ev
	})
}

// AddTask appends a new task to a column.
func (s *Store) AddTask(ctx context.Context, columnID, title string) Result {
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		if _, ok := b.Column(columnID); !ok {
			return b, domain.ChangeEvent{}
		}
		if strings.TrimSpace(title) == "" {
			return b, domain.ChangeEvent{}
		}
		id, err := s.nextID(b)
		if err != nil {
			return b, domain.ChangeEvent{}
		}
		return b.AddTask(columnID, id, title), domain.ChangeEvent{
			Operation: domain.ChangeOperationAddTask,
			ColumnID:  columnID,
			TaskID:    id,
			Metadata:  map[string]string{"title": strings.TrimSpace(title)},
		}
	})
}

// RenameTask renames a task inside a column.
func (s *Store) RenameTask(ctx context.Context, columnID, taskID, title string) Result {
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		return b.RenameTask(columnID, taskID, title), domain.ChangeEvent{
			Operation: domain.ChangeOperationRenameTask,
			ColumnID:  columnID,
			TaskID:    taskID,
			Metadata:  map[string]string{"title": strings.TrimSpace(title)},
		}
	})
}

// DeleteTask removes a task from a column.
func (s *Store) DeleteTask(ctx context.Context, columnID, taskID string) Result {
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		return b.DeleteTask(columnID, taskID), domain.ChangeEvent{
			Operation: domain.ChangeOperationDeleteTask,
			ColumnID:  columnID,
			TaskID:    taskID,
		}
	})
}

// MoveTaskToColumn appends a task to another column.
func (s *Store) MoveTaskToColumn(ctx context.Context, sourceColumnID, destColumnID, taskID string) Result {
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		return b.MoveTaskToColumn(sourceColumnID, destColumnID, taskID), columnMoveEvent(sourceColumnID, destColumnID, taskID)
	})
}

// ReorderTaskWithinColumn moves a task to a new position inside its column.
func (s *Store) ReorderTaskWithinColumn(ctx context.Context, columnID, taskID string, fromIndex, toIndex int) Result {
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		return b.ReorderTaskWithinColumn(columnID, taskID, fromIndex, toIndex), reorderEvent(columnID, taskID, fromIndex, toIndex)
	})
}

// MoveTaskBetweenColumnsAtIndex relocates a task to a position in another column.
func (s *Store) MoveTaskBetweenColumnsAtIndex(ctx context.Context, sourceColumnID, destColumnID, taskID string, fromIndex, toIndex int) Result {
	return s.mutate(ctx, func(b domain.Board) (domain.Board, domain.ChangeEvent) {
		return b.MoveTaskBetweenColumnsAtIndex(sourceColumnID, destColumnID, taskID, fromIndex, toIndex),
			transferEvent(sourceColumnID, destColumnID, taskID, fromIndex, toIndex)
	})
}

func columnMoveEvent(sourceColumnID, destColumnID, taskID string) domain.ChangeEvent {
	return domain.ChangeEvent{
		Operation: domain.ChangeOperationMoveTask,
		ColumnID:  destColumnID,
		TaskID:    taskID,
		Metadata:  map[string]string{"from_column_id": sourceColumnID},
	}
}

func reorderEvent(columnID, taskID string, fromIndex, toIndex int) domain.ChangeEvent {
	return domain.ChangeEvent{
		Operation: domain.ChangeOperationReorderTask,
		ColumnID:  columnID,
		TaskID:    taskID,
		Metadata: map[string]string{
			"from_index": strconv.Itoa(fromIndex),
			"to_index":   strconv.Itoa(toIndex),
		},
	}
}

// transferEvent records a reorder when both columns are the same.
func transferEvent(sourceColumnID, destColumnID, taskID string, fromIndex, toIndex int) domain.ChangeEvent {
	op := domain.ChangeOperationMoveTask
	if sourceColumnID == destColumnID {
		op = domain.ChangeOperationReorderTask
	}
	return domain.ChangeEvent{
		Operation: op,
		ColumnID:  destColumnID,
		TaskID:    taskID,
		Metadata: map[string]string{
			"from_column_id": sourceColumnID,
			"from_index":     strconv.Itoa(fromIndex),
			"to_index":       strconv.Itoa(toIndex),
		},
	}
}

// ListActivity returns recent journal entries, newest first.
func (s *Store) ListActivity(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if s.journal == nil {
		return nil, ErrNoJournal
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return s.journal.ListChangeEvents(ctx, limit)
}

// mutate applies fn to the current snapshot under the store lock.
func (s *Store) mutate(ctx context.Context, fn func(domain.Board) (domain.Board, domain.ChangeEvent)) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ev := fn(s.board)
	if next.Equal(s.board) {
		return Result{Board: s.board.Clone(), Revision: s.revision}
	}
	s.board = next
	s.revision++
	ev.Revision = s.revision
	ev.OccurredAt = s.clock().UTC()
	s.logger.Debug("board mutated", "op", ev.Operation, "column", ev.ColumnID, "task", ev.TaskID, "revision", s.revision)

	if s.journal != nil {
		if err := s.journal.AppendChangeEvent(ctx, ev); err != nil {
			s.logger.Warn("record change event failed", "op", ev.Operation, "err", err)
		}
	}
	return Result{Board: s.board.Clone(), Revision: s.revision, Changed: true}
}

// nextID draws an id that is not yet used on b.
func (s *Store) nextID(b domain.Board) (string, error) {
	for range maxIDAttempts {
		id := strings.TrimSpace(s.idGen())
		if id == "" || b.HasID(id) {
			s.logger.Error("id generator collision", "id", id)
			continue
		}
		return id, nil
	}
	s.logger.Error("id generator exhausted", "attempts", maxIDAttempts)
	return "", ErrIDsExhausted
}
