package app

import (
	"context"

	"github.com/evanschultz/hexaboard/internal/domain"
)

// Journal records effective board mutations for the current session.
type Journal interface {
	AppendChangeEvent(context.Context, domain.ChangeEvent) error
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
}
