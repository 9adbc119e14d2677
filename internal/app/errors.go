package app

import "errors"

// ErrNotFound and related errors describe lookup and runtime failures outside the board itself.
var (
	ErrNotFound     = errors.New("not found")
	ErrIDsExhausted = errors.New("id generator produced no unused id")
	ErrNoJournal    = errors.New("activity journal not configured")
)
