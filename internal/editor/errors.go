package editor

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession    = errors.New("no edit session is open")
	ErrSessionOpen  = errors.New("an edit session is open")
	ErrNotMenu      = errors.New("open node is not a menu")
	ErrSaveInFlight = errors.New("a save is already in progress")
	ErrUnknownField = errors.New("unknown field")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// SaveError reports a failed persist. The ledger is left untouched.
type SaveError struct {
	BatchID string
	Err     error
}

func (e SaveError) Error() string {
	return fmt.Sprintf("save %s failed: %v", e.BatchID, e.Err)
}

func (e SaveError) Unwrap() error { return e.Err }
