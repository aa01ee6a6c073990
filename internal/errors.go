package internal

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// ReactionError is what a reaction panicking during a flush turns into.
type ReactionError struct {
	Reaction ulid.ULID
	Batch    int
	Cause    any
}

func (e *ReactionError) Error() string {
	return fmt.Sprintf("reaction %s panicked in batch %d: %v", e.Reaction, e.Batch, e.Cause)
}

// Unwrap exposes the panic value when it was an error.
func (e *ReactionError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}

	return nil
}
