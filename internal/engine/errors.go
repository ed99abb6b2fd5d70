package engine

import (
	"errors"
	"fmt"
)

// ErrSelfInteraction is returned when a character tries to interact
// with itself. Fatal precondition: detected before any lock is taken.
var ErrSelfInteraction = errors.New("initiator and target are the same character")

// NotFoundError reports an unknown character id.
type NotFoundError struct {
	CharacterID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("character not found: %s", e.CharacterID)
}

// ValidationError reports a malformed request. Caller's fault, never
// retried by the engine.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GenerationError wraps a content generator failure. No state was
// mutated when this is returned.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("content generation failed: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError wraps a durable store failure. The in-memory state
// has been rolled back to its pre-call snapshot when this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
