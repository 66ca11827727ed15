package services

import "errors"

// Errors returned by the engine. Callers match them with errors.Is; the
// storage cause stays in the chain.
var (
	ErrNotFound = errors.New("requested resource not found")

	// The command is well formed but the bracket is not in a state that allows it.
	ErrPreconditionNotMet = errors.New("precondition not met")

	// A slot already holds a different team. Never resolved automatically.
	ErrSlotConflict = errors.New("slot is held by another team")

	ErrPersistence = errors.New("persistence failure")

	ErrTournamentNameConflict            = errors.New("tournament name already exists")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrInvalidResult                     = errors.New("invalid match result")
)
