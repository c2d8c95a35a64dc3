// internal/core/domain/errors.go
package domain

import "errors"

// Errores de dominio comunes.
var (
	// Input errors
	ErrEmptyPaperID   = errors.New("paper id cannot be empty")
	ErrInvalidArxivID = errors.New("invalid arXiv id format")
	ErrInvalidURL     = errors.New("invalid url")

	// Paper errors
	ErrPaperNotFound    = errors.New("paper not found")
	ErrPaperUnparseable = errors.New("paper payload cannot be parsed")

	// Pipeline errors
	ErrEmptyPlan          = errors.New("pipeline plan has no units")
	ErrDuplicateStage     = errors.New("duplicate stage name")
	ErrMissingInput       = errors.New("required input not produced by an earlier unit")
	ErrStageAlreadyStored = errors.New("stage result already stored")
	ErrInvalidTransition  = errors.New("invalid run status transition")
)
