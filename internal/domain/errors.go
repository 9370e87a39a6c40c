package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrUnknownDocumentKey     = errors.New("unknown document key")
	ErrUnsupportedEventType   = errors.New("unsupported event type")
	ErrUnsupportedEventClass  = errors.New("unsupported event class")
	ErrInvalidEnvelope        = errors.New("invalid envelope")
	ErrCreditAlreadyReversed  = errors.New("temporary credit already reversed")
	ErrNoCreditIssued         = errors.New("no temporary credit issued")
)

// TransitionError names the states involved so an operator can see why a
// representment action was refused.
func TransitionError(current, requested RepresentmentStatus) error {
	return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidStateTransition, current, requested)
}
