package usecase

import (
	"errors"
	"fmt"

	"lesson-pix/internal/data/entity"
)

var (
	ErrChargeNotFound  = errors.New("pix charge not found")
	ErrInvalidChargeID = errors.New("invalid pix charge ID")
	ErrRequestInvalid  = errors.New("validation failed")
)

type StateReason string

const (
	AlreadyTerminal StateReason = "already_terminal"
	Expired         StateReason = "expired"
)

// StateError reports a lifecycle transition that is not allowed from the
// charge's current status.
type StateError struct {
	Reason   StateReason
	ChargeID string
	Status   entity.ChargeStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("pix charge %s cannot transition: %s (status %s)", e.ChargeID, e.Reason, e.Status)
}

// ExternalServiceError wraps a collaborator failure that did not stop the
// operation, such as QR rendering.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
