package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// The workflow error taxonomy. Every failure is terminal and locally
// recoverable: a failed call never leaves an order in an intermediate
// status, and callers map each condition to a specific user-facing message.
var (
	// ErrOrderNotFound reports an unknown order id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNoLongerAvailable reports a lost acceptance race: another
	// driver claimed the order, or it left the ready pool.
	ErrOrderNoLongerAvailable = errors.New("order no longer available")

	// ErrNotOwner reports a request from a driver who does not hold the
	// order's current assignment.
	ErrNotOwner = errors.New("driver does not hold this order")

	// ErrInvalidTransition reports a transition not permitted from the
	// order's current status. The order is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrMissingPhotoEvidence reports a delivery confirmation without a
	// photo reference.
	ErrMissingPhotoEvidence = errors.New("delivery confirmation requires photo evidence")

	// ErrMissingLocationEvidence reports a delivery confirmation without a
	// GPS coordinate.
	ErrMissingLocationEvidence = errors.New("delivery confirmation requires a GPS location")

	// ErrAlreadyConfirmed reports a second evidence submission for a gate
	// that already holds a confirmation record.
	ErrAlreadyConfirmed = errors.New("confirmation already recorded")
)

// IncompleteChecklistError reports a pickup confirmation whose checklist is
// not 100% complete. Missing lists the configured items that were absent
// from the submission or submitted as false, so the caller can prompt precisely.
type IncompleteChecklistError struct {
	Missing []string
}

func (e *IncompleteChecklistError) Error() string {
	return fmt.Sprintf("pickup checklist incomplete: %s", strings.Join(e.Missing, ", "))
}
