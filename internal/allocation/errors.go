package allocation

import (
	"errors"
	"fmt"

	"github.com/lotwise-io/lotwisego/internal/models"
)

// ErrorCode classifies engine failures for callers and batch results
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "not_found"
	CodeStateViolation    ErrorCode = "state_violation"
	CodeInsufficientStock ErrorCode = "insufficient_stock"
	CodeAckFailed         ErrorCode = "ack_failed"
	CodeInvalidInput      ErrorCode = "invalid_input"
)

// State-violation sub-codes so callers can render distinct messages
const (
	ReasonAlreadyReleased   = "already_released"
	ReasonNoLotBound        = "no_lot_bound"
	ReasonLotNotActive      = "lot_not_active"
	ReasonLotExpired        = "lot_expired"
	ReasonInvalidTransition = "invalid_transition"
)

// NotFoundError reports a missing reservation or lot
type NotFoundError struct {
	Entity string // "reservation" | "lot"
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// StateError reports an illegal lifecycle operation
type StateError struct {
	Reason    string
	Current   models.ReservationStatus
	Requested models.ReservationStatus
	Detail    string
}

func (e *StateError) Error() string {
	if e.Current != "" || e.Requested != "" {
		return fmt.Sprintf("state violation (%s): cannot go from %s to %s%s",
			e.Reason, e.Current, e.Requested, detailSuffix(e.Detail))
	}
	return fmt.Sprintf("state violation (%s)%s", e.Reason, detailSuffix(e.Detail))
}

func detailSuffix(detail string) string {
	if detail == "" {
		return ""
	}
	return ": " + detail
}

// ValidationError reports malformed caller input, rejected before any
// store access
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InsufficientStockError reports a shortfall that preemption could not cover
type InsufficientStockError struct {
	LotID     uint
	LotNumber string
	Required  float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock on lot %d (%s): required %.3f, available %.3f",
		e.LotID, e.LotNumber, e.Required, e.Available)
}

// AckError reports a failed external acknowledgement. The gateway message is
// preserved for diagnostics; no local state was persisted.
type AckError struct {
	Message string
	Err     error
}

func (e *AckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("external acknowledgement failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("external acknowledgement failed: %s", e.Message)
}

func (e *AckError) Unwrap() error { return e.Err }

// CodeOf maps an engine error onto its ErrorCode. Unknown errors map to an
// empty code so batch callers can treat them as internal failures.
func CodeOf(err error) ErrorCode {
	var nf *NotFoundError
	var st *StateError
	var is *InsufficientStockError
	var ack *AckError
	var val *ValidationError
	switch {
	case errors.As(err, &nf):
		return CodeNotFound
	case errors.As(err, &st):
		return CodeStateViolation
	case errors.As(err, &is):
		return CodeInsufficientStock
	case errors.As(err, &ack):
		return CodeAckFailed
	case errors.As(err, &val):
		return CodeInvalidInput
	}
	return ""
}
