// Package allocation implements the lot allocation and reservation engine:
// candidate selection under FEFO/FIFO, the reservation state machine, the
// confirmation protocol against the ERP, and batch suggestion generation.
//
// Concurrency safety comes entirely from database row locks and transaction
// boundaries; the engine holds no in-process state between calls.
package allocation

import (
	"time"

	"github.com/lotwise-io/lotwisego/internal/models"
)

// Policy selects the candidate ordering
type Policy string

const (
	FEFO Policy = "FEFO" // first expired first out
	FIFO Policy = "FIFO" // first in first out
)

// LockMode controls row locking on reads
type LockMode int

const (
	LockNone   LockMode = iota // plain read, preview only
	LockWait   LockMode = iota // SELECT ... FOR UPDATE
	LockNoWait                 // SELECT ... FOR UPDATE SKIP LOCKED
)

// CandidateQuery describes one candidate-selection request.
// The zero value of the filter fields is NOT the standard eligibility
// policy; use DefaultQuery for it (expired and locked lots excluded,
// samples and ad-hoc receipts excluded).
type CandidateQuery struct {
	ProductID      uint
	Policy         Policy
	WarehouseID    *uint // nil = all warehouses
	ExcludeExpired bool
	SafetyDays     int // shifts the expiry cutoff forward
	ExcludeLocked  bool
	IncludeSample  bool
	IncludeAdhoc   bool
	MinAvailable   float64
	Lock           LockMode
	AsOf           time.Time // zero = now
}

// DefaultQuery returns a CandidateQuery with the standard eligibility
// filters applied.
func DefaultQuery(productID uint, policy Policy) CandidateQuery {
	return CandidateQuery{
		ProductID:      productID,
		Policy:         policy,
		ExcludeExpired: true,
		ExcludeLocked:  true,
	}
}

// Candidate is one eligible lot with its computed available quantity
type Candidate struct {
	Lot       models.Lot `json:"lot"`
	Available float64    `json:"available"`
}

// Event is a domain event emitted after a successful local commit
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	At            time.Time `json:"at"`
	LotID         uint      `json:"lot_id,omitempty"`
	ReservationID uint      `json:"reservation_id"`
	Quantity      float64   `json:"quantity,omitempty"`
}

// Event types
const (
	EventConfirmed = "allocation.confirmed"
	EventReversed  = "allocation.reversed"
	EventPreempted = "allocation.preempted"
)

// Failure is one per-item error in a batch result
type Failure struct {
	ReservationID uint      `json:"reservation_id"`
	Code          ErrorCode `json:"code"`
	Message       string    `json:"message"`
}

// BatchResult separates confirmed ids from per-item failures. Every input id
// appears in exactly one of the two collections.
type BatchResult struct {
	Confirmed []uint    `json:"confirmed"`
	Failures  []Failure `json:"failures"`
}
