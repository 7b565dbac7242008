package allocation

import (
	"context"
	"time"

	"github.com/lotwise-io/lotwisego/internal/models"
)

// LotStore is the persistence contract for lots
type LotStore interface {
	// Get loads one lot with its lot master, honoring the lock mode.
	Get(ctx context.Context, id uint, lock LockMode) (*models.Lot, error)
	// ListForProduct loads active lots of a product, optionally restricted
	// to one warehouse, honoring the lock mode. Eligibility filtering and
	// ordering happen in the engine, not in the query.
	ListForProduct(ctx context.Context, productID uint, warehouseID *uint, lock LockMode) ([]models.Lot, error)
	// Save persists lot mutations (consumed quantity, status, timestamps).
	Save(ctx context.Context, lot *models.Lot) error
	// Create persists a freshly receipted lot.
	Create(ctx context.Context, lot *models.Lot) error
	// GetOrCreateMaster resolves the lot master for a business lot number,
	// creating it on first receipt.
	GetOrCreateMaster(ctx context.Context, productID uint, lotNumber string) (*models.LotMaster, error)
}

// ReservationStore is the persistence contract for reservations
type ReservationStore interface {
	Get(ctx context.Context, id uint, lock LockMode) (*models.Reservation, error)
	// ListByLot returns every non-released reservation on a lot.
	ListByLot(ctx context.Context, lotID uint) ([]models.Reservation, error)
	// ListActiveByLot returns ACTIVE soft holds on a lot, the preemption pool.
	ListActiveByLot(ctx context.Context, lotID uint) ([]models.Reservation, error)
	// ConfirmedSums returns, per lot id, the summed quantity of CONFIRMED
	// reservations. Lots without confirmed reservations may be absent.
	ConfirmedSums(ctx context.Context, lotIDs []uint) (map[uint]float64, error)
	Create(ctx context.Context, r *models.Reservation) error
	Save(ctx context.Context, r *models.Reservation) error
}

// DemandStore reads forecast demand rows for suggestion generation
type DemandStore interface {
	// ListByScope returns demand rows ordered by demand date then id.
	ListByScope(ctx context.Context, scope Scope) ([]models.ForecastDemand, error)
}

// SuggestionStore is the persistence contract for allocation suggestions
type SuggestionStore interface {
	DeleteScope(ctx context.Context, scope Scope) error
	BulkInsert(ctx context.Context, suggestions []models.AllocationSuggestion) error
	RecordRun(ctx context.Context, run *models.SuggestionRun) error
	ListScope(ctx context.Context, scope Scope) ([]models.AllocationSuggestion, error)
}

// OrderLineStore recomputes a demand source's fulfillment after confirmation
type OrderLineStore interface {
	RecomputeFulfillment(ctx context.Context, lineID uint) error
}

// Stores bundles all store contracts bound to one database handle or
// transaction. InTx opens a nested transaction (a savepoint when already
// inside one) so batch items can fail without poisoning the outer commit.
type Stores interface {
	Lots() LotStore
	Reservations() ReservationStore
	Demands() DemandStore
	Suggestions() SuggestionStore
	OrderLines() OrderLineStore
	InTx(ctx context.Context, fn func(s Stores) error) error
}

// DB hands out store bundles. Stores gives plain (non-transactional) access
// for previews; InTx runs fn inside one transaction and commits iff it
// returns nil.
type DB interface {
	Stores() Stores
	InTx(ctx context.Context, fn func(s Stores) error) error
}

// AckResult is the outcome of one ERP registration call
type AckResult struct {
	Success      bool
	DocumentRef  string
	AckedAt      time.Time
	ErrorMessage string
}

// AllocationGateway registers a confirmed allocation with the external ERP.
// Treated as a remote call: slow, and allowed to fail.
type AllocationGateway interface {
	RegisterAllocation(ctx context.Context, r *models.Reservation, lot *models.Lot) (*AckResult, error)
}

// AllocationReverser tells the ERP a previously acknowledged allocation was
// reversed. Kept separate from AllocationGateway so the confirmation path
// depends on exactly one method.
type AllocationReverser interface {
	ReverseAllocation(ctx context.Context, r *models.Reservation) error
}

// EventSink receives domain events after a successful local commit.
// Publish is fire-and-forget: failures must not roll anything back.
type EventSink interface {
	Publish(event Event)
}
