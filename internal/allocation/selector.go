package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/lotwise-io/lotwisego/internal/models"
	"github.com/lotwise-io/lotwisego/internal/stock"
)

// Selector returns eligible lots of a product in policy order, each with its
// computed available quantity. With LockNone the result is a preview only
// and must never back an actual commitment.
type Selector struct {
	db  DB
	now func() time.Time
}

// NewSelector creates a selector over the given database
func NewSelector(db DB) *Selector {
	return &Selector{db: db, now: time.Now}
}

// Select runs the candidate query outside any transaction.
func (s *Selector) Select(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	return SelectCandidates(ctx, s.db.Stores(), q, s.now())
}

// SelectCandidates runs the candidate query against the given store bundle,
// so commitment flows can call it inside their own transaction with a real
// row lock. An empty result is not an error; callers decide whether that is
// a shortage.
func SelectCandidates(ctx context.Context, s Stores, q CandidateQuery, now time.Time) ([]Candidate, error) {
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = now
	}

	lots, err := s.Lots().ListForProduct(ctx, q.ProductID, q.WarehouseID, q.Lock)
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return []Candidate{}, nil
	}

	ids := make([]uint, 0, len(lots))
	for _, l := range lots {
		ids = append(ids, l.ID)
	}
	confirmed, err := s.Reservations().ConfirmedSums(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(lots))
	for _, lot := range lots {
		if !eligible(&lot, q, asOf) {
			continue
		}

		avail := lot.OnHandQty() - lot.LockedQty - confirmed[lot.ID]
		if avail <= 0 || avail < q.MinAvailable {
			continue
		}
		candidates = append(candidates, Candidate{Lot: lot, Available: avail})
	}

	sortCandidates(candidates, q.Policy)
	return candidates, nil
}

// eligible applies the status, origin, expiry and lock filters.
func eligible(lot *models.Lot, q CandidateQuery, asOf time.Time) bool {
	if lot.Status != models.LotStatusActive {
		return false
	}
	if lot.Origin == models.LotOriginSample && !q.IncludeSample {
		return false
	}
	if lot.Origin == models.LotOriginAdhoc && !q.IncludeAdhoc {
		return false
	}
	if q.ExcludeExpired && lot.IsExpired(asOf, q.SafetyDays) {
		return false
	}
	if q.ExcludeLocked && lot.LockedQty > 0 {
		return false
	}
	return true
}

// sortCandidates orders candidates deterministically. The lot-id tiebreak
// guarantees the same input always yields the same allocation order.
func sortCandidates(candidates []Candidate, policy Policy) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := &candidates[i].Lot, &candidates[j].Lot

		if policy == FEFO {
			// Lots without an expiry date sort after all dated lots.
			switch {
			case a.ExpiryDate == nil && b.ExpiryDate != nil:
				return false
			case a.ExpiryDate != nil && b.ExpiryDate == nil:
				return true
			case a.ExpiryDate != nil && b.ExpiryDate != nil:
				if !a.ExpiryDate.Equal(*b.ExpiryDate) {
					return a.ExpiryDate.Before(*b.ExpiryDate)
				}
			}
		}

		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.ID < b.ID
	})
}

// PreviewQuantities returns the full quantity picture for one lot without
// taking any lock.
func (s *Selector) PreviewQuantities(ctx context.Context, lotID uint) (*stock.Quantities, error) {
	st := s.db.Stores()
	lot, err := st.Lots().Get(ctx, lotID, LockNone)
	if err != nil {
		return nil, err
	}
	reservations, err := st.Reservations().ListByLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	q := stock.Compute(lot, reservations)
	return &q, nil
}
