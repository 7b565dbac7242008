package allocation

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lotwise-io/lotwisego/internal/models"
)

// Scope identifies one demand group for suggestion regeneration.
// Period may be empty to cover all periods of the triple.
type Scope struct {
	CustomerID      uint   `json:"customer_id"`
	DeliveryPlaceID uint   `json:"delivery_place_id"`
	ProductID       uint   `json:"product_id"`
	Period          string `json:"period,omitempty"`
}

// DemandLine is the per-demand-row outcome of one regeneration pass
type DemandLine struct {
	DemandID  uint    `json:"demand_id"`
	Period    string  `json:"period"`
	Demanded  float64 `json:"demanded"`
	Allocated float64 `json:"allocated"`
	Shortage  float64 `json:"shortage"`
}

// PeriodSummary aggregates one delivery period within a run. The scope
// already fixes customer, delivery place and product, so the period is the
// only varying part of the demand key.
type PeriodSummary struct {
	Period      string  `json:"period"`
	Demand      float64 `json:"demand"`
	Allocated   float64 `json:"allocated"`
	Shortage    float64 `json:"shortage"`
	DemandRows  int     `json:"demand_rows"`
	Suggestions int     `json:"suggestions"`
}

// Summary aggregates one regeneration pass. Periods carries the per-period
// breakdown, in demand order; a single-period scope yields one entry.
type Summary struct {
	TotalDemand    float64         `json:"total_demand"`
	TotalAllocated float64         `json:"total_allocated"`
	TotalShortage  float64         `json:"total_shortage"`
	DemandRows     int             `json:"demand_rows"`
	Suggestions    int             `json:"suggestions"`
	Periods        []PeriodSummary `json:"periods,omitempty"`
}

// SuggestResult is the outcome of Regenerate
type SuggestResult struct {
	RunID       string                        `json:"run_id"`
	Suggestions []models.AllocationSuggestion `json:"suggestions"`
	Lines       []DemandLine                  `json:"lines"`
	Summary     Summary                       `json:"summary"`
}

// Suggestor recomputes the ephemeral soft allocations for one demand scope.
// Each run fully replaces the scope's suggestions inside one transaction, so
// a reader never observes the scope half-updated.
type Suggestor struct {
	db  DB
	now func() time.Time
}

// NewSuggestor creates a suggestion generator over the given database
func NewSuggestor(db DB) *Suggestor {
	return &Suggestor{db: db, now: time.Now}
}

// Regenerate deletes the scope's suggestions and recomputes them against
// current candidate lots under the given policy. Candidates are read without
// locks: suggestions are previews, not commitments. An empty demand set
// yields an empty result with zero totals.
func (g *Suggestor) Regenerate(ctx context.Context, scope Scope, policy Policy) (*SuggestResult, error) {
	now := g.now()
	result := &SuggestResult{
		RunID:       uuid.New().String(),
		Suggestions: []models.AllocationSuggestion{},
		Lines:       []DemandLine{},
	}

	err := g.db.InTx(ctx, func(s Stores) error {
		if err := s.Suggestions().DeleteScope(ctx, scope); err != nil {
			return err
		}

		demands, err := s.Demands().ListByScope(ctx, scope)
		if err != nil {
			return err
		}
		if len(demands) == 0 {
			return nil
		}

		q := DefaultQuery(scope.ProductID, policy)
		candidates, err := SelectCandidates(ctx, s, q, now)
		if err != nil {
			return err
		}

		// Running ledger of quantity already committed to each candidate
		// lot within this pass; the persisted reservation state is not
		// touched until the end, so this is the only double-count guard.
		ledger := make(map[uint]float64)

		periodIdx := make(map[string]int)
		periodAt := func(period string) *PeriodSummary {
			i, ok := periodIdx[period]
			if !ok {
				i = len(result.Summary.Periods)
				periodIdx[period] = i
				result.Summary.Periods = append(result.Summary.Periods, PeriodSummary{Period: period})
			}
			return &result.Summary.Periods[i]
		}

		for _, d := range demands {
			line := DemandLine{DemandID: d.ID, Period: d.Period, Demanded: d.Quantity}
			remaining := d.Quantity
			ps := periodAt(d.Period)

			for _, cand := range candidates {
				if remaining <= 0 {
					break
				}
				left := cand.Available - ledger[cand.Lot.ID]
				if left <= 0 {
					continue
				}
				take := left
				if take > remaining {
					take = remaining
				}
				ledger[cand.Lot.ID] += take
				remaining -= take
				line.Allocated += take
				ps.Suggestions++

				result.Suggestions = append(result.Suggestions, models.AllocationSuggestion{
					RunID:           result.RunID,
					DemandID:        d.ID,
					CustomerID:      d.CustomerID,
					DeliveryPlaceID: d.DeliveryPlaceID,
					ProductID:       d.ProductID,
					Period:          d.Period,
					LotID:           cand.Lot.ID,
					Quantity:        take,
				})
			}

			line.Shortage = remaining
			result.Lines = append(result.Lines, line)

			ps.Demand += line.Demanded
			ps.Allocated += line.Allocated
			ps.Shortage += line.Shortage
			ps.DemandRows++

			result.Summary.TotalDemand += line.Demanded
			result.Summary.TotalAllocated += line.Allocated
			result.Summary.TotalShortage += line.Shortage
		}
		result.Summary.DemandRows = len(demands)
		result.Summary.Suggestions = len(result.Suggestions)

		if len(result.Suggestions) > 0 {
			if err := s.Suggestions().BulkInsert(ctx, result.Suggestions); err != nil {
				return err
			}
		}

		summaryJSON, _ := json.Marshal(result.Summary)
		return s.Suggestions().RecordRun(ctx, &models.SuggestionRun{
			ID:              result.RunID,
			CustomerID:      scope.CustomerID,
			DeliveryPlaceID: scope.DeliveryPlaceID,
			ProductID:       scope.ProductID,
			Period:          scope.Period,
			Summary:         summaryJSON,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🌾 Suggestion run %s: %d demand rows, %.3f allocated, %.3f short",
		result.RunID, result.Summary.DemandRows, result.Summary.TotalAllocated, result.Summary.TotalShortage)
	return result, nil
}
