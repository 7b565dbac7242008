package store

import (
	"context"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/models"
	"gorm.io/gorm"
)

type demandStore struct {
	db *gorm.DB
}

func (s *demandStore) ListByScope(ctx context.Context, scope allocation.Scope) ([]models.ForecastDemand, error) {
	q := scopeQuery(s.db.WithContext(ctx).Model(&models.ForecastDemand{}), scope)

	var demands []models.ForecastDemand
	err := q.Order("demand_date, id").Find(&demands).Error
	return demands, err
}

type suggestionStore struct {
	db *gorm.DB
}

func (s *suggestionStore) DeleteScope(ctx context.Context, scope allocation.Scope) error {
	q := scopeQuery(s.db.WithContext(ctx), scope)
	return q.Delete(&models.AllocationSuggestion{}).Error
}

func (s *suggestionStore) BulkInsert(ctx context.Context, suggestions []models.AllocationSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(suggestions, 200).Error
}

func (s *suggestionStore) RecordRun(ctx context.Context, run *models.SuggestionRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *suggestionStore) ListScope(ctx context.Context, scope allocation.Scope) ([]models.AllocationSuggestion, error) {
	q := scopeQuery(s.db.WithContext(ctx).Model(&models.AllocationSuggestion{}), scope)

	var suggestions []models.AllocationSuggestion
	err := q.Order("id").Find(&suggestions).Error
	return suggestions, err
}

// scopeQuery narrows a query to one demand scope; the period is optional.
func scopeQuery(q *gorm.DB, scope allocation.Scope) *gorm.DB {
	q = q.Where("customer_id = ? AND delivery_place_id = ? AND product_id = ?",
		scope.CustomerID, scope.DeliveryPlaceID, scope.ProductID)
	if scope.Period != "" {
		q = q.Where("period = ?", scope.Period)
	}
	return q
}
