package store

import (
	"context"
	"errors"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/models"
	"gorm.io/gorm"
)

type reservationStore struct {
	db *gorm.DB
}

func (s *reservationStore) Get(ctx context.Context, id uint, lock allocation.LockMode) (*models.Reservation, error) {
	var r models.Reservation
	err := withLock(s.db.WithContext(ctx), lock).First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &allocation.NotFoundError{Entity: "reservation", ID: id}
		}
		return nil, err
	}
	return &r, nil
}

func (s *reservationStore) ListByLot(ctx context.Context, lotID uint) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := s.db.WithContext(ctx).
		Where("lot_id = ? AND status <> ?", lotID, models.ReservationReleased).
		Order("id").
		Find(&rs).Error
	return rs, err
}

func (s *reservationStore) ListActiveByLot(ctx context.Context, lotID uint) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := s.db.WithContext(ctx).
		Where("lot_id = ? AND status = ?", lotID, models.ReservationActive).
		Order("id").
		Find(&rs).Error
	return rs, err
}

func (s *reservationStore) ConfirmedSums(ctx context.Context, lotIDs []uint) (map[uint]float64, error) {
	if len(lotIDs) == 0 {
		return map[uint]float64{}, nil
	}

	type row struct {
		LotID uint
		Total float64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Select("lot_id, SUM(reserved_qty) AS total").
		Where("lot_id IN ? AND status = ?", lotIDs, models.ReservationConfirmed).
		Group("lot_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uint]float64, len(rows))
	for _, r := range rows {
		sums[r.LotID] = r.Total
	}
	return sums, nil
}

func (s *reservationStore) Create(ctx context.Context, r *models.Reservation) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *reservationStore) Save(ctx context.Context, r *models.Reservation) error {
	return s.db.WithContext(ctx).Save(r).Error
}
