package store

import (
	"context"
	"errors"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/models"
	"gorm.io/gorm"
)

type lotStore struct {
	db *gorm.DB
}

func (s *lotStore) Get(ctx context.Context, id uint, lock allocation.LockMode) (*models.Lot, error) {
	var lot models.Lot
	err := withLock(s.db.WithContext(ctx), lock).
		Preload("LotMaster").
		First(&lot, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &allocation.NotFoundError{Entity: "lot", ID: id}
		}
		return nil, err
	}
	return &lot, nil
}

func (s *lotStore) ListForProduct(ctx context.Context, productID uint, warehouseID *uint, lock allocation.LockMode) ([]models.Lot, error) {
	q := withLock(s.db.WithContext(ctx), lock).
		Preload("LotMaster").
		Where("product_id = ? AND status = ?", productID, models.LotStatusActive)
	if warehouseID != nil {
		q = q.Where("warehouse_id = ?", *warehouseID)
	}

	var lots []models.Lot
	if err := q.Order("id").Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

func (s *lotStore) Save(ctx context.Context, lot *models.Lot) error {
	return s.db.WithContext(ctx).Save(lot).Error
}

func (s *lotStore) Create(ctx context.Context, lot *models.Lot) error {
	return s.db.WithContext(ctx).Create(lot).Error
}

func (s *lotStore) GetOrCreateMaster(ctx context.Context, productID uint, lotNumber string) (*models.LotMaster, error) {
	var master models.LotMaster
	err := s.db.WithContext(ctx).
		Where(models.LotMaster{ProductID: productID, LotNumber: lotNumber}).
		FirstOrCreate(&master).Error
	if err != nil {
		return nil, err
	}
	return &master, nil
}
