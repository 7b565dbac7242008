// Package store implements the allocation engine's persistence contracts on
// GORM/PostgreSQL. Row locks map onto SELECT ... FOR UPDATE (optionally with
// SKIP LOCKED); transactions and savepoints come from gorm's Transaction.
package store

import (
	"context"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDB adapts a gorm handle to the engine's DB contract
type GormDB struct {
	db *gorm.DB
}

// New wraps a gorm database handle
func New(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// Stores returns a non-transactional store bundle (previews only)
func (g *GormDB) Stores() allocation.Stores {
	return &stores{db: g.db}
}

// InTx runs fn inside one transaction, committing iff fn returns nil
func (g *GormDB) InTx(ctx context.Context, fn func(s allocation.Stores) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&stores{db: tx})
	})
}

// stores binds every store to one gorm handle (plain or transactional)
type stores struct {
	db *gorm.DB
}

func (s *stores) Lots() allocation.LotStore               { return &lotStore{db: s.db} }
func (s *stores) Reservations() allocation.ReservationStore { return &reservationStore{db: s.db} }
func (s *stores) Demands() allocation.DemandStore         { return &demandStore{db: s.db} }
func (s *stores) Suggestions() allocation.SuggestionStore { return &suggestionStore{db: s.db} }
func (s *stores) OrderLines() allocation.OrderLineStore   { return &orderLineStore{db: s.db} }

// InTx on an already transactional handle opens a SAVEPOINT, so batch items
// can roll back individually without poisoning the outer commit.
func (s *stores) InTx(ctx context.Context, fn func(s allocation.Stores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&stores{db: tx})
	})
}

// withLock applies the requested row lock to a query
func withLock(db *gorm.DB, mode allocation.LockMode) *gorm.DB {
	switch mode {
	case allocation.LockWait:
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	case allocation.LockNoWait:
		return db.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	return db
}
