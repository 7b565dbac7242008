package erp

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/models"
)

// Config holds ERP connection settings
type Config struct {
	URL      string
	Database string
	Username string
	Password string
}

// Gateway registers confirmed allocations in the ERP and is the production
// implementation of the engine's acknowledgement interfaces. An unconfigured
// gateway (empty URL) acknowledges locally, for development setups without
// an ERP.
type Gateway struct {
	client *Client
	cfg    Config

	mu     sync.Mutex
	authed bool
}

// NewGateway creates the ERP allocation gateway
func NewGateway(cfg Config) *Gateway {
	return &Gateway{
		client: NewClient(cfg.URL, cfg.Database, cfg.Username, cfg.Password),
		cfg:    cfg,
	}
}

// ensureAuth authenticates once and caches the session uid.
func (g *Gateway) ensureAuth() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authed {
		return nil
	}
	if _, err := g.client.Authenticate(); err != nil {
		return err
	}
	g.authed = true
	return nil
}

// RegisterAllocation books the confirmed reservation as a stock allocation
// in the ERP and returns its document reference.
func (g *Gateway) RegisterAllocation(ctx context.Context, r *models.Reservation, lot *models.Lot) (*allocation.AckResult, error) {
	if g.cfg.URL == "" {
		// Local-only mode: acknowledge without an ERP behind us.
		ref := fmt.Sprintf("LOCAL-%d-%d", lot.ID, r.ID)
		log.Printf("📎 ERP disabled, local acknowledgement %s", ref)
		return &allocation.AckResult{Success: true, DocumentRef: ref, AckedAt: time.Now()}, nil
	}

	if err := g.ensureAuth(); err != nil {
		return nil, fmt.Errorf("erp authentication: %w", err)
	}

	id, err := g.client.Create("stock.allocation", map[string]interface{}{
		"lot_name":    lot.LotMaster.LotNumber,
		"product_id":  int64(lot.ProductID),
		"quantity":    r.ReservedQty,
		"source_type": string(r.SourceType),
		"source_id":   int64(r.SourceID),
	})
	if err != nil {
		return nil, err
	}

	ref := fmt.Sprintf("ALO-%06d", id)
	log.Printf("📨 ERP acknowledged allocation %s (reservation %d, lot %s)", ref, r.ID, lot.LotMaster.LotNumber)
	return &allocation.AckResult{Success: true, DocumentRef: ref, AckedAt: time.Now()}, nil
}

// ReverseAllocation flags the ERP-side allocation document as cancelled.
func (g *Gateway) ReverseAllocation(ctx context.Context, r *models.Reservation) error {
	if g.cfg.URL == "" || r.AckReference == "" {
		return nil
	}

	if err := g.ensureAuth(); err != nil {
		return fmt.Errorf("erp authentication: %w", err)
	}

	ids, err := g.client.Search("stock.allocation", []interface{}{
		[]interface{}{"name", "=", r.AckReference},
	}, 1, 0)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("allocation document %s not found in ERP", r.AckReference)
	}

	return g.client.Write("stock.allocation", ids, map[string]interface{}{
		"state": "cancelled",
	})
}
