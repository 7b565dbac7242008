package allocation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lotwise-io/lotwisego/internal/models"
)

// memDB is an in-memory DB/Stores implementation for engine tests. InTx runs
// the body against a deep copy and merges back only on success, mirroring the
// transaction and savepoint semantics the real store gets from Postgres.
type memDB struct {
	lots         map[uint]*models.Lot
	masters      map[uint]*models.LotMaster
	reservations map[uint]*models.Reservation
	demands      []models.ForecastDemand
	suggestions  []models.AllocationSuggestion
	runs         []models.SuggestionRun

	recomputedLines []uint

	nextLotID    uint
	nextMasterID uint
	nextResID    uint
}

func newMemDB() *memDB {
	return &memDB{
		lots:         map[uint]*models.Lot{},
		masters:      map[uint]*models.LotMaster{},
		reservations: map[uint]*models.Reservation{},
	}
}

func (m *memDB) addLot(lot models.Lot) *models.Lot {
	if lot.ID == 0 {
		m.nextLotID++
		lot.ID = m.nextLotID
	} else if lot.ID > m.nextLotID {
		m.nextLotID = lot.ID
	}
	if lot.Status == "" {
		lot.Status = models.LotStatusActive
	}
	m.lots[lot.ID] = &lot
	return &lot
}

func (m *memDB) addReservation(r models.Reservation) *models.Reservation {
	if r.ID == 0 {
		m.nextResID++
		r.ID = m.nextResID
	} else if r.ID > m.nextResID {
		m.nextResID = r.ID
	}
	m.reservations[r.ID] = &r
	return &r
}

func (m *memDB) clone() *memDB {
	c := newMemDB()
	for id, l := range m.lots {
		cp := *l
		c.lots[id] = &cp
	}
	for id, lm := range m.masters {
		cp := *lm
		c.masters[id] = &cp
	}
	for id, r := range m.reservations {
		cp := *r
		c.reservations[id] = &cp
	}
	c.demands = append(c.demands, m.demands...)
	c.suggestions = append(c.suggestions, m.suggestions...)
	c.runs = append(c.runs, m.runs...)
	c.recomputedLines = append(c.recomputedLines, m.recomputedLines...)
	c.nextLotID, c.nextMasterID, c.nextResID = m.nextLotID, m.nextMasterID, m.nextResID
	return c
}

func (m *memDB) merge(c *memDB) {
	m.lots = c.lots
	m.masters = c.masters
	m.reservations = c.reservations
	m.demands = c.demands
	m.suggestions = c.suggestions
	m.runs = c.runs
	m.recomputedLines = c.recomputedLines
	m.nextLotID, m.nextMasterID, m.nextResID = c.nextLotID, c.nextMasterID, c.nextResID
}

// DB interface

func (m *memDB) Stores() Stores { return m }

func (m *memDB) InTx(ctx context.Context, fn func(s Stores) error) error {
	c := m.clone()
	if err := fn(c); err != nil {
		return err
	}
	m.merge(c)
	return nil
}

// Stores interface

func (m *memDB) Lots() LotStore                 { return memLotStore{m} }
func (m *memDB) Reservations() ReservationStore { return memResStore{m} }
func (m *memDB) Demands() DemandStore           { return memDemandStore{m} }
func (m *memDB) Suggestions() SuggestionStore   { return memSuggestionStore{m} }
func (m *memDB) OrderLines() OrderLineStore     { return memOrderLineStore{m} }

type memLotStore struct{ m *memDB }

func (s memLotStore) Get(ctx context.Context, id uint, lock LockMode) (*models.Lot, error) {
	l, ok := s.m.lots[id]
	if !ok {
		return nil, &NotFoundError{Entity: "lot", ID: id}
	}
	cp := *l
	if master, ok := s.m.masters[l.LotMasterID]; ok {
		cp.LotMaster = *master
	}
	return &cp, nil
}

func (s memLotStore) ListForProduct(ctx context.Context, productID uint, warehouseID *uint, lock LockMode) ([]models.Lot, error) {
	var out []models.Lot
	for _, l := range s.m.lots {
		if l.ProductID != productID || l.Status != models.LotStatusActive {
			continue
		}
		if warehouseID != nil && l.WarehouseID != *warehouseID {
			continue
		}
		cp := *l
		if master, ok := s.m.masters[l.LotMasterID]; ok {
			cp.LotMaster = *master
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memLotStore) Save(ctx context.Context, lot *models.Lot) error {
	if _, ok := s.m.lots[lot.ID]; !ok {
		return &NotFoundError{Entity: "lot", ID: lot.ID}
	}
	cp := *lot
	s.m.lots[lot.ID] = &cp
	return nil
}

func (s memLotStore) Create(ctx context.Context, lot *models.Lot) error {
	s.m.nextLotID++
	lot.ID = s.m.nextLotID
	cp := *lot
	s.m.lots[lot.ID] = &cp
	return nil
}

func (s memLotStore) GetOrCreateMaster(ctx context.Context, productID uint, lotNumber string) (*models.LotMaster, error) {
	for _, lm := range s.m.masters {
		if lm.LotNumber == lotNumber {
			cp := *lm
			return &cp, nil
		}
	}
	s.m.nextMasterID++
	lm := &models.LotMaster{ID: s.m.nextMasterID, LotNumber: lotNumber, ProductID: productID}
	s.m.masters[lm.ID] = lm
	cp := *lm
	return &cp, nil
}

type memResStore struct{ m *memDB }

func (s memResStore) Get(ctx context.Context, id uint, lock LockMode) (*models.Reservation, error) {
	r, ok := s.m.reservations[id]
	if !ok {
		return nil, &NotFoundError{Entity: "reservation", ID: id}
	}
	cp := *r
	return &cp, nil
}

func (s memResStore) ListByLot(ctx context.Context, lotID uint) ([]models.Reservation, error) {
	return s.list(lotID, func(r *models.Reservation) bool {
		return r.Status != models.ReservationReleased
	}), nil
}

func (s memResStore) ListActiveByLot(ctx context.Context, lotID uint) ([]models.Reservation, error) {
	return s.list(lotID, func(r *models.Reservation) bool {
		return r.Status == models.ReservationActive
	}), nil
}

func (s memResStore) list(lotID uint, keep func(*models.Reservation) bool) []models.Reservation {
	var out []models.Reservation
	for _, r := range s.m.reservations {
		if r.LotID == nil || *r.LotID != lotID || !keep(r) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s memResStore) ConfirmedSums(ctx context.Context, lotIDs []uint) (map[uint]float64, error) {
	wanted := map[uint]bool{}
	for _, id := range lotIDs {
		wanted[id] = true
	}
	sums := map[uint]float64{}
	for _, r := range s.m.reservations {
		if r.Status != models.ReservationConfirmed || r.LotID == nil || !wanted[*r.LotID] {
			continue
		}
		sums[*r.LotID] += r.ReservedQty
	}
	return sums, nil
}

func (s memResStore) Create(ctx context.Context, r *models.Reservation) error {
	s.m.nextResID++
	r.ID = s.m.nextResID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	cp := *r
	s.m.reservations[r.ID] = &cp
	return nil
}

func (s memResStore) Save(ctx context.Context, r *models.Reservation) error {
	if _, ok := s.m.reservations[r.ID]; !ok {
		return &NotFoundError{Entity: "reservation", ID: r.ID}
	}
	cp := *r
	s.m.reservations[r.ID] = &cp
	return nil
}

type memDemandStore struct{ m *memDB }

func (s memDemandStore) ListByScope(ctx context.Context, scope Scope) ([]models.ForecastDemand, error) {
	var out []models.ForecastDemand
	for _, d := range s.m.demands {
		if matchesScope(scope, d.CustomerID, d.DeliveryPlaceID, d.ProductID, d.Period) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DemandDate.Equal(out[j].DemandDate) {
			return out[i].DemandDate.Before(out[j].DemandDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchesScope(scope Scope, customerID, placeID, productID uint, period string) bool {
	if customerID != scope.CustomerID || placeID != scope.DeliveryPlaceID || productID != scope.ProductID {
		return false
	}
	return scope.Period == "" || period == scope.Period
}

type memSuggestionStore struct{ m *memDB }

func (s memSuggestionStore) DeleteScope(ctx context.Context, scope Scope) error {
	var kept []models.AllocationSuggestion
	for _, sg := range s.m.suggestions {
		if !matchesScope(scope, sg.CustomerID, sg.DeliveryPlaceID, sg.ProductID, sg.Period) {
			kept = append(kept, sg)
		}
	}
	s.m.suggestions = kept
	return nil
}

func (s memSuggestionStore) BulkInsert(ctx context.Context, suggestions []models.AllocationSuggestion) error {
	s.m.suggestions = append(s.m.suggestions, suggestions...)
	return nil
}

func (s memSuggestionStore) RecordRun(ctx context.Context, run *models.SuggestionRun) error {
	s.m.runs = append(s.m.runs, *run)
	return nil
}

func (s memSuggestionStore) ListScope(ctx context.Context, scope Scope) ([]models.AllocationSuggestion, error) {
	var out []models.AllocationSuggestion
	for _, sg := range s.m.suggestions {
		if matchesScope(scope, sg.CustomerID, sg.DeliveryPlaceID, sg.ProductID, sg.Period) {
			out = append(out, sg)
		}
	}
	return out, nil
}

type memOrderLineStore struct{ m *memDB }

func (s memOrderLineStore) RecomputeFulfillment(ctx context.Context, lineID uint) error {
	s.m.recomputedLines = append(s.m.recomputedLines, lineID)
	return nil
}

// fakeGateway is a scriptable AllocationGateway/AllocationReverser double
type fakeGateway struct {
	calls        int
	reverseCalls int
	failErr      error  // transport failure
	rejectMsg    string // business rejection (Success=false)
	reverseErr   error
	lastLotID    uint
}

func (g *fakeGateway) RegisterAllocation(ctx context.Context, r *models.Reservation, lot *models.Lot) (*AckResult, error) {
	g.calls++
	g.lastLotID = lot.ID
	if g.failErr != nil {
		return nil, g.failErr
	}
	if g.rejectMsg != "" {
		return &AckResult{Success: false, ErrorMessage: g.rejectMsg}, nil
	}
	return &AckResult{Success: true, DocumentRef: "ACK-0001", AckedAt: time.Now()}, nil
}

func (g *fakeGateway) ReverseAllocation(ctx context.Context, r *models.Reservation) error {
	g.reverseCalls++
	return g.reverseErr
}

// fakeSink records published events
type fakeSink struct {
	events []Event
}

func (s *fakeSink) Publish(event Event) { s.events = append(s.events, event) }

var errBoom = errors.New("boom")
