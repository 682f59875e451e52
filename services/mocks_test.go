package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"pos-order-service/models"
	"pos-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- In-memory order repository ---

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	// failNext simulates a transport failure on the next write.
	failNext bool
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append(models.OrderItems(nil), o.Items...)
	cp.PendingAmendments = append(models.AmendmentOps(nil), o.PendingAmendments...)
	cp.StatusHistory = append(models.StatusHistory(nil), o.StatusHistory...)
	cp.VectorClock = o.VectorClock.Clone()
	cp.TableIDs = append(models.UUIDList(nil), o.TableIDs...)
	return &cp
}

func (m *mockOrderRepo) takeFailure() bool {
	if m.failNext {
		m.failNext = false
		return true
	}
	return false
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeFailure() {
		return errors.New("connection refused")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.UpdatedAt = time.Now().UTC()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(o), nil
}

func (m *mockOrderRepo) FindActiveByTenant(_ context.Context, tenantID uuid.UUID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.TenantID == tenantID && !o.Status.IsTerminal() {
			out = append(out, *cloneOrder(o))
		}
	}
	return out, nil
}

func (m *mockOrderRepo) Update(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeFailure() {
		return errors.New("connection refused")
	}
	order.UpdatedAt = time.Now().UTC()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *mockOrderRepo) StoreProposedAmendment(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeFailure() {
		return errors.New("connection refused")
	}
	stored, ok := m.orders[order.ID]
	if !ok || stored.AmendmentCount != order.AmendmentCount || len(stored.PendingAmendments) > 0 {
		return repository.ErrConflict
	}
	order.UpdatedAt = time.Now().UTC()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *mockOrderRepo) StoreResolvedAmendment(_ context.Context, order *models.Order, expectedCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeFailure() {
		return errors.New("connection refused")
	}
	stored, ok := m.orders[order.ID]
	if !ok || stored.AmendmentCount != expectedCount || len(stored.PendingAmendments) == 0 {
		return repository.ErrConflict
	}
	order.UpdatedAt = time.Now().UTC()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *mockOrderRepo) SetSyncStatus(_ context.Context, orderID uuid.UUID, status models.SyncStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[orderID]; ok {
		o.SyncStatus = status
	}
	return nil
}

// --- Customer repository ---

type mockCustomerRepo struct {
	customers map[uuid.UUID]*models.Customer
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[uuid.UUID]*models.Customer)}
}

func (m *mockCustomerRepo) FindByID(_ context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error) {
	c, ok := m.customers[customerID]
	if !ok || c.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockCustomerRepo) RecordVisit(_ context.Context, customerID uuid.UUID, spend float64, at time.Time) error {
	if c, ok := m.customers[customerID]; ok {
		c.TotalOrders++
		c.TotalSpend += spend
		c.LastVisit = &at
	}
	return nil
}

// --- Table repository ---

type mockTableRepo struct {
	statuses map[uuid.UUID]models.TableStatus
}

func newMockTableRepo() *mockTableRepo {
	return &mockTableRepo{statuses: make(map[uuid.UUID]models.TableStatus)}
}

func (m *mockTableRepo) SetStatus(_ context.Context, _ uuid.UUID, tableIDs []uuid.UUID, status models.TableStatus) error {
	for _, id := range tableIDs {
		m.statuses[id] = status
	}
	return nil
}

// --- Staff repository ---

type mockStaffRepo struct {
	staff []models.Staff
}

func (m *mockStaffRepo) FindPrivileged(_ context.Context, tenantID uuid.UUID) ([]models.Staff, error) {
	var out []models.Staff
	for _, s := range m.staff {
		if s.TenantID == tenantID && s.Active && s.Role.IsPrivileged() {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- Register repository ---

type mockRegisterRepo struct {
	sessions map[uuid.UUID]*models.RegisterSession
	logs     []models.CashLog
}

func newMockRegisterRepo() *mockRegisterRepo {
	return &mockRegisterRepo{sessions: make(map[uuid.UUID]*models.RegisterSession)}
}

func (m *mockRegisterRepo) Create(_ context.Context, session *models.RegisterSession) error {
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockRegisterRepo) FindOpen(_ context.Context, tenantID uuid.UUID) (*models.RegisterSession, error) {
	for _, s := range m.sessions {
		if s.TenantID == tenantID && s.Status == models.RegisterOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegisterRepo) Update(_ context.Context, session *models.RegisterSession) error {
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockRegisterRepo) Credit(_ context.Context, sessionID uuid.UUID, amount float64) error {
	if s, ok := m.sessions[sessionID]; ok && s.Status == models.RegisterOpen {
		s.CurrentBalance += amount
	}
	return nil
}

func (m *mockRegisterRepo) CreateLog(_ context.Context, entry *models.CashLog) error {
	m.logs = append(m.logs, *entry)
	return nil
}

// --- Sync repository ---

type mockSyncRepo struct {
	mu        sync.Mutex
	mutations []models.SyncMutation
}

func (m *mockSyncRepo) Enqueue(_ context.Context, mutation *models.SyncMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.mutations {
		if existing.OpID == mutation.OpID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.mutations = append(m.mutations, *mutation)
	return nil
}

func (m *mockSyncRepo) FindQueued(_ context.Context, tenantID uuid.UUID, actorID string) ([]models.SyncMutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SyncMutation
	for _, mu := range m.mutations {
		if mu.TenantID == tenantID && mu.ActorID == actorID && !mu.Applied {
			out = append(out, mu)
		}
	}
	return out, nil
}

func (m *mockSyncRepo) MarkApplied(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.mutations {
		if m.mutations[i].ID == id {
			m.mutations[i].Applied = true
		}
	}
	return nil
}

// --- Idempotency store ---

type mockIdempotency struct {
	mu   sync.Mutex
	seen map[string]bool
	fail bool
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{seen: make(map[string]bool)}
}

func (m *mockIdempotency) MarkOnce(_ context.Context, opID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false, errors.New("redis unavailable")
	}
	if m.seen[opID] {
		return false, nil
	}
	m.seen[opID] = true
	return true, nil
}

func (m *mockIdempotency) Release(_ context.Context, opID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, opID)
	return nil
}

// --- Kafka producer ---

type mockProducer struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (m *mockProducer) PublishOrderEvent(evt models.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockProducer) Close() error { return nil }

func (m *mockProducer) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}
