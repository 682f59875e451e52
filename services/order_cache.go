package services

import (
	"sort"
	"sync"

	"pos-order-service/models"

	"github.com/google/uuid"
)

// OrderCache is an in-memory index of all non-terminal orders per
// tenant, kept current by the sync poller and by local mutations. The
// display layers read from it instead of hitting Postgres per refresh.
type OrderCache struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]map[uuid.UUID]*models.Order // tenant -> order ID -> order
}

func NewOrderCache() *OrderCache {
	return &OrderCache{orders: make(map[uuid.UUID]map[uuid.UUID]*models.Order)}
}

// Put stores the order, or evicts it once it reaches a terminal state.
func (c *OrderCache) Put(order *models.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tenant := c.orders[order.TenantID]
	if order.Status.IsTerminal() {
		delete(tenant, order.ID)
		return
	}
	if tenant == nil {
		tenant = make(map[uuid.UUID]*models.Order)
		c.orders[order.TenantID] = tenant
	}
	cp := *order
	tenant[order.ID] = &cp
}

// Get returns a copy of the cached order, if present.
func (c *OrderCache) Get(tenantID, orderID uuid.UUID) (*models.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	order, ok := c.orders[tenantID][orderID]
	if !ok {
		return nil, false
	}
	cp := *order
	return &cp, true
}

// List returns the tenant's cached orders in creation order.
func (c *OrderCache) List(tenantID uuid.UUID) []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Order, 0, len(c.orders[tenantID]))
	for _, order := range c.orders[tenantID] {
		out = append(out, *order)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Tenants returns all tenant IDs with cached orders.
func (c *OrderCache) Tenants() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(c.orders))
	for id := range c.orders {
		out = append(out, id)
	}
	return out
}

// Replace swaps the tenant's cached set wholesale (poller refresh).
func (c *OrderCache) Replace(tenantID uuid.UUID, orders []models.Order) {
	fresh := make(map[uuid.UUID]*models.Order, len(orders))
	for i := range orders {
		if orders[i].Status.IsTerminal() {
			continue
		}
		cp := orders[i]
		fresh[cp.ID] = &cp
	}
	c.mu.Lock()
	c.orders[tenantID] = fresh
	c.mu.Unlock()
}
