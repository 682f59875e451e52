package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{StatusPending, StatusPreparing},
		{StatusPending, StatusDeclined},
		{StatusPreparing, StatusReady},
		{StatusReady, StatusServed},
	}
	for _, edge := range allowed {
		assert.True(t, edge.from.CanTransition(edge.to), "%s -> %s", edge.from, edge.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{StatusPending, StatusReady},
		{StatusPending, StatusServed},
		{StatusPending, StatusPaid},
		{StatusPending, StatusCancelled},
		{StatusPreparing, StatusPending},
		{StatusPreparing, StatusServed},
		{StatusReady, StatusPreparing},
		{StatusServed, StatusPaid},
		{StatusServed, StatusReady},
		{StatusPaid, StatusServed},
		{StatusDeclined, StatusPreparing},
		{StatusCancelled, StatusPending},
	}
	for _, edge := range denied {
		assert.False(t, edge.from.CanTransition(edge.to), "%s -> %s", edge.from, edge.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusPaid.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusDeclined.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusServed.IsTerminal())
}

func TestRecomputeSubtotalIgnoresCancelledLines(t *testing.T) {
	order := &Order{Items: OrderItems{
		{ID: uuid.New(), Name: "Ramen", UnitPrice: 11.00, Quantity: 2, ItemStatus: ItemActive},
		{ID: uuid.New(), Name: "Gyoza", UnitPrice: 5.50, Quantity: 1, ItemStatus: ItemCancelled},
		{ID: uuid.New(), Name: "Edamame", UnitPrice: 4.25, Quantity: 3, ItemStatus: ItemActive},
	}}

	order.RecomputeSubtotal()

	assert.Equal(t, 34.75, order.Subtotal)
	assert.Len(t, order.ActiveItems(), 2)
}

func TestDisplayStatusAmendedOverlay(t *testing.T) {
	order := &Order{Status: StatusPreparing}
	assert.Equal(t, "preparing", order.DisplayStatus())

	order.IsAmended = true
	assert.Equal(t, "amended-preparing", order.DisplayStatus())

	order.Status = StatusServed
	assert.Equal(t, "amended-served", order.DisplayStatus())

	// The overlay never applies to pending or terminal states.
	order.Status = StatusPending
	assert.Equal(t, "pending", order.DisplayStatus())
	order.Status = StatusPaid
	assert.Equal(t, "paid", order.DisplayStatus())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.56, Round2(10.556))
	assert.Equal(t, 3.14, Round2(3.14159))
	assert.Equal(t, 0.1, Round2(0.1+0.2-0.2))
	assert.Equal(t, 42.50, Round2(42.5))
}
