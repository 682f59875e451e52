package services_test

import (
	"context"
	"sync"
	"testing"

	"pos-order-service/models"
	"pos-order-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func addOp(name string, price float64, qty int) models.AmendmentOp {
	return models.AmendmentOp{
		Type: models.OpAdd,
		Item: &models.OrderItem{
			ProductID: uuid.New(),
			Name:      name,
			UnitPrice: price,
			Quantity:  qty,
		},
	}
}

func TestProposeAmendment_StoresOpsWithoutTouchingItems(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 2))

	proposed, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{addOp("Gyoza", 5.00, 1)})

	assert.Nil(t, svcErr)
	assert.Len(t, proposed.PendingAmendments, 1)
	assert.Len(t, proposed.Items, 1)
	assert.Equal(t, 20.00, proposed.Subtotal)
	assert.Equal(t, 0, proposed.AmendmentCount)
}

func TestProposeAmendment_RejectsWhileOnePending(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 2))

	_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{addOp("Gyoza", 5.00, 1)})
	assert.Nil(t, svcErr)

	_, svcErr = env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-2",
		[]models.AmendmentOp{addOp("Edamame", 4.00, 1)})
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeAmendmentConflict, svcErr.Code)
}

func TestProposeAmendment_ConcurrentCallsExactlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 2))

	var wg sync.WaitGroup
	results := make([]*services.ServiceError, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID,
				"terminal-"+string(rune('A'+i)), []models.AmendmentOp{addOp("Gyoza", 5.00, 1)})
		}(i)
	}
	wg.Wait()

	var conflicts, successes int
	for _, svcErr := range results {
		if svcErr == nil {
			successes++
		} else if svcErr.Code == services.CodeAmendmentConflict {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestRespondToAmendment_DeclineLeavesOrderUntouched(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 2))

	_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{addOp("Gyoza", 5.00, 1)})
	assert.Nil(t, svcErr)

	declined, svcErr := env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", false)
	assert.Nil(t, svcErr)

	assert.Len(t, declined.Items, 1)
	assert.Equal(t, 20.00, declined.Subtotal)
	assert.Equal(t, 0, declined.AmendmentCount)
	assert.False(t, declined.IsAmended)
	assert.Empty(t, declined.PendingAmendments)

	last := declined.StatusHistory[len(declined.StatusHistory)-1]
	assert.Equal(t, models.HistoryAmendmentDeclined, last.Status)
	assert.Equal(t, 1, last.AmendmentVersion) // the version that would have been assigned
}

func TestRespondToAmendment_AcceptAppendsVersionedItem(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Item A", 10.00, 2))

	_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{addOp("Item B", 7.50, 1)})
	assert.Nil(t, svcErr)

	accepted, svcErr := env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", true)
	assert.Nil(t, svcErr)

	assert.Len(t, accepted.Items, 2)
	assert.Equal(t, 0, accepted.Items[0].AmendmentVersion)
	assert.Equal(t, 1, accepted.Items[1].AmendmentVersion)
	assert.Equal(t, "Item B", accepted.Items[1].Name)
	assert.Equal(t, 1, accepted.AmendmentCount)
	assert.True(t, accepted.IsAmended)
	assert.Equal(t, 27.50, accepted.Subtotal)
	assert.Empty(t, accepted.PendingAmendments)

	last := accepted.StatusHistory[len(accepted.StatusHistory)-1]
	assert.Equal(t, models.HistoryAmendmentAccepted, last.Status)
	assert.Equal(t, 1, last.AmendmentVersion)
}

func TestRespondToAmendment_DeleteCancelsEarliestActiveMatch(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 2), lineItem("Gyoza", 5.00, 1))
	target := order.Items[0]

	_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{{Type: models.OpDelete, ItemID: target.ID}})
	assert.Nil(t, svcErr)

	resolved, svcErr := env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", true)
	assert.Nil(t, svcErr)

	assert.Equal(t, models.ItemCancelled, resolved.Items[0].ItemStatus)
	assert.Equal(t, models.ItemActive, resolved.Items[1].ItemStatus)
	assert.Equal(t, 5.00, resolved.Subtotal)
}

func TestRespondToAmendment_ReduceLowersQuantityInPlace(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 3))
	target := order.Items[0]

	_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{{Type: models.OpReduce, ItemID: target.ID, Quantity: 1}})
	assert.Nil(t, svcErr)

	resolved, svcErr := env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", true)
	assert.Nil(t, svcErr)

	assert.Len(t, resolved.Items, 1)
	assert.Equal(t, 1, resolved.Items[0].Quantity)
	// a reduce is a partial cancellation, not a new version line
	assert.Equal(t, 0, resolved.Items[0].AmendmentVersion)
	assert.Equal(t, 10.00, resolved.Subtotal)
}

func TestAmendmentCount_IncreasesByExactlyOnePerAcceptance(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 1))

	for round := 1; round <= 3; round++ {
		_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
			[]models.AmendmentOp{addOp("Extra", 2.00, 1)})
		assert.Nil(t, svcErr)

		resolved, svcErr := env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", true)
		assert.Nil(t, svcErr)
		assert.Equal(t, round, resolved.AmendmentCount)
	}

	// A decline does not advance the count.
	_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{addOp("Extra", 2.00, 1)})
	assert.Nil(t, svcErr)
	resolved, svcErr := env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", false)
	assert.Nil(t, svcErr)
	assert.Equal(t, 3, resolved.AmendmentCount)
}

func TestProposeAmendment_RejectedOnceOrderSettled(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 1))
	env.advance(t, order.ID, models.StatusServed)

	_, svcErr := env.payments.CompletePayment(context.Background(), env.tenantID, order.ID, "till-1", models.RoleTill,
		&models.CompletePaymentRequest{Method: models.PaymentCard})
	assert.Nil(t, svcErr)

	_, svcErr = env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{addOp("Extra", 2.00, 1)})
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)
}

func TestSubtotalInvariant_AcrossAmendmentCycles(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("A", 3.25, 2), lineItem("B", 4.00, 1))

	check := func(o *models.Order) {
		var want float64
		for _, it := range o.Items {
			if it.ItemStatus == models.ItemActive {
				want += it.UnitPrice * float64(it.Quantity)
			}
		}
		assert.InDelta(t, want, o.Subtotal, 0.001)
	}
	check(order)

	_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{addOp("C", 1.75, 3), {Type: models.OpDelete, ItemID: order.Items[1].ID}})
	assert.Nil(t, svcErr)
	resolved, svcErr := env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", true)
	assert.Nil(t, svcErr)
	check(resolved)
}

func TestRespondToAmendment_RejectedOnSettledOrder(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 1))
	env.advance(t, order.ID, models.StatusServed)

	_, svcErr := env.payments.CompletePayment(context.Background(), env.tenantID, order.ID, "till-1", models.RoleTill,
		&models.CompletePaymentRequest{Method: models.PaymentCard})
	assert.Nil(t, svcErr)

	_, svcErr = env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", true)
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)
}

func TestUpdateOrderStatus_DeclineDiscardsPendingAmendment(t *testing.T) {
	env := newTestEnv(t)
	order := env.placeOrder(t, lineItem("Ramen", 10.00, 1))

	_, svcErr := env.amendments.ProposeAmendment(context.Background(), env.tenantID, order.ID, "waiter-1",
		[]models.AmendmentOp{addOp("Gyoza", 5.00, 1)})
	assert.Nil(t, svcErr)

	declined, svcErr := env.orders.UpdateOrderStatus(context.Background(), env.tenantID, order.ID, "kitchen-1", models.StatusDeclined)
	assert.Nil(t, svcErr)
	assert.Empty(t, declined.PendingAmendments)
	assert.False(t, declined.CanAmend)

	// The discarded proposal cannot be resolved afterwards.
	_, svcErr = env.amendments.RespondToAmendment(context.Background(), env.tenantID, order.ID, "kitchen-1", true)
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)

	stored, gErr := env.orders.GetOrder(context.Background(), env.tenantID, order.ID)
	assert.Nil(t, gErr)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, 0, stored.AmendmentCount)
}
