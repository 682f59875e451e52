package services

import (
	"context"
	"errors"
	"fmt"

	"pos-order-service/kafka"
	"pos-order-service/models"
	"pos-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AmendmentService proposes and resolves item changes against a placed
// order. At most one amendment may be outstanding per order; the rule
// is enforced with a compare-and-set at the repository, not by caller
// convention.
type AmendmentService interface {
	ProposeAmendment(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, ops []models.AmendmentOp) (*models.Order, *ServiceError)
	RespondToAmendment(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, approve bool) (*models.Order, *ServiceError)
}

type amendmentServiceImpl struct {
	orderRepo repository.OrderRepository
	producer  kafka.ProducerAPI
	cache     *OrderCache
	logger    *zap.Logger
}

// NewAmendmentService creates a new AmendmentService.
func NewAmendmentService(orderRepo repository.OrderRepository, producer kafka.ProducerAPI, cache *OrderCache, logger *zap.Logger) AmendmentService {
	return &amendmentServiceImpl{
		orderRepo: orderRepo,
		producer:  producer,
		cache:     cache,
		logger:    logger,
	}
}

// ProposeAmendment stores the proposed ops verbatim. Items and
// financials stay untouched until the amendment is resolved.
func (s *amendmentServiceImpl) ProposeAmendment(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, ops []models.AmendmentOp) (*models.Order, *ServiceError) {
	if len(ops) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "At least one amendment op is required"}
	}
	for i, op := range ops {
		if svcErr := validateOp(i, op); svcErr != nil {
			return nil, svcErr
		}
	}

	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}

	if !order.CanAmend || order.Status.IsTerminal() {
		return nil, invalidTransition(fmt.Sprintf("order in state %s can no longer be amended", order.Status))
	}
	if len(order.PendingAmendments) > 0 {
		return nil, amendmentConflict("an amendment is already awaiting approval")
	}

	order.PendingAmendments = models.AmendmentOps(ops)
	order.VectorClock.Increment(actorID)
	order.UpdatedByActor = actorID

	if err := s.orderRepo.StoreProposedAmendment(ctx, order); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Another terminal won the race between our read and write.
			return nil, amendmentConflict("an amendment is already awaiting approval")
		}
		s.logger.Error("Failed to store amendment proposal", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to propose amendment"}
	}

	s.cache.Put(order)
	publishOrderEvent(s.producer, s.logger, models.EventAmendmentProposed, order, actorID)

	s.logger.Info("Amendment proposed",
		zap.String("order_id", order.ID.String()),
		zap.Int("ops", len(ops)),
		zap.String("actor", actorID))
	return order, nil
}

// RespondToAmendment resolves the pending amendment. Declining leaves
// items and subtotal untouched; approving applies the ops at version
// amendmentCount+1 and recomputes the financials.
func (s *amendmentServiceImpl) RespondToAmendment(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, approve bool) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}

	if order.Status.IsTerminal() {
		return nil, invalidTransition(fmt.Sprintf("order in state %s can no longer be amended", order.Status))
	}
	if len(order.PendingAmendments) == 0 {
		return nil, &ServiceError{StatusCode: 409, Code: CodeAmendmentConflict, Message: "no amendment awaiting approval"}
	}

	expectedCount := order.AmendmentCount
	version := expectedCount + 1

	if approve {
		applyOps(order, order.PendingAmendments, version)
		order.AmendmentCount = version
		order.IsAmended = true
		order.RecomputeSubtotal()
		_, _, order.FinalTotal = applyStoredAdjustments(order)
		order.AppendHistory(version, models.HistoryAmendmentAccepted)
	} else {
		order.AppendHistory(version, models.HistoryAmendmentDeclined)
	}
	order.PendingAmendments = models.AmendmentOps{}
	order.VectorClock.Increment(actorID)
	order.UpdatedByActor = actorID

	if err := s.orderRepo.StoreResolvedAmendment(ctx, order, expectedCount); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, amendmentConflict("amendment was resolved concurrently")
		}
		s.logger.Error("Failed to store amendment resolution", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to resolve amendment"}
	}

	s.cache.Put(order)
	publishOrderEvent(s.producer, s.logger, models.EventAmendmentResolved, order, actorID)

	s.logger.Info("Amendment resolved",
		zap.String("order_id", order.ID.String()),
		zap.Bool("approved", approve),
		zap.Int("amendment_count", order.AmendmentCount))
	return order, nil
}

// applyOps mutates the item list for an accepted amendment. Added
// lines are tagged with the new version; deletes cancel the earliest
// matching active line; reduces lower a historical line's quantity in
// place (partial cancellation).
func applyOps(order *models.Order, ops []models.AmendmentOp, version int) {
	for _, op := range ops {
		switch op.Type {
		case models.OpAdd:
			item := *op.Item
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.AmendmentVersion = version
			item.ItemStatus = models.ItemActive
			order.Items = append(order.Items, item)
		case models.OpDelete:
			for i := range order.Items {
				if order.Items[i].ID == op.ItemID && order.Items[i].ItemStatus == models.ItemActive {
					order.Items[i].ItemStatus = models.ItemCancelled
					break
				}
			}
		case models.OpReduce:
			for i := range order.Items {
				if order.Items[i].ID == op.ItemID && order.Items[i].ItemStatus == models.ItemActive {
					if op.Quantity < order.Items[i].Quantity {
						order.Items[i].Quantity = op.Quantity
					}
					if order.Items[i].Quantity <= 0 {
						order.Items[i].ItemStatus = models.ItemCancelled
					}
					break
				}
			}
		}
	}
}

// applyStoredAdjustments recomputes the breakdown from the charge and
// discount already persisted on the aggregate.
func applyStoredAdjustments(order *models.Order) (serviceCharge, discount, finalTotal float64) {
	serviceCharge = order.ServiceCharge
	discount = order.Discount
	finalTotal = order.Subtotal + serviceCharge - discount
	if finalTotal < 0 {
		finalTotal = 0
	}
	return serviceCharge, discount, models.Round2(finalTotal)
}

func validateOp(i int, op models.AmendmentOp) *ServiceError {
	switch op.Type {
	case models.OpAdd:
		if op.Item == nil || op.Item.Quantity <= 0 {
			return &ServiceError{StatusCode: 400, Message: fmt.Sprintf("op %d: add requires an item with positive quantity", i)}
		}
	case models.OpDelete:
		if op.ItemID == uuid.Nil {
			return &ServiceError{StatusCode: 400, Message: fmt.Sprintf("op %d: delete requires an item id", i)}
		}
	case models.OpReduce:
		if op.ItemID == uuid.Nil || op.Quantity < 0 {
			return &ServiceError{StatusCode: 400, Message: fmt.Sprintf("op %d: reduce requires an item id and target quantity", i)}
		}
	default:
		return &ServiceError{StatusCode: 400, Message: fmt.Sprintf("op %d: unknown op type %q", i, op.Type)}
	}
	return nil
}
