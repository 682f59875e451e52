package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-order-service/kafka"
	"pos-order-service/models"
	"pos-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService defines the order lifecycle operations exposed to the
// terminals.
type OrderService interface {
	CreateOrder(ctx context.Context, tenantID uuid.UUID, actorID string, req *models.CreateOrderRequest) (*models.Order, *ServiceError)
	ListActiveOrders(ctx context.Context, tenantID uuid.UUID) ([]models.Order, *ServiceError)
	GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, *ServiceError)
	UpdateOrderStatus(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, newStatus models.OrderStatus) (*models.Order, *ServiceError)
	UpdateOrderFinancials(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, adj *models.FinancialAdjustments) (*models.Order, *ServiceError)
	CancelOrder(ctx context.Context, tenantID, orderID uuid.UUID, actorID, managerPin string) (*models.Order, *ServiceError)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
	tableRepo repository.TableRepository
	auth      AuthService
	producer  kafka.ProducerAPI
	cache     *OrderCache
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repository.OrderRepository,
	tableRepo repository.TableRepository,
	auth AuthService,
	producer kafka.ProducerAPI,
	cache *OrderCache,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
		tableRepo: tableRepo,
		auth:      auth,
		producer:  producer,
		cache:     cache,
		logger:    logger,
	}
}

// CreateOrder places a new order at amendment version 0 with the
// creating actor's first clock tick.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, tenantID uuid.UUID, actorID string, req *models.CreateOrderRequest) (*models.Order, *ServiceError) {
	if len(req.Items) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "At least one item is required"}
	}

	items := make(models.OrderItems, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{
			ID:               uuid.New(),
			ProductID:        it.ProductID,
			Name:             it.Name,
			UnitPrice:        it.UnitPrice, // price snapshot; later menu edits don't touch placed lines
			Quantity:         it.Quantity,
			AmendmentVersion: 0,
			ItemStatus:       models.ItemActive,
			VariantTag:       it.VariantTag,
		})
	}

	order := &models.Order{
		ID:                uuid.New(),
		TenantID:          tenantID,
		OrderNumber:       newOrderNumber(),
		Status:            models.StatusPending,
		Items:             items,
		PendingAmendments: models.AmendmentOps{},
		CanAmend:          true,
		VectorClock:       models.NewVectorClock(actorID),
		CustomerID:        req.CustomerID,
		TableIDs:          models.UUIDList(req.TableIDs),
		SyncStatus:        models.SyncSynced,
		UpdatedByActor:    actorID,
	}
	order.RecomputeSubtotal()
	order.FinalTotal = order.Subtotal
	order.AppendHistory(0, string(models.StatusPending))

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to create order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}

	if len(req.TableIDs) > 0 {
		if err := s.tableRepo.SetStatus(ctx, tenantID, req.TableIDs, models.TableOccupied); err != nil {
			s.logger.Error("Failed to occupy tables", zap.Error(err), zap.String("order_id", order.ID.String()))
		}
	}

	s.cache.Put(order)
	publishOrderEvent(s.producer, s.logger, models.EventOrderCreated, order, actorID)

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("actor", actorID))
	return order, nil
}

// ListActiveOrders returns all non-terminal orders for a tenant,
// cache-first.
func (s *orderServiceImpl) ListActiveOrders(ctx context.Context, tenantID uuid.UUID) ([]models.Order, *ServiceError) {
	if cached := s.cache.List(tenantID); len(cached) > 0 {
		return cached, nil
	}

	orders, err := s.orderRepo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to list active orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}
	s.cache.Replace(tenantID, orders)
	return orders, nil
}

// GetOrder retrieves a single order scoped to the tenant.
func (s *orderServiceImpl) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}
	return order, nil
}

// UpdateOrderStatus moves the order along the kitchen lifecycle. Only
// the allowed edges pass; Paid and Cancelled are reached through their
// dedicated operations.
func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, newStatus models.OrderStatus) (*models.Order, *ServiceError) {
	order, svcErr := s.GetOrder(ctx, tenantID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	if !order.Status.CanTransition(newStatus) {
		return nil, invalidTransition(fmt.Sprintf("cannot move order from %s to %s", order.Status, newStatus))
	}

	order.Status = newStatus
	if newStatus.IsTerminal() {
		// A declined order is done: discard any proposal still
		// awaiting approval and lock further amendments.
		order.PendingAmendments = models.AmendmentOps{}
		order.CanAmend = false
	}
	order.AppendHistory(order.AmendmentCount, string(newStatus))
	order.VectorClock.Increment(actorID)
	order.UpdatedByActor = actorID

	if err := s.orderRepo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to update order status", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order"}
	}

	s.cache.Put(order)
	publishOrderEvent(s.producer, s.logger, models.EventStatusUpdated, order, actorID)
	return order, nil
}

// UpdateOrderFinancials recomputes the financial preview on the
// aggregate. Idempotent: the same adjustments always produce the same
// stored breakdown.
func (s *orderServiceImpl) UpdateOrderFinancials(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, adj *models.FinancialAdjustments) (*models.Order, *ServiceError) {
	order, svcErr := s.GetOrder(ctx, tenantID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	if order.Status.IsTerminal() {
		return nil, invalidTransition("financials cannot change on a settled order")
	}

	serviceCharge, discount, finalTotal := ComputeFinalTotal(order.Subtotal,
		adj.ServiceChargeEnabled, adj.ServiceChargePercent,
		adj.DiscountEnabled, adj.DiscountType, adj.DiscountValue)

	order.ServiceCharge = serviceCharge
	order.Discount = discount
	order.DiscountType = adj.DiscountType
	order.DiscountReason = adj.DiscountReason
	order.FinalTotal = finalTotal
	order.VectorClock.Increment(actorID)
	order.UpdatedByActor = actorID

	if err := s.orderRepo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to update order financials", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order"}
	}

	s.cache.Put(order)
	return order, nil
}

// CancelOrder cancels a not-yet-served order. Cancellation overrides
// the kitchen lifecycle, so it is manager-gated.
func (s *orderServiceImpl) CancelOrder(ctx context.Context, tenantID, orderID uuid.UUID, actorID, managerPin string) (*models.Order, *ServiceError) {
	order, svcErr := s.GetOrder(ctx, tenantID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	switch order.Status {
	case models.StatusPending, models.StatusPreparing, models.StatusReady:
	default:
		return nil, invalidTransition(fmt.Sprintf("cannot cancel an order in state %s", order.Status))
	}

	if svcErr := s.auth.VerifyManagerPin(ctx, tenantID, managerPin); svcErr != nil {
		return nil, svcErr
	}

	order.Status = models.StatusCancelled
	order.CanAmend = false
	order.PendingAmendments = models.AmendmentOps{}
	order.AppendHistory(order.AmendmentCount, string(models.StatusCancelled))
	order.VectorClock.Increment(actorID)
	order.UpdatedByActor = actorID

	if err := s.orderRepo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to cancel order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to cancel order"}
	}

	if len(order.TableIDs) > 0 {
		if err := s.tableRepo.SetStatus(ctx, tenantID, order.TableIDs, models.TableAvailable); err != nil {
			s.logger.Error("Failed to release tables", zap.Error(err), zap.String("order_id", order.ID.String()))
		}
	}

	s.cache.Put(order)
	publishOrderEvent(s.producer, s.logger, models.EventStatusUpdated, order, actorID)
	return order, nil
}

// publishOrderEvent sends a fire-and-forget lifecycle notification.
func publishOrderEvent(producer kafka.ProducerAPI, logger *zap.Logger, eventType string, order *models.Order, actorID string) {
	if producer == nil {
		return
	}
	evt := models.OrderEvent{
		EventType:      eventType,
		TenantID:       order.TenantID,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		DisplayStatus:  order.DisplayStatus(),
		AmendmentCount: order.AmendmentCount,
		ActorID:        actorID,
		FinalTotal:     order.FinalTotal,
		Timestamp:      time.Now().UTC(),
	}
	if err := producer.PublishOrderEvent(evt); err != nil {
		logger.Warn("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
