package services

import (
	"context"
	"fmt"
	"time"

	"pos-order-service/kafka"
	"pos-order-service/models"
	"pos-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUnprivilegedDiscountRatio is the discount/subtotal ceiling a
// waiter or till role may apply without a manager override.
const maxUnprivilegedDiscountRatio = 0.20

// PaymentService settles served orders.
type PaymentService interface {
	CompletePayment(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, role models.StaffRole, req *models.CompletePaymentRequest) (*models.Order, *ServiceError)
}

type paymentServiceImpl struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	tableRepo    repository.TableRepository
	registerRepo repository.RegisterRepository
	auth         AuthService
	producer     kafka.ProducerAPI
	cache        *OrderCache
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	tableRepo repository.TableRepository,
	registerRepo repository.RegisterRepository,
	auth AuthService,
	producer kafka.ProducerAPI,
	cache *OrderCache,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		tableRepo:    tableRepo,
		registerRepo: registerRepo,
		auth:         auth,
		producer:     producer,
		cache:        cache,
		logger:       logger,
	}
}

// ComputeFinalTotal derives the financial breakdown from the subtotal
// and the configured adjustments. Pure; the floor at zero is the only
// clamping applied to the total.
func ComputeFinalTotal(subtotal float64, serviceChargeEnabled bool, serviceChargePercent float64,
	discountEnabled bool, discountType models.DiscountType, discountValue float64) (serviceCharge, discount, finalTotal float64) {

	// Inputs may arrive from replayed payloads that skipped request
	// binding, so negatives are clamped here too.
	if serviceChargePercent < 0 {
		serviceChargePercent = 0
	}
	if discountValue < 0 {
		discountValue = 0
	}

	if serviceChargeEnabled {
		serviceCharge = models.Round2(subtotal * serviceChargePercent / 100)
	}

	if discountEnabled {
		switch discountType {
		case models.DiscountPercentage:
			pct := discountValue
			if pct > 100 {
				pct = 100
			}
			discount = models.Round2(subtotal * pct / 100)
		default:
			discount = discountValue
			if discount > subtotal {
				discount = subtotal
			}
			discount = models.Round2(discount)
		}
	}

	finalTotal = subtotal + serviceCharge - discount
	if finalTotal < 0 {
		finalTotal = 0
	}
	return serviceCharge, discount, models.Round2(finalTotal)
}

// CompletePayment is the only operation that moves an order to Paid,
// and only from Served. The aggregate is immutable afterwards.
func (s *paymentServiceImpl) CompletePayment(ctx context.Context, tenantID, orderID uuid.UUID, actorID string, role models.StaffRole, req *models.CompletePaymentRequest) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}

	if order.Status != models.StatusServed {
		return nil, invalidTransition(fmt.Sprintf("payment requires a served order, got %s", order.Status))
	}
	if len(order.PendingAmendments) > 0 {
		return nil, amendmentConflict("an amendment is awaiting approval; resolve it before settling")
	}

	adj := req.Adjustments
	serviceCharge, discount, finalTotal := ComputeFinalTotal(order.Subtotal,
		adj.ServiceChargeEnabled, adj.ServiceChargePercent,
		adj.DiscountEnabled, adj.DiscountType, adj.DiscountValue)

	if finalTotal <= 0 {
		return nil, &ServiceError{StatusCode: 400, Code: CodeZeroTotalCheckout,
			Message: "final total must be positive; review the applied discount"}
	}

	// Discounts above the ceiling need a manager override unless the
	// acting role already carries the privilege.
	if order.Subtotal > 0 && discount/order.Subtotal > maxUnprivilegedDiscountRatio && !role.IsPrivileged() {
		if adj.ManagerPin == "" {
			return nil, insufficientAuth("manager PIN required for discounts above 20%")
		}
		if svcErr := s.auth.VerifyManagerPin(ctx, tenantID, adj.ManagerPin); svcErr != nil {
			return nil, svcErr
		}
	}

	now := time.Now().UTC()
	order.ServiceCharge = serviceCharge
	order.Discount = discount
	order.DiscountType = adj.DiscountType
	order.DiscountReason = adj.DiscountReason
	order.FinalTotal = finalTotal
	order.PaymentMethod = req.Method
	order.Status = models.StatusPaid
	order.PaidAt = &now
	order.CanAmend = false
	order.AppendHistory(order.AmendmentCount, string(models.StatusPaid))
	order.VectorClock.Increment(actorID)
	order.UpdatedByActor = actorID

	if err := s.orderRepo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to settle order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to complete payment"}
	}

	// Collaborator updates are best-effort: the settled aggregate is
	// the source of truth and each is retried by reconciliation jobs
	// elsewhere.
	if order.CustomerID != nil {
		if err := s.customerRepo.RecordVisit(ctx, *order.CustomerID, finalTotal, now); err != nil {
			s.logger.Error("Failed to update customer counters", zap.Error(err), zap.String("order_id", order.ID.String()))
		}
	}
	if req.Method == models.PaymentCash {
		if session, err := s.registerRepo.FindOpen(ctx, tenantID); err != nil {
			s.logger.Warn("No open register session for cash payment", zap.Error(err), zap.String("order_id", order.ID.String()))
		} else if err := s.registerRepo.Credit(ctx, session.ID, finalTotal); err != nil {
			s.logger.Error("Failed to credit register", zap.Error(err), zap.String("session_id", session.ID.String()))
		}
	}
	if len(order.TableIDs) > 0 {
		if err := s.tableRepo.SetStatus(ctx, tenantID, order.TableIDs, models.TableAvailable); err != nil {
			s.logger.Error("Failed to release tables", zap.Error(err), zap.String("order_id", order.ID.String()))
		}
	}

	s.cache.Put(order)
	publishOrderEvent(s.producer, s.logger, models.EventPaymentCompleted, order, actorID)

	s.logger.Info("Payment completed",
		zap.String("order_id", order.ID.String()),
		zap.String("method", string(req.Method)),
		zap.Float64("final_total", finalTotal))
	return order, nil
}
