package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"pos-order-service/models"
	"pos-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconnectDebounce is how long a reconnect signal is held before the
// queue flushes, so several near-simultaneous signals cause one flush.
const ReconnectDebounce = 3 * time.Second

// PollInterval is how often the order cache is refreshed from the
// authoritative store.
const PollInterval = 5 * time.Second

// SyncResult summarizes one queue drain.
type SyncResult struct {
	Applied  int `json:"applied"`
	Skipped  int `json:"skipped"`  // already applied (idempotent replays) or rejected
	Deferred int `json:"deferred"` // still queued after a transport failure
}

// SyncService reconciles terminals against the authoritative order
// set: it queues mutations authored offline, replays them in
// submission order, and merges diverged aggregates by vector clock.
type SyncService interface {
	EnqueueMutation(ctx context.Context, tenantID uuid.UUID, actorID string, req *models.EnqueueMutationRequest) *ServiceError
	SyncOrders(ctx context.Context, tenantID uuid.UUID, actorID string) (*SyncResult, *ServiceError)
	NotifyReconnect(tenantID uuid.UUID, actorID string)
	StartPoller(ctx context.Context)
}

type syncServiceImpl struct {
	syncRepo    repository.SyncRepository
	orderRepo   repository.OrderRepository
	idempotency repository.IdempotencyStore
	orders      OrderService
	amendments  AmendmentService
	payments    PaymentService
	cache       *OrderCache
	logger      *zap.Logger

	mu       sync.Mutex
	debounce map[string]*time.Timer
}

// NewSyncService creates a new SyncService.
func NewSyncService(
	syncRepo repository.SyncRepository,
	orderRepo repository.OrderRepository,
	idempotency repository.IdempotencyStore,
	orders OrderService,
	amendments AmendmentService,
	payments PaymentService,
	cache *OrderCache,
	logger *zap.Logger,
) SyncService {
	return &syncServiceImpl{
		syncRepo:    syncRepo,
		orderRepo:   orderRepo,
		idempotency: idempotency,
		orders:      orders,
		amendments:  amendments,
		payments:    payments,
		cache:       cache,
		logger:      logger,
		debounce:    make(map[string]*time.Timer),
	}
}

// Mutation payloads, one per MutationKind.
type statusMutationPayload struct {
	Status models.OrderStatus `json:"status"`
}

type amendmentMutationPayload struct {
	Ops []models.AmendmentOp `json:"ops"`
}

type respondMutationPayload struct {
	Approve bool `json:"approve"`
}

type financialsMutationPayload struct {
	Adjustments models.FinancialAdjustments `json:"adjustments"`
}

type paymentMutationPayload struct {
	Role    models.StaffRole             `json:"role"`
	Request models.CompletePaymentRequest `json:"request"`
}

// EnqueueMutation stores a mutation authored while the terminal was
// offline and flags the order accordingly.
func (s *syncServiceImpl) EnqueueMutation(ctx context.Context, tenantID uuid.UUID, actorID string, req *models.EnqueueMutationRequest) *ServiceError {
	mutation := &models.SyncMutation{
		ID:          uuid.New(),
		OpID:        req.OpID,
		TenantID:    tenantID,
		OrderID:     req.OrderID,
		ActorID:     actorID,
		Kind:        req.Kind,
		Payload:     req.Payload,
		BaseClock:   req.BaseClock,
		SubmittedAt: req.SubmittedAt,
	}

	if err := s.syncRepo.Enqueue(ctx, mutation); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Same op pushed twice; the queue already has it.
			return nil
		}
		s.logger.Error("Failed to enqueue mutation", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to queue mutation"}
	}

	if err := s.orderRepo.SetSyncStatus(ctx, req.OrderID, models.SyncOffline); err != nil {
		s.logger.Warn("Failed to flag order offline", zap.Error(err), zap.String("order_id", req.OrderID.String()))
	}

	s.logger.Info("Mutation queued",
		zap.String("op_id", req.OpID),
		zap.String("kind", string(req.Kind)),
		zap.String("actor", actorID))
	return nil
}

// SyncOrders drains the actor's queue in submission order. Transport
// failures leave the rest of the queue untouched so per-actor FIFO
// holds; domain rejections are dropped with a warning, never retried.
func (s *syncServiceImpl) SyncOrders(ctx context.Context, tenantID uuid.UUID, actorID string) (*SyncResult, *ServiceError) {
	queued, err := s.syncRepo.FindQueued(ctx, tenantID, actorID)
	if err != nil {
		s.logger.Error("Failed to load mutation queue", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load mutation queue"}
	}

	result := &SyncResult{}
	for i, mutation := range queued {
		fresh, err := s.idempotency.MarkOnce(ctx, mutation.OpID)
		if err != nil {
			s.logger.Warn("Idempotency store unavailable, deferring queue", zap.Error(err))
			result.Deferred = len(queued) - i
			s.flagOffline(ctx, queued[i:])
			return result, nil
		}
		if !fresh {
			// Replay of an already-applied op: no observable change.
			if err := s.syncRepo.MarkApplied(ctx, mutation.ID); err != nil {
				s.logger.Warn("Failed to mark mutation applied", zap.Error(err))
			}
			result.Skipped++
			continue
		}

		s.logConflictIfDiverged(ctx, &mutation)

		svcErr := s.applyMutation(ctx, &mutation)
		if svcErr != nil && svcErr.StatusCode >= 500 {
			// Transport-class failure: release the idempotency claim
			// and keep it queued for the next debounce window.
			if relErr := s.idempotency.Release(ctx, mutation.OpID); relErr != nil {
				s.logger.Warn("Failed to release idempotency key", zap.Error(relErr), zap.String("op_id", mutation.OpID))
			}
			result.Deferred = len(queued) - i
			s.flagOffline(ctx, queued[i:])
			return result, nil
		}
		if svcErr != nil {
			s.logger.Warn("Queued mutation rejected",
				zap.String("op_id", mutation.OpID),
				zap.String("kind", string(mutation.Kind)),
				zap.String("code", svcErr.Code),
				zap.String("reason", svcErr.Message))
			result.Skipped++
		} else {
			result.Applied++
		}
		if err := s.syncRepo.MarkApplied(ctx, mutation.ID); err != nil {
			s.logger.Warn("Failed to mark mutation applied", zap.Error(err))
		}
		if err := s.orderRepo.SetSyncStatus(ctx, mutation.OrderID, models.SyncSynced); err != nil {
			s.logger.Warn("Failed to clear offline flag", zap.Error(err))
		}
	}

	s.logger.Info("Sync pass complete",
		zap.String("actor", actorID),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped),
		zap.Int("deferred", result.Deferred))
	return result, nil
}

func (s *syncServiceImpl) applyMutation(ctx context.Context, m *models.SyncMutation) *ServiceError {
	switch m.Kind {
	case models.MutationUpdateStatus:
		var p statusMutationPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return &ServiceError{StatusCode: 400, Message: "malformed status payload"}
		}
		_, svcErr := s.orders.UpdateOrderStatus(ctx, m.TenantID, m.OrderID, m.ActorID, p.Status)
		return svcErr
	case models.MutationProposeAmendment:
		var p amendmentMutationPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return &ServiceError{StatusCode: 400, Message: "malformed amendment payload"}
		}
		_, svcErr := s.amendments.ProposeAmendment(ctx, m.TenantID, m.OrderID, m.ActorID, p.Ops)
		return svcErr
	case models.MutationRespondAmendment:
		var p respondMutationPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return &ServiceError{StatusCode: 400, Message: "malformed respond payload"}
		}
		_, svcErr := s.amendments.RespondToAmendment(ctx, m.TenantID, m.OrderID, m.ActorID, p.Approve)
		return svcErr
	case models.MutationUpdateFinancials:
		var p financialsMutationPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return &ServiceError{StatusCode: 400, Message: "malformed financials payload"}
		}
		_, svcErr := s.orders.UpdateOrderFinancials(ctx, m.TenantID, m.OrderID, m.ActorID, &p.Adjustments)
		return svcErr
	case models.MutationCompletePayment:
		var p paymentMutationPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return &ServiceError{StatusCode: 400, Message: "malformed payment payload"}
		}
		_, svcErr := s.payments.CompletePayment(ctx, m.TenantID, m.OrderID, m.ActorID, p.Role, &p.Request)
		return svcErr
	default:
		return &ServiceError{StatusCode: 400, Message: "unknown mutation kind"}
	}
}

// logConflictIfDiverged records a sync conflict when the mutation was
// authored against a causally stale copy. Conflicts are resolved by
// the merge rule, never surfaced as failures.
func (s *syncServiceImpl) logConflictIfDiverged(ctx context.Context, m *models.SyncMutation) {
	order, err := s.orderRepo.FindByID(ctx, m.TenantID, m.OrderID)
	if err != nil {
		return
	}
	switch m.BaseClock.Compare(order.VectorClock) {
	case models.ClockBefore, models.ClockConcurrent:
		s.logger.Info("sync_conflict",
			zap.String("op_id", m.OpID),
			zap.String("order_id", m.OrderID.String()),
			zap.String("actor", m.ActorID))
	}
}

func (s *syncServiceImpl) flagOffline(ctx context.Context, remaining []models.SyncMutation) {
	seen := make(map[uuid.UUID]bool)
	for _, m := range remaining {
		if seen[m.OrderID] {
			continue
		}
		seen[m.OrderID] = true
		if err := s.orderRepo.SetSyncStatus(ctx, m.OrderID, models.SyncOffline); err != nil {
			s.logger.Warn("Failed to flag order offline", zap.Error(err))
		}
	}
}

// NotifyReconnect schedules a debounced queue flush. Repeated signals
// inside the window collapse into one flush.
func (s *syncServiceImpl) NotifyReconnect(tenantID uuid.UUID, actorID string) {
	key := tenantID.String() + "/" + actorID

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, pending := s.debounce[key]; pending {
		return
	}
	s.debounce[key] = time.AfterFunc(ReconnectDebounce, func() {
		s.mu.Lock()
		delete(s.debounce, key)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, svcErr := s.SyncOrders(ctx, tenantID, actorID); svcErr != nil {
			s.logger.Warn("Reconnect flush failed", zap.String("actor", actorID), zap.String("reason", svcErr.Message))
		}
	})
}

// StartPoller refreshes the order cache for every known tenant on a
// fixed interval until the context is cancelled.
func (s *syncServiceImpl) StartPoller(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshCache(ctx)
			}
		}
	}()
}

func (s *syncServiceImpl) refreshCache(ctx context.Context) {
	for _, tenantID := range s.cache.Tenants() {
		orders, err := s.orderRepo.FindActiveByTenant(ctx, tenantID)
		if err != nil {
			s.logger.Warn("Cache refresh failed", zap.Error(err), zap.String("tenant_id", tenantID.String()))
			continue
		}
		for i := range orders {
			if cached, ok := s.cache.Get(tenantID, orders[i].ID); ok {
				orders[i] = *MergeOrders(cached, &orders[i])
			}
		}
		s.cache.Replace(tenantID, orders)
	}
}

// MergeOrders reconciles two copies of the same order. If one copy
// causally dominates, it wins outright. Concurrent copies resolve
// scalar fields last-writer-wins by wall clock and the item list by
// union keyed on (item ID, amendment version), so no accepted
// amendment is ever lost in a merge.
func MergeOrders(a, b *models.Order) *models.Order {
	switch a.VectorClock.Compare(b.VectorClock) {
	case models.ClockAfter, models.ClockEqual:
		cp := *a
		return &cp
	case models.ClockBefore:
		cp := *b
		return &cp
	}

	// Concurrent: newer wall clock supplies the scalars.
	newer, older := a, b
	if b.UpdatedAt.After(a.UpdatedAt) {
		newer, older = b, a
	}
	merged := *newer

	merged.Items = unionItems(newer.Items, older.Items)
	merged.VectorClock = newer.VectorClock.Merge(older.VectorClock)
	if older.AmendmentCount > merged.AmendmentCount {
		merged.AmendmentCount = older.AmendmentCount
	}
	merged.IsAmended = merged.IsAmended || older.IsAmended
	if len(older.StatusHistory) > len(merged.StatusHistory) {
		merged.StatusHistory = older.StatusHistory
	}
	merged.RecomputeSubtotal()
	total := merged.Subtotal + merged.ServiceCharge - merged.Discount
	if total < 0 {
		total = 0
	}
	merged.FinalTotal = models.Round2(total)
	return &merged
}

// unionItems merges two item lists keyed by (item ID, amendment
// version), preferring entries from the primary list and preserving
// its display order.
func unionItems(primary, secondary models.OrderItems) models.OrderItems {
	type key struct {
		id      uuid.UUID
		version int
	}
	seen := make(map[key]bool, len(primary))
	out := make(models.OrderItems, 0, len(primary)+len(secondary))
	for _, it := range primary {
		seen[key{it.ID, it.AmendmentVersion}] = true
		out = append(out, it)
	}
	for _, it := range secondary {
		if !seen[key{it.ID, it.AmendmentVersion}] {
			out = append(out, it)
		}
	}
	return out
}
