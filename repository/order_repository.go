package repository

import (
	"context"
	"errors"

	"pos-order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrConflict is returned when a compare-and-set guard finds the row
// already changed by a concurrent writer.
var ErrConflict = errors.New("concurrent modification")

// OrderRepository defines data access for the order aggregate. The
// single-outstanding-amendment rule is enforced here with guarded
// updates, not by caller convention.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	StoreProposedAmendment(ctx context.Context, order *models.Order) error
	StoreResolvedAmendment(ctx context.Context, order *models.Order, expectedCount int) error
	SetSyncStatus(ctx context.Context, orderID uuid.UUID, status models.SyncStatus) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts a new order aggregate.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID retrieves one order scoped to its tenant.
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindActiveByTenant retrieves all non-terminal orders for a tenant in
// creation order.
func (r *GormOrderRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status NOT IN ?", tenantID,
			[]models.OrderStatus{models.StatusPaid, models.StatusCancelled, models.StatusDeclined}).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Update saves the full aggregate.
func (r *GormOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// StoreProposedAmendment persists the proposed ops, guarded so that at
// most one amendment is ever outstanding: the write succeeds only if
// the row still has no pending amendment and the same amendment count
// the caller read.
func (r *GormOrderRepository) StoreProposedAmendment(ctx context.Context, order *models.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND amendment_count = ? AND jsonb_array_length(pending_amendments) = 0",
			order.ID, order.AmendmentCount).
		Updates(map[string]interface{}{
			"pending_amendments": order.PendingAmendments,
			"vector_clock":       order.VectorClock,
			"updated_by_actor":   order.UpdatedByActor,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// StoreResolvedAmendment commits an accepted or declined amendment,
// guarded on the amendment count the resolution was computed against.
func (r *GormOrderRepository) StoreResolvedAmendment(ctx context.Context, order *models.Order, expectedCount int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND amendment_count = ? AND jsonb_array_length(pending_amendments) > 0",
			order.ID, expectedCount).
		Updates(map[string]interface{}{
			"items":              order.Items,
			"pending_amendments": order.PendingAmendments,
			"amendment_count":    order.AmendmentCount,
			"is_amended":         order.IsAmended,
			"subtotal":           order.Subtotal,
			"final_total":        order.FinalTotal,
			"status_history":     order.StatusHistory,
			"vector_clock":       order.VectorClock,
			"updated_by_actor":   order.UpdatedByActor,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// SetSyncStatus flags an order as offline or synced.
func (r *GormOrderRepository) SetSyncStatus(ctx context.Context, orderID uuid.UUID, status models.SyncStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("sync_status", status).
		Error
}
