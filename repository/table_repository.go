package repository

import (
	"context"

	"pos-order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TableRepository flips dining tables between Occupied and Available
// as orders open and settle.
type TableRepository interface {
	SetStatus(ctx context.Context, tenantID uuid.UUID, tableIDs []uuid.UUID, status models.TableStatus) error
}

type GormTableRepository struct {
	db *gorm.DB
}

func NewGormTableRepository(db *gorm.DB) TableRepository {
	return &GormTableRepository{db: db}
}

func (r *GormTableRepository) SetStatus(ctx context.Context, tenantID uuid.UUID, tableIDs []uuid.UUID, status models.TableStatus) error {
	if len(tableIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Table{}).
		Where("tenant_id = ? AND id IN ?", tenantID, tableIDs).
		Update("status", status).
		Error
}
