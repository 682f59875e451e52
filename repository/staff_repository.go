package repository

import (
	"context"

	"pos-order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffRepository exposes the staff lookups the override gate needs.
type StaffRepository interface {
	FindPrivileged(ctx context.Context, tenantID uuid.UUID) ([]models.Staff, error)
}

type GormStaffRepository struct {
	db *gorm.DB
}

func NewGormStaffRepository(db *gorm.DB) StaffRepository {
	return &GormStaffRepository{db: db}
}

// FindPrivileged returns active staff holding a role that may
// authorize overrides.
func (r *GormStaffRepository) FindPrivileged(ctx context.Context, tenantID uuid.UUID) ([]models.Staff, error) {
	var staff []models.Staff
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ? AND role IN ?", tenantID, true,
			[]models.StaffRole{models.RoleAdmin, models.RoleOwner, models.RoleManager}).
		Find(&staff).Error; err != nil {
		return nil, err
	}
	return staff, nil
}
