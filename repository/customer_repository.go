package repository

import (
	"context"
	"time"

	"pos-order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerRepository is the slice of the customer aggregate the order
// core touches: reading a customer and bumping visit counters.
type CustomerRepository interface {
	FindByID(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error)
	RecordVisit(ctx context.Context, customerID uuid.UUID, spend float64, at time.Time) error
}

type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) CustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", customerID, tenantID).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// RecordVisit atomically increments the customer's order and spend
// counters and stamps the visit time.
func (r *GormCustomerRepository) RecordVisit(ctx context.Context, customerID uuid.UUID, spend float64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"total_orders": gorm.Expr("total_orders + 1"),
			"total_spend":  gorm.Expr("total_spend + ?", spend),
			"last_visit":   at,
		}).
		Error
}
