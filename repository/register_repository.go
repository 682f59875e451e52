package repository

import (
	"context"

	"pos-order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterRepository persists till sessions and their cash logs.
type RegisterRepository interface {
	Create(ctx context.Context, session *models.RegisterSession) error
	FindOpen(ctx context.Context, tenantID uuid.UUID) (*models.RegisterSession, error)
	Update(ctx context.Context, session *models.RegisterSession) error
	Credit(ctx context.Context, sessionID uuid.UUID, amount float64) error
	CreateLog(ctx context.Context, entry *models.CashLog) error
}

type GormRegisterRepository struct {
	db *gorm.DB
}

func NewGormRegisterRepository(db *gorm.DB) RegisterRepository {
	return &GormRegisterRepository{db: db}
}

func (r *GormRegisterRepository) Create(ctx context.Context, session *models.RegisterSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindOpen returns the tenant's open session, or gorm.ErrRecordNotFound.
func (r *GormRegisterRepository) FindOpen(ctx context.Context, tenantID uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.RegisterOpen).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *GormRegisterRepository) Update(ctx context.Context, session *models.RegisterSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// Credit atomically adds a cash payment to the session balance.
func (r *GormRegisterRepository) Credit(ctx context.Context, sessionID uuid.UUID, amount float64) error {
	return r.db.WithContext(ctx).
		Model(&models.RegisterSession{}).
		Where("id = ? AND status = ?", sessionID, models.RegisterOpen).
		UpdateColumn("current_balance", gorm.Expr("current_balance + ?", amount)).
		Error
}

func (r *GormRegisterRepository) CreateLog(ctx context.Context, entry *models.CashLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
