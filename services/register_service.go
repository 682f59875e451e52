package services

import (
	"context"
	"time"

	"pos-order-service/models"
	"pos-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterService manages the till session ledger: open with a float,
// credit cash payments, log withdrawals, close with a snapshot.
type RegisterService interface {
	OpenRegister(ctx context.Context, tenantID uuid.UUID, openingBalance float64) (*models.RegisterSession, *ServiceError)
	AddCashLog(ctx context.Context, tenantID uuid.UUID, amount float64, reason string) (*models.RegisterSession, *ServiceError)
	CloseRegister(ctx context.Context, tenantID uuid.UUID) (*models.RegisterSession, *ServiceError)
}

type registerServiceImpl struct {
	registerRepo repository.RegisterRepository
	logger       *zap.Logger
}

// NewRegisterService creates a new RegisterService.
func NewRegisterService(registerRepo repository.RegisterRepository, logger *zap.Logger) RegisterService {
	return &registerServiceImpl{registerRepo: registerRepo, logger: logger}
}

func registerStateError(msg string) *ServiceError {
	return &ServiceError{StatusCode: 409, Code: CodeInvalidRegisterState, Message: msg}
}

// OpenRegister starts a session; only one may be open per tenant.
func (s *registerServiceImpl) OpenRegister(ctx context.Context, tenantID uuid.UUID, openingBalance float64) (*models.RegisterSession, *ServiceError) {
	if openingBalance < 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Opening balance cannot be negative"}
	}

	if _, err := s.registerRepo.FindOpen(ctx, tenantID); err == nil {
		return nil, registerStateError("a register session is already open")
	} else if !isNotFound(err) {
		s.logger.Error("Failed to check register state", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to open register"}
	}

	session := &models.RegisterSession{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Status:         models.RegisterOpen,
		OpeningBalance: openingBalance,
		CurrentBalance: openingBalance,
	}
	if err := s.registerRepo.Create(ctx, session); err != nil {
		s.logger.Error("Failed to open register", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to open register"}
	}

	s.logger.Info("Register opened",
		zap.String("session_id", session.ID.String()),
		zap.Float64("opening_balance", openingBalance))
	return session, nil
}

// AddCashLog records a withdrawal against the open session.
func (s *registerServiceImpl) AddCashLog(ctx context.Context, tenantID uuid.UUID, amount float64, reason string) (*models.RegisterSession, *ServiceError) {
	if amount <= 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Withdrawal amount must be positive"}
	}
	if reason == "" {
		return nil, &ServiceError{StatusCode: 400, Message: "A withdrawal reason is required"}
	}

	session, err := s.registerRepo.FindOpen(ctx, tenantID)
	if err != nil {
		if isNotFound(err) {
			return nil, registerStateError("no open register session")
		}
		s.logger.Error("Failed to fetch register session", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to record withdrawal"}
	}

	session.CurrentBalance = models.Round2(session.CurrentBalance - amount)
	if err := s.registerRepo.Update(ctx, session); err != nil {
		s.logger.Error("Failed to update register balance", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to record withdrawal"}
	}

	entry := &models.CashLog{
		ID:        uuid.New(),
		SessionID: session.ID,
		Amount:    amount,
		Reason:    reason,
	}
	if err := s.registerRepo.CreateLog(ctx, entry); err != nil {
		s.logger.Error("Failed to store cash log", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to record withdrawal"}
	}

	s.logger.Info("Cash withdrawal logged",
		zap.String("session_id", session.ID.String()),
		zap.Float64("amount", amount),
		zap.String("reason", reason))
	return session, nil
}

// CloseRegister snapshots the expected balance and ends the session.
func (s *registerServiceImpl) CloseRegister(ctx context.Context, tenantID uuid.UUID) (*models.RegisterSession, *ServiceError) {
	session, err := s.registerRepo.FindOpen(ctx, tenantID)
	if err != nil {
		if isNotFound(err) {
			return nil, registerStateError("no open register session")
		}
		s.logger.Error("Failed to fetch register session", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to close register"}
	}

	now := time.Now().UTC()
	closing := session.CurrentBalance
	session.Status = models.RegisterClosed
	session.ClosingBalance = &closing
	session.ClosedAt = &now

	if err := s.registerRepo.Update(ctx, session); err != nil {
		s.logger.Error("Failed to close register", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to close register"}
	}

	s.logger.Info("Register closed",
		zap.String("session_id", session.ID.String()),
		zap.Float64("closing_balance", closing))
	return session, nil
}
