package services

import (
	"context"

	"pos-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the manager override gate. Verification is stateless
// and idempotent; rate limiting belongs to the external auth layer.
type AuthService interface {
	VerifyManagerPin(ctx context.Context, tenantID uuid.UUID, pin string) *ServiceError
}

type authServiceImpl struct {
	staffRepo repository.StaffRepository
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(staffRepo repository.StaffRepository, logger *zap.Logger) AuthService {
	return &authServiceImpl{staffRepo: staffRepo, logger: logger}
}

// VerifyManagerPin succeeds if any privileged staff member of the
// tenant holds a PIN matching the supplied one.
func (s *authServiceImpl) VerifyManagerPin(ctx context.Context, tenantID uuid.UUID, pin string) *ServiceError {
	if pin == "" {
		return insufficientAuth("a manager PIN is required to authorize this action")
	}

	staff, err := s.staffRepo.FindPrivileged(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to load privileged staff", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to verify PIN"}
	}

	for _, member := range staff {
		if member.PinHash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(member.PinHash), []byte(pin)) == nil {
			s.logger.Info("Manager override authorized",
				zap.String("staff_id", member.ID.String()),
				zap.String("role", string(member.Role)))
			return nil
		}
	}

	return insufficientAuth("the PIN does not match any manager on this account")
}
