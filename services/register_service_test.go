package services_test

import (
	"context"
	"testing"

	"pos-order-service/services"

	"github.com/stretchr/testify/assert"
)

func TestRegisterLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, svcErr := env.registers.OpenRegister(ctx, env.tenantID, 200.00)
	assert.Nil(t, svcErr)
	assert.Equal(t, 200.00, session.OpeningBalance)
	assert.Equal(t, 200.00, session.CurrentBalance)

	after, svcErr := env.registers.AddCashLog(ctx, env.tenantID, 35.50, "supplier cash payout")
	assert.Nil(t, svcErr)
	assert.Equal(t, 164.50, after.CurrentBalance)
	assert.Len(t, env.registerRepo.logs, 1)
	assert.Equal(t, "supplier cash payout", env.registerRepo.logs[0].Reason)

	closed, svcErr := env.registers.CloseRegister(ctx, env.tenantID)
	assert.Nil(t, svcErr)
	assert.NotNil(t, closed.ClosingBalance)
	assert.Equal(t, 164.50, *closed.ClosingBalance)
	assert.NotNil(t, closed.ClosedAt)
}

func TestOpenRegister_RejectsSecondSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, svcErr := env.registers.OpenRegister(ctx, env.tenantID, 100.00)
	assert.Nil(t, svcErr)

	_, svcErr = env.registers.OpenRegister(ctx, env.tenantID, 50.00)
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidRegisterState, svcErr.Code)
}

func TestAddCashLog_RequiresOpenSessionAndValidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, svcErr := env.registers.AddCashLog(ctx, env.tenantID, 10.00, "change run")
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidRegisterState, svcErr.Code)

	_, svcErr = env.registers.OpenRegister(ctx, env.tenantID, 100.00)
	assert.Nil(t, svcErr)

	_, svcErr = env.registers.AddCashLog(ctx, env.tenantID, -5.00, "change run")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)

	_, svcErr = env.registers.AddCashLog(ctx, env.tenantID, 5.00, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCloseRegister_ThenWithdrawalRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, svcErr := env.registers.OpenRegister(ctx, env.tenantID, 80.00)
	assert.Nil(t, svcErr)
	_, svcErr = env.registers.CloseRegister(ctx, env.tenantID)
	assert.Nil(t, svcErr)

	_, svcErr = env.registers.AddCashLog(ctx, env.tenantID, 10.00, "change run")
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidRegisterState, svcErr.Code)
}
