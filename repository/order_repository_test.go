package repository_test

import (
	"context"
	"regexp"
	"testing"

	"pos-order-service/models"
	"pos-order-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   models.StatusPending,
		Items: models.OrderItems{{
			ID: uuid.New(), Name: "Ramen", UnitPrice: 11.00, Quantity: 1, ItemStatus: models.ItemActive,
		}},
		Subtotal:    11.00,
		FinalTotal:  11.00,
		VectorClock: models.VectorClock{"terminal-1": 1},
		CanAmend:    true,
		SyncStatus:  models.SyncSynced,
	}
}

func TestCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := sampleOrder()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(order.ID))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), order)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	order, err := repo.FindByID(context.Background(), uuid.New(), uuid.New())
	assert.Error(t, err)
	assert.Nil(t, order)
}

func TestStoreProposedAmendment_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := sampleOrder()
	order.PendingAmendments = models.AmendmentOps{{Type: models.OpDelete, ItemID: order.Items[0].ID}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.StoreProposedAmendment(context.Background(), order)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A concurrent writer already stored a proposal: the guarded update
// matches no row and the repository reports the conflict instead of
// silently overwriting.
func TestStoreProposedAmendment_Conflict(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := sampleOrder()
	order.PendingAmendments = models.AmendmentOps{{Type: models.OpDelete, ItemID: order.Items[0].ID}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.StoreProposedAmendment(context.Background(), order)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestStoreResolvedAmendment_Conflict(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := sampleOrder()
	order.AmendmentCount = 1

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.StoreResolvedAmendment(context.Background(), order, 0)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestSetSyncStatus_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET "sync_status"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetSyncStatus(context.Background(), uuid.New(), models.SyncOffline)
	assert.NoError(t, err)
}
