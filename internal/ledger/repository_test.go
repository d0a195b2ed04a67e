package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Item{},
		&models.StockLot{},
		&models.StockTransaction{},
		&models.StockCorrection{},
	))
	return conn
}

func seedRepoLot(t *testing.T, conn *gorm.DB, quantity int) *models.StockLot {
	t.Helper()
	item := &models.Item{Name: "Repo Fixture"}
	require.NoError(t, conn.Create(item).Error)
	lot := &models.StockLot{ItemID: item.ID, LotCode: "RF-" + uuid.NewString()[:8], Quantity: quantity}
	require.NoError(t, conn.Create(lot).Error)
	return lot
}

func TestRepositoryAuditRows(t *testing.T) {
	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)
	lot := seedRepoLot(t, conn, 10)
	userID := uuid.New()
	ctx := context.Background()

	require.NoError(t, repo.CreateTransaction(ctx, &models.StockTransaction{
		LotID:    lot.ID,
		UserID:   userID,
		Quantity: 10,
		Type:     enums.TransactionTypeDeposit,
	}))
	require.NoError(t, repo.CreateTransaction(ctx, &models.StockTransaction{
		LotID:    lot.ID,
		UserID:   userID,
		Quantity: 4,
		Type:     enums.TransactionTypeDispose,
	}))
	require.NoError(t, repo.CreateCorrection(ctx, &models.StockCorrection{
		LotID:         lot.ID,
		UserID:        userID,
		ItemQtyBefore: 6,
		ItemQtyAfter:  5,
	}))

	txns, err := repo.ListTransactionsByLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
	for _, txn := range txns {
		assert.Equal(t, lot.ID, txn.LotID)
		assert.Equal(t, userID, txn.UserID)
		assert.NotEqual(t, uuid.Nil, txn.ID)
	}

	corrections, err := repo.ListCorrectionsByLot(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, 6, corrections[0].ItemQtyBefore)
	assert.Equal(t, 5, corrections[0].ItemQtyAfter)

	// Rows for other lots never leak in.
	other := seedRepoLot(t, conn, 0)
	txns, err = repo.ListTransactionsByLot(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestRepositoryCompareAndSetBoundaries(t *testing.T) {
	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)
	lot := seedRepoLot(t, conn, 0)
	ctx := context.Background()

	// CAS from zero and back to zero both work; only the expected value gates.
	swapped, err := repo.CompareAndSetQuantity(ctx, lot.ID, 0, 5)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = repo.CompareAndSetQuantity(ctx, lot.ID, 5, 0)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = repo.CompareAndSetQuantity(ctx, uuid.New(), 0, 1)
	require.NoError(t, err)
	assert.False(t, swapped, "unknown lot id must not match")
}
