package repository

import (
	"testing"

	"predix/internal/database"
	"predix/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestFreezeAndRelease(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)

	require.NoError(t, repo.Credit(1, "USDT", decimal.NewFromInt(100)))
	require.NoError(t, repo.Freeze(1, "USDT", decimal.NewFromInt(51)))

	w, err := repo.Get(1, "USDT")
	require.NoError(t, err)
	assert.True(t, w.Available.Equal(decimal.NewFromInt(49)))
	assert.True(t, w.Frozen.Equal(decimal.NewFromInt(51)))

	require.NoError(t, repo.Unfreeze(1, "USDT", decimal.NewFromInt(51)))
	w, err = repo.Get(1, "USDT")
	require.NoError(t, err)
	assert.True(t, w.Available.Equal(decimal.NewFromInt(100)))
	assert.True(t, w.Frozen.IsZero())
}

func TestFreezeInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)

	require.NoError(t, repo.Credit(1, "USDT", decimal.NewFromInt(10)))
	err := repo.Freeze(1, "USDT", decimal.NewFromInt(11))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// no wallet at all behaves the same
	err = repo.Freeze(2, "USDT", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestUnfreezeAndDebitGuardFrozen(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)

	require.NoError(t, repo.Credit(1, "USDT", decimal.NewFromInt(100)))
	require.NoError(t, repo.Freeze(1, "USDT", decimal.NewFromInt(30)))

	assert.ErrorIs(t, repo.Unfreeze(1, "USDT", decimal.NewFromInt(31)), ErrInsufficientFrozen)
	assert.ErrorIs(t, repo.DebitFrozen(1, "USDT", decimal.NewFromInt(31)), ErrInsufficientFrozen)

	require.NoError(t, repo.DebitFrozen(1, "USDT", decimal.NewFromInt(30)))
	w, err := repo.Get(1, "USDT")
	require.NoError(t, err)
	assert.True(t, w.Available.Equal(decimal.NewFromInt(70)))
	assert.True(t, w.Frozen.IsZero())
}

func TestTransactionJournal(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)

	require.NoError(t, repo.RecordTransaction(1, "USDT", decimal.NewFromInt(100), domain.WalletTxTypeDeposit, "0xaaa"))
	require.NoError(t, repo.RecordTransaction(1, "USDT", decimal.NewFromInt(-51), domain.WalletTxTypeWithdrawal, "wd-1"))
	require.NoError(t, repo.RecordTransaction(2, "USDT", decimal.NewFromInt(5), domain.WalletTxTypeDepositClaim, "0xbbb"))

	txs, err := repo.ListTransactions(1, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, uint(1), tx.UserID)
	}
}
