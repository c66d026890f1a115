package service

import (
	"testing"
	"time"

	"predix/internal/database"
	"predix/internal/domain"
	"predix/internal/limits"
	"predix/internal/models"
	"predix/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAddress = "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"

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

func newWithdrawalService(t *testing.T) (*WithdrawalService, *repository.WalletRepository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	walletRepo := repository.NewWalletRepository(db)
	svc := NewWithdrawalService(
		db,
		walletRepo,
		repository.NewWithdrawalRepository(db),
		repository.NewAddressBookRepository(db),
		nil, // no gateway in tests; records stay in REQUESTED until events arrive
		nil,
	)
	return svc, walletRepo, db
}

func testPolicy() limits.Policy {
	return limits.Policy{
		MinAmount:      decimal.NewFromInt(20),
		MaxAmount:      decimal.NewFromInt(25000),
		FeeAmount:      decimal.NewFromInt(1),
		DailyLimit:     decimal.NewFromInt(50000),
		DailyRemaining: decimal.NewFromInt(50000),
	}
}

func TestValidateChecksInOrder(t *testing.T) {
	policy := testPolicy()
	balance := decimal.NewFromInt(100)

	tests := []struct {
		name   string
		req    WithdrawalRequest
		reason string
	}{
		{"garbage amount", WithdrawalRequest{"USDT", "abc", testAddress}, domain.ReasonInvalidAmount},
		{"zero amount", WithdrawalRequest{"USDT", "0", testAddress}, domain.ReasonInvalidAmount},
		{"negative amount", WithdrawalRequest{"USDT", "-5", testAddress}, domain.ReasonInvalidAmount},
		{"below minimum", WithdrawalRequest{"USDT", "19", testAddress}, domain.ReasonBelowMinimum},
		{"amount plus fee over balance", WithdrawalRequest{"USDT", "100", testAddress}, domain.ReasonInsufficientBalance},
		{"bad address checked last", WithdrawalRequest{"USDT", "50", "not-an-address"}, domain.ReasonInvalidAddress},
		{"empty address", WithdrawalRequest{"USDT", "50", ""}, domain.ReasonInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.req, balance, policy)
			assert.False(t, res.Accepted)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestValidateAboveMaximumAndDailyLimit(t *testing.T) {
	policy := testPolicy()
	policy.MaxAmount = decimal.NewFromInt(100)
	policy.DailyRemaining = decimal.NewFromInt(100)
	balance := decimal.NewFromInt(100000)

	res := Validate(WithdrawalRequest{"USDT", "101", testAddress}, balance, policy)
	assert.Equal(t, domain.ReasonAboveMaximum, res.Reason)

	policy.MaxAmount = decimal.NewFromInt(25000)
	res = Validate(WithdrawalRequest{"USDT", "200", testAddress}, balance, policy)
	assert.Equal(t, domain.ReasonDailyLimitExceeded, res.Reason)
}

func TestValidateAccepted(t *testing.T) {
	res := Validate(WithdrawalRequest{"USDT", "50", testAddress}, decimal.NewFromInt(100), testPolicy())
	require.True(t, res.Accepted)
	assert.Empty(t, res.Reason)
	assert.True(t, res.NetAmount.Equal(decimal.NewFromInt(49)))

	// pure: same inputs, same result
	again := Validate(WithdrawalRequest{"USDT", "50", testAddress}, decimal.NewFromInt(100), testPolicy())
	assert.Equal(t, res, again)
}

func TestSubmitFreezesGrossPlusFee(t *testing.T) {
	svc, walletRepo, _ := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))

	rec, res, err := svc.Submit(1, WithdrawalRequest{"USDT", "50", testAddress})
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.True(t, res.Accepted)

	assert.Equal(t, domain.WithdrawalRequested, rec.Status)
	assert.True(t, rec.GrossAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, rec.Fee.Equal(decimal.NewFromInt(1)))
	assert.True(t, rec.NetAmount.Equal(decimal.NewFromInt(49)))
	assert.True(t, rec.FrozenAmount().Equal(decimal.NewFromInt(51)))
	assert.NotEmpty(t, rec.ReferenceID)

	w, err := walletRepo.Get(1, "USDT")
	require.NoError(t, err)
	assert.True(t, w.Available.Equal(decimal.NewFromInt(49)))
	assert.True(t, w.Frozen.Equal(decimal.NewFromInt(51)))
}

func TestSubmitRejectionCreatesNothing(t *testing.T) {
	svc, walletRepo, db := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))

	rec, res, err := svc.Submit(1, WithdrawalRequest{"USDT", "5", testAddress})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, domain.ReasonBelowMinimum, res.Reason)

	var count int64
	db.Model(&models.Withdrawal{}).Count(&count)
	assert.Zero(t, count)
	w, _ := walletRepo.Get(1, "USDT")
	assert.True(t, w.Frozen.IsZero())
}

func TestSecondWithdrawalWhileInFlight(t *testing.T) {
	svc, walletRepo, _ := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(500)))

	_, _, err := svc.Submit(1, WithdrawalRequest{"USDT", "50", testAddress})
	require.NoError(t, err)

	_, _, err = svc.Submit(1, WithdrawalRequest{"USDT", "60", testAddress})
	assert.ErrorIs(t, err, ErrWithdrawalInProgress)

	// no second hold was placed
	w, _ := walletRepo.Get(1, "USDT")
	assert.True(t, w.Frozen.Equal(decimal.NewFromInt(51)))

	// other users are unaffected
	require.NoError(t, walletRepo.Credit(2, "USDT", decimal.NewFromInt(500)))
	_, _, err = svc.Submit(2, WithdrawalRequest{"USDT", "60", testAddress})
	assert.NoError(t, err)
}

func TestDailyLimitCountsTrailing24h(t *testing.T) {
	svc, walletRepo, db := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(60000)))

	// a confirmed withdrawal from earlier today consumes the daily window
	prior := &models.Withdrawal{
		UserID:             1,
		ReferenceID:        "wd-prior",
		Asset:              "USDT",
		GrossAmount:        decimal.NewFromInt(49900),
		Fee:                decimal.NewFromInt(1),
		NetAmount:          decimal.NewFromInt(49899),
		DestinationAddress: testAddress,
		Status:             domain.WithdrawalConfirmed,
		StatusUpdatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(prior).Error)

	res, err := svc.Check(1, WithdrawalRequest{"USDT", "200", testAddress})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonDailyLimitExceeded, res.Reason)
	assert.True(t, res.Policy.DailyRemaining.Equal(decimal.NewFromInt(100)))

	// rejected withdrawals do not consume the window
	require.NoError(t, db.Model(prior).Update("status", domain.WithdrawalRejected).Error)
	res, err = svc.Check(1, WithdrawalRequest{"USDT", "200", testAddress})
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	// neither do withdrawals older than 24 hours
	require.NoError(t, db.Model(prior).Updates(map[string]interface{}{
		"status":     domain.WithdrawalConfirmed,
		"created_at": time.Now().Add(-25 * time.Hour),
	}).Error)
	res, err = svc.Check(1, WithdrawalRequest{"USDT", "200", testAddress})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestRejectionReleasesExactlyOnce(t *testing.T) {
	svc, walletRepo, _ := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))

	rec, _, err := svc.Submit(1, WithdrawalRequest{"USDT", "50", testAddress})
	require.NoError(t, err)

	updated, err := svc.ApplyStatusEvent(StatusEvent{
		ReferenceID: rec.ReferenceID,
		NewStatus:   domain.WithdrawalRejected,
		Reason:      "compliance hold",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalRejected, updated.Status)
	assert.Equal(t, "compliance hold", updated.RejectReason)
	assert.Empty(t, updated.TxHash)

	w, _ := walletRepo.Get(1, "USDT")
	assert.True(t, w.Available.Equal(decimal.NewFromInt(100)))
	assert.True(t, w.Frozen.IsZero())

	// duplicate event must not release a second time
	_, err = svc.ApplyStatusEvent(StatusEvent{
		ReferenceID: rec.ReferenceID,
		NewStatus:   domain.WithdrawalRejected,
		Reason:      "compliance hold",
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	w, _ = walletRepo.Get(1, "USDT")
	assert.True(t, w.Available.Equal(decimal.NewFromInt(100)))
}

func TestHappyPathLifecycle(t *testing.T) {
	svc, walletRepo, _ := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))

	rec, _, err := svc.Submit(1, WithdrawalRequest{"USDT", "50", testAddress})
	require.NoError(t, err)

	updated, err := svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalApproved})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, updated.Status)

	updated, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalSent, TxHash: "0xdeadbeef"})
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", updated.TxHash)

	updated, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalConfirmed})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalConfirmed, updated.Status)

	// hold became a permanent debit
	w, _ := walletRepo.Get(1, "USDT")
	assert.True(t, w.Available.Equal(decimal.NewFromInt(49)))
	assert.True(t, w.Frozen.IsZero())

	// and the user has no current withdrawal anymore
	cur, err := svc.Current(1)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestSkippedAndTerminalTransitionsRejected(t *testing.T) {
	svc, walletRepo, _ := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))

	rec, _, err := svc.Submit(1, WithdrawalRequest{"USDT", "50", testAddress})
	require.NoError(t, err)

	// REQUESTED cannot jump straight to CONFIRMED or SENT
	_, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalConfirmed})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalFailed})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// unknown status strings are rejected too
	_, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: "SHIPPED"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// unknown reference
	_, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: "wd-missing", NewStatus: domain.WithdrawalApproved})
	assert.ErrorIs(t, err, ErrWithdrawalNotFound)
}

func TestFailureAfterSentReleasesFunds(t *testing.T) {
	svc, walletRepo, _ := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))

	rec, _, err := svc.Submit(1, WithdrawalRequest{"USDT", "50", testAddress})
	require.NoError(t, err)
	_, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalApproved})
	require.NoError(t, err)
	_, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalSent, TxHash: "0xdeadbeef"})
	require.NoError(t, err)

	updated, err := svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalFailed, Reason: "broadcast dropped"})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalFailed, updated.Status)
	assert.Equal(t, "broadcast dropped", updated.FailReason)
	assert.Equal(t, "0xdeadbeef", updated.TxHash)

	w, _ := walletRepo.Get(1, "USDT")
	assert.True(t, w.Available.Equal(decimal.NewFromInt(100)))
	assert.True(t, w.Frozen.IsZero())
}

func TestCancel(t *testing.T) {
	svc, walletRepo, _ := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))

	rec, _, err := svc.Submit(1, WithdrawalRequest{"USDT", "50", testAddress})
	require.NoError(t, err)

	// another user cannot cancel it
	_, err = svc.Cancel(2, rec.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	cancelled, err := svc.Cancel(1, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalRejected, cancelled.Status)
	assert.Equal(t, domain.ReasonUserCancelled, cancelled.RejectReason)

	w, _ := walletRepo.Get(1, "USDT")
	assert.True(t, w.Available.Equal(decimal.NewFromInt(100)))

	// cancel is only valid from REQUESTED
	_, err = svc.Cancel(1, rec.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelAfterApprovalRejected(t *testing.T) {
	svc, walletRepo, _ := newWithdrawalService(t)
	require.NoError(t, walletRepo.Credit(1, "USDT", decimal.NewFromInt(100)))

	rec, _, err := svc.Submit(1, WithdrawalRequest{"USDT", "50", testAddress})
	require.NoError(t, err)
	_, err = svc.ApplyStatusEvent(StatusEvent{ReferenceID: rec.ReferenceID, NewStatus: domain.WithdrawalApproved})
	require.NoError(t, err)

	_, err = svc.Cancel(1, rec.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// funds stay frozen
	w, _ := walletRepo.Get(1, "USDT")
	assert.True(t, w.Frozen.Equal(decimal.NewFromInt(51)))
}
