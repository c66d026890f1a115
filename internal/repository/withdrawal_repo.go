package repository

import (
	"errors"
	"time"

	"predix/internal/domain"
	"predix/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var terminalWithdrawalStatuses = []string{
	domain.WithdrawalConfirmed,
	domain.WithdrawalRejected,
	domain.WithdrawalFailed,
}

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

func (r *WithdrawalRepository) Create(w *models.Withdrawal) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) Update(w *models.Withdrawal) error {
	return r.db.Save(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := lockForUpdate(r.db).First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByReferenceID(referenceID string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := lockForUpdate(r.db).Where("reference_id = ?", referenceID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetCurrent returns the user's single non-terminal withdrawal, or nil when
// none is in flight.
func (r *WithdrawalRepository) GetCurrent(userID uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := lockForUpdate(r.db).
		Where("user_id = ? AND status NOT IN ?", userID, terminalWithdrawalStatuses).
		Order("created_at DESC").
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// DailyUsed sums gross amounts of the user's withdrawals for one asset over
// the trailing 24 hours, skipping rejected/failed records. Recomputed on
// every validation; never cached.
func (r *WithdrawalRepository) DailyUsed(userID uint, asset string, now time.Time) (decimal.Decimal, error) {
	var ws []models.Withdrawal
	err := r.db.
		Where("user_id = ? AND asset = ? AND created_at >= ?", userID, asset, now.Add(-24*time.Hour)).
		Where("status NOT IN ?", []string{domain.WithdrawalRejected, domain.WithdrawalFailed}).
		Find(&ws).Error
	if err != nil {
		return decimal.Zero, err
	}
	used := decimal.Zero
	for _, w := range ws {
		used = used.Add(w.GrossAmount)
	}
	return used, nil
}

func (r *WithdrawalRepository) ListByUser(userID uint, limit int) ([]models.Withdrawal, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var ws []models.Withdrawal
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&ws).Error
	return ws, err
}
