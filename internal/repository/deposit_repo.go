package repository

import (
	"errors"

	"predix/internal/models"

	"gorm.io/gorm"
)

type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) WithTx(tx *gorm.DB) *DepositRepository {
	return &DepositRepository{db: tx}
}

func (r *DepositRepository) Create(d *models.Deposit) error {
	return r.db.Create(d).Error
}

func (r *DepositRepository) Update(d *models.Deposit) error {
	return r.db.Save(d).Error
}

func (r *DepositRepository) GetByID(id uint) (*models.Deposit, error) {
	var d models.Deposit
	err := lockForUpdate(r.db).First(&d, id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByTxHash returns nil without error when the hash is unknown, so webhook
// handlers can distinguish "new deposit" from a lookup failure.
func (r *DepositRepository) GetByTxHash(txHash string) (*models.Deposit, error) {
	var d models.Deposit
	err := lockForUpdate(r.db).Where("tx_hash = ?", txHash).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DepositRepository) ListByUser(userID uint, limit int) ([]models.Deposit, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var ds []models.Deposit
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&ds).Error
	return ds, err
}
