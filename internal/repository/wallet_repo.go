package repository

import (
	"errors"

	"predix/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrInsufficientFrozen  = errors.New("insufficient frozen balance")
)

// WalletRepository owns all balance mutations. Services never touch wallet
// rows directly; they freeze, unfreeze, credit and debit through here, inside
// a transaction obtained via WithTx.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a repository bound to tx so balance moves join the caller's
// unit of work.
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

// lockForUpdate row-locks wallet reads on MySQL. SQLite (tests) has no
// SELECT ... FOR UPDATE; its writes serialize on the database lock instead.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "mysql" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *WalletRepository) Get(userID uint, asset string) (*models.Wallet, error) {
	var w models.Wallet
	err := lockForUpdate(r.db).Where("user_id = ? AND asset = ?", userID, asset).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(userID uint, asset string) (*models.Wallet, error) {
	w, err := r.Get(userID, asset)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = &models.Wallet{UserID: userID, Asset: asset, Available: decimal.Zero, Frozen: decimal.Zero}
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WalletRepository) ListByUser(userID uint) ([]models.Wallet, error) {
	var ws []models.Wallet
	err := r.db.Where("user_id = ?", userID).Order("asset").Find(&ws).Error
	return ws, err
}

// Credit adds amount to the available balance.
func (r *WalletRepository) Credit(userID uint, asset string, amount decimal.Decimal) error {
	w, err := r.GetOrCreate(userID, asset)
	if err != nil {
		return err
	}
	w.Available = w.Available.Add(amount)
	return r.db.Model(w).Update("available", w.Available).Error
}

// Freeze moves amount from available to frozen, placing a withdrawal hold.
func (r *WalletRepository) Freeze(userID uint, asset string, amount decimal.Decimal) error {
	w, err := r.Get(userID, asset)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientBalance
		}
		return err
	}
	if w.Available.LessThan(amount) {
		return ErrInsufficientBalance
	}
	w.Available = w.Available.Sub(amount)
	w.Frozen = w.Frozen.Add(amount)
	return r.db.Model(w).Updates(map[string]interface{}{"available": w.Available, "frozen": w.Frozen}).Error
}

// Unfreeze releases a hold back to the available balance.
func (r *WalletRepository) Unfreeze(userID uint, asset string, amount decimal.Decimal) error {
	w, err := r.Get(userID, asset)
	if err != nil {
		return err
	}
	if w.Frozen.LessThan(amount) {
		return ErrInsufficientFrozen
	}
	w.Frozen = w.Frozen.Sub(amount)
	w.Available = w.Available.Add(amount)
	return r.db.Model(w).Updates(map[string]interface{}{"available": w.Available, "frozen": w.Frozen}).Error
}

// DebitFrozen converts a hold into a permanent debit (withdrawal confirmed).
func (r *WalletRepository) DebitFrozen(userID uint, asset string, amount decimal.Decimal) error {
	w, err := r.Get(userID, asset)
	if err != nil {
		return err
	}
	if w.Frozen.LessThan(amount) {
		return ErrInsufficientFrozen
	}
	w.Frozen = w.Frozen.Sub(amount)
	return r.db.Model(w).Update("frozen", w.Frozen).Error
}

// RecordTransaction appends a journal row for wallet history.
func (r *WalletRepository) RecordTransaction(userID uint, asset string, amount decimal.Decimal, txType, reference string) error {
	t := &models.WalletTransaction{
		UserID:    userID,
		Asset:     asset,
		Amount:    amount,
		Type:      txType,
		Reference: reference,
	}
	return r.db.Create(t).Error
}

func (r *WalletRepository) ListTransactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var txs []models.WalletTransaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&txs).Error
	return txs, err
}
