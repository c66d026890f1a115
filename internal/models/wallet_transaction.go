package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletTransaction records every credit/debit for wallet history
// (deposits, claims, withdrawals, refunds on failed withdrawals).
type WalletTransaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Asset     string          `gorm:"size:10;not null" json:"asset"`
	Amount    decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"amount"` // positive = credit, negative = debit
	Type      string          `gorm:"size:30;not null;index" json:"type"`        // DEPOSIT, DEPOSIT_CLAIM, WITHDRAWAL, WITHDRAWAL_REFUND
	Reference string          `gorm:"size:128" json:"reference"`                 // e.g. withdrawal reference_id or deposit tx_hash
	CreatedAt time.Time       `json:"created_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
