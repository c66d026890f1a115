package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds one asset balance per user. Available is spendable;
// Frozen is earmarked for an in-flight withdrawal and only ever moves
// back to Available (release) or out entirely (debit on confirmation).
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_wallets_user_asset" json:"user_id"`
	Asset     string          `gorm:"size:10;not null;uniqueIndex:idx_wallets_user_asset" json:"asset"`
	Available decimal.Decimal `gorm:"type:decimal(32,8);not null;default:0" json:"available"`
	Frozen    decimal.Decimal `gorm:"type:decimal(32,8);not null;default:0" json:"frozen"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}
