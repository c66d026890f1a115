package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deposit tracks an incoming chain transfer. Amounts at or above the asset's
// auto-credit threshold are credited as soon as confirmed; dust below it
// parks in PENDING_CLAIM until the user claims it explicitly.
type Deposit struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	UserID                uint            `gorm:"not null;index" json:"user_id"`
	TxHash                string          `gorm:"size:128;uniqueIndex;not null" json:"tx_hash"`
	Asset                 string          `gorm:"size:10;not null" json:"asset"`
	Amount                decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"amount"`
	Confirmations         int             `gorm:"not null;default:0" json:"confirmations"`
	RequiredConfirmations int             `gorm:"not null" json:"required_confirmations"`
	Status                string          `gorm:"size:25;not null;index" json:"status"` // PENDING_CONFIRMATION, PENDING_CLAIM, CLAIMED, AUTO_CREDITED
	CreditedAt            *time.Time      `json:"credited_at"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	DeletedAt             gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Deposit) TableName() string {
	return "deposits"
}
