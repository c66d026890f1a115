package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Withdrawal is the persisted record of an accepted withdrawal request.
// NetAmount = GrossAmount - Fee (what hits the chain); the wallet hold is
// GrossAmount + Fee, validated against Available at submit time.
type Withdrawal struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	ReferenceID        string          `gorm:"size:64;uniqueIndex;not null" json:"reference_id"`
	Asset              string          `gorm:"size:10;not null" json:"asset"`
	GrossAmount        decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"gross_amount"`
	Fee                decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"fee"`
	NetAmount          decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"net_amount"`
	DestinationAddress string          `gorm:"size:128;not null" json:"destination_address"`
	Status             string          `gorm:"size:20;not null;index" json:"status"` // REQUESTED, APPROVED, SENT, CONFIRMED, REJECTED, FAILED
	RejectReason       string          `gorm:"size:255" json:"reject_reason,omitempty"`
	FailReason         string          `gorm:"size:255" json:"fail_reason,omitempty"`
	TxHash             string          `gorm:"size:128" json:"tx_hash,omitempty"`
	StatusUpdatedAt    time.Time       `json:"status_updated_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}

// FrozenAmount is the hold placed on the wallet at request time and the exact
// amount released on rejection/failure or debited on confirmation.
func (w *Withdrawal) FrozenAmount() decimal.Decimal {
	return w.GrossAmount.Add(w.Fee)
}
