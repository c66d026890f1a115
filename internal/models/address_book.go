package models

import (
	"time"

	"gorm.io/gorm"
)

// AddressBookEntry is owned by the wallet-management service; this backend
// only reads it to resolve and validate withdrawal destinations.
type AddressBookEntry struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Label       string         `gorm:"size:64" json:"label"`
	Network     string         `gorm:"size:20;not null" json:"network"`
	FullAddress string         `gorm:"size:128;not null" json:"full_address"`
	IsPrimary   bool           `gorm:"default:false" json:"is_primary"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (AddressBookEntry) TableName() string {
	return "address_book_entries"
}
