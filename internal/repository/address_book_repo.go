package repository

import (
	"errors"

	"predix/internal/models"

	"gorm.io/gorm"
)

// AddressBookRepository reads entries maintained by the wallet-management
// service. No public create/remove surface here; rows arrive via that
// service's own pipeline (or seeding, in development).
type AddressBookRepository struct {
	db *gorm.DB
}

func NewAddressBookRepository(db *gorm.DB) *AddressBookRepository {
	return &AddressBookRepository{db: db}
}

func (r *AddressBookRepository) ListByUser(userID uint) ([]models.AddressBookEntry, error) {
	var entries []models.AddressBookEntry
	err := r.db.Where("user_id = ?", userID).Order("is_primary DESC, label").Find(&entries).Error
	return entries, err
}

// GetPrimary returns the user's primary entry for a network, or nil when the
// user has none.
func (r *AddressBookRepository) GetPrimary(userID uint, network string) (*models.AddressBookEntry, error) {
	var e models.AddressBookEntry
	err := r.db.Where("user_id = ? AND network = ? AND is_primary = ?", userID, network, true).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
