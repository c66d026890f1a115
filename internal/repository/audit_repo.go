package repository

import (
	"predix/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(l *models.AuditLog) error {
	return r.db.Create(l).Error
}

// Log is a convenience for handlers; failures are the caller's to ignore.
func (r *AuditLogRepository) Log(userID *uint, action, resource, resourceID, ip, metadata string) error {
	return r.Create(&models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         ip,
		Metadata:   metadata,
	})
}
