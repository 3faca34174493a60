package repository

import (
	"github.com/funilzap/crm-funnel-backend/internal/models"
	"gorm.io/gorm"
)

type ActionLogRepository struct {
	db *gorm.DB
}

func NewActionLogRepository(db *gorm.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Create appends a new action log entry
func (r *ActionLogRepository) Create(log *models.ActionLog) error {
	return r.db.Create(log).Error
}

// GetByLeadID retrieves log entries for a specific lead, newest first
func (r *ActionLogRepository) GetByLeadID(leadID string, limit int) ([]*models.ActionLog, error) {
	var logs []*models.ActionLog
	err := r.db.Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// GetRecent retrieves the most recent log entries across all leads
func (r *ActionLogRepository) GetRecent(limit int) ([]*models.ActionLog, error) {
	var logs []*models.ActionLog
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
