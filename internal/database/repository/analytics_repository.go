package repository

import (
	"time"

	"github.com/funilzap/crm-funnel-backend/internal/models"
	"gorm.io/gorm"
)

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Create appends a new analytics event
func (r *AnalyticsRepository) Create(event *models.AnalyticsEvent) error {
	return r.db.Create(event).Error
}

// CountInWindow counts events since the given time, total and per type
func (r *AnalyticsRepository) CountInWindow(since time.Time) (total, success, errors int64, err error) {
	base := r.db.Model(&models.AnalyticsEvent{}).Where("created_at >= ?", since)

	if err = base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, 0, err
	}
	if err = base.Session(&gorm.Session{}).Where("type = ?", models.EventSuccess).Count(&success).Error; err != nil {
		return 0, 0, 0, err
	}
	if err = base.Session(&gorm.Session{}).Where("type = ?", models.EventError).Count(&errors).Error; err != nil {
		return 0, 0, 0, err
	}
	return total, success, errors, nil
}

// CountByCategory returns event counts grouped by category within the window
func (r *AnalyticsRepository) CountByCategory(since time.Time) ([]models.CategoryCount, error) {
	var rows []models.CategoryCount
	err := r.db.Model(&models.AnalyticsEvent{}).
		Select("category, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("category").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// TopOperations returns the most frequent operations within the window
func (r *AnalyticsRepository) TopOperations(since time.Time, limit int) ([]models.OperationCount, error) {
	var rows []models.OperationCount
	err := r.db.Model(&models.AnalyticsEvent{}).
		Select("operation, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("operation").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// RecentErrors returns the newest error events within the window
func (r *AnalyticsRepository) RecentErrors(since time.Time, limit int) ([]models.AnalyticsEvent, error) {
	var events []models.AnalyticsEvent
	err := r.db.Where("created_at >= ? AND type = ?", since, models.EventError).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountRecentErrorsByCategories counts error events within the window whose
// category is in the given set
func (r *AnalyticsRepository) CountRecentErrorsByCategories(since time.Time, categories []string) (int64, error) {
	var count int64
	err := r.db.Model(&models.AnalyticsEvent{}).
		Where("created_at >= ? AND type = ? AND category IN ?", since, models.EventError, categories).
		Count(&count).Error
	return count, err
}

// HourlyBuckets groups events by truncated-to-hour timestamp, newest first
func (r *AnalyticsRepository) HourlyBuckets(since time.Time, limit int) ([]models.HourlyBucket, error) {
	var rows []models.HourlyBucket
	err := r.db.Model(&models.AnalyticsEvent{}).
		Select(`strftime('%Y-%m-%dT%H:00', created_at) as hour,
			COUNT(*) as total,
			SUM(CASE WHEN type = 'success' THEN 1 ELSE 0 END) as success,
			SUM(CASE WHEN type = 'error' THEN 1 ELSE 0 END) as errors`).
		Where("created_at >= ?", since).
		Group("hour").
		Order("hour DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
