package repository

import (
	"time"

	"github.com/funilzap/crm-funnel-backend/internal/models"
	"gorm.io/gorm"
)

type ManualReviewRepository struct {
	db *gorm.DB
}

func NewManualReviewRepository(db *gorm.DB) *ManualReviewRepository {
	return &ManualReviewRepository{db: db}
}

// Create flags a new item for human attention
func (r *ManualReviewRepository) Create(review *models.ManualReview) error {
	return r.db.Create(review).Error
}

// GetByID retrieves a manual review by id
func (r *ManualReviewRepository) GetByID(id uint) (*models.ManualReview, error) {
	var review models.ManualReview
	err := r.db.First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetPending retrieves all unresolved reviews, oldest first
func (r *ManualReviewRepository) GetPending() ([]*models.ManualReview, error) {
	var reviews []*models.ManualReview
	err := r.db.Where("resolved = ?", false).
		Order("created_at ASC").
		Find(&reviews).Error
	return reviews, err
}

// Resolve marks a review as handled
func (r *ManualReviewRepository) Resolve(id uint, notes string) error {
	now := time.Now()
	return r.db.Model(&models.ManualReview{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved":    true,
			"notes":       notes,
			"resolved_at": &now,
		}).Error
}

// CountPending counts unresolved reviews
func (r *ManualReviewRepository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&models.ManualReview{}).Where("resolved = ?", false).Count(&count).Error
	return count, err
}
