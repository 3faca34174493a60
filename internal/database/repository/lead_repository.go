package repository

import (
	"time"

	"github.com/funilzap/crm-funnel-backend/internal/models"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// GetByID retrieves a lead by its board item id
func (r *LeadRepository) GetByID(id string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetAll retrieves all leads, most recently updated first
func (r *LeadRepository) GetAll() ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.db.Order("updated_at DESC").Find(&leads).Error
	return leads, err
}

// GetActive retrieves all active leads
func (r *LeadRepository) GetActive() ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.db.Where("active = ?", true).Order("updated_at DESC").Find(&leads).Error
	return leads, err
}

// GetActiveByPhoneSuffix retrieves active leads whose phone ends with the
// given digits. Matching is loose on purpose: the gateway reports JIDs
// while the board stores free-form numbers.
func (r *LeadRepository) GetActiveByPhoneSuffix(digits string) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.db.Where("active = ? AND phone LIKE ?", true, "%"+digits).
		Order("updated_at DESC").
		Find(&leads).Error
	return leads, err
}

// GetDue retrieves active leads on an ordered stage whose next dispatch
// time has passed
func (r *LeadRepository) GetDue(now time.Time) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.db.Where("active = ? AND next_dispatch_at IS NOT NULL AND next_dispatch_at <= ? AND status IN ?",
		true, now, models.FunnelStages).
		Order("next_dispatch_at ASC").
		Find(&leads).Error
	return leads, err
}

// CountDue counts active leads whose next dispatch time has passed
func (r *LeadRepository) CountDue(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lead{}).
		Where("active = ? AND next_dispatch_at IS NOT NULL AND next_dispatch_at <= ? AND status IN ?",
			true, now, models.FunnelStages).
		Count(&count).Error
	return count, err
}

// Save upserts a lead row
func (r *LeadRepository) Save(lead *models.Lead) error {
	return r.db.Save(lead).Error
}

// Create inserts a new lead row
func (r *LeadRepository) Create(lead *models.Lead) error {
	return r.db.Create(lead).Error
}

// CountByStatus returns lead counts grouped by funnel status
func (r *LeadRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Lead{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

// Count returns total and active lead counts
func (r *LeadRepository) Count() (total int64, active int64, err error) {
	if err = r.db.Model(&models.Lead{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.Model(&models.Lead{}).Where("active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
