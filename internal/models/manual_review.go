package models

import (
	"time"
)

// ManualReview flags a lead that needs human attention (e.g. an inbound
// reply from a number the board doesn't know about).
type ManualReview struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	LeadID     string     `json:"lead_id" gorm:"type:varchar(64);index"`
	Reason     string     `json:"reason" gorm:"type:varchar(128);not null" example:"unmatched_reply"`
	Details    string     `json:"details" gorm:"type:text"`
	Resolved   bool       `json:"resolved" gorm:"default:false;index"`
	Notes      string     `json:"notes" gorm:"type:text"`
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for the ManualReview model
func (ManualReview) TableName() string {
	return "manual_reviews"
}

// ResolveReviewRequest represents the request to resolve a manual review
type ResolveReviewRequest struct {
	Notes string `json:"notes" example:"Cliente atendido por telefone"`
}
