package models

import (
	"time"
)

// ActionLog is the append-only audit trail of everything done to a lead.
// Rows are never updated; the only delete path is the admin database purge.
type ActionLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LeadID    string    `json:"lead_id" gorm:"type:varchar(64);not null;index"`
	Action    string    `json:"action" gorm:"type:varchar(64);not null;index" example:"status_change"`
	Details   string    `json:"details" gorm:"type:text"`
	Success   bool      `json:"success" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for the ActionLog model
func (ActionLog) TableName() string {
	return "action_logs"
}
