package models

import (
	"time"
)

// Analytics event types
const (
	EventSuccess = "success"
	EventError   = "error"
	EventWarning = "warning"
	EventInfo    = "info"
)

// Analytics event categories
const (
	CategoryWebhook      = "webhook"
	CategoryMessagingAPI = "messaging_api"
	CategoryBoardAPI     = "board_api"
	CategoryDatabase     = "database"
	CategorySystem       = "system"
)

// AnalyticsEvent is an append-only record of one tracked operation.
// Rows are never mutated after insert; reads are time-window aggregations.
type AnalyticsEvent struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type         string    `json:"type" gorm:"type:varchar(16);not null;index" example:"success"`
	Category     string    `json:"category" gorm:"type:varchar(32);not null;index" example:"webhook"`
	Operation    string    `json:"operation" gorm:"type:varchar(128);not null;index" example:"board_status_change"`
	Details      JSON      `json:"details,omitempty" gorm:"type:text"`
	DurationMs   *int64    `json:"duration_ms,omitempty"`
	ErrorCode    *string   `json:"error_code,omitempty" gorm:"type:varchar(64)"`
	ErrorMessage *string   `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for the AnalyticsEvent model
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// CategoryCount is a per-category event count within a window
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// OperationCount is a per-operation event count within a window
type OperationCount struct {
	Operation string `json:"operation"`
	Count     int64  `json:"count"`
}

// HourlyBucket aggregates events for one truncated-to-hour timestamp
type HourlyBucket struct {
	Hour    string `json:"hour"`
	Total   int64  `json:"total"`
	Success int64  `json:"success"`
	Errors  int64  `json:"errors"`
}

// Analytics is the windowed aggregate consumed by the dashboard
type Analytics struct {
	WindowHours   int              `json:"window_hours"`
	TotalEvents   int64            `json:"total_events"`
	SuccessRate   float64          `json:"success_rate"`
	ErrorRate     float64          `json:"error_rate"`
	ByCategory    []CategoryCount  `json:"by_category"`
	TopOperations []OperationCount `json:"top_operations"`
	RecentErrors  []AnalyticsEvent `json:"recent_errors"`
	HourlyStats   []HourlyBucket   `json:"hourly_stats"`
}

// System health statuses
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)

// SystemHealth is the 3-level classification derived from last-hour analytics
type SystemHealth struct {
	Status  string    `json:"status" example:"healthy"`
	Metrics Analytics `json:"metrics"`
	Issues  []string  `json:"issues"`
}
