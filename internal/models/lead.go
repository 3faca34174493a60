package models

import (
	"time"
)

// Funnel statuses. The first four are the ordered contact stages; the last
// two are hold states a lead can only leave through manual action.
const (
	StatusPrimeiroContato   = "Primeiro Contato"
	StatusSegundoContato    = "Segundo Contato"
	StatusTerceiroContato   = "Terceiro Contato"
	StatusUltimoContato     = "Ultimo Contato"
	StatusAguardandoLigacao = "Aguardando Ligação"
	StatusNaoRespondeu      = "Não Respondeu"
)

// FunnelStages lists the ordered contact stages, first to last.
var FunnelStages = []string{
	StatusPrimeiroContato,
	StatusSegundoContato,
	StatusTerceiroContato,
	StatusUltimoContato,
}

// IsKnownStatus reports whether label is one of the recognized funnel statuses.
func IsKnownStatus(label string) bool {
	switch label {
	case StatusPrimeiroContato, StatusSegundoContato, StatusTerceiroContato,
		StatusUltimoContato, StatusAguardandoLigacao, StatusNaoRespondeu:
		return true
	}
	return false
}

// IsOrderedStage reports whether label is one of the four ordered contact stages.
func IsOrderedStage(label string) bool {
	for _, s := range FunnelStages {
		if s == label {
			return true
		}
	}
	return false
}

// NextStage returns the stage after label in the funnel order, or "" when
// label is the last stage or not an ordered stage at all.
func NextStage(label string) string {
	for i, s := range FunnelStages {
		if s == label && i+1 < len(FunnelStages) {
			return FunnelStages[i+1]
		}
	}
	return ""
}

// Lead represents a prospective contact tracked through the funnel.
// The ID matches the board item id of the external work-management system.
type Lead struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name           string     `json:"name" gorm:"type:varchar(255)"`
	Phone          string     `json:"phone" gorm:"type:varchar(32);index"`
	Status         string     `json:"status" gorm:"type:varchar(32);not null;index"`
	NextDispatchAt *time.Time `json:"next_dispatch_at" gorm:"index"`
	Attempts       int        `json:"attempts" gorm:"default:0"`
	Active         bool       `json:"active" gorm:"default:true;index"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Lead model
func (Lead) TableName() string {
	return "leads"
}

// UpdateLeadStatusRequest represents a manual status update from the dashboard
type UpdateLeadStatusRequest struct {
	Status string `json:"status" binding:"required" example:"Segundo Contato"`
}

// ManualReminderRequest represents a manual reminder message from the dashboard
type ManualReminderRequest struct {
	Message string `json:"message" example:"Olá! Podemos agendar uma ligação?"`
}

// LeadStats summarizes the funnel for the dashboard overview tab
type LeadStats struct {
	Total    int64            `json:"total"`
	Active   int64            `json:"active"`
	Inactive int64            `json:"inactive"`
	DueNow   int64            `json:"due_now"`
	ByStatus map[string]int64 `json:"by_status"`
}
