package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/models"
	"github.com/funilzap/crm-funnel-backend/internal/utils"
)

// Transition event kinds
const (
	TransitionBoardStatus  = "board_status"
	TransitionManualStatus = "manual_status"
	TransitionReply        = "reply"
	TransitionDispatch     = "dispatch"
	TransitionExhausted    = "exhausted"
)

// TransitionEvent describes one externally-driven change to a lead
type TransitionEvent struct {
	Kind   string
	Status string
	Name   string
	Phone  string
	Now    time.Time
}

// TransitionResult reports what ApplyTransition did
type TransitionResult struct {
	Changed bool
	Created bool
	Ignored bool
	Reason  string
}

type FunnelService struct {
	cfg           *config.Config
	leadRepo      *repository.LeadRepository
	actionLogRepo *repository.ActionLogRepository
	reviewRepo    *repository.ManualReviewRepository
	analytics     *AnalyticsService
	messaging     *MessagingService
	board         *BoardService
	files         *FileService
}

func NewFunnelService(
	cfg *config.Config,
	leadRepo *repository.LeadRepository,
	actionLogRepo *repository.ActionLogRepository,
	reviewRepo *repository.ManualReviewRepository,
	analytics *AnalyticsService,
	messaging *MessagingService,
	board *BoardService,
	files *FileService,
) *FunnelService {
	return &FunnelService{
		cfg:           cfg,
		leadRepo:      leadRepo,
		actionLogRepo: actionLogRepo,
		reviewRepo:    reviewRepo,
		analytics:     analytics,
		messaging:     messaging,
		board:         board,
		files:         files,
	}
}

// ApplyTransition computes the next lead state for an event. It is free of
// side effects: callers persist the returned lead themselves. A nil lead
// means the id has never been seen; board events create it, replies don't.
func (s *FunnelService) ApplyTransition(lead *models.Lead, ev TransitionEvent) (models.Lead, TransitionResult) {
	now := ev.Now
	if now.IsZero() {
		now = time.Now()
	}

	var next models.Lead
	if lead != nil {
		next = *lead
	}

	switch ev.Kind {
	case TransitionBoardStatus, TransitionManualStatus:
		if !models.IsKnownStatus(ev.Status) {
			return next, TransitionResult{Ignored: true, Reason: fmt.Sprintf("unknown status label %q", ev.Status)}
		}

		created := lead == nil
		if created {
			if ev.Kind == TransitionManualStatus {
				return next, TransitionResult{Ignored: true, Reason: "lead not found"}
			}
			next = models.Lead{
				Name:      ev.Name,
				Phone:     ev.Phone,
				CreatedAt: now,
			}
		}
		if ev.Name != "" {
			next.Name = ev.Name
		}
		if ev.Phone != "" {
			next.Phone = utils.NormalizePhone(ev.Phone, "BR")
		}

		next.Status = ev.Status
		if models.IsOrderedStage(ev.Status) {
			next.Active = true
			dispatchAt := now.Add(s.cfg.FollowupInterval(ev.Status))
			next.NextDispatchAt = &dispatchAt
		} else {
			next.Active = false
			next.NextDispatchAt = nil
		}
		next.UpdatedAt = now
		return next, TransitionResult{Changed: true, Created: created}

	case TransitionReply:
		if lead == nil {
			return next, TransitionResult{Ignored: true, Reason: "no matching lead"}
		}
		// A reply always pauses the funnel, whatever the current stage
		next.Status = models.StatusAguardandoLigacao
		next.Active = false
		next.NextDispatchAt = nil
		next.UpdatedAt = now
		return next, TransitionResult{Changed: true}

	case TransitionDispatch:
		if lead == nil || !next.Active || !models.IsOrderedStage(next.Status) {
			return next, TransitionResult{Ignored: true, Reason: "lead not dispatchable"}
		}
		next.Attempts++
		if following := models.NextStage(next.Status); following != "" {
			next.Status = following
			dispatchAt := now.Add(s.cfg.FollowupInterval(following))
			next.NextDispatchAt = &dispatchAt
		} else {
			// Last stage reached; nothing further is scheduled
			next.NextDispatchAt = nil
		}
		next.UpdatedAt = now
		return next, TransitionResult{Changed: true}

	case TransitionExhausted:
		if lead == nil {
			return next, TransitionResult{Ignored: true, Reason: "lead not found"}
		}
		next.Status = models.StatusNaoRespondeu
		next.Active = false
		next.NextDispatchAt = nil
		next.UpdatedAt = now
		return next, TransitionResult{Changed: true}
	}

	return next, TransitionResult{Ignored: true, Reason: fmt.Sprintf("unknown transition kind %q", ev.Kind)}
}

// ProcessBoardStatusChange handles a board-status-changed webhook. Unknown
// labels are logged and ignored; unseen item ids create the lead at that
// status (idempotent upsert semantics).
func (s *FunnelService) ProcessBoardStatusChange(itemID, itemName, statusLabel string) (*models.Lead, *TransitionResult, error) {
	lead, err := s.leadRepo.GetByID(itemID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.analytics.TrackError(models.CategoryDatabase, "lead_lookup", models.JSON{"lead_id": itemID}, err)
		return nil, nil, fmt.Errorf("failed to look up lead: %w", err)
	}

	// Board events carry no phone and sometimes no item name; fetch both
	// from the board before creating a lead, otherwise inbound replies
	// can never be matched back to it
	var phone string
	if s.board != nil && (lead == nil || lead.Phone == "" || itemName == "") {
		name, fetchedPhone, err := s.board.GetItemDetails(itemID)
		if err != nil {
			logrus.Warnf("Failed to fetch board item details for %s: %v", itemID, err)
		} else {
			if itemName == "" {
				itemName = name
			}
			if lead == nil || lead.Phone == "" {
				phone = fetchedPhone
			}
		}
	}

	next, result := s.ApplyTransition(lead, TransitionEvent{
		Kind:   TransitionBoardStatus,
		Status: statusLabel,
		Name:   itemName,
		Phone:  phone,
	})

	if result.Ignored {
		logrus.Warnf("Board webhook for lead %s ignored: %s", itemID, result.Reason)
		s.analytics.TrackEvent(models.EventWarning, models.CategoryWebhook, "board_status_change", models.JSON{
			"lead_id": itemID,
			"label":   statusLabel,
			"reason":  result.Reason,
		})
		return lead, &result, nil
	}

	next.ID = itemID
	if err := s.leadRepo.Save(&next); err != nil {
		s.analytics.TrackError(models.CategoryDatabase, "lead_upsert", models.JSON{"lead_id": itemID}, err)
		return nil, nil, fmt.Errorf("failed to save lead: %w", err)
	}

	s.logAction(itemID, "status_change", fmt.Sprintf("Status set to %q via board webhook", statusLabel), true)
	s.analytics.TrackEvent(models.EventSuccess, models.CategoryWebhook, "board_status_change", models.JSON{
		"lead_id": itemID,
		"status":  statusLabel,
		"created": result.Created,
	})

	return &next, &result, nil
}

// ProcessInboundMessage handles an inbound customer reply from the
// messaging gateway. Any matching active lead is paused; numbers the board
// doesn't know about are flagged for manual review instead.
func (s *FunnelService) ProcessInboundMessage(remoteJid, pushName, text string) (*models.Lead, error) {
	digits := utils.PhoneFromJID(remoteJid)
	if digits == "" {
		return nil, errors.New("message has no usable sender number")
	}

	// Suffix match on the last 8 digits tolerates country/area prefix drift
	suffix := digits
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}

	candidates, err := s.leadRepo.GetActiveByPhoneSuffix(suffix)
	if err != nil {
		s.analytics.TrackError(models.CategoryDatabase, "lead_phone_lookup", models.JSON{"digits": digits}, err)
		return nil, fmt.Errorf("failed to match lead by phone: %w", err)
	}

	if len(candidates) == 0 {
		logrus.Infof("Inbound message from %s matched no active lead", digits)
		s.analytics.TrackEvent(models.EventInfo, models.CategoryWebhook, "message_received", models.JSON{
			"digits":  digits,
			"matched": false,
		})
		review := &models.ManualReview{
			Reason:  "unmatched_reply",
			Details: fmt.Sprintf("Reply from %s (%s): %s", digits, pushName, truncate(text, 200)),
		}
		if err := s.reviewRepo.Create(review); err != nil {
			logrus.Errorf("Failed to flag unmatched reply for review: %v", err)
		}
		return nil, nil
	}

	lead := candidates[0]
	next, result := s.ApplyTransition(lead, TransitionEvent{Kind: TransitionReply})
	if result.Ignored {
		return lead, nil
	}

	if err := s.leadRepo.Save(&next); err != nil {
		s.analytics.TrackError(models.CategoryDatabase, "lead_pause", models.JSON{"lead_id": lead.ID}, err)
		return nil, fmt.Errorf("failed to pause lead: %w", err)
	}

	s.logAction(lead.ID, "reply_received", fmt.Sprintf("Reply from %s, funnel paused: %s", pushName, truncate(text, 200)), true)
	s.analytics.TrackEvent(models.EventSuccess, models.CategoryWebhook, "message_received", models.JSON{
		"lead_id": lead.ID,
		"matched": true,
	})

	// Keep the board in sync, best effort
	if s.board != nil {
		if err := s.board.UpdateItemStatus(lead.ID, models.StatusAguardandoLigacao); err != nil {
			logrus.Warnf("Failed to sync paused status to board for lead %s: %v", lead.ID, err)
		}
	}

	return &next, nil
}

// UpdateStatus performs a manual status update from the dashboard. It runs
// the same write and logging path as the webhook.
func (s *FunnelService) UpdateStatus(leadID, statusLabel string) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByID(leadID)
	if err != nil {
		return nil, errors.New("lead not found")
	}

	next, result := s.ApplyTransition(lead, TransitionEvent{
		Kind:   TransitionManualStatus,
		Status: statusLabel,
	})
	if result.Ignored {
		return nil, fmt.Errorf("invalid status %q", statusLabel)
	}

	if err := s.leadRepo.Save(&next); err != nil {
		s.analytics.TrackError(models.CategoryDatabase, "lead_manual_update", models.JSON{"lead_id": leadID}, err)
		return nil, fmt.Errorf("failed to save lead: %w", err)
	}

	s.logAction(leadID, "manual_status_change", fmt.Sprintf("Status set to %q from dashboard", statusLabel), true)
	s.analytics.TrackEvent(models.EventSuccess, models.CategorySystem, "manual_status_change", models.JSON{
		"lead_id": leadID,
		"status":  statusLabel,
	})

	if s.board != nil {
		if err := s.board.UpdateItemStatus(leadID, statusLabel); err != nil {
			logrus.Warnf("Failed to sync manual status to board for lead %s: %v", leadID, err)
		}
	}

	return &next, nil
}

// ContactNow sends the current stage's message immediately, bypassing the
// dispatch timer but going through the identical logging path.
func (s *FunnelService) ContactNow(leadID string) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByID(leadID)
	if err != nil {
		return nil, errors.New("lead not found")
	}
	if !lead.Active || !models.IsOrderedStage(lead.Status) {
		return nil, fmt.Errorf("lead %s is not on an active contact stage", leadID)
	}

	message := s.messageForStage(lead)
	if err := s.messaging.SendText(lead.Phone, message); err != nil {
		s.logAction(leadID, "contact_now", fmt.Sprintf("Send failed: %v", err), false)
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	next, result := s.ApplyTransition(lead, TransitionEvent{Kind: TransitionDispatch})
	if result.Ignored {
		return lead, nil
	}

	if err := s.leadRepo.Save(&next); err != nil {
		s.analytics.TrackError(models.CategoryDatabase, "lead_contact_now", models.JSON{"lead_id": leadID}, err)
		return nil, fmt.Errorf("failed to save lead: %w", err)
	}

	s.logAction(leadID, "contact_now", fmt.Sprintf("Message sent, advanced to %q", next.Status), true)

	if s.board != nil {
		if err := s.board.UpdateItemStatus(leadID, next.Status); err != nil {
			logrus.Warnf("Failed to sync status to board for lead %s: %v", leadID, err)
		}
	}

	return &next, nil
}

// SendManualReminder sends a free-text reminder without touching the
// lead's funnel position
func (s *FunnelService) SendManualReminder(leadID, message string) error {
	lead, err := s.leadRepo.GetByID(leadID)
	if err != nil {
		return errors.New("lead not found")
	}

	if message == "" {
		message = fmt.Sprintf("Olá %s! Passando para lembrar do nosso contato.", lead.Name)
	}

	if err := s.messaging.SendText(lead.Phone, message); err != nil {
		s.logAction(leadID, "manual_reminder", fmt.Sprintf("Send failed: %v", err), false)
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	s.logAction(leadID, "manual_reminder", truncate(message, 200), true)
	return nil
}

// MarkExhausted moves a lead to "Não Respondeu". Only the dispatcher (when
// enabled) and manual dashboard action call this; the serving path never
// exhausts a lead on its own.
func (s *FunnelService) MarkExhausted(leadID string) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByID(leadID)
	if err != nil {
		return nil, errors.New("lead not found")
	}

	next, result := s.ApplyTransition(lead, TransitionEvent{Kind: TransitionExhausted})
	if result.Ignored {
		return lead, nil
	}

	if err := s.leadRepo.Save(&next); err != nil {
		return nil, fmt.Errorf("failed to save lead: %w", err)
	}

	s.logAction(leadID, "exhausted", "Funnel exhausted without a reply", true)
	return &next, nil
}

// GetLeads returns all leads for the dashboard
func (s *FunnelService) GetLeads() ([]*models.Lead, error) {
	return s.leadRepo.GetAll()
}

// GetStats summarizes the funnel for the overview tab
func (s *FunnelService) GetStats() (*models.LeadStats, error) {
	total, active, err := s.leadRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	byStatus, err := s.leadRepo.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count leads by status: %w", err)
	}

	dueNow, err := s.leadRepo.CountDue(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to count due leads: %w", err)
	}

	return &models.LeadStats{
		Total:    total,
		Active:   active,
		Inactive: total - active,
		DueNow:   dueNow,
		ByStatus: byStatus,
	}, nil
}

// messageForStage resolves the follow-up text for a lead's stage. Saved
// message templates win, with "{nome}" replaced by the lead's name; the
// built-in texts only cover stages without a template.
func (s *FunnelService) messageForStage(lead *models.Lead) string {
	if s.files != nil {
		if templates, err := s.files.GetTemplates(); err == nil {
			if tpl, ok := templates[lead.Status]; ok && tpl != "" {
				return strings.ReplaceAll(tpl, "{nome}", lead.Name)
			}
		}
	}

	switch lead.Status {
	case models.StatusPrimeiroContato:
		return fmt.Sprintf("Olá %s! Tudo bem? Vi seu interesse e gostaria de conversar com você.", lead.Name)
	case models.StatusSegundoContato:
		return fmt.Sprintf("Oi %s! Passando novamente para saber se você teve tempo de pensar na nossa conversa.", lead.Name)
	case models.StatusTerceiroContato:
		return fmt.Sprintf("Olá %s! Ainda estou à disposição caso queira tirar dúvidas.", lead.Name)
	default:
		return fmt.Sprintf("Oi %s! Esta é minha última tentativa de contato. Se quiser falar, é só responder aqui.", lead.Name)
	}
}

// logAction appends one audit trail entry. Failures are logged and
// swallowed so the primary write path never rolls back over audit noise.
func (s *FunnelService) logAction(leadID, action, details string, success bool) {
	entry := &models.ActionLog{
		LeadID:  leadID,
		Action:  action,
		Details: details,
		Success: success,
	}
	if err := s.actionLogRepo.Create(entry); err != nil {
		logrus.Errorf("Failed to write action log for lead %s: %v", leadID, err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
