package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/models"
)

// DispatcherService walks due leads through the funnel on a cron schedule.
// It ships disabled: the entry point only starts it when DISPATCHER_ENABLED
// is set, so in the default deployment all transitions stay webhook-driven.
type DispatcherService struct {
	cfg       *config.Config
	funnel    *FunnelService
	leadRepo  *repository.LeadRepository
	analytics *AnalyticsService
	cron      *cron.Cron
}

func NewDispatcherService(
	cfg *config.Config,
	funnel *FunnelService,
	leadRepo *repository.LeadRepository,
	analytics *AnalyticsService,
) *DispatcherService {
	return &DispatcherService{
		cfg:       cfg,
		funnel:    funnel,
		leadRepo:  leadRepo,
		analytics: analytics,
		cron:      cron.New(),
	}
}

// Start registers and starts the dispatch job
func (s *DispatcherService) Start() error {
	_, err := s.cron.AddFunc(s.cfg.DispatcherCron, s.runOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	logrus.Infof("Dispatcher started with schedule %q", s.cfg.DispatcherCron)
	return nil
}

// Stop stops the cron scheduler
func (s *DispatcherService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("Dispatcher stopped")
}

// runOnce processes every due lead in one pass
func (s *DispatcherService) runOnce() {
	due, err := s.leadRepo.GetDue(time.Now())
	if err != nil {
		logrus.Errorf("Dispatcher failed to fetch due leads: %v", err)
		s.analytics.TrackError(models.CategoryDatabase, "dispatch_pass", nil, err)
		return
	}

	if len(due) == 0 {
		logrus.Debug("Dispatcher pass: no due leads")
		return
	}

	logrus.Infof("Dispatcher pass: %d due lead(s)", len(due))
	for _, lead := range due {
		if lead.Attempts >= s.cfg.MaxAttempts {
			if _, err := s.funnel.MarkExhausted(lead.ID); err != nil {
				logrus.Errorf("Dispatcher failed to exhaust lead %s: %v", lead.ID, err)
			}
			continue
		}

		if _, err := s.funnel.ContactNow(lead.ID); err != nil {
			logrus.Errorf("Dispatcher failed to contact lead %s: %v", lead.ID, err)
		}
	}

	s.analytics.TrackEvent(models.EventSuccess, models.CategorySystem, "dispatch_pass", models.JSON{
		"due": len(due),
	})
}
