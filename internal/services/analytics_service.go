package services

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/models"
)

const (
	topOperationsLimit = 10
	recentErrorsLimit  = 20
	hourlyBucketsLimit = 24
)

// OperationError carries an error code alongside the message so tracked
// operations can report both
type OperationError struct {
	Code    string
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError wraps err with a machine-readable code
func NewOperationError(code string, err error) *OperationError {
	return &OperationError{Code: code, Message: err.Error(), Err: err}
}

type AnalyticsService struct {
	analyticsRepo *repository.AnalyticsRepository
	hub           *SSEHub
}

func NewAnalyticsService(analyticsRepo *repository.AnalyticsRepository, hub *SSEHub) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		hub:           hub,
	}
}

// TrackEvent records one analytics event. Recording must never crash the
// caller's primary operation: insert failures are logged and swallowed.
func (s *AnalyticsService) TrackEvent(eventType, category, operation string, details models.JSON) {
	s.trackEvent(eventType, category, operation, details, nil, nil, nil)
}

// TrackError records an error event with code and message extracted from err
func (s *AnalyticsService) TrackError(category, operation string, details models.JSON, err error) {
	var code, message *string
	if err != nil {
		msg := err.Error()
		message = &msg

		var opErr *OperationError
		if errors.As(err, &opErr) && opErr.Code != "" {
			c := opErr.Code
			code = &c
		}
	}
	s.trackEvent(models.EventError, category, operation, details, nil, code, message)
}

func (s *AnalyticsService) trackEvent(eventType, category, operation string, details models.JSON, durationMs *int64, errorCode, errorMessage *string) {
	event := &models.AnalyticsEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		Category:     category,
		Operation:    operation,
		Details:      details,
		DurationMs:   durationMs,
		ErrorCode:    errorCode,
		ErrorMessage: errorMessage,
		CreatedAt:    time.Now(),
	}

	if err := s.analyticsRepo.Create(event); err != nil {
		logrus.Errorf("Failed to record analytics event %s/%s: %v", category, operation, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(event)
	}
}

// TrackOperation runs fn, measures wall-clock duration and records a success
// or error event. The original error is returned unchanged.
func (s *AnalyticsService) TrackOperation(category, operation string, details models.JSON, fn func() error) error {
	start := time.Now()
	err := fn()
	durationMs := time.Since(start).Milliseconds()

	if err != nil {
		var code, message *string
		msg := err.Error()
		message = &msg

		var opErr *OperationError
		if errors.As(err, &opErr) && opErr.Code != "" {
			c := opErr.Code
			code = &c
		}

		s.trackEvent(models.EventError, category, operation, details, &durationMs, code, message)
		return err
	}

	s.trackEvent(models.EventSuccess, category, operation, details, &durationMs, nil, nil)
	return nil
}

// GetAnalytics computes the windowed aggregates for the dashboard. Query
// failures degrade to a zeroed result: this is a display surface, not a
// source of truth.
func (s *AnalyticsService) GetAnalytics(windowHours int) *models.Analytics {
	if windowHours <= 0 {
		windowHours = 24
	}

	analytics := &models.Analytics{
		WindowHours:   windowHours,
		ByCategory:    []models.CategoryCount{},
		TopOperations: []models.OperationCount{},
		RecentErrors:  []models.AnalyticsEvent{},
		HourlyStats:   []models.HourlyBucket{},
	}

	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	total, success, errCount, err := s.analyticsRepo.CountInWindow(since)
	if err != nil {
		logrus.Errorf("Failed to count analytics events: %v", err)
		return analytics
	}

	analytics.TotalEvents = total
	if total > 0 {
		analytics.SuccessRate = round2(float64(success) / float64(total) * 100)
		analytics.ErrorRate = round2(float64(errCount) / float64(total) * 100)
	}

	if byCategory, err := s.analyticsRepo.CountByCategory(since); err != nil {
		logrus.Errorf("Failed to aggregate analytics by category: %v", err)
	} else if byCategory != nil {
		analytics.ByCategory = byCategory
	}

	if topOps, err := s.analyticsRepo.TopOperations(since, topOperationsLimit); err != nil {
		logrus.Errorf("Failed to aggregate top operations: %v", err)
	} else if topOps != nil {
		analytics.TopOperations = topOps
	}

	if recentErrors, err := s.analyticsRepo.RecentErrors(since, recentErrorsLimit); err != nil {
		logrus.Errorf("Failed to fetch recent errors: %v", err)
	} else if recentErrors != nil {
		analytics.RecentErrors = recentErrors
	}

	if hourly, err := s.analyticsRepo.HourlyBuckets(since, hourlyBucketsLimit); err != nil {
		logrus.Errorf("Failed to aggregate hourly buckets: %v", err)
	} else if hourly != nil {
		analytics.HourlyStats = hourly
	}

	return analytics
}

// GetSystemHealth classifies the last hour of analytics into a 3-level
// status. Multiple trigger conditions stack into the issues list; the
// resulting status is the highest severity among them.
func (s *AnalyticsService) GetSystemHealth() *models.SystemHealth {
	metrics := s.GetAnalytics(1)

	health := &models.SystemHealth{
		Status:  models.HealthHealthy,
		Metrics: *metrics,
		Issues:  []string{},
	}

	since := time.Now().Add(-time.Hour)
	externalErrors, err := s.analyticsRepo.CountRecentErrorsByCategories(since,
		[]string{models.CategoryMessagingAPI, models.CategoryBoardAPI})
	if err != nil {
		logrus.Errorf("Failed to count external API errors: %v", err)
	}

	critical := false
	warning := false

	if metrics.ErrorRate > 50 {
		health.Issues = append(health.Issues, "error rate above 50% in the last hour")
		critical = true
	}
	if externalErrors > 5 {
		health.Issues = append(health.Issues, "more than 5 external API errors in the last hour")
		critical = true
	}
	if metrics.ErrorRate > 20 {
		health.Issues = append(health.Issues, "error rate above 20% in the last hour")
		warning = true
	}
	if metrics.TotalEvents == 0 {
		health.Issues = append(health.Issues, "no events recorded in the last hour")
		warning = true
	}

	if critical {
		health.Status = models.HealthCritical
	} else if warning {
		health.Status = models.HealthWarning
	}

	return health
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
