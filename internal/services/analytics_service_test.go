package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/models"
)

func setupAnalyticsTest(t *testing.T) *AnalyticsService {
	db := setupTestDB(t)
	return NewAnalyticsService(repository.NewAnalyticsRepository(db), NewSSEHub())
}

func TestGetAnalyticsEmptyWindow(t *testing.T) {
	svc := setupAnalyticsTest(t)

	analytics := svc.GetAnalytics(24)
	assert.Equal(t, 24, analytics.WindowHours)
	assert.EqualValues(t, 0, analytics.TotalEvents)
	assert.Zero(t, analytics.SuccessRate)
	assert.Zero(t, analytics.ErrorRate)
	assert.Empty(t, analytics.ByCategory)
	assert.Empty(t, analytics.RecentErrors)
}

func TestGetAnalyticsRates(t *testing.T) {
	svc := setupAnalyticsTest(t)

	svc.TrackEvent(models.EventSuccess, models.CategoryWebhook, "board_status_change", nil)
	svc.TrackEvent(models.EventSuccess, models.CategoryWebhook, "board_status_change", nil)
	svc.TrackEvent(models.EventError, models.CategoryDatabase, "lead_upsert", nil)

	analytics := svc.GetAnalytics(24)
	assert.EqualValues(t, 3, analytics.TotalEvents)
	assert.InDelta(t, 66.67, analytics.SuccessRate, 0.01)
	assert.InDelta(t, 33.33, analytics.ErrorRate, 0.01)
}

func TestGetAnalyticsDefaultsInvalidWindow(t *testing.T) {
	svc := setupAnalyticsTest(t)

	analytics := svc.GetAnalytics(0)
	assert.Equal(t, 24, analytics.WindowHours)
	analytics = svc.GetAnalytics(-5)
	assert.Equal(t, 24, analytics.WindowHours)
}

func TestTrackOperationRecordsSuccess(t *testing.T) {
	svc := setupAnalyticsTest(t)

	err := svc.TrackOperation(models.CategoryMessagingAPI, "send_text", nil, func() error {
		return nil
	})
	require.NoError(t, err)

	analytics := svc.GetAnalytics(1)
	assert.EqualValues(t, 1, analytics.TotalEvents)
	assert.Equal(t, float64(100), analytics.SuccessRate)
}

func TestTrackOperationReturnsErrorUnchanged(t *testing.T) {
	svc := setupAnalyticsTest(t)

	sentinel := NewOperationError("http_503", errors.New("gateway unavailable"))
	err := svc.TrackOperation(models.CategoryMessagingAPI, "send_text", nil, func() error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	analytics := svc.GetAnalytics(1)
	require.Len(t, analytics.RecentErrors, 1)
	require.NotNil(t, analytics.RecentErrors[0].ErrorCode)
	assert.Equal(t, "http_503", *analytics.RecentErrors[0].ErrorCode)
}

func TestRecentErrorsNewestFirst(t *testing.T) {
	svc := setupAnalyticsTest(t)

	svc.TrackError(models.CategoryDatabase, "first_op", nil, errors.New("first"))
	svc.TrackError(models.CategoryDatabase, "second_op", nil, errors.New("second"))

	analytics := svc.GetAnalytics(1)
	require.Len(t, analytics.RecentErrors, 2)
	assert.Equal(t, "second_op", analytics.RecentErrors[0].Operation)
	assert.Equal(t, "first_op", analytics.RecentErrors[1].Operation)
}

func TestSystemHealthWarnsOnZeroEvents(t *testing.T) {
	svc := setupAnalyticsTest(t)

	health := svc.GetSystemHealth()
	assert.Equal(t, models.HealthWarning, health.Status)
	assert.Contains(t, health.Issues, "no events recorded in the last hour")
}

func TestSystemHealthHealthy(t *testing.T) {
	svc := setupAnalyticsTest(t)

	for i := 0; i < 10; i++ {
		svc.TrackEvent(models.EventSuccess, models.CategoryWebhook, "board_status_change", nil)
	}

	health := svc.GetSystemHealth()
	assert.Equal(t, models.HealthHealthy, health.Status)
	assert.Empty(t, health.Issues)
}

func TestSystemHealthCriticalOnHighErrorRate(t *testing.T) {
	svc := setupAnalyticsTest(t)

	svc.TrackEvent(models.EventSuccess, models.CategoryWebhook, "board_status_change", nil)
	for i := 0; i < 3; i++ {
		svc.TrackEvent(models.EventError, models.CategoryDatabase, "lead_upsert", nil)
	}

	health := svc.GetSystemHealth()
	assert.Equal(t, models.HealthCritical, health.Status)
	// The warning threshold also trips; both issues stack but the
	// highest severity wins
	assert.GreaterOrEqual(t, len(health.Issues), 2)
}

func TestSystemHealthCriticalOnExternalAPIErrors(t *testing.T) {
	svc := setupAnalyticsTest(t)

	// Keep the overall error rate below the thresholds with a pile of
	// successes, then trip the external API counter alone
	for i := 0; i < 50; i++ {
		svc.TrackEvent(models.EventSuccess, models.CategoryWebhook, "board_status_change", nil)
	}
	for i := 0; i < 6; i++ {
		svc.TrackError(models.CategoryMessagingAPI, "send_text", nil, errors.New("timeout"))
	}

	health := svc.GetSystemHealth()
	assert.Equal(t, models.HealthCritical, health.Status)
	assert.Contains(t, health.Issues, "more than 5 external API errors in the last hour")
}
