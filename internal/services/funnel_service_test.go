package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxAttempts: 4,
		FollowupIntervals: map[string]time.Duration{
			models.StatusPrimeiroContato: 24 * time.Hour,
			models.StatusSegundoContato:  48 * time.Hour,
			models.StatusTerceiroContato: 72 * time.Hour,
			models.StatusUltimoContato:   96 * time.Hour,
		},
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Lead{},
		&models.ActionLog{},
		&models.ManualReview{},
		&models.AnalyticsEvent{},
		&models.User{},
	))
	return db
}

func setupFunnelTest(t *testing.T) (*FunnelService, *gorm.DB) {
	cfg := testConfig()
	db := setupTestDB(t)

	analytics := NewAnalyticsService(repository.NewAnalyticsRepository(db), NewSSEHub())
	messaging := NewMessagingService(cfg, analytics)
	board := NewBoardService(cfg, analytics)

	funnel := NewFunnelService(
		cfg,
		repository.NewLeadRepository(db),
		repository.NewActionLogRepository(db),
		repository.NewManualReviewRepository(db),
		analytics,
		messaging,
		board,
		NewFileService(t.TempDir()),
	)
	return funnel, db
}

// withBoardAPI points the funnel's board client at a fake Monday API whose
// items carry the given phone column text
func withBoardAPI(t *testing.T, funnel *FunnelService, phone string) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"items":[{"name":"João Silva","column_values":[{"id":"telefone","text":"%s"}]}],"change_simple_column_value":{"id":"42"}}}`, phone)
	}))
	t.Cleanup(server.Close)

	funnel.cfg.MondayAPIToken = "token"
	funnel.cfg.MondayBoardID = "board"
	funnel.cfg.MondayPhoneColumnID = "telefone"
	funnel.board.SetAPIURL(server.URL)
}

// withGateway points the funnel's messaging client at a fake Evolution
// gateway and returns the last send payload for inspection
func withGateway(t *testing.T, funnel *FunnelService) *struct{ Number, Text string } {
	sent := &struct{ Number, Text string }{}
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Number string `json:"number"`
			Text   string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		sent.Number = payload.Number
		sent.Text = payload.Text
		w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(gateway.Close)

	funnel.cfg.EvolutionAPIKey = "test-key"
	funnel.cfg.EvolutionInstance = "funil"
	funnel.messaging.SetBaseURL(gateway.URL)
	return sent
}

func TestApplyTransitionBoardCreatesLead(t *testing.T) {
	funnel, _ := setupFunnelTest(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	next, result := funnel.ApplyTransition(nil, TransitionEvent{
		Kind:   TransitionBoardStatus,
		Status: models.StatusPrimeiroContato,
		Name:   "Maria",
		Phone:  "5511988887777",
		Now:    now,
	})

	assert.True(t, result.Changed)
	assert.True(t, result.Created)
	assert.Equal(t, models.StatusPrimeiroContato, next.Status)
	assert.True(t, next.Active)
	require.NotNil(t, next.NextDispatchAt)
	assert.Equal(t, now.Add(24*time.Hour), *next.NextDispatchAt)
}

func TestApplyTransitionUnknownLabelIsNoOp(t *testing.T) {
	funnel, _ := setupFunnelTest(t)
	lead := &models.Lead{ID: "1", Status: models.StatusPrimeiroContato, Active: true}

	next, result := funnel.ApplyTransition(lead, TransitionEvent{
		Kind:   TransitionBoardStatus,
		Status: "Foo Bar",
	})

	assert.True(t, result.Ignored)
	assert.False(t, result.Changed)
	// The lead itself stays untouched
	assert.Equal(t, models.StatusPrimeiroContato, next.Status)
	assert.True(t, next.Active)
}

func TestApplyTransitionHoldStateDeactivates(t *testing.T) {
	funnel, _ := setupFunnelTest(t)
	dispatchAt := time.Now().Add(time.Hour)
	lead := &models.Lead{ID: "1", Status: models.StatusSegundoContato, Active: true, NextDispatchAt: &dispatchAt}

	next, result := funnel.ApplyTransition(lead, TransitionEvent{
		Kind:   TransitionBoardStatus,
		Status: models.StatusAguardandoLigacao,
	})

	assert.True(t, result.Changed)
	assert.False(t, next.Active)
	assert.Nil(t, next.NextDispatchAt)
}

func TestApplyTransitionReplyAlwaysPauses(t *testing.T) {
	funnel, _ := setupFunnelTest(t)

	for _, stage := range models.FunnelStages {
		lead := &models.Lead{ID: "1", Status: stage, Active: true}
		next, result := funnel.ApplyTransition(lead, TransitionEvent{Kind: TransitionReply})

		assert.True(t, result.Changed, "reply from stage %q", stage)
		assert.Equal(t, models.StatusAguardandoLigacao, next.Status)
		assert.False(t, next.Active)
		assert.Nil(t, next.NextDispatchAt)
	}
}

func TestApplyTransitionReplyWithoutLead(t *testing.T) {
	funnel, _ := setupFunnelTest(t)

	_, result := funnel.ApplyTransition(nil, TransitionEvent{Kind: TransitionReply})
	assert.True(t, result.Ignored)
}

func TestApplyTransitionDispatchAdvancesStages(t *testing.T) {
	funnel, _ := setupFunnelTest(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	lead := models.Lead{ID: "1", Status: models.StatusPrimeiroContato, Active: true}
	expected := []string{
		models.StatusSegundoContato,
		models.StatusTerceiroContato,
		models.StatusUltimoContato,
	}

	for i, want := range expected {
		next, result := funnel.ApplyTransition(&lead, TransitionEvent{Kind: TransitionDispatch, Now: now})
		require.True(t, result.Changed)
		assert.Equal(t, want, next.Status)
		assert.Equal(t, i+1, next.Attempts)
		require.NotNil(t, next.NextDispatchAt)
		lead = next
	}

	// At the last stage a dispatch leaves no further schedule
	next, result := funnel.ApplyTransition(&lead, TransitionEvent{Kind: TransitionDispatch, Now: now})
	require.True(t, result.Changed)
	assert.Equal(t, models.StatusUltimoContato, next.Status)
	assert.Equal(t, 4, next.Attempts)
	assert.Nil(t, next.NextDispatchAt)
}

func TestApplyTransitionDispatchIgnoresPausedLead(t *testing.T) {
	funnel, _ := setupFunnelTest(t)
	lead := &models.Lead{ID: "1", Status: models.StatusAguardandoLigacao, Active: false}

	_, result := funnel.ApplyTransition(lead, TransitionEvent{Kind: TransitionDispatch})
	assert.True(t, result.Ignored)
}

func TestApplyTransitionExhausted(t *testing.T) {
	funnel, _ := setupFunnelTest(t)
	lead := &models.Lead{ID: "1", Status: models.StatusUltimoContato, Active: true, Attempts: 4}

	next, result := funnel.ApplyTransition(lead, TransitionEvent{Kind: TransitionExhausted})
	assert.True(t, result.Changed)
	assert.Equal(t, models.StatusNaoRespondeu, next.Status)
	assert.False(t, next.Active)
	assert.Nil(t, next.NextDispatchAt)
}

func TestProcessBoardStatusChangeCreatesUnseenLead(t *testing.T) {
	funnel, db := setupFunnelTest(t)

	lead, result, err := funnel.ProcessBoardStatusChange("42", "João", models.StatusPrimeiroContato)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Created)
	assert.Equal(t, "42", lead.ID)

	var stored models.Lead
	require.NoError(t, db.First(&stored, "id = ?", "42").Error)
	assert.Equal(t, models.StatusPrimeiroContato, stored.Status)
	assert.Equal(t, "João", stored.Name)
	assert.True(t, stored.Active)
}

func TestProcessBoardStatusChangeLastWriterWins(t *testing.T) {
	funnel, db := setupFunnelTest(t)

	_, _, err := funnel.ProcessBoardStatusChange("42", "João", models.StatusPrimeiroContato)
	require.NoError(t, err)
	_, _, err = funnel.ProcessBoardStatusChange("42", "João", models.StatusTerceiroContato)
	require.NoError(t, err)

	var stored models.Lead
	require.NoError(t, db.First(&stored, "id = ?", "42").Error)
	assert.Equal(t, models.StatusTerceiroContato, stored.Status)

	var count int64
	db.Model(&models.Lead{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestProcessBoardStatusChangeUnknownLabelAcknowledged(t *testing.T) {
	funnel, db := setupFunnelTest(t)

	_, result, err := funnel.ProcessBoardStatusChange("42", "João", "Status Inventado")
	require.NoError(t, err)
	assert.True(t, result.Ignored)

	// Nothing persisted, but the event trail records a warning
	var leadCount int64
	db.Model(&models.Lead{}).Count(&leadCount)
	assert.EqualValues(t, 0, leadCount)

	var warnings int64
	db.Model(&models.AnalyticsEvent{}).
		Where("type = ? AND operation = ?", models.EventWarning, "board_status_change").
		Count(&warnings)
	assert.EqualValues(t, 1, warnings)
}

func TestProcessBoardStatusChangeStoresBoardPhone(t *testing.T) {
	funnel, db := setupFunnelTest(t)
	withBoardAPI(t, funnel, "(11) 98888-7777")

	lead, result, err := funnel.ProcessBoardStatusChange("42", "", models.StatusPrimeiroContato)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Created)
	assert.Equal(t, "João Silva", lead.Name)
	assert.Equal(t, "+5511988887777", lead.Phone)

	var stored models.Lead
	require.NoError(t, db.First(&stored, "id = ?", "42").Error)
	assert.Equal(t, "+5511988887777", stored.Phone)
}

func TestProcessInboundMessagePausesBySuffix(t *testing.T) {
	funnel, _ := setupFunnelTest(t)
	withBoardAPI(t, funnel, "5511988887777")

	_, _, err := funnel.ProcessBoardStatusChange("42", "João", models.StatusSegundoContato)
	require.NoError(t, err)

	lead, err := funnel.ProcessInboundMessage("5511988887777@s.whatsapp.net", "João", "oi, pode me ligar?")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, models.StatusAguardandoLigacao, lead.Status)
	assert.False(t, lead.Active)
}

func TestProcessInboundMessageUnmatchedFlagsReview(t *testing.T) {
	funnel, db := setupFunnelTest(t)

	lead, err := funnel.ProcessInboundMessage("5521900001111@s.whatsapp.net", "Desconhecido", "olá")
	require.NoError(t, err)
	assert.Nil(t, lead)

	var review models.ManualReview
	require.NoError(t, db.First(&review).Error)
	assert.Equal(t, "unmatched_reply", review.Reason)
	assert.False(t, review.Resolved)
}

func TestUpdateStatusRejectsUnknownLabel(t *testing.T) {
	funnel, _ := setupFunnelTest(t)

	_, _, err := funnel.ProcessBoardStatusChange("42", "João", models.StatusPrimeiroContato)
	require.NoError(t, err)

	_, err = funnel.UpdateStatus("42", "Etapa Falsa")
	assert.Error(t, err)
}

func TestUpdateStatusUnknownLeadFails(t *testing.T) {
	funnel, _ := setupFunnelTest(t)

	_, err := funnel.UpdateStatus("missing", models.StatusPrimeiroContato)
	assert.Error(t, err)
}

func TestContactNowUsesSavedTemplate(t *testing.T) {
	funnel, db := setupFunnelTest(t)
	sent := withGateway(t, funnel)

	require.NoError(t, funnel.files.SaveTemplates(MessageTemplates{
		models.StatusPrimeiroContato: "Oi {nome}, temos uma condição nova para você",
	}))

	require.NoError(t, db.Create(&models.Lead{
		ID:     "7",
		Name:   "Maria",
		Phone:  "+5511977776666",
		Status: models.StatusPrimeiroContato,
		Active: true,
	}).Error)

	lead, err := funnel.ContactNow("7")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSegundoContato, lead.Status)
	assert.Equal(t, "Oi Maria, temos uma condição nova para você", sent.Text)
}

func TestContactNowWithoutTemplateUsesBuiltinText(t *testing.T) {
	funnel, db := setupFunnelTest(t)
	sent := withGateway(t, funnel)

	require.NoError(t, db.Create(&models.Lead{
		ID:     "8",
		Name:   "Pedro",
		Phone:  "+5511966665555",
		Status: models.StatusSegundoContato,
		Active: true,
	}).Error)

	_, err := funnel.ContactNow("8")
	require.NoError(t, err)
	assert.Contains(t, sent.Text, "Pedro")
}

func TestMarkExhausted(t *testing.T) {
	funnel, db := setupFunnelTest(t)

	_, _, err := funnel.ProcessBoardStatusChange("42", "João", models.StatusUltimoContato)
	require.NoError(t, err)

	lead, err := funnel.MarkExhausted("42")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNaoRespondeu, lead.Status)

	var logCount int64
	db.Model(&models.ActionLog{}).Where("action = ?", "exhausted").Count(&logCount)
	assert.EqualValues(t, 1, logCount)
}

func TestGetStats(t *testing.T) {
	funnel, _ := setupFunnelTest(t)

	_, _, err := funnel.ProcessBoardStatusChange("1", "A", models.StatusPrimeiroContato)
	require.NoError(t, err)
	_, _, err = funnel.ProcessBoardStatusChange("2", "B", models.StatusPrimeiroContato)
	require.NoError(t, err)
	_, _, err = funnel.ProcessBoardStatusChange("3", "C", models.StatusAguardandoLigacao)
	require.NoError(t, err)

	stats, err := funnel.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Active)
	assert.EqualValues(t, 1, stats.Inactive)
	assert.EqualValues(t, 2, stats.ByStatus[models.StatusPrimeiroContato])
}
