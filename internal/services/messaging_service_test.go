package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
)

func setupMessagingTest(t *testing.T, handler http.HandlerFunc) *MessagingService {
	cfg := testConfig()
	cfg.EvolutionAPIKey = "test-key"
	cfg.EvolutionInstance = "funil"

	gateway := httptest.NewServer(handler)
	t.Cleanup(gateway.Close)

	db := setupTestDB(t)
	analytics := NewAnalyticsService(repository.NewAnalyticsRepository(db), NewSSEHub())
	svc := NewMessagingService(cfg, analytics)
	svc.SetBaseURL(gateway.URL)
	return svc
}

func TestSendTextPostsNormalizedNumber(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload map[string]interface{}

	svc := setupMessagingTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotPayload)
		w.Write([]byte(`{"status":"ok"}`))
	})

	err := svc.SendText("(11) 98888-7777", "Olá!")
	require.NoError(t, err)

	assert.Equal(t, "/message/sendText/funil", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "+5511988887777", gotPayload["number"])
	assert.Equal(t, "Olá!", gotPayload["text"])
}

func TestSendTextGatewayErrorCode(t *testing.T) {
	svc := setupMessagingTest(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	err := svc.SendText("+5511988887777", "Olá!")
	require.Error(t, err)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "http_429", opErr.Code)
}

func TestSendTextUnconfigured(t *testing.T) {
	db := setupTestDB(t)
	analytics := NewAnalyticsService(repository.NewAnalyticsRepository(db), NewSSEHub())
	svc := NewMessagingService(testConfig(), analytics)

	err := svc.SendText("+5511988887777", "Olá!")
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "not_configured", opErr.Code)
}

func TestCheckInstance(t *testing.T) {
	svc := setupMessagingTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instance/connectionState/funil", r.URL.Path)
		w.Write([]byte(`{"instance":{"instanceName":"funil","state":"open"}}`))
	})

	state, err := svc.CheckInstance()
	require.NoError(t, err)
	assert.Equal(t, "funil", state.Instance)
	assert.Equal(t, "open", state.State)
}
