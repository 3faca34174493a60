package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/models"
	"github.com/funilzap/crm-funnel-backend/internal/utils"
)

// MessagingService talks to the Evolution WhatsApp gateway used for
// outbound funnel messages
type MessagingService struct {
	cfg       *config.Config
	analytics *AnalyticsService
	client    *http.Client
	baseURL   string
}

func NewMessagingService(cfg *config.Config, analytics *AnalyticsService) *MessagingService {
	return &MessagingService{
		cfg:       cfg,
		analytics: analytics,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: strings.TrimRight(cfg.EvolutionAPIURL, "/"),
	}
}

// SetBaseURL overrides the gateway endpoint (used by tests)
func (s *MessagingService) SetBaseURL(url string) {
	s.baseURL = strings.TrimRight(url, "/")
}

// Configured reports whether gateway credentials are present
func (s *MessagingService) Configured() bool {
	return s.baseURL != "" && s.cfg.EvolutionAPIKey != "" && s.cfg.EvolutionInstance != ""
}

// SendText sends a plain text message to a phone number
func (s *MessagingService) SendText(phone, text string) error {
	if !s.Configured() {
		return NewOperationError("not_configured", fmt.Errorf("messaging gateway is not configured"))
	}

	number := utils.NormalizePhone(phone, "BR")
	payload := map[string]interface{}{
		"number": number,
		"text":   text,
	}

	return s.analytics.TrackOperation(models.CategoryMessagingAPI, "send_text", models.JSON{
		"number": number,
	}, func() error {
		url := fmt.Sprintf("%s/message/sendText/%s", s.baseURL, s.cfg.EvolutionInstance)
		_, err := s.post(url, payload)
		return err
	})
}

// InstanceState describes the gateway connection for the controls tab
type InstanceState struct {
	Instance string `json:"instance"`
	State    string `json:"state"`
}

// CheckInstance queries the gateway connection state
func (s *MessagingService) CheckInstance() (*InstanceState, error) {
	if !s.Configured() {
		return nil, NewOperationError("not_configured", fmt.Errorf("messaging gateway is not configured"))
	}

	var state InstanceState
	err := s.analytics.TrackOperation(models.CategoryMessagingAPI, "check_instance", nil, func() error {
		url := fmt.Sprintf("%s/instance/connectionState/%s", s.baseURL, s.cfg.EvolutionInstance)

		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("apikey", s.cfg.EvolutionAPIKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to connect to messaging gateway: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read gateway response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return NewOperationError(fmt.Sprintf("http_%d", resp.StatusCode),
				fmt.Errorf("messaging gateway returned status %d: %s", resp.StatusCode, string(body)))
		}

		var payload struct {
			Instance struct {
				InstanceName string `json:"instanceName"`
				State        string `json:"state"`
			} `json:"instance"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}

		state = InstanceState{
			Instance: payload.Instance.InstanceName,
			State:    payload.Instance.State,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// post sends one JSON request with the gateway api key
func (s *MessagingService) post(url string, payload interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.cfg.EvolutionAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to messaging gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewOperationError(fmt.Sprintf("http_%d", resp.StatusCode),
			fmt.Errorf("messaging gateway returned status %d: %s", resp.StatusCode, string(body)))
	}

	return body, nil
}
