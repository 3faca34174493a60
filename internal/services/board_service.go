package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/models"
)

const mondayAPIURL = "https://api.monday.com/v2"

// BoardService talks to the Monday.com GraphQL API, the source of truth
// for lead status
type BoardService struct {
	cfg       *config.Config
	analytics *AnalyticsService
	client    *http.Client
	apiURL    string
}

func NewBoardService(cfg *config.Config, analytics *AnalyticsService) *BoardService {
	return &BoardService{
		cfg:       cfg,
		analytics: analytics,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiURL: mondayAPIURL,
	}
}

// SetAPIURL overrides the GraphQL endpoint (used by tests)
func (s *BoardService) SetAPIURL(url string) {
	s.apiURL = url
}

// Configured reports whether board credentials are present
func (s *BoardService) Configured() bool {
	return s.cfg.MondayAPIToken != "" && s.cfg.MondayBoardID != ""
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// UpdateItemStatus writes a status label to the board item's status column
func (s *BoardService) UpdateItemStatus(itemID, label string) error {
	if !s.Configured() {
		return nil
	}

	query := `mutation ($board: ID!, $item: ID!, $column: String!, $value: String!) {
		change_simple_column_value(board_id: $board, item_id: $item, column_id: $column, value: $value) { id }
	}`

	variables := map[string]interface{}{
		"board":  s.cfg.MondayBoardID,
		"item":   itemID,
		"column": s.cfg.MondayStatusColumnID,
		"value":  label,
	}

	return s.analytics.TrackOperation(models.CategoryBoardAPI, "update_item_status", models.JSON{
		"item_id": itemID,
		"label":   label,
	}, func() error {
		_, err := s.execute(query, variables)
		return err
	})
}

// GetItemDetails fetches the display name and phone column of a board item
func (s *BoardService) GetItemDetails(itemID string) (name string, phone string, err error) {
	if !s.Configured() {
		return "", "", nil
	}

	query := `query ($item: [ID!], $columns: [String!]) {
		items(ids: $item) { name column_values(ids: $columns) { id text } }
	}`
	variables := map[string]interface{}{
		"item":    []string{itemID},
		"columns": []string{s.cfg.MondayPhoneColumnID},
	}

	err = s.analytics.TrackOperation(models.CategoryBoardAPI, "get_item_details", models.JSON{
		"item_id": itemID,
	}, func() error {
		data, err := s.execute(query, variables)
		if err != nil {
			return err
		}

		var payload struct {
			Items []struct {
				Name         string `json:"name"`
				ColumnValues []struct {
					ID   string `json:"id"`
					Text string `json:"text"`
				} `json:"column_values"`
			} `json:"items"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("failed to decode board response: %w", err)
		}
		if len(payload.Items) == 0 {
			return NewOperationError("item_not_found", fmt.Errorf("board item %s not found", itemID))
		}
		name = payload.Items[0].Name
		for _, cv := range payload.Items[0].ColumnValues {
			if cv.ID == s.cfg.MondayPhoneColumnID {
				phone = cv.Text
			}
		}
		return nil
	})

	return name, phone, err
}

// execute posts one GraphQL document and returns the data payload
func (s *BoardService) execute(query string, variables map[string]interface{}) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", s.cfg.MondayAPIToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to board API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read board API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewOperationError(fmt.Sprintf("http_%d", resp.StatusCode),
			fmt.Errorf("board API returned status %d: %s", resp.StatusCode, string(body)))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to decode board API response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, NewOperationError("graphql_error",
			fmt.Errorf("board API error: %s", gqlResp.Errors[0].Message))
	}

	return gqlResp.Data, nil
}
