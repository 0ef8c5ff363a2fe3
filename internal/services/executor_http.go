package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/merchflow/autopilot/internal/models"
)

// HTTPExecutor forwards cleared actions to the external executor service that
// owns the storefront platform calls. The governance layer never interprets
// the payload; it only relays it and records the returned execution id.
type HTTPExecutor struct {
	baseURL    string
	httpClient *http.Client
}

type executeRequest struct {
	UserID     string            `json:"user_id"`
	ActionType models.ActionType `json:"action_type"`
	Payload    json.RawMessage   `json:"payload"`
}

type executeResponse struct {
	ExecutedActionID string `json:"executed_action_id"`
}

// NewHTTPExecutor creates an executor client against the given base URL.
func NewHTTPExecutor(baseURL string) Executor {
	return &HTTPExecutor{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *HTTPExecutor) Execute(ctx context.Context, userID string, actionType models.ActionType, payload json.RawMessage) (string, error) {
	body, err := json.Marshal(executeRequest{UserID: userID, ActionType: actionType, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("failed to encode execute request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build execute request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("executor returned status %d", resp.StatusCode)
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode executor response: %w", err)
	}
	if out.ExecutedActionID == "" {
		return "", fmt.Errorf("executor response missing executed_action_id")
	}
	return out.ExecutedActionID, nil
}
