package delegate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mrtodp/fleetd/pkg/model"
)

// Remote delegates assignment to an external decision service over HTTP.
// The service receives {task, robots} as JSON and answers with the
// standard response envelope around {robot_id}.
type Remote struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRemote creates a remote delegator posting to the given endpoint,
// with connection pooling.
func NewRemote(url string, logger *slog.Logger) *Remote {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Remote{
		url: url,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		logger: logger.With("component", "delegate-remote"),
	}
}

// Assign implements Delegator.
func (r *Remote) Assign(ctx context.Context, task *model.Task, eligible []model.Robot) (string, error) {
	body, err := json.Marshal(map[string]any{
		"task":   task,
		"robots": eligible,
	})
	if err != nil {
		return "", fmt.Errorf("marshal assignment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create assignment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.logger.Debug("assignment request", "task", task.ID, "robots", len(eligible))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("delegation service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read assignment response: %w", err)
	}

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *model.APIError `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", fmt.Errorf("delegation service: HTTP %d: %s", resp.StatusCode, respBody)
	}
	if envelope.Error != nil {
		return "", envelope.Error
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("delegation service: HTTP %d", resp.StatusCode)
	}

	var out struct {
		RobotID string `json:"robot_id"`
	}
	if err := json.Unmarshal(envelope.Data, &out); err != nil {
		return "", fmt.Errorf("parse assignment response: %w", err)
	}
	if out.RobotID == "" {
		return "", fmt.Errorf("delegation service returned no robot for task %s", task.ID)
	}

	r.logger.Debug("assignment received", "task", task.ID, "robot", out.RobotID)
	return out.RobotID, nil
}
