package ivanti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Client wraps the Ivanti ITSM incident API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// IncidentRequest carries the fields the incident endpoint accepts.
type IncidentRequest struct {
	Subject   string `json:"subject"`
	Symptom   string `json:"symptom"`
	Status    string `json:"status"`
	Impact    string `json:"impact"`
	Category  string `json:"category"`
	Service   string `json:"service"`
	OwnerTeam string `json:"owner_team"`
}

// IncidentResult mirrors the tool_results entry embedded into the agent
// decision. Failures are reported inside the result, not as errors, so a
// broken ticketing backend degrades the turn instead of crashing it.
type IncidentResult struct {
	Success        bool                   `json:"success"`
	IncidentId     string                 `json:"incident_id,omitempty"`
	IncidentNumber string                 `json:"incident_number,omitempty"`
	Message        string                 `json:"message,omitempty"`
	StatusCode     int                    `json:"status_code,omitempty"`
	Error          string                 `json:"error,omitempty"`
	FullResponse   map[string]interface{} `json:"full_response,omitempty"`
}

// CreateIncident logs an incident. Status defaults to "Logged".
func (c *Client) CreateIncident(ctx context.Context, req IncidentRequest) IncidentResult {
	if req.Status == "" {
		req.Status = "Logged"
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return IncidentResult{Success: false, Error: fmt.Sprintf("marshal payload: %v", err)}
	}

	url := c.baseURL + "/incidents"
	c.logger.Printf("[IVANTI] POST %s subject=%q", url, req.Subject)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return IncidentResult{Success: false, Error: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Printf("[ERROR] Ivanti API call failed: %v", err)
		return IncidentResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return IncidentResult{Success: false, Error: err.Error()}
	}

	if resp.StatusCode >= 400 {
		c.logger.Printf("[ERROR] Ivanti HTTP %d: %.500s", resp.StatusCode, string(bodyBytes))
		return IncidentResult{Success: false, StatusCode: resp.StatusCode, Error: string(bodyBytes)}
	}

	var data map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &data); err != nil {
		data = map[string]interface{}{"raw": string(bodyBytes)}
	}

	result := IncidentResult{
		Success:      true,
		FullResponse: data,
	}
	if id, ok := data["incident_id"].(string); ok {
		result.IncidentId = id
	}
	if msg, ok := data["message"].(string); ok {
		result.Message = msg
	}
	if inner, ok := data["data"].(map[string]interface{}); ok {
		if number, ok := inner["IncidentNumber"].(string); ok {
			result.IncidentNumber = number
		}
	}
	return result
}
