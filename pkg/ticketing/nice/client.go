package nice

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
	"unicode"
)

// DefaultSkillId routes callbacks to the IT support skill queue.
const DefaultSkillId = "4354630"

// fallbackPhone is substituted when the caller-supplied number has fewer
// than 10 digits, so the queue entry is still created and an agent can
// chase the real number from the ticket.
const fallbackPhone = "9999999999"

// Client wraps the NICE inContact callback queue API.
type Client struct {
	baseURL string
	skillId string
	client  *http.Client
	logger  *log.Logger
}

func NewClient(baseURL, skillId string, timeout time.Duration, logger *log.Logger) *Client {
	if skillId == "" {
		skillId = DefaultSkillId
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		skillId: skillId,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CallbackRequest carries the caller-facing fields; queue routing fields
// are filled in by the client.
type CallbackRequest struct {
	PhoneNumber string
	EmailFrom   string
	FirstName   string
	LastName    string
	Notes       string
	Priority    int
	MediaType   int
}

// CallbackResult mirrors the tool_results entry embedded into the agent
// decision. Failures are reported inside the result, not as errors.
type CallbackResult struct {
	Success      bool                   `json:"success"`
	ContactId    string                 `json:"contact_id,omitempty"`
	Message      string                 `json:"message,omitempty"`
	StatusCode   int                    `json:"status_code,omitempty"`
	Error        string                 `json:"error,omitempty"`
	FullResponse map[string]interface{} `json:"full_response,omitempty"`
}

type callbackPayload struct {
	SkillId           string      `json:"skillId"`
	MediaType         int         `json:"mediaType"`
	WorkItemQueueType interface{} `json:"workItemQueueType"`
	IsActive          bool        `json:"isActive"`
	PhoneNumber       string      `json:"phoneNumber"`
	EmailFromEditable bool        `json:"emailFromEditable"`
	EmailFrom         string      `json:"emailFrom"`
	EmailBccAddress   string      `json:"emailBccAddress"`
	FirstName         string      `json:"firstName"`
	LastName          string      `json:"lastName"`
	Priority          int         `json:"priority"`
	TargetAgentId     interface{} `json:"targetAgentId"`
	Notes             string      `json:"notes"`
}

// CreateCallback enqueues a callback request. Priority defaults to 5 and
// media type to 4 (work item).
func (c *Client) CreateCallback(ctx context.Context, req CallbackRequest) CallbackResult {
	if req.Priority <= 0 {
		req.Priority = 5
	}
	if req.MediaType <= 0 {
		req.MediaType = 4
	}

	payload := callbackPayload{
		SkillId:           c.skillId,
		MediaType:         req.MediaType,
		IsActive:          true,
		PhoneNumber:       cleanPhone(req.PhoneNumber),
		EmailFromEditable: true,
		EmailFrom:         req.EmailFrom,
		EmailBccAddress:   req.EmailFrom,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Priority:          req.Priority,
		Notes:             req.Notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return CallbackResult{Success: false, Error: fmt.Sprintf("marshal payload: %v", err)}
	}

	url := c.baseURL + "/callback-queue"
	c.logger.Printf("[NICE] POST %s", url)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return CallbackResult{Success: false, Error: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Printf("[ERROR] NICE API call failed: %v", err)
		return CallbackResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return CallbackResult{Success: false, Error: err.Error()}
	}

	if resp.StatusCode >= 400 {
		c.logger.Printf("[ERROR] NICE HTTP %d: %.500s", resp.StatusCode, string(bodyBytes))
		return CallbackResult{Success: false, StatusCode: resp.StatusCode, Error: string(bodyBytes)}
	}

	var data map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &data); err != nil {
		data = map[string]interface{}{"raw": string(bodyBytes)}
	}

	result := CallbackResult{
		Success:      true,
		FullResponse: data,
	}
	if id, ok := data["contactId"].(string); ok {
		result.ContactId = id
	}
	if msg, ok := data["message"].(string); ok {
		result.Message = msg
	}
	return result
}

// cleanPhone strips everything but digits; numbers shorter than 10
// digits fall back to the placeholder.
func cleanPhone(phone string) string {
	var sb strings.Builder
	for _, ch := range phone {
		if unicode.IsDigit(ch) {
			sb.WriteRune(ch)
		}
	}
	if sb.Len() < 10 {
		return fallbackPhone
	}
	return sb.String()
}
