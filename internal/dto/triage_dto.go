package dto

import (
	"time"

	"itsm-triage-be/pkg/kb"
)

type SendTriageMessageRequest struct {
	ConversationId string `json:"conversation_id" validate:"required"`
	Message        string `json:"message" validate:"required"`
	ImageBase64    string `json:"image_base64,omitempty"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string `json:"phone,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
}

type SendTriageMessageResponse struct {
	ConversationId string                 `json:"conversation_id"`
	Priority       string                 `json:"priority"`
	Category       string                 `json:"category"`
	Team           string                 `json:"team"`
	Summary        string                 `json:"summary"`
	KbUsed         bool                   `json:"kb_used"`
	KbSufficient   bool                   `json:"kb_sufficient"`
	Urgency        string                 `json:"urgency"`
	ProposedAction string                 `json:"proposed_action"`
	Actions        []string               `json:"actions"`
	ToolResults    map[string]interface{} `json:"tool_results"`
	Final          bool                   `json:"final"`
	KbHitsCount    int                    `json:"kb_hits_count"`
	KbResults      []kb.KnowledgeHit      `json:"kb_results"`
	Timestamp      time.Time              `json:"timestamp"`
	Status         string                 `json:"status"`
}

type TriageTicketRequest struct {
	ConversationId    string `json:"conversation_id,omitempty"`
	Subject           string `json:"subject" validate:"required"`
	Description       string `json:"description" validate:"required"`
	Email             string `json:"email,omitempty" validate:"omitempty,email"`
	Phone             string `json:"phone,omitempty"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
	ImageBase64       string `json:"image_base64,omitempty"`
}

type ConversationMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationHistoryResponse struct {
	ConversationId string                        `json:"conversation_id"`
	Messages       []ConversationMessageResponse `json:"messages"`
}

type ClassifyTicketRequest struct {
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// PublishTriageAuditMessage is the payload published per turn for the
// audit consumer.
type PublishTriageAuditMessage struct {
	ConversationId string                 `json:"conversation_id"`
	Priority       string                 `json:"priority"`
	Category       string                 `json:"category"`
	Team           string                 `json:"team"`
	Status         string                 `json:"status"`
	Summary        string                 `json:"summary"`
	KbUsed         bool                   `json:"kb_used"`
	KbHitsCount    int                    `json:"kb_hits_count"`
	KbSufficient   bool                   `json:"kb_sufficient"`
	Final          bool                   `json:"final"`
	ToolResults    map[string]interface{} `json:"tool_results"`
	KbResults      []kb.KnowledgeHit      `json:"kb_results"`
}
