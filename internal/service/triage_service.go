// FILE: internal/service/triage_service.go
package service

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"itsm-triage-be/internal/dto"
	"itsm-triage-be/internal/pkg/logger"
	"itsm-triage-be/pkg/events"
	pktNats "itsm-triage-be/pkg/nats"
	"itsm-triage-be/pkg/triage"
	"itsm-triage-be/pkg/triage/agent"
	"itsm-triage-be/pkg/triage/history"
	"itsm-triage-be/pkg/triage/policy"

	"github.com/google/uuid"
)

type ITriageService interface {
	SendMessage(ctx context.Context, req *dto.SendTriageMessageRequest) (*dto.SendTriageMessageResponse, error)
	TriageTicket(ctx context.Context, req *dto.TriageTicketRequest) (*dto.SendTriageMessageResponse, error)
	ClassifyTicket(req *dto.ClassifyTicketRequest) policy.ClassificationResult
	History(ctx context.Context, conversationId string) (*dto.ConversationHistoryResponse, error)
}

type triageService struct {
	orchestrator   *triage.Orchestrator
	classifier     *policy.Classifier
	histories      history.Store
	auditPublisher IPublisherService
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewTriageService(
	orchestrator *triage.Orchestrator,
	classifier *policy.Classifier,
	histories history.Store,
	auditPublisher IPublisherService,
	eventPublisher *pktNats.Publisher,
	logger logger.ILogger,
) ITriageService {
	return &triageService{
		orchestrator:   orchestrator,
		classifier:     classifier,
		histories:      histories,
		auditPublisher: auditPublisher,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *triageService) SendMessage(ctx context.Context, req *dto.SendTriageMessageRequest) (*dto.SendTriageMessageResponse, error) {
	result := s.orchestrator.ProcessTurn(ctx, triage.TurnRequest{
		ConversationId: req.ConversationId,
		Text:           req.Message,
		Image:          s.decodeImage(req.ConversationId, req.ImageBase64),
		Contact: agent.ContactInfo{
			Email:     req.Email,
			Phone:     req.Phone,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
	})

	s.publishAudit(ctx, req.ConversationId, result)
	s.publishEvents(ctx, req.ConversationId, result)

	return s.toMessageResponse(req.ConversationId, result), nil
}

// TriageTicket runs a structured ticket through the same pipeline as a
// chat turn. A missing conversation id gets a generated one so the
// transcript and any follow-up remain addressable.
func (s *triageService) TriageTicket(ctx context.Context, req *dto.TriageTicketRequest) (*dto.SendTriageMessageResponse, error) {
	conversationId := req.ConversationId
	if conversationId == "" {
		conversationId = "ticket-" + uuid.NewString()
	}

	result := s.orchestrator.ProcessTicket(ctx, triage.TicketRequest{
		ConversationId:    conversationId,
		Subject:           req.Subject,
		Description:       req.Description,
		UserEmail:         req.Email,
		PhoneNumber:       req.Phone,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		AdditionalContext: req.AdditionalContext,
		Image:             s.decodeImage(conversationId, req.ImageBase64),
	})

	s.publishAudit(ctx, conversationId, result)
	s.publishEvents(ctx, conversationId, result)

	return s.toMessageResponse(conversationId, result), nil
}

func (s *triageService) decodeImage(conversationId, imageBase64 string) []byte {
	if imageBase64 == "" {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		s.logger.Warn("TRIAGE", "Dropping undecodable image attachment", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
		return nil
	}
	return decoded
}

func (s *triageService) toMessageResponse(conversationId string, result *triage.TriageResult) *dto.SendTriageMessageResponse {
	return &dto.SendTriageMessageResponse{
		ConversationId: conversationId,
		Priority:       result.Priority,
		Category:       result.Category,
		Team:           result.Team,
		Summary:        result.Summary,
		KbUsed:         result.KbUsed,
		KbSufficient:   result.KbSufficient,
		Urgency:        result.Urgency,
		ProposedAction: result.ProposedAction,
		Actions:        result.Actions,
		ToolResults:    result.ToolResults,
		Final:          result.Final,
		KbHitsCount:    result.KbHitsCount,
		KbResults:      result.KbResults,
		Timestamp:      result.Timestamp,
		Status:         result.Status,
	}
}

func (s *triageService) ClassifyTicket(req *dto.ClassifyTicketRequest) policy.ClassificationResult {
	return s.classifier.Classify(req.Subject, req.Description)
}

// History returns the recent durable transcript for one conversation,
// oldest first.
func (s *triageService) History(ctx context.Context, conversationId string) (*dto.ConversationHistoryResponse, error) {
	messages, err := s.histories.Load(ctx, conversationId)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ConversationMessageResponse, len(messages))
	for i, m := range messages {
		out[i] = dto.ConversationMessageResponse{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return &dto.ConversationHistoryResponse{
		ConversationId: conversationId,
		Messages:       out,
	}, nil
}

// publishAudit hands the turn to the async audit consumer. Audit loss is
// logged, never surfaced: the user already has their answer.
func (s *triageService) publishAudit(ctx context.Context, conversationId string, result *triage.TriageResult) {
	payload := dto.PublishTriageAuditMessage{
		ConversationId: conversationId,
		Priority:       result.Priority,
		Category:       result.Category,
		Team:           result.Team,
		Status:         result.Status,
		Summary:        result.Summary,
		KbUsed:         result.KbUsed,
		KbHitsCount:    result.KbHitsCount,
		KbSufficient:   result.KbSufficient,
		Final:          result.Final,
		ToolResults:    result.ToolResults,
		KbResults:      result.KbResults,
	}
	msgJson, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("TRIAGE", "Failed to marshal audit payload", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
		return
	}
	if err := s.auditPublisher.Publish(ctx, msgJson); err != nil {
		s.logger.Error("TRIAGE", "Failed to publish audit message", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	}
}

func (s *triageService) publishEvents(ctx context.Context, conversationId string, result *triage.TriageResult) {
	if s.eventPublisher == nil {
		return
	}

	evt := events.NewTriageCompletedEvent(conversationId, result.Priority, result.Category, result.Team, result.Status, result.KbHitsCount)
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("TRIAGE", "Failed to publish event", map[string]interface{}{
			"event_type": evt.EventType(),
			"error":      err.Error(),
		})
	}

	if raw, ok := result.ToolResults[agent.ToolCreateIncident]; ok {
		if number, created := toolResultReference(raw, "incident_number"); created {
			evt := events.NewIncidentCreatedEvent(conversationId, number, result.Priority, result.Team)
			if err := s.eventPublisher.Publish(ctx, evt); err != nil {
				s.logger.Warn("TRIAGE", "Failed to publish event", map[string]interface{}{
					"event_type": evt.EventType(),
					"error":      err.Error(),
				})
			}
		}
	}
	if raw, ok := result.ToolResults[agent.ToolCreateCallback]; ok {
		if contactId, created := toolResultReference(raw, "contact_id"); created {
			evt := events.NewCallbackCreatedEvent(conversationId, contactId, result.Priority)
			if err := s.eventPublisher.Publish(ctx, evt); err != nil {
				s.logger.Warn("TRIAGE", "Failed to publish event", map[string]interface{}{
					"event_type": evt.EventType(),
					"error":      err.Error(),
				})
			}
		}
	}
}

// toolResultReference pulls the success flag and a reference field out of
// an untyped tool result. The payload may come from our own clients or
// be echoed by the model, so everything is checked.
func toolResultReference(raw interface{}, field string) (string, bool) {
	data, err := json.Marshal(raw)
	if err != nil {
		return "", false
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false
	}
	success, _ := parsed["success"].(bool)
	if !success {
		return "", false
	}
	ref, _ := parsed[field].(string)
	return ref, true
}
