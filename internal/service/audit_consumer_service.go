// FILE: internal/service/audit_consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"itsm-triage-be/internal/dto"
	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IAuditConsumerService interface {
	Consume(ctx context.Context) error
}

type auditConsumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
}

func NewAuditConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
) IAuditConsumerService {
	return &auditConsumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
	}
}

func (cs *auditConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *auditConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishTriageAuditMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal audit message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	toolResults, err := json.Marshal(payload.ToolResults)
	if err != nil {
		toolResults = []byte("{}")
	}
	kbResults, err := json.Marshal(payload.KbResults)
	if err != nil {
		kbResults = []byte("[]")
	}

	audit := &entity.TriageAudit{
		Id:             uuid.New(),
		ConversationId: payload.ConversationId,
		Priority:       payload.Priority,
		Category:       payload.Category,
		Team:           payload.Team,
		Status:         payload.Status,
		Summary:        payload.Summary,
		KbUsed:         payload.KbUsed,
		KbHitsCount:    payload.KbHitsCount,
		KbSufficient:   payload.KbSufficient,
		Final:          payload.Final,
		ToolResults:    datatypes.JSON(toolResults),
		KbResults:      datatypes.JSON(kbResults),
		CreatedAt:      time.Now(),
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TriageAuditRepository().Create(ctx, audit); err != nil {
		log.Printf("[ERROR] Failed to persist triage audit for %s: %v", payload.ConversationId, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	log.Printf("[INFO] Audit recorded for conversation %s (status=%s priority=%s)", payload.ConversationId, payload.Status, payload.Priority)
	msg.Ack()
}
