package history

import (
	"time"

	"itsm-triage-be/internal/entity"

	"github.com/google/uuid"
)

func newMessageRow(conversationId, role, content string) *entity.ConversationMessage {
	return &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}
