package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConversationMessage is one durable turn in a conversation.
// ConversationId is the opaque identifier supplied by the chat transport
// (Teams conversation id, CLI session id, ...), so it is a plain string
// rather than a UUID.
type ConversationMessage struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationId string    `gorm:"index"`
	Role           string
	Content        string
	CreatedAt      time.Time
}
