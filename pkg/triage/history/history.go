package history

import (
	"context"
	"log"
	"time"

	"itsm-triage-be/internal/repository/specification"
	"itsm-triage-be/internal/repository/unitofwork"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one durable conversation turn.
type Message struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store is the durable, append-only per-conversation transcript.
type Store interface {
	Load(ctx context.Context, conversationId string) ([]Message, error)
	Append(ctx context.Context, conversationId, role, content string) error
}

// Loader persists conversation turns through the repository layer.
type Loader struct {
	factory unitofwork.RepositoryFactory
	limit   int
	logger  *log.Logger
}

var _ Store = &Loader{}

// NewLoader caps Load at limit messages (most recent first in the query,
// returned chronologically). limit <= 0 falls back to 10.
func NewLoader(factory unitofwork.RepositoryFactory, limit int, logger *log.Logger) *Loader {
	if limit <= 0 {
		limit = 10
	}
	return &Loader{
		factory: factory,
		limit:   limit,
		logger:  logger,
	}
}

func (l *Loader) Load(ctx context.Context, conversationId string) ([]Message, error) {
	uow := l.factory.NewUnitOfWork(ctx)

	rows, err := uow.ConversationMessageRepository().FindAll(
		ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: l.limit},
	)
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first; reverse into chronological order.
	messages := make([]Message, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = Message{
			Role:      row.Role,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		}
	}

	l.logger.Printf("[HISTORY] Loaded %d messages for conversation %s", len(messages), conversationId)
	return messages, nil
}

func (l *Loader) Append(ctx context.Context, conversationId, role, content string) error {
	uow := l.factory.NewUnitOfWork(ctx)
	return uow.ConversationMessageRepository().Create(ctx, newMessageRow(conversationId, role, content))
}
