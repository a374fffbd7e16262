package contract

import (
	"context"

	"itsm-triage-be/pkg/store"
)

// StateRepository is the fast-path store for per-conversation dialog state.
// A miss is not an error: implementations return (nil, nil) when the
// conversation has no cached state, and callers fall back to the durable
// message history.
type StateRepository interface {
	Get(ctx context.Context, conversationId string) (*store.Conversation, error)
	Set(ctx context.Context, conversation *store.Conversation) error
	Delete(ctx context.Context, conversationId string) error
}
