package memory

import (
	"context"
	"time"

	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type StateRepository struct {
	cache *cache.Cache
}

// NewStateRepository builds the in-process state store. Entries expire
// after ttl of inactivity; expired items are purged every 10 minutes.
func NewStateRepository(ttl time.Duration) contract.StateRepository {
	c := cache.New(ttl, 10*time.Minute)
	return &StateRepository{
		cache: c,
	}
}

func (r *StateRepository) Get(_ context.Context, conversationId string) (*store.Conversation, error) {
	if x, found := r.cache.Get(conversationId); found {
		return x.(*store.Conversation), nil
	}
	return nil, nil
}

func (r *StateRepository) Set(_ context.Context, conversation *store.Conversation) error {
	conversation.UpdatedAt = time.Now()
	r.cache.Set(conversation.ID, conversation, cache.DefaultExpiration)
	return nil
}

func (r *StateRepository) Delete(_ context.Context, conversationId string) error {
	r.cache.Delete(conversationId)
	return nil
}
