package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

type StateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateRepository backs conversation state with Redis so multiple
// replicas see the same dialog state. Keys expire after ttl of inactivity.
func NewStateRepository(client *redis.Client, ttl time.Duration) contract.StateRepository {
	return &StateRepository{
		client: client,
		ttl:    ttl,
	}
}

func key(conversationId string) string {
	return fmt.Sprintf("triage:state:%s", conversationId)
}

func (r *StateRepository) Get(ctx context.Context, conversationId string) (*store.Conversation, error) {
	raw, err := r.client.Get(ctx, key(conversationId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var conv store.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *StateRepository) Set(ctx context.Context, conversation *store.Conversation) error {
	conversation.UpdatedAt = time.Now()
	raw, err := json.Marshal(conversation)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key(conversation.ID), raw, r.ttl).Err()
}

func (r *StateRepository) Delete(ctx context.Context, conversationId string) error {
	return r.client.Del(ctx, key(conversationId)).Err()
}
