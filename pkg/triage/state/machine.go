package state

import (
	"context"
	"log"
	"strings"

	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/pkg/store"
	"itsm-triage-be/pkg/triage/history"
	"itsm-triage-be/pkg/triage/prompt"
)

// choiceTokens is the closed set of normalized inputs that count as an
// answer to the two-option prompt.
var choiceTokens = map[string]bool{
	"1":               true,
	"2":               true,
	"one":             true,
	"two":             true,
	"incident":        true,
	"callback":        true,
	"create incident": true,
	"create callback": true,
	"option 1":        true,
	"option 2":        true,
	"ticket":          true,
	"call me":         true,
	"call me back":    true,
}

// Machine tracks per-conversation dialog state. The injected state store
// is a cache; durable history is the source of truth after a restart.
type Machine struct {
	states contract.StateRepository
	logger *log.Logger
}

func NewMachine(states contract.StateRepository, logger *log.Logger) *Machine {
	return &Machine{
		states: states,
		logger: logger,
	}
}

// Current returns the cached state for a conversation, defaulting to NEW
// when nothing is cached.
func (m *Machine) Current(ctx context.Context, conversationId string) string {
	conv, err := m.states.Get(ctx, conversationId)
	if err != nil {
		m.logger.Printf("[ERROR] State lookup failed for %s: %v", conversationId, err)
		return store.StateNew
	}
	if conv == nil {
		return store.StateNew
	}
	return conv.State
}

// Transition records the new state for a conversation.
func (m *Machine) Transition(ctx context.Context, conversationId, newState string) {
	err := m.states.Set(ctx, &store.Conversation{
		ID:    conversationId,
		State: newState,
	})
	if err != nil {
		m.logger.Printf("[ERROR] State transition to %s failed for %s: %v", newState, conversationId, err)
		return
	}
	m.logger.Printf("[STATE] Conversation %s -> %s", conversationId, newState)
}

// IsFollowupReply reports whether input answers a previously issued
// two-option prompt. Both legs must hold: the input is a choice token,
// and the conversation is waiting for a choice. The cache is consulted
// first; when cold, the most recent assistant turn in durable history is
// fingerprinted against the prompt text.
func (m *Machine) IsFollowupReply(ctx context.Context, conversationId, input string, messages []history.Message) bool {
	if !IsChoiceToken(input) {
		return false
	}

	conv, err := m.states.Get(ctx, conversationId)
	if err != nil {
		m.logger.Printf("[ERROR] State lookup failed for %s: %v", conversationId, err)
		conv = nil
	}
	if conv != nil {
		return conv.State == store.StateWaitingForChoice
	}

	// Cache is cold (restart or TTL eviction). Recover from history.
	if m.lastAssistantTurnWasChoicePrompt(messages) {
		m.logger.Printf("[STATE] Recovered WAITING_FOR_CHOICE for %s from durable history", conversationId)
		m.Transition(ctx, conversationId, store.StateWaitingForChoice)
		return true
	}
	return false
}

func (m *Machine) lastAssistantTurnWasChoicePrompt(messages []history.Message) bool {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != history.RoleAssistant {
			continue
		}
		content := messages[i].Content
		for _, fingerprint := range prompt.ChoicePromptFingerprints {
			if strings.Contains(content, fingerprint) {
				return true
			}
		}
		return false
	}
	return false
}

// IsChoiceToken reports whether the normalized input is in the closed
// choice vocabulary.
func IsChoiceToken(input string) bool {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.Trim(normalized, ".!?")
	return choiceTokens[normalized]
}

// ChosenOption maps a choice token to option 1 (incident) or 2
// (callback). Returns 0 when the input is not a recognized token.
func ChosenOption(input string) int {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.Trim(normalized, ".!?")
	switch normalized {
	case "1", "one", "incident", "create incident", "option 1", "ticket":
		return 1
	case "2", "two", "callback", "create callback", "option 2", "call me", "call me back":
		return 2
	default:
		return 0
	}
}
