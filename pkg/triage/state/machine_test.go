package state

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"itsm-triage-be/internal/repository/memory"
	"itsm-triage-be/pkg/store"
	"itsm-triage-be/pkg/triage/history"
	"itsm-triage-be/pkg/triage/prompt"
)

func newTestMachine() *Machine {
	logger := log.New(os.Stderr, "[test] ", log.LstdFlags)
	return NewMachine(memory.NewStateRepository(time.Hour), logger)
}

func TestIsChoiceToken(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"2", true},
		{" 2 ", true},
		{"ONE", true},
		{"incident", true},
		{"Call me back", true},
		{"option 2", true},
		{"ticket", true},
		{"2.", true},
		{"my vpn is broken", false},
		{"option 3", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsChoiceToken(tt.input); got != tt.want {
			t.Errorf("IsChoiceToken(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestChosenOption(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1", 1},
		{"one", 1},
		{"ticket", 1},
		{"create incident", 1},
		{"2", 2},
		{"two", 2},
		{"call me back", 2},
		{"callback", 2},
		{"something else", 0},
	}

	for _, tt := range tests {
		if got := ChosenOption(tt.input); got != tt.want {
			t.Errorf("ChosenOption(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestIsFollowupReplyRequiresWaitingState(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		state string
		input string
		want  bool
	}{
		{"waiting and choice token", store.StateWaitingForChoice, "2", true},
		{"waiting and word token", store.StateWaitingForChoice, "callback", true},
		{"resolved and choice token", store.StateResolved, "2", false},
		{"new and choice token", store.StateNew, "1", false},
		{"waiting but not a token", store.StateWaitingForChoice, "my printer is on fire", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			m.Transition(ctx, "conv-1", tt.state)

			if got := m.IsFollowupReply(ctx, "conv-1", tt.input, nil); got != tt.want {
				t.Errorf("IsFollowupReply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFollowupReplyRecoversFromHistory(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine()

	// Cold cache: the last assistant turn carries the two-option prompt.
	messages := []history.Message{
		{Role: history.RoleUser, Content: "my vpn is broken"},
		{Role: history.RoleAssistant, Content: prompt.AskUserPrompt},
	}

	if !m.IsFollowupReply(ctx, "conv-cold", "2", messages) {
		t.Fatal("expected recovery of WAITING_FOR_CHOICE from history")
	}
	if got := m.Current(ctx, "conv-cold"); got != store.StateWaitingForChoice {
		t.Errorf("Current = %q, want %q after recovery", got, store.StateWaitingForChoice)
	}
}

func TestIsFollowupReplyColdCacheOrdinaryHistory(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine()

	messages := []history.Message{
		{Role: history.RoleUser, Content: "how do I reset my password"},
		{Role: history.RoleAssistant, Content: "Use the self-service portal."},
	}

	if m.IsFollowupReply(ctx, "conv-cold-2", "2", messages) {
		t.Error("a numeric reply after an ordinary answer is not a follow-up")
	}
}

func TestCurrentDefaultsToNew(t *testing.T) {
	m := newTestMachine()
	if got := m.Current(context.Background(), "never-seen"); got != store.StateNew {
		t.Errorf("Current = %q, want %q", got, store.StateNew)
	}
}
