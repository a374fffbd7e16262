package triage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"itsm-triage-be/internal/repository/memory"
	"itsm-triage-be/pkg/kb"
	"itsm-triage-be/pkg/llm"
	"itsm-triage-be/pkg/store"
	"itsm-triage-be/pkg/triage/agent"
	"itsm-triage-be/pkg/triage/decision"
	"itsm-triage-be/pkg/triage/history"
	"itsm-triage-be/pkg/triage/prompt"
	"itsm-triage-be/pkg/triage/state"
)

type fakeHistoryStore struct {
	mu       sync.Mutex
	messages map[string][]history.Message
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{messages: map[string][]history.Message{}}
}

func (f *fakeHistoryStore) Load(_ context.Context, conversationId string) ([]history.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[conversationId], nil
}

func (f *fakeHistoryStore) Append(_ context.Context, conversationId, role, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[conversationId] = append(f.messages[conversationId], history.Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeHistoryStore) count(conversationId string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[conversationId])
}

type fakeSearcher struct {
	mu        sync.Mutex
	result    *kb.QueryResult
	calls     int
	lastQuery string
	lastImage []byte
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int, image []byte) *kb.QueryResult {
	f.mu.Lock()
	f.calls++
	f.lastQuery = query
	f.lastImage = image
	f.mu.Unlock()
	if f.result == nil {
		return kb.Miss()
	}
	return f.result
}

type fakeReasoner struct {
	output      string
	toolResults map[string]interface{}
	err         error
	calls       int
	lastHistory []llm.Message
	lastContact agent.ContactInfo
}

func (f *fakeReasoner) Run(_ context.Context, messages []llm.Message, contact agent.ContactInfo) (*agent.RunResult, error) {
	f.calls++
	f.lastHistory = messages
	f.lastContact = contact
	if f.err != nil {
		return nil, f.err
	}
	results := f.toolResults
	if results == nil {
		results = map[string]interface{}{}
	}
	return &agent.RunResult{RawText: f.output, ToolResults: results}, nil
}

func newTestOrchestrator(histories history.Store, searcher kb.Searcher, reasoner agent.ReasoningAgent) (*Orchestrator, *state.Machine) {
	logger := log.New(os.Stderr, "[test] ", log.LstdFlags)
	machine := state.NewMachine(memory.NewStateRepository(time.Hour), logger)
	return NewOrchestrator(histories, machine, searcher, reasoner, 5, logger), machine
}

func TestProcessTurnHappyPath(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{result: &kb.QueryResult{
		HitCount: 2,
		Hits: []kb.KnowledgeHit{
			{Title: "VPN guide", Content: "steps"},
			{Title: "VPN faq", Content: "answers"},
		},
	}}
	reasoner := &fakeReasoner{
		output: `{"priority": "P3", "category": "Network", "team": "Infrastructure Team", "summary": "Follow the VPN guide.", "kb_used": true, "kb_sufficient": true, "urgency": "non_urgent", "proposed_action": "kb_answer", "final": true}`,
	}
	o, machine := newTestOrchestrator(histories, searcher, reasoner)

	result := o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c1", Text: "vpn is broken"})

	if result.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", result.Status, StatusCompleted)
	}
	if result.KbHitsCount != 2 || len(result.KbResults) != 2 {
		t.Errorf("KbHitsCount = %d with %d results, want 2/2", result.KbHitsCount, len(result.KbResults))
	}
	if !result.KbUsed {
		t.Error("KbUsed should survive when hits exist")
	}
	if result.Summary != "Follow the VPN guide." {
		t.Errorf("Summary = %q", result.Summary)
	}
	if got := machine.Current(context.Background(), "c1"); got != store.StateResolved {
		t.Errorf("state = %q, want %q", got, store.StateResolved)
	}
	if histories.count("c1") != 2 {
		t.Errorf("persisted %d messages, want 2", histories.count("c1"))
	}
}

func TestProcessTurnForcesKbClaimOnMiss(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{result: kb.Miss()}
	reasoner := &fakeReasoner{
		output: `{"summary": "I found a great KB article!", "kb_used": true, "kb_sufficient": true, "urgency": "non_urgent", "final": true}`,
	}
	o, _ := newTestOrchestrator(histories, searcher, reasoner)

	result := o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c2", Text: "obscure question"})

	if result.KbUsed || result.KbSufficient {
		t.Error("zero-hit turns must never report KB usage")
	}
	if result.KbHitsCount != 0 {
		t.Errorf("KbHitsCount = %d, want 0", result.KbHitsCount)
	}
}

func TestProcessTurnAmbiguousIntent(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	reasoner := &fakeReasoner{
		output: `{"summary": "Should I open a ticket?", "urgency": "ambiguous", "proposed_action": "ask_user", "tool_results": {"create_incident": {"success": true}}, "final": true}`,
	}
	o, machine := newTestOrchestrator(histories, searcher, reasoner)

	result := o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c3", Text: "something is off"})

	if result.Summary != prompt.AskUserPrompt {
		t.Errorf("Summary = %q, want the verbatim two-option prompt", result.Summary)
	}
	if len(result.ToolResults) != 0 {
		t.Errorf("ToolResults = %v, want empty", result.ToolResults)
	}
	if result.Final {
		t.Error("Final must be false under ambiguity")
	}
	if got := machine.Current(context.Background(), "c3"); got != store.StateWaitingForChoice {
		t.Errorf("state = %q, want %q", got, store.StateWaitingForChoice)
	}
}

func TestProcessTurnFollowupSkipsSearch(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	ambiguous := &fakeReasoner{
		output: `{"summary": "not sure", "urgency": "ambiguous", "proposed_action": "ask_user", "final": true}`,
	}
	o, machine := newTestOrchestrator(histories, searcher, ambiguous)

	o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c4", Text: "weird problem"})
	if got := machine.Current(context.Background(), "c4"); got != store.StateWaitingForChoice {
		t.Fatalf("setup failed, state = %q", got)
	}
	searchesAfterFirstTurn := searcher.calls

	// Swap in a reasoner that resolves the follow-up.
	o.reasoner = &fakeReasoner{
		output:      `{"summary": "Callback created.", "urgency": "urgent", "proposed_action": "callback", "final": true}`,
		toolResults: map[string]interface{}{"create_callback": map[string]interface{}{"success": true}},
	}

	result := o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c4", Text: "2"})

	if searcher.calls != searchesAfterFirstTurn {
		t.Errorf("search ran %d extra time(s) on a follow-up turn", searcher.calls-searchesAfterFirstTurn)
	}
	if result.KbHitsCount != 0 {
		t.Errorf("KbHitsCount = %d on follow-up, want 0", result.KbHitsCount)
	}
	if len(result.ToolResults) != 1 {
		t.Errorf("ToolResults = %v, want the callback result", result.ToolResults)
	}
	if got := machine.Current(context.Background(), "c4"); got != store.StateResolved {
		t.Errorf("state = %q, want %q", got, store.StateResolved)
	}
}

func TestProcessTurnChoiceTokenWithoutWaitingState(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	reasoner := &fakeReasoner{
		output: `{"summary": "Answering the number two.", "urgency": "non_urgent", "final": true}`,
	}
	o, _ := newTestOrchestrator(histories, searcher, reasoner)

	o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c5", Text: "2"})

	if searcher.calls != 1 {
		t.Errorf("search calls = %d, want 1: a bare choice token outside WAITING_FOR_CHOICE takes the KB path", searcher.calls)
	}
}

func TestProcessTurnIntermediateTurnKeepsWaitingState(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	clarifying := &fakeReasoner{
		output: `{"summary": "Which building are you in?", "urgency": "non_urgent", "final": false}`,
	}
	o, machine := newTestOrchestrator(histories, searcher, clarifying)

	machine.Transition(context.Background(), "c7", store.StateWaitingForChoice)

	// A free-text turn that is neither final nor a choice prompt must
	// leave the waiting state intact.
	o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c7", Text: "it happens on my work laptop"})

	if got := machine.Current(context.Background(), "c7"); got != store.StateWaitingForChoice {
		t.Fatalf("state = %q after intermediate turn, want %q", got, store.StateWaitingForChoice)
	}

	// The pending choice must still be honored afterwards.
	searchesBefore := searcher.calls
	o.reasoner = &fakeReasoner{
		output:      `{"summary": "Callback created.", "urgency": "urgent", "proposed_action": "callback", "final": true}`,
		toolResults: map[string]interface{}{"create_callback": map[string]interface{}{"success": true}},
	}
	result := o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c7", Text: "2"})

	if searcher.calls != searchesBefore {
		t.Error("choice token after an intermediate turn must still be a follow-up, not a new search")
	}
	if len(result.ToolResults) != 1 {
		t.Errorf("ToolResults = %v, want the callback result", result.ToolResults)
	}
}

func TestProcessTurnAnnotatesImageAttachment(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	reasoner := &fakeReasoner{
		output: `{"summary": "That error dialog means the print spooler died.", "urgency": "non_urgent", "final": true}`,
	}
	o, _ := newTestOrchestrator(histories, searcher, reasoner)

	image := []byte{0x89, 'P', 'N', 'G'}
	o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c8", Text: "what does this error mean", Image: image})

	if string(searcher.lastImage) != string(image) {
		t.Error("image payload must be forwarded to the searcher")
	}

	turn := reasoner.lastHistory[len(reasoner.lastHistory)-1]
	annotation := "[User attached an image that has been embedded for visual search]"
	annotationAt := strings.Index(turn.Content, annotation)
	if annotationAt < 0 {
		t.Fatalf("turn content missing the image annotation: %q", turn.Content)
	}
	if kbAt := strings.Index(turn.Content, "=== KNOWLEDGE BASE"); kbAt >= 0 && annotationAt > kbAt {
		t.Error("annotation must follow the user text, before the KB block")
	}
}

func TestProcessTurnWithoutImageHasNoAnnotation(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	reasoner := &fakeReasoner{
		output: `{"summary": "done", "urgency": "non_urgent", "final": true}`,
	}
	o, _ := newTestOrchestrator(histories, searcher, reasoner)

	o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c9", Text: "plain text turn"})

	turn := reasoner.lastHistory[len(reasoner.lastHistory)-1]
	if strings.Contains(turn.Content, "[User attached an image") {
		t.Error("text-only turns must not claim an image attachment")
	}
}

func TestProcessTicketRendersStructuredTurn(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	reasoner := &fakeReasoner{
		output: `{"priority": "P3", "category": "Hardware", "team": "Desktop Support", "summary": "Replace the flickering panel.", "urgency": "non_urgent", "proposed_action": "kb_answer", "final": true}`,
	}
	o, machine := newTestOrchestrator(histories, searcher, reasoner)

	result := o.ProcessTicket(context.Background(), TicketRequest{
		ConversationId:    "t1",
		Subject:           "Laptop screen broken",
		Description:       "Screen flickers on boot",
		UserEmail:         "sam@example.com",
		PhoneNumber:       "555-0101",
		FirstName:         "Sam",
		LastName:          "Lee",
		AdditionalContext: "Started after the dock firmware update",
	})

	if searcher.lastQuery != "Laptop screen broken. Screen flickers on boot" {
		t.Errorf("KB search query = %q, want subject and description only", searcher.lastQuery)
	}

	turn := reasoner.lastHistory[len(reasoner.lastHistory)-1]
	for _, want := range []string{
		"New ITSM ticket:",
		"Subject: Laptop screen broken",
		"Description: Screen flickers on boot",
		"Email: sam@example.com",
		"Phone: 555-0101",
		"Name: Sam Lee",
		"Additional Context: Started after the dock firmware update",
	} {
		if !strings.Contains(turn.Content, want) {
			t.Errorf("rendered ticket missing %q in %q", want, turn.Content)
		}
	}
	if reasoner.lastContact.Email != "sam@example.com" || reasoner.lastContact.Phone != "555-0101" {
		t.Errorf("contact info not carried through: %+v", reasoner.lastContact)
	}

	if result.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", result.Status, StatusCompleted)
	}
	if got := machine.Current(context.Background(), "t1"); got != store.StateResolved {
		t.Errorf("state = %q, want %q", got, store.StateResolved)
	}
	if histories.count("t1") != 2 {
		t.Errorf("persisted %d messages, want 2", histories.count("t1"))
	}
}

func TestProcessTicketOmitsEmptyAdditionalContext(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	reasoner := &fakeReasoner{
		output: `{"summary": "done", "urgency": "non_urgent", "final": true}`,
	}
	o, _ := newTestOrchestrator(histories, searcher, reasoner)

	o.ProcessTicket(context.Background(), TicketRequest{
		ConversationId: "t2",
		Subject:        "VPN down",
		Description:    "Cannot connect since this morning",
	})

	turn := reasoner.lastHistory[len(reasoner.lastHistory)-1]
	if strings.Contains(turn.Content, "Additional Context:") {
		t.Error("empty additional context must not be rendered")
	}
}

func TestProcessTurnAgentFailureDegrades(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	reasoner := &fakeReasoner{err: errors.New("model endpoint unreachable")}
	o, _ := newTestOrchestrator(histories, searcher, reasoner)

	result := o.ProcessTurn(context.Background(), TurnRequest{ConversationId: "c6", Text: "help"})

	if result.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", result.Status, StatusFailed)
	}
	if !result.Final {
		t.Error("degraded result must be final")
	}
	if result.Summary != prompt.DegradedSummary {
		t.Errorf("Summary = %q, want the degraded apology", result.Summary)
	}
	if result.Priority != decision.Unknown {
		t.Errorf("Priority = %q, want %q", result.Priority, decision.Unknown)
	}
	if histories.count("c6") != 2 {
		t.Errorf("persisted %d messages, want 2 even on failure", histories.count("c6"))
	}
}

func TestProcessTurnConcurrentConversations(t *testing.T) {
	histories := newFakeHistoryStore()
	searcher := &fakeSearcher{}
	reasoner := &fakeReasoner{
		output: `{"summary": "done", "urgency": "non_urgent", "final": true}`,
	}
	o, _ := newTestOrchestrator(histories, searcher, reasoner)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			o.ProcessTurn(context.Background(), TurnRequest{
				ConversationId: fmt.Sprintf("conv-%d", n),
				Text:           "issue",
			})
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
