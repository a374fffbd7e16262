// FILE: test/integration/ollama_integration_test.go
// PURPOSE: Local Ollama integration test for the triage agent providers.
// NOTE: Requires a running Ollama server. Set OLLAMA_INTEGRATION=true to run.

package integration

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"itsm-triage-be/pkg/embedding"
	"itsm-triage-be/pkg/llm"
	"itsm-triage-be/pkg/llm/ollama"
	"itsm-triage-be/pkg/triage/decision"
)

const (
	ollamaBaseURL = "http://localhost:11434"
	ollamaModel   = "llama3"
	embedModel    = "nomic-embed-text"
)

func skipUnlessOllama(t *testing.T) {
	t.Helper()
	if os.Getenv("OLLAMA_INTEGRATION") != "true" {
		t.Skip("Skipping: set OLLAMA_INTEGRATION=true to run against a local Ollama server")
	}
}

// TestOllamaConnection verifies Ollama is running and accessible
func TestOllamaConnection(t *testing.T) {
	skipUnlessOllama(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", ollamaBaseURL, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("Ollama not running at %s: %v", ollamaBaseURL, err)
	}
	defer res.Body.Close()

	t.Logf("✅ Ollama is running at %s (status: %d)", ollamaBaseURL, res.StatusCode)
}

// TestOllamaTriageDecision drives a single triage turn through the real
// model and checks the output survives the decision parser.
func TestOllamaTriageDecision(t *testing.T) {
	skipUnlessOllama(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	provider := ollama.NewOllamaProvider(ollamaBaseURL, ollamaModel)

	messages := []llm.Message{
		{
			Role: "system",
			Content: `You are an IT support triage assistant. Respond ONLY with a JSON object
containing the keys: priority, category, team, summary, kb_used, kb_sufficient,
urgency, proposed_action, actions, tool_results, final.`,
		},
		{
			Role:    "user",
			Content: "KB_STATUS: KB_MISS\n\nMy laptop will not turn on at all, the power light stays off.",
		},
	}

	out, err := provider.Chat(ctx, messages, llm.WithTemperature(0.1))
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	t.Logf("Raw model output: %s", out)

	parser := decision.NewParser()
	d, outcome := parser.Parse(out)
	t.Logf("Parse outcome: %v, decision: %+v", outcome, d)

	if d.Summary == "" {
		t.Error("Parsed decision should always carry a summary")
	}
	// Small local models drift, so only log when the structure degraded.
	if outcome == decision.ParsedFallback {
		t.Logf("⚠️ Model output was not valid JSON, fallback decision used")
	}
}

// TestOllamaEmbeddingProvider checks the embedding path used by KB search.
func TestOllamaEmbeddingProvider(t *testing.T) {
	skipUnlessOllama(t)

	provider := embedding.NewOllamaProvider(ollamaBaseURL, embedModel)

	res, err := provider.Generate("vpn keeps disconnecting every few minutes", "RETRIEVAL_QUERY")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(res.Embedding.Values) == 0 {
		t.Fatal("Embedding should not be empty")
	}
	t.Logf("✅ Embedding dimension: %d", len(res.Embedding.Values))

	// Vectors are normalized before storage, so the norm should be ~1.
	var sum float64
	for _, v := range res.Embedding.Values {
		sum += float64(v) * float64(v)
	}
	if sum < 0.98 || sum > 1.02 {
		t.Errorf("Expected unit-length embedding, squared norm was %.4f", sum)
	}
}

// TestOllamaMultiTurnConversation tests context retention across turns,
// mirroring the follow-up choice flow.
func TestOllamaMultiTurnConversation(t *testing.T) {
	skipUnlessOllama(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	provider := ollama.NewOllamaProvider(ollamaBaseURL, ollamaModel)

	conversation := []llm.Message{
		{Role: "user", Content: "My name is John and my printer is broken."},
		{Role: "assistant", Content: "Sorry to hear that, John. Would you like me to create an incident?"},
		{Role: "user", Content: "What is my name?"},
	}

	response, err := provider.Chat(ctx, conversation)
	if err != nil {
		t.Fatalf("Multi-turn conversation failed: %v", err)
	}

	t.Logf("✅ Response: %s", response)

	if !strings.Contains(response, "John") {
		t.Logf("⚠️ Response may not correctly remember the name. Response: %s", response)
	}
}
