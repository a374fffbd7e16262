package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"itsm-triage-be/pkg/llm"
	"itsm-triage-be/pkg/triage/decision"
	"itsm-triage-be/pkg/triage/prompt"
)

const defaultMaxIterations = 4

// Group runs the reasoning model in a bounded loop: think, optionally
// execute one tool, feed the result back, repeat until a termination
// marker appears or the iteration budget runs out. The bound guards
// against a model that never emits the termination text.
type Group struct {
	provider      llm.LLMProvider
	parser        *decision.Parser
	tools         *ToolRunner
	maxIterations int
	logger        *log.Logger
}

var _ ReasoningAgent = &Group{}

func NewGroup(provider llm.LLMProvider, tools *ToolRunner, maxIterations int, logger *log.Logger) *Group {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	return &Group{
		provider:      provider,
		parser:        decision.NewParser(),
		tools:         tools,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

func (g *Group) Run(ctx context.Context, history []llm.Message, contact ContactInfo) (*RunResult, error) {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: TriageInstructions})
	messages = append(messages, history...)

	toolResults := map[string]interface{}{}
	var lastOut string

	for i := 0; i < g.maxIterations; i++ {
		out, err := g.provider.Chat(ctx, messages, llm.WithTemperature(0.1))
		if err != nil {
			return nil, fmt.Errorf("agent chat failed: %w", err)
		}
		lastOut = out
		messages = append(messages, llm.Message{Role: "assistant", Content: out})

		if terminated(out) {
			g.logger.Printf("[AGENT] Termination marker after %d iteration(s)", i+1)
			break
		}

		d, outcome := g.parser.Parse(out)
		if outcome == decision.ParsedFallback {
			// No structure to act on; ask for the decision again.
			messages = append(messages, llm.Message{
				Role:    "user",
				Content: `Reply with a single JSON decision object including "final": true.`,
			})
			continue
		}

		// Tools never run under ambiguous intent.
		if d.Urgency == decision.UrgencyAmbiguous || d.ProposedAction == decision.ActionAskUser {
			break
		}

		name, result, ran := g.tools.Execute(ctx, d, contact)
		if !ran || hasResult(toolResults, name) {
			break
		}
		toolResults[name] = result

		resultJSON, err := json.Marshal(result)
		if err != nil {
			resultJSON = []byte(fmt.Sprintf("%v", result))
		}
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: fmt.Sprintf("Tool %s returned: %s\nReport the outcome to the user in a final JSON decision with \"final\": true.", name, resultJSON),
		})
	}

	return &RunResult{
		RawText:     lastOut,
		ToolResults: toolResults,
	}, nil
}

func terminated(out string) bool {
	for _, marker := range prompt.TerminationMarkers {
		if strings.Contains(out, marker) {
			return true
		}
	}
	return false
}

func hasResult(results map[string]interface{}, name string) bool {
	_, ok := results[name]
	return ok
}
