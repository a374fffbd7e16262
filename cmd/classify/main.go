package main

import (
	"encoding/json"
	"fmt"
	"os"

	"itsm-triage-be/internal/config"
	"itsm-triage-be/pkg/triage/policy"

	"github.com/fatih/color"
)

// Offline ticket classifier. Runs the keyword scoring path only, no LLM
// and no database, so results are reproducible from the command line:
//
//	go run ./cmd/classify "server down" "production outage, all users affected"
func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: classify <subject> <description>")
		os.Exit(2)
	}
	subject := os.Args[1]
	description := os.Args[2]

	cfg := config.Load()
	classifier := policy.NewClassifier(cfg.Triage.AutoEscalateThreshold)

	result := classifier.Classify(subject, description)

	color.Cyan("🎫 Ticket Classification")
	color.Yellow("\nSubject:     %s", subject)
	color.Yellow("Description: %s", description)

	fmt.Println()
	color.Green("Priority:   %s (confidence %.2f)", result.Priority, result.PriorityConfidence)
	color.Green("Category:   %s (confidence %.2f)", result.Category, result.CategoryConfidence)
	color.Green("Team:       %s", result.Team)
	color.Green("Urgency:    %s", result.UrgencyLevel)
	if result.EscalationGate == policy.GateAutoEscalate {
		color.Red("Gate:       %s", result.EscalationGate)
	} else {
		color.Blue("Gate:       %s", result.EscalationGate)
	}

	fmt.Println()
	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
}
