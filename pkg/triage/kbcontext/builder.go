package kbcontext

import (
	"fmt"
	"strings"

	"itsm-triage-be/pkg/kb"
)

const (
	// StatusMiss and StatusResultsAvailable are ground-truth markers the
	// reasoning agent is instructed to trust over its own recollection.
	StatusMiss             = "KB_STATUS=KB_MISS"
	StatusResultsAvailable = "KB_STATUS=KB_RESULTS_AVAILABLE"

	// contentBudget bounds each hit's serialized content to keep the
	// prompt within model context limits.
	contentBudget = 3000
)

// Builder renders a KB query result into the context block appended to
// the user's turn before the reasoning agent runs. Pure transform, no
// side effects.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the context block for one turn. A nil or empty result is
// treated identically to a zero-hit result.
func (b *Builder) Build(result *kb.QueryResult) string {
	if result == nil || result.HitCount == 0 || len(result.Hits) == 0 {
		return b.buildMiss()
	}
	return b.buildResults(result)
}

func (b *Builder) buildMiss() string {
	var sb strings.Builder
	sb.WriteString("=== KNOWLEDGE BASE SEARCH RESULT ===\n")
	sb.WriteString(StatusMiss + "\n")
	sb.WriteString("The knowledge base search returned ZERO results for this query.\n")
	sb.WriteString("You MUST NOT claim that knowledge base articles were found.\n")
	sb.WriteString("Set kb_used=false and kb_sufficient=false in your decision.\n")
	sb.WriteString("=== END KNOWLEDGE BASE SEARCH RESULT ===")
	return sb.String()
}

func (b *Builder) buildResults(result *kb.QueryResult) string {
	var textHits, imageHits []kb.KnowledgeHit
	for _, hit := range result.Hits {
		if hit.IsImage() {
			imageHits = append(imageHits, hit)
		} else {
			textHits = append(textHits, hit)
		}
	}

	var sb strings.Builder
	sb.WriteString("=== KNOWLEDGE BASE SEARCH RESULT ===\n")
	sb.WriteString(StatusResultsAvailable + "\n")
	sb.WriteString(fmt.Sprintf("Total hits: %d\n", result.HitCount))
	sb.WriteString(fmt.Sprintf("Text articles: %d, Image/screenshot results: %d\n", len(textHits), len(imageHits)))

	if len(textHits) > 0 {
		sb.WriteString("\n--- TEXT ARTICLES ---\n")
		for i, hit := range textHits {
			writeHit(&sb, i+1, hit)
		}
	}

	if len(imageHits) > 0 {
		sb.WriteString("\n--- IMAGE / SCREENSHOT RESULTS ---\n")
		for i, hit := range imageHits {
			writeHit(&sb, i+1, hit)
		}
	}

	sb.WriteString("=== END KNOWLEDGE BASE SEARCH RESULT ===")
	return sb.String()
}

func writeHit(sb *strings.Builder, index int, hit kb.KnowledgeHit) {
	sb.WriteString(fmt.Sprintf("[%d] %s\n", index, hit.Title))
	if hit.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", hit.Source))
	}
	sb.WriteString(fmt.Sprintf("Content: %s\n", truncate(hit.Content, contentBudget)))
	if hit.ImageURL != "" {
		sb.WriteString(fmt.Sprintf("Image: %s\n", hit.ImageURL))
	}
	if hit.PdfURL != "" {
		sb.WriteString(fmt.Sprintf("Document: %s\n", hit.PdfURL))
	}
	sb.WriteString("\n")
}

// truncate bounds text to limit characters, cutting on a rune boundary
// so multibyte content never ends in a broken code point.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "... [truncated]"
}
