package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/varsig/internal/model"
)

const (
	maxPromptItems     = 10   // Content-bearing items included in one prompt
	maxItemContentRune = 2000 // Content cap per item
)

// BuildPrompt constructs the summarization prompt for one variant from the
// evidence one source returned
func BuildPrompt(variant, tumorType string, src model.Source, items []model.SearchItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summarize the clinical significance of the genetic variant %s", variant)
	if t := strings.TrimSpace(tumorType); t != "" {
		fmt.Fprintf(&b, " in %s", t)
	}
	b.WriteString(".\n\n")

	b.WriteString(`CRITICAL RULES:
1. Use ONLY the evidence below. Do not add facts from memory.
2. If the evidence is insufficient or contradictory, state that explicitly.
3. Mention therapeutic, diagnostic and prognostic relevance when the evidence covers it.
4. Cite evidence by its URL when you rely on it.
`)

	if src == model.SourceKnowledgeBase {
		b.WriteString("5. The evidence is a curated OncoKB annotation; report evidence levels verbatim.\n")
	} else {
		b.WriteString("5. When sources disagree, prefer those marked as primary sources.\n")
	}

	evidence := make([]model.SearchItem, 0, len(items))
	for _, item := range items {
		if item.Content != "" {
			evidence = append(evidence, item)
		}
	}

	b.WriteString("\nEvidence:\n")
	for i, item := range evidence {
		if i >= maxPromptItems {
			fmt.Fprintf(&b, "\n... and %d more results\n", len(evidence)-maxPromptItems)
			break
		}

		fmt.Fprintf(&b, "\n[%d]", i+1)
		if item.Title != "" {
			fmt.Fprintf(&b, " %s", item.Title)
		}
		if item.URL != "" {
			fmt.Fprintf(&b, " (%s)", item.URL)
		}
		if item.Authority != model.TierUnknown {
			fmt.Fprintf(&b, " [%s source]", item.Authority)
		}
		fmt.Fprintf(&b, "\n%s\n", truncate(item.Content, maxItemContentRune))
	}

	b.WriteString("\nProvide a concise summary of 4-6 sentences for a molecular tumor board.")

	return b.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
