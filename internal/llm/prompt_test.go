package llm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/varsig/internal/model"
)

func TestBuildPrompt_BasicStructure(t *testing.T) {
	items := []model.SearchItem{
		{Title: "BRAF V600E", URL: "https://example.com/braf", Content: "BRAF V600E is oncogenic."},
		{Title: "Empty", URL: "https://example.com/empty"},
	}

	prompt := BuildPrompt("BRAF V600E", "melanoma", model.SourceWeb, items)

	required := []string{
		"BRAF V600E in melanoma",
		"CRITICAL RULES",
		"https://example.com/braf",
		"BRAF V600E is oncogenic.",
	}
	for _, s := range required {
		if !strings.Contains(prompt, s) {
			t.Errorf("Expected prompt to contain %q", s)
		}
	}
	if strings.Contains(prompt, "https://example.com/empty") {
		t.Error("Items without content must be skipped")
	}
	if strings.Contains(prompt, "OncoKB") {
		t.Error("Web prompt must not mention the knowledge base rule")
	}
}

func TestBuildPrompt_KnowledgeBase(t *testing.T) {
	prompt := BuildPrompt("BRAF V600E", "", model.SourceKnowledgeBase, []model.SearchItem{{Content: "Treatment: Dabrafenib"}})

	if !strings.Contains(prompt, "curated OncoKB annotation") {
		t.Error("Expected knowledge-base rule")
	}
	if strings.Contains(prompt, " in .") {
		t.Error("Blank tumor type must not add a qualifier")
	}
}

func TestBuildPrompt_ManyItems(t *testing.T) {
	var items []model.SearchItem
	for i := 0; i < 15; i++ {
		items = append(items, model.SearchItem{Content: "x"})
	}

	prompt := BuildPrompt("TP53 R175H", "", model.SourceWeb, items)

	if !strings.Contains(prompt, "... and 5 more results") {
		t.Error("Expected truncation message for items beyond the limit")
	}
}

func TestBuildPrompt_EmptyItemsDoNotUseUpTheLimit(t *testing.T) {
	var items []model.SearchItem
	for i := 0; i < 10; i++ {
		items = append(items, model.SearchItem{URL: fmt.Sprintf("https://example.com/empty/%d", i)})
	}
	items = append(items, model.SearchItem{Content: "REAL EVIDENCE", URL: "https://example.com/real"})

	prompt := BuildPrompt("BRAF V600E", "", model.SourceWeb, items)

	if !strings.Contains(prompt, "REAL EVIDENCE") {
		t.Error("Expected content-bearing item beyond ten empty ones to be included")
	}
	if !strings.Contains(prompt, "[1] (https://example.com/real)") {
		t.Errorf("Expected evidence to be numbered from 1, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "more results") {
		t.Error("Empty items must not count toward the truncation message")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abc", 5); got != "abc" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate long = %q", got)
	}
}
