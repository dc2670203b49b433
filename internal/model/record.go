package model

// Source names a place variant evidence comes from
type Source string

const (
	SourceWeb           Source = "web"    // Web-search API
	SourceKnowledgeBase Source = "oncokb" // Curated oncology knowledge base
)

// ParseSource converts a user string to a Source
func ParseSource(s string) (Source, bool) {
	switch Source(s) {
	case SourceWeb:
		return SourceWeb, true
	case SourceKnowledgeBase, "kb":
		return SourceKnowledgeBase, true
	}
	return "", false
}

// VariantRecord joins one variant's query, search result and summary for a single run
type VariantRecord struct {
	RunID      string         `json:"run_id"`
	Index      int            `json:"index"` // Position in the caller's input list
	Variant    string         `json:"variant"`
	Source     Source         `json:"source"`
	Query      string         `json:"query"`
	Result     SearchResult   `json:"result"`
	Outcome    SummaryOutcome `json:"outcome"`
	Annotation *Annotation    `json:"annotation,omitempty"` // Knowledge-base source only
	Cached     bool           `json:"cached,omitempty"`
	Skipped    bool           `json:"skipped,omitempty"` // Variant unusable for this source
}
