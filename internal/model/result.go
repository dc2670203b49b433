package model

// SearchItem is one hit returned by a source
type SearchItem struct {
	Content string `json:"content"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`

	Authority AuthorityTier `json:"authority,omitempty"` // Set when results are graded
}

// SearchResult is either a list of items or an error message.
// Callers must check IsErr before reading Items.
type SearchResult struct {
	Items []SearchItem `json:"items,omitempty"`
	Err   string       `json:"error,omitempty"`
}

// OK builds a successful result
func OK(items []SearchItem) SearchResult {
	if items == nil {
		items = []SearchItem{}
	}
	return SearchResult{Items: items}
}

// Failed builds an error result
func Failed(message string) SearchResult {
	if message == "" {
		message = "unknown error"
	}
	return SearchResult{Err: message}
}

// IsErr reports whether the result carries an error
func (r SearchResult) IsErr() bool {
	return r.Err != ""
}

// Empty reports whether a successful result has no usable content
func (r SearchResult) Empty() bool {
	if r.IsErr() {
		return false
	}
	for _, item := range r.Items {
		if item.Content != "" {
			return false
		}
	}
	return true
}

// SummaryOutcome is the product of the model fallback chain
type SummaryOutcome struct {
	Summary   string   `json:"summary"`
	Warnings  []string `json:"warnings"`
	Model     string   `json:"model,omitempty"`     // Model that produced Summary
	LastError string   `json:"last_error,omitempty"` // Last observed failure, if any
	Failed    bool     `json:"failed"`
}
