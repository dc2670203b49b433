package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/varsig/internal/model"
)

func sampleRecords() []model.VariantRecord {
	return []model.VariantRecord{
		{
			RunID:   "run-1",
			Variant: "BRAF V600E",
			Source:  model.SourceWeb,
			Query:   "clinical significance of genetic variant BRAF V600E",
			Result:  model.OK([]model.SearchItem{{Title: "BRAF review", URL: "https://example.com/braf", Content: "x"}}),
			Outcome: model.SummaryOutcome{
				Summary:  "Activating mutation.",
				Warnings: []string{"Model gemini-pro failed: not found"},
				Model:    "gemini-2.5-flash",
			},
		},
		{
			RunID:      "run-1",
			Index:      1,
			Variant:    "EGFR L858R",
			Source:     model.SourceKnowledgeBase,
			Query:      "hugoSymbol=EGFR&alteration=L858R",
			Result:     model.OK(nil),
			Annotation: &model.Annotation{Found: false, Raw: json.RawMessage(`{"query":{"variant":"UNKNOWN"}}`)},
			Outcome:    model.SummaryOutcome{Summary: NotFoundSummary, Warnings: []string{}},
		},
	}
}

func TestRenderer_JSONDropsRawByDefault(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false, false).WriteJSON(&buf, NewReport(records, model.DefaultTemplate, "")))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.Records, 2)
	assert.Empty(t, report.Records[1].Annotation.Raw)

	// The caller's records are untouched.
	assert.NotEmpty(t, records[1].Annotation.Raw)
}

func TestRenderer_JSONKeepsRawWhenAsked(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true, false).WriteJSON(&buf, NewReport(sampleRecords(), model.DefaultTemplate, "")))
	assert.Contains(t, buf.String(), "UNKNOWN")
}

func TestRenderer_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false, false).WriteMarkdown(&buf, NewReport(sampleRecords(), model.DefaultTemplate, "Melanoma")))

	out := buf.String()
	assert.Contains(t, out, "## BRAF V600E (web search)")
	assert.Contains(t, out, "## EGFR L858R (OncoKB)")
	assert.Contains(t, out, "- [BRAF review](https://example.com/braf)")
	assert.Contains(t, out, "Model gemini-pro failed")
	assert.Contains(t, out, "**Tumor type**: Melanoma")
	assert.NotContains(t, out, "Raw OncoKB data")
}

func TestRenderer_SummaryVerbosity(t *testing.T) {
	var quiet, verbose bytes.Buffer
	NewRenderer(false, false).RenderSummary(&quiet, sampleRecords())
	NewRenderer(false, true).RenderSummary(&verbose, sampleRecords())

	assert.Contains(t, quiet.String(), "1 model fallback warning(s)")
	assert.NotContains(t, quiet.String(), "Query:")
	assert.Contains(t, verbose.String(), "⚠ Model gemini-pro failed")
	assert.Contains(t, verbose.String(), "Query: hugoSymbol=EGFR&alteration=L858R")
	assert.Contains(t, verbose.String(), "✓ "+NotFoundSummary)
}

func TestRenderer_RenderJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, NewRenderer(false, false).RenderJSON(NewReport(sampleRecords(), model.DefaultTemplate, ""), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BRAF V600E")
}
