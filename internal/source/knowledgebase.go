package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/varsig/internal/model"
	"github.com/ppiankov/varsig/internal/worker"
)

// Annotator looks a variant up in a curated knowledge base
type Annotator interface {
	Annotate(ctx context.Context, q model.AnnotationQuery) (model.SearchResult, *model.Annotation)
}

// KnowledgeBase calls the OncoKB annotation API
type KnowledgeBase struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *worker.Limiter
}

// NewKnowledgeBase creates an OncoKB annotator. limiter may be nil.
func NewKnowledgeBase(baseURL, token string, httpClient *http.Client, limiter *worker.Limiter) *KnowledgeBase {
	if baseURL == "" {
		baseURL = "https://www.oncokb.org/api/v1"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &KnowledgeBase{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

type oncokbResponse struct {
	Query struct {
		Variant string `json:"variant"`
	} `json:"query"`
	GeneSummary    string `json:"geneSummary"`
	VariantSummary string `json:"variantSummary"`
	Treatments     []struct {
		Drugs []struct {
			DrugName string `json:"drugName"`
		} `json:"drugs"`
		Level      string `json:"level"`
		Indication struct {
			Name string `json:"name"`
		} `json:"indication"`
	} `json:"treatments"`
	DiagnosticImplications []oncokbImplication `json:"diagnosticImplications"`
	PrognosticImplications []oncokbImplication `json:"prognosticImplications"`
}

type oncokbImplication struct {
	LevelOfEvidence string `json:"levelOfEvidence"`
	TumorType       struct {
		Name string `json:"name"`
	} `json:"tumorType"`
}

// Annotate fetches the annotation for q. Parameters are sent as given and
// should already be normalized (see query.Annotation). A variant the knowledge
// base does not know yields an OK result with no items and Found=false.
func (k *KnowledgeBase) Annotate(ctx context.Context, q model.AnnotationQuery) (model.SearchResult, *model.Annotation) {
	params := url.Values{}
	params.Set("hugoSymbol", strings.ToUpper(q.Gene))
	params.Set("alteration", strings.ToUpper(q.Alteration))
	if q.TumorType != "" {
		params.Set("tumorType", strings.ToUpper(q.TumorType))
	}
	endpoint := k.baseURL + "/annotate/mutations/byProteinChange?" + params.Encode()

	if err := k.limiter.Wait(ctx, endpoint); err != nil {
		return model.Failed(fmt.Sprintf("rate limiter: %v", err)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Failed(fmt.Sprintf("create request: %v", err)), nil
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+k.token)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return model.Failed(fmt.Sprintf("OncoKB request: %v", err)), nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.Failed(fmt.Sprintf("read response: %v", err)), nil
	}

	if resp.StatusCode != http.StatusOK {
		return model.Failed(fmt.Sprintf("OncoKB request failed with status %d", resp.StatusCode)), nil
	}

	var parsed oncokbResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.Failed(fmt.Sprintf("malformed OncoKB response: %v", err)), nil
	}

	annotation := toAnnotation(parsed)
	annotation.Raw = json.RawMessage(body)

	if !annotation.Found {
		return model.OK(nil), annotation
	}

	return model.OK([]model.SearchItem{{
		Title:   fmt.Sprintf("OncoKB: %s %s", strings.ToUpper(q.Gene), strings.ToUpper(q.Alteration)),
		URL:     fmt.Sprintf("https://www.oncokb.org/gene/%s/%s", url.PathEscape(strings.ToUpper(q.Gene)), url.PathEscape(strings.ToUpper(q.Alteration))),
		Content: describeAnnotation(annotation),
	}}), annotation
}

func toAnnotation(r oncokbResponse) *model.Annotation {
	a := &model.Annotation{
		Found:          r.Query.Variant != model.UnknownVariant,
		GeneSummary:    strings.TrimSpace(r.GeneSummary),
		VariantSummary: strings.TrimSpace(r.VariantSummary),
	}

	for _, t := range r.Treatments {
		drugs := make([]string, 0, len(t.Drugs))
		for _, d := range t.Drugs {
			drugs = append(drugs, d.DrugName)
		}
		a.Treatments = append(a.Treatments, model.Treatment{
			Drugs:      drugs,
			Level:      t.Level,
			Indication: t.Indication.Name,
		})
	}
	for _, d := range r.DiagnosticImplications {
		a.Diagnostic = append(a.Diagnostic, model.Implication{LevelOfEvidence: d.LevelOfEvidence, TumorType: d.TumorType.Name})
	}
	for _, p := range r.PrognosticImplications {
		a.Prognostic = append(a.Prognostic, model.Implication{LevelOfEvidence: p.LevelOfEvidence, TumorType: p.TumorType.Name})
	}

	return a
}

// describeAnnotation flattens an annotation into prompt-ready text
func describeAnnotation(a *model.Annotation) string {
	var b strings.Builder

	if a.GeneSummary != "" {
		fmt.Fprintf(&b, "Gene summary: %s\n", a.GeneSummary)
	}
	if a.VariantSummary != "" {
		fmt.Fprintf(&b, "Variant summary: %s\n", a.VariantSummary)
	}
	for _, t := range a.Treatments {
		fmt.Fprintf(&b, "Treatment: %s (level %s) for %s\n", strings.Join(t.Drugs, " + "), t.Level, t.Indication)
	}
	for _, d := range a.Diagnostic {
		fmt.Fprintf(&b, "Diagnostic implication: %s in %s\n", d.LevelOfEvidence, d.TumorType)
	}
	for _, p := range a.Prognostic {
		fmt.Fprintf(&b, "Prognostic implication: %s in %s\n", p.LevelOfEvidence, p.TumorType)
	}

	return strings.TrimSpace(b.String())
}
