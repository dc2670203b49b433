package validate

import (
	"testing"

	"github.com/ppiankov/varsig/internal/model"
)

func TestAuthorityClassifier_DefaultTiers(t *testing.T) {
	classifier := NewAuthorityClassifier(nil)

	tests := []struct {
		url      string
		expected model.AuthorityTier
		desc     string
	}{
		{"https://pubmed.ncbi.nlm.nih.gov/12068308/", model.TierPrimary, "PubMed subdomain"},
		{"https://www.oncokb.org/gene/BRAF/V600E", model.TierPrimary, "Curated knowledge base"},
		{"https://www.cancer.gov/types/skin", model.TierPrimary, "Government host"},
		{"https://med.stanford.edu/braf", model.TierPrimary, ".edu host"},
		{"https://www.nejm.org/doi/full/10.1056/NEJMoa1103782", model.TierSecondary, "Journal"},
		{"https://ascopubs.org/doi/10.1200/JCO.2011.36.8000", model.TierSecondary, "Society journal"},
		{"https://www.somehealthblog.com/braf", model.TierTertiary, "Unknown blog"},
		{"not a url", model.TierTertiary, "Unparseable URL"},
		{"", model.TierTertiary, "Empty URL"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := classifier.Classify(tt.url); got != tt.expected {
				t.Errorf("Expected %v for %s, got %v", tt.expected, tt.url, got)
			}
		})
	}
}

func TestAuthorityClassifier_DomainMapWins(t *testing.T) {
	classifier := NewAuthorityClassifier(&model.AuthorityConfig{
		PrimaryDomains: []string{"example.org"},
		DomainMap:      map[string]string{"blog.example.org": "tertiary", "Lab.Example.com": "1"},
	})

	if got := classifier.Classify("https://blog.example.org/post"); got != model.TierTertiary {
		t.Errorf("Expected tertiary from domain map, got %v", got)
	}
	if got := classifier.Classify("https://www.example.org/"); got != model.TierPrimary {
		t.Errorf("Expected primary for subdomain, got %v", got)
	}
	if got := classifier.Classify("https://lab.example.com:8443/x"); got != model.TierPrimary {
		t.Errorf("Expected primary for mapped host with port, got %v", got)
	}
}

func TestAuthorityClassifier_Grade(t *testing.T) {
	classifier := NewAuthorityClassifier(nil)

	items := []model.SearchItem{
		{URL: "https://blog.example.com/a", Content: "a"},
		{URL: "https://www.nature.com/articles/b", Content: "b"},
		{URL: "https://www.ncbi.nlm.nih.gov/c", Content: "c"},
	}

	graded := classifier.Grade(items)

	want := []model.AuthorityTier{model.TierTertiary, model.TierSecondary, model.TierPrimary}
	for i, item := range graded {
		if item.Content != items[i].Content {
			t.Errorf("position %d: order changed, got %s", i, item.Content)
		}
		if item.Authority != want[i] {
			t.Errorf("position %d: expected %v, got %v", i, want[i], item.Authority)
		}
	}
	if items[0].Authority != model.TierUnknown {
		t.Error("Grade must not modify its input")
	}
}

func TestAuthorityTier_String(t *testing.T) {
	if model.TierPrimary.String() != "primary" || model.TierUnknown.String() != "unknown" {
		t.Error("unexpected tier names")
	}
}
