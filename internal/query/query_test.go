package query

import (
	"errors"
	"testing"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		variant   string
		tumorType string
		want      string
	}{
		{
			name:     "no qualifier",
			template: "clinical significance of genetic variant {variant}",
			variant:  "BRAF V600E",
			want:     "clinical significance of genetic variant BRAF V600E",
		},
		{
			name:      "with qualifier",
			template:  "clinical significance of genetic variant {variant}",
			variant:   "BRAF V600E",
			tumorType: "Melanoma",
			want:      "clinical significance of genetic variant BRAF V600E in Melanoma",
		},
		{
			name:      "blank qualifier ignored",
			template:  "{variant} prognosis",
			variant:   "TP53 R175H",
			tumorType: "   ",
			want:      "TP53 R175H prognosis",
		},
		{
			name:      "qualifier trimmed",
			template:  "{variant}",
			variant:   "KRAS G12C",
			tumorType: "  Lung Adenocarcinoma ",
			want:      "KRAS G12C in Lung Adenocarcinoma",
		},
		{
			name:     "template without placeholder",
			template: "Please investigate",
			variant:  "EGFR L858R",
			want:     "Please investigate",
		},
		{
			name:     "no escaping",
			template: "\"{variant}\" & more",
			variant:  "A<B",
			want:     "\"A<B\" & more",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Build(tt.template, tt.variant, tt.tumorType); got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build("{variant} x", "BRAF V600E", "Melanoma")
	b := Build("{variant} x", "BRAF V600E", "Melanoma")
	if a != b {
		t.Errorf("expected equal queries, got %q and %q", a, b)
	}
	if Build("{variant}", "braf v600e", "") == Build("{variant}", "BRAF V600E", "") {
		t.Error("queries must be case-sensitive")
	}
}

func TestActive(t *testing.T) {
	items := Active([]string{" BRAF V600E ", "", "   ", "EGFR L858R"})
	if len(items) != 2 {
		t.Fatalf("expected 2 active variants, got %d", len(items))
	}
	if items[0].Variant != "BRAF V600E" || items[0].Index != 0 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Variant != "EGFR L858R" || items[1].Index != 3 {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestParseVariant(t *testing.T) {
	gene, alt, err := ParseVariant("EGFR  L858R")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gene != "EGFR" || alt != "L858R" {
		t.Errorf("got gene=%q alt=%q", gene, alt)
	}

	gene, alt, err = ParseVariant("EGFR exon 19 deletion")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gene != "EGFR" || alt != "exon 19 deletion" {
		t.Errorf("got gene=%q alt=%q", gene, alt)
	}

	if _, _, err := ParseVariant("BRAF"); !errors.Is(err, ErrUnparseableVariant) {
		t.Errorf("expected ErrUnparseableVariant, got %v", err)
	}
}

func TestAnnotation(t *testing.T) {
	q, err := Annotation("braf p.v600e", "melanoma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Gene != "BRAF" || q.Alteration != "V600E" || q.TumorType != "MELANOMA" {
		t.Errorf("unexpected query: %+v", q)
	}

	q, err = Annotation("EGFR L858R", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.TumorType != "" {
		t.Errorf("expected empty tumor type, got %q", q.TumorType)
	}
	if Describe(q) != "hugoSymbol=EGFR&alteration=L858R" {
		t.Errorf("unexpected description: %s", Describe(q))
	}

	if _, err := Annotation("KRAS", ""); !errors.Is(err, ErrUnparseableVariant) {
		t.Errorf("expected ErrUnparseableVariant, got %v", err)
	}
}

func TestResolveTemplate(t *testing.T) {
	tests := map[string]string{
		"investigate":             "Please investigate the clinical significance of {variant}",
		" Default ":               "clinical significance of genetic variant {variant}",
		"":                        "clinical significance of genetic variant {variant}",
		"{variant} pathogenicity": "{variant} pathogenicity",
	}

	for in, want := range tests {
		if got := ResolveTemplate(in); got != want {
			t.Errorf("ResolveTemplate(%q) = %q, want %q", in, got, want)
		}
	}
}
