// Package query turns user-supplied variants into source queries.
package query

import (
	"errors"
	"strings"

	"github.com/ppiankov/varsig/internal/model"
)

// Placeholder is substituted with the variant in search templates
const Placeholder = "{variant}"

// ErrUnparseableVariant is returned when a variant is not in "GENE ALTERATION" form
var ErrUnparseableVariant = errors.New("variant must be in 'GENE ALTERATION' form")

// Templates are the named query templates accepted in place of a literal pattern
var Templates = map[string]string{
	"default":     model.DefaultTemplate,
	"investigate": "Please investigate the clinical significance of " + Placeholder,
}

// ResolveTemplate returns the named template, or s itself when s is not a name
func ResolveTemplate(s string) string {
	if t, ok := Templates[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	if strings.TrimSpace(s) == "" {
		return model.DefaultTemplate
	}
	return s
}

// Build substitutes variant into template and appends " in <tumorType>" when
// tumorType is not blank. Templates are trusted and never escaped.
func Build(template, variant, tumorType string) string {
	q := strings.ReplaceAll(template, Placeholder, variant)
	if t := strings.TrimSpace(tumorType); t != "" {
		q += " in " + t
	}
	return q
}

// Item is an active variant with its position in the caller's input
type Item struct {
	Index   int
	Variant string
}

// Active returns the trimmed, non-blank variants in input order
func Active(variants []string) []Item {
	items := make([]Item, 0, len(variants))
	for i, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		items = append(items, Item{Index: i, Variant: v})
	}
	return items
}

// ParseVariant splits a variant on its first whitespace run into gene and alteration
func ParseVariant(variant string) (gene, alteration string, err error) {
	fields := strings.Fields(variant)
	if len(fields) < 2 {
		return "", "", ErrUnparseableVariant
	}
	gene = fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(variant), gene))
	return gene, rest, nil
}

// Annotation builds a normalized knowledge-base query for variant.
// Gene, alteration and tumor type are uppercased and a leading protein-change
// prefix ("p.") is removed from the alteration.
func Annotation(variant, tumorType string) (model.AnnotationQuery, error) {
	gene, alteration, err := ParseVariant(variant)
	if err != nil {
		return model.AnnotationQuery{}, err
	}

	alteration = strings.ToUpper(alteration)
	alteration = strings.TrimPrefix(alteration, "P.")

	return model.AnnotationQuery{
		Gene:       strings.ToUpper(gene),
		Alteration: alteration,
		TumorType:  strings.ToUpper(strings.TrimSpace(tumorType)),
	}, nil
}

// Describe renders an annotation query as the string recorded on a VariantRecord
func Describe(q model.AnnotationQuery) string {
	s := "hugoSymbol=" + q.Gene + "&alteration=" + q.Alteration
	if q.TumorType != "" {
		s += "&tumorType=" + q.TumorType
	}
	return s
}
