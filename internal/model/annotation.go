package model

import "encoding/json"

// UnknownVariant is the knowledge-base sentinel for variants it has no record of
const UnknownVariant = "UNKNOWN"

// AnnotationQuery identifies a variant for a knowledge-base lookup.
// Fields are sent as given; normalization happens in the query package.
type AnnotationQuery struct {
	Gene       string `json:"gene"`
	Alteration string `json:"alteration"`
	TumorType  string `json:"tumor_type,omitempty"`
}

// Annotation is the parsed knowledge-base response
type Annotation struct {
	Found          bool            `json:"found"`
	GeneSummary    string          `json:"gene_summary,omitempty"`
	VariantSummary string          `json:"variant_summary,omitempty"`
	Treatments     []Treatment     `json:"treatments,omitempty"`
	Diagnostic     []Implication   `json:"diagnostic,omitempty"`
	Prognostic     []Implication   `json:"prognostic,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// Treatment is a therapy entry with its evidence level
type Treatment struct {
	Drugs      []string `json:"drugs"`
	Level      string   `json:"level,omitempty"`
	Indication string   `json:"indication,omitempty"`
}

// Implication is a diagnostic or prognostic entry
type Implication struct {
	LevelOfEvidence string `json:"level_of_evidence,omitempty"`
	TumorType       string `json:"tumor_type,omitempty"`
}
