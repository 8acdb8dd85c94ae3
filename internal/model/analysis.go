package model

import "time"

// AnalysisStatus is the lifecycle state of a reconciliation session.
type AnalysisStatus string

const (
	AnalysisStatusDraft    AnalysisStatus = "draft"
	AnalysisStatusInReview AnalysisStatus = "in_review"
	AnalysisStatusFinal    AnalysisStatus = "final"
)

// ComparableAnalysis is a named reconciliation session for one subject
// parcel. Once finalized it carries a single value conclusion and its
// entries reject further mutation.
type ComparableAnalysis struct {
	ID                string         `json:"id"`
	SubjectPropertyID string         `json:"subject_property_id"`
	Name              string         `json:"name"`
	Methodology       string         `json:"methodology,omitempty"`
	Status            AnalysisStatus `json:"status"`
	ValueConclusion   *string        `json:"value_conclusion,omitempty"` // decimal string
	Version           int64          `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// State returns the patchable fields as a flat map for lineage diffing.
func (a *ComparableAnalysis) State() map[string]any {
	m := map[string]any{
		"name":        a.Name,
		"methodology": a.Methodology,
		"status":      string(a.Status),
	}
	putOptString(m, "value_conclusion", a.ValueConclusion)
	return m
}

// ApplyPatch writes patch values onto the analysis. Unknown keys are ignored.
func (a *ComparableAnalysis) ApplyPatch(patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				a.Name = s
			}
		case "methodology":
			if s, ok := v.(string); ok {
				a.Methodology = s
			}
		case "status":
			if s, ok := v.(string); ok {
				a.Status = AnalysisStatus(s)
			}
		case "value_conclusion":
			a.ValueConclusion = patchOptString(v)
		}
	}
}

// AnalysisEntry links an analysis to one comparable sale entry with the
// analyst's weighting decisions. Mutable until the parent analysis is final.
type AnalysisEntry struct {
	ID                  string    `json:"id"`
	AnalysisID          string    `json:"analysis_id"`
	SaleEntryID         string    `json:"sale_entry_id"`
	Weight              string    `json:"weight"` // decimal string, default "1"
	IncludeInFinalValue bool      `json:"include_in_final_value"`
	AdjustedValue       *string   `json:"adjusted_value,omitempty"` // analyst override, decimal string
	Notes               string    `json:"notes,omitempty"`
	Version             int64     `json:"version"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// State returns the patchable fields as a flat map for lineage diffing.
func (e *AnalysisEntry) State() map[string]any {
	m := map[string]any{
		"weight":                 e.Weight,
		"include_in_final_value": e.IncludeInFinalValue,
		"notes":                  e.Notes,
	}
	putOptString(m, "adjusted_value", e.AdjustedValue)
	return m
}

// ApplyPatch writes patch values onto the entry. Unknown keys are ignored.
func (e *AnalysisEntry) ApplyPatch(patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "weight":
			if s, ok := v.(string); ok {
				e.Weight = s
			}
		case "include_in_final_value":
			if b, ok := v.(bool); ok {
				e.IncludeInFinalValue = b
			}
		case "notes":
			if s, ok := v.(string); ok {
				e.Notes = s
			}
		case "adjusted_value":
			e.AdjustedValue = patchOptString(v)
		}
	}
}
