package model

import "time"

// ComparableCandidate wraps a property with the similarity score computed
// for one discovery call. Candidates are never persisted; the score is
// recomputed on every call.
type ComparableCandidate struct {
	Property        Property `json:"property"`
	SimilarityScore float64  `json:"similarity_score"`
	DistanceMiles   *float64 `json:"distance_miles,omitempty"`
}

// SaleEntryStatus is the lifecycle state of a curated comparable sale.
type SaleEntryStatus string

const (
	SaleEntryStatusActive    SaleEntryStatus = "active"
	SaleEntryStatusInactive  SaleEntryStatus = "inactive"
	SaleEntryStatusWithdrawn SaleEntryStatus = "withdrawn"
)

// ComparableSaleEntry is an analyst-curated comparable sale referencing a
// subject parcel. Entries are soft-retired via Status, never deleted by the
// engine.
type ComparableSaleEntry struct {
	ID                string            `json:"id"`
	SubjectPropertyID string            `json:"subject_property_id"`
	CompPropertyID    string            `json:"comp_property_id,omitempty"`
	SaleDate          *time.Time        `json:"sale_date,omitempty"`
	SalePrice         *string           `json:"sale_price,omitempty"`     // decimal string
	AdjustedPrice     *string           `json:"adjusted_price,omitempty"` // decimal string
	DistanceMiles     *float64          `json:"distance_miles,omitempty"`
	SimilarityScore   *float64          `json:"similarity_score,omitempty"`
	AdjustmentFactors map[string]string `json:"adjustment_factors,omitempty"`
	Status            SaleEntryStatus   `json:"status"`
	Version           int64             `json:"version"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// State returns the patchable fields as a flat map for lineage diffing.
func (e *ComparableSaleEntry) State() map[string]any {
	m := map[string]any{
		"comp_property_id": e.CompPropertyID,
		"status":           string(e.Status),
	}
	if e.SaleDate != nil {
		m["sale_date"] = e.SaleDate.UTC().Format(time.RFC3339)
	} else {
		m["sale_date"] = nil
	}
	putOptString(m, "sale_price", e.SalePrice)
	putOptString(m, "adjusted_price", e.AdjustedPrice)
	if e.DistanceMiles != nil {
		m["distance_miles"] = *e.DistanceMiles
	} else {
		m["distance_miles"] = nil
	}
	if e.SimilarityScore != nil {
		m["similarity_score"] = *e.SimilarityScore
	} else {
		m["similarity_score"] = nil
	}
	if e.AdjustmentFactors != nil {
		m["adjustment_factors"] = e.AdjustmentFactors
	}
	return m
}

// ApplyPatch writes patch values onto the sale entry. Unknown keys are ignored.
func (e *ComparableSaleEntry) ApplyPatch(patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "comp_property_id":
			if s, ok := v.(string); ok {
				e.CompPropertyID = s
			}
		case "status":
			if s, ok := v.(string); ok {
				e.Status = SaleEntryStatus(s)
			}
		case "sale_date":
			switch val := v.(type) {
			case nil:
				e.SaleDate = nil
			case string:
				if t, err := time.Parse(time.RFC3339, val); err == nil {
					e.SaleDate = &t
				}
			case time.Time:
				e.SaleDate = &val
			}
		case "sale_price":
			e.SalePrice = patchOptString(v)
		case "adjusted_price":
			e.AdjustedPrice = patchOptString(v)
		case "distance_miles":
			switch val := v.(type) {
			case nil:
				e.DistanceMiles = nil
			case float64:
				e.DistanceMiles = &val
			}
		case "similarity_score":
			switch val := v.(type) {
			case nil:
				e.SimilarityScore = nil
			case float64:
				e.SimilarityScore = &val
			}
		case "adjustment_factors":
			if m, ok := v.(map[string]string); ok {
				e.AdjustmentFactors = m
			}
		}
	}
}

func putOptString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	} else {
		m[key] = nil
	}
}

func patchOptString(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return &val
	}
	return nil
}
