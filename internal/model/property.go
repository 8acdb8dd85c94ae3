package model

import "time"

// PropertyType categorizes a parcel for assessment purposes.
type PropertyType string

const (
	PropertyTypeResidential  PropertyType = "Residential"
	PropertyTypeCommercial   PropertyType = "Commercial"
	PropertyTypeAgricultural PropertyType = "Agricultural"
	PropertyTypeIndustrial   PropertyType = "Industrial"
	PropertyTypeVacant       PropertyType = "Vacant"
)

// PropertyStatus represents the assessment status of a parcel.
type PropertyStatus string

const (
	PropertyStatusActive PropertyStatus = "active"
	PropertyStatusExempt PropertyStatus = "exempt"
	PropertyStatusSold   PropertyStatus = "sold"
)

// Property is a parcel under assessment. PropertyID is the stable business
// key (e.g. "BC001"), distinct from any storage-internal row id.
type Property struct {
	PropertyID   string         `json:"property_id"`
	PropertyType PropertyType   `json:"property_type"`
	Address      string         `json:"address,omitempty"`
	Acres        string         `json:"acres,omitempty"`         // decimal string
	CurrentValue *string        `json:"current_value,omitempty"` // decimal string, nil until assessed
	Status       PropertyStatus `json:"status"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
	Extension    map[string]any `json:"extension,omitempty"`
	Version      int64          `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Improvement is a structure on a parcel, keyed by the parcel's business id.
// A parcel may carry several improvements.
type Improvement struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"property_id"`
	SquareFootage *float64  `json:"square_footage,omitempty"`
	BedroomCount  *int      `json:"bedroom_count,omitempty"`
	BathroomCount *float64  `json:"bathroom_count,omitempty"`
	Quality       string    `json:"quality,omitempty"`
	Condition     string    `json:"condition,omitempty"`
	YearBuilt     *int      `json:"year_built,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// State returns the patchable fields of the property as a flat map, the form
// the mutation tracker diffs against. Extension keys are folded in at the
// top level so lineage records name the extension field directly.
func (p *Property) State() map[string]any {
	m := map[string]any{
		"property_type": string(p.PropertyType),
		"address":       p.Address,
		"acres":         p.Acres,
		"status":        string(p.Status),
	}
	if p.CurrentValue != nil {
		m["current_value"] = *p.CurrentValue
	} else {
		m["current_value"] = nil
	}
	for k, v := range p.Extension {
		m[k] = v
	}
	return m
}

// ApplyPatch writes patch values onto the property. Unknown keys land in the
// free-form extension map.
func (p *Property) ApplyPatch(patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "property_type":
			if s, ok := v.(string); ok {
				p.PropertyType = PropertyType(s)
			}
		case "address":
			if s, ok := v.(string); ok {
				p.Address = s
			}
		case "acres":
			if s, ok := v.(string); ok {
				p.Acres = s
			}
		case "status":
			if s, ok := v.(string); ok {
				p.Status = PropertyStatus(s)
			}
		case "current_value":
			switch val := v.(type) {
			case nil:
				p.CurrentValue = nil
			case string:
				p.CurrentValue = &val
			}
		default:
			if p.Extension == nil {
				p.Extension = make(map[string]any)
			}
			p.Extension[k] = v
		}
	}
}
