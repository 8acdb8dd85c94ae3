package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeSource is the provenance tag attached to every lineage record.
type ChangeSource string

const (
	SourceImport     ChangeSource = "import"
	SourceManual     ChangeSource = "manual"
	SourceAPI        ChangeSource = "api"
	SourceCalculated ChangeSource = "calculated"
	SourceValidated  ChangeSource = "validated"
	SourceCorrection ChangeSource = "correction"
)

// ValidSource reports whether s is one of the known provenance tags.
func ValidSource(s ChangeSource) bool {
	switch s {
	case SourceImport, SourceManual, SourceAPI, SourceCalculated, SourceValidated, SourceCorrection:
		return true
	}
	return false
}

// ValueKind tags how a lineage value was serialized so readers can
// reconstruct the type instead of guessing from content.
type ValueKind string

const (
	ValueKindString ValueKind = "string" // stored verbatim
	ValueKindJSON   ValueKind = "json"   // JSON-encoded
	ValueKindNull   ValueKind = "null"   // field was absent or nil
)

// FieldValue is the canonical serialized form of a tracked field value.
type FieldValue struct {
	Kind  ValueKind `json:"kind"`
	Value string    `json:"value"`
}

// CanonicalValue serializes v for lineage storage: native strings are stored
// as-is, nil becomes a null marker, everything else is JSON-encoded. When
// JSON encoding fails the value is coerced via fmt and ok is false so the
// caller can log the degradation without failing the primary mutation.
func CanonicalValue(v any) (fv FieldValue, ok bool) {
	switch val := v.(type) {
	case nil:
		return FieldValue{Kind: ValueKindNull}, true
	case string:
		return FieldValue{Kind: ValueKindString, Value: val}, true
	case time.Time:
		return FieldValue{Kind: ValueKindString, Value: val.UTC().Format(time.RFC3339)}, true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return FieldValue{Kind: ValueKindString, Value: fmt.Sprintf("%v", v)}, false
	}
	return FieldValue{Kind: ValueKindJSON, Value: string(b)}, true
}

// Equal reports value equality of two canonical forms.
func (fv FieldValue) Equal(other FieldValue) bool {
	return fv.Kind == other.Kind && fv.Value == other.Value
}

// LineageRecord is one field-level change. Records are immutable once
// written; corrections are new forward-dated records with SourceCorrection.
type LineageRecord struct {
	ID              string            `json:"id"`
	EntityKind      string            `json:"entity_kind"`
	EntityID        string            `json:"entity_id"`
	FieldName       string            `json:"field_name"`
	OldValue        FieldValue        `json:"old_value"`
	NewValue        FieldValue        `json:"new_value"`
	ChangeTimestamp time.Time         `json:"change_timestamp"`
	Source          ChangeSource      `json:"source"`
	ActingUserID    *string           `json:"acting_user_id,omitempty"`
	SourceDetails   map[string]string `json:"source_details,omitempty"`
}
