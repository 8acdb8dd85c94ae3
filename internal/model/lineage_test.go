package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSource(t *testing.T) {
	for _, s := range []ChangeSource{SourceImport, SourceManual, SourceAPI, SourceCalculated, SourceValidated, SourceCorrection} {
		assert.True(t, ValidSource(s), string(s))
	}
	assert.False(t, ValidSource("guess"))
	assert.False(t, ValidSource(""))
}

func TestCanonicalValue(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want FieldValue
	}{
		{"nil", nil, FieldValue{Kind: ValueKindNull}},
		{"string verbatim", "active", FieldValue{Kind: ValueKindString, Value: "active"}},
		{"empty string", "", FieldValue{Kind: ValueKindString, Value: ""}},
		{"numeric-looking string stays string", "285000", FieldValue{Kind: ValueKindString, Value: "285000"}},
		{"time", ts, FieldValue{Kind: ValueKindString, Value: "2026-03-14T09:26:53Z"}},
		{"int", 42, FieldValue{Kind: ValueKindJSON, Value: "42"}},
		{"float", 2.5, FieldValue{Kind: ValueKindJSON, Value: "2.5"}},
		{"bool", true, FieldValue{Kind: ValueKindJSON, Value: "true"}},
		{"map", map[string]string{"location": "-5000"}, FieldValue{Kind: ValueKindJSON, Value: `{"location":"-5000"}`}},
		{"slice", []int{1, 2}, FieldValue{Kind: ValueKindJSON, Value: "[1,2]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalValue(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalValueCoercion(t *testing.T) {
	// Channels cannot be JSON encoded; the value degrades to a fmt string
	// and ok reports the degradation.
	got, ok := CanonicalValue(make(chan int))
	assert.False(t, ok)
	assert.Equal(t, ValueKindString, got.Kind)
	assert.NotEmpty(t, got.Value)
}

func TestFieldValueEqual(t *testing.T) {
	a := FieldValue{Kind: ValueKindString, Value: "3"}
	b := FieldValue{Kind: ValueKindJSON, Value: "3"}
	assert.True(t, a.Equal(a))
	// Same text, different kind: not equal. A string "3" and a number 3
	// are distinct changes.
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(FieldValue{Kind: ValueKindString, Value: "4"}))
}
