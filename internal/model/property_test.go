package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyStateIncludesExtension(t *testing.T) {
	v := "310000"
	p := &Property{
		PropertyID:   "BC001",
		PropertyType: PropertyTypeResidential,
		Address:      "1100 Oak St",
		Acres:        "0.25",
		CurrentValue: &v,
		Status:       PropertyStatusActive,
		Extension:    map[string]any{"zoning": "R-1"},
	}

	m := p.State()
	assert.Equal(t, "Residential", m["property_type"])
	assert.Equal(t, "active", m["status"])
	assert.Equal(t, "310000", m["current_value"])
	assert.Equal(t, "R-1", m["zoning"])
}

func TestPropertyStateNilCurrentValue(t *testing.T) {
	p := &Property{PropertyID: "BC002", Status: PropertyStatusActive}
	m := p.State()
	val, present := m["current_value"]
	require.True(t, present)
	assert.Nil(t, val)
}

func TestPropertyApplyPatch(t *testing.T) {
	p := &Property{
		PropertyID:   "BC001",
		PropertyType: PropertyTypeResidential,
		Status:       PropertyStatusActive,
	}

	p.ApplyPatch(map[string]any{
		"status":        "exempt",
		"current_value": "295000",
		"flood_zone":    "AE",
	})

	assert.Equal(t, PropertyStatusExempt, p.Status)
	require.NotNil(t, p.CurrentValue)
	assert.Equal(t, "295000", *p.CurrentValue)
	// Unknown key routed into the extension map.
	assert.Equal(t, "AE", p.Extension["flood_zone"])
}

func TestPropertyApplyPatchClearsCurrentValue(t *testing.T) {
	v := "295000"
	p := &Property{PropertyID: "BC001", CurrentValue: &v}
	p.ApplyPatch(map[string]any{"current_value": nil})
	assert.Nil(t, p.CurrentValue)
}

func TestAnalysisEntryApplyPatch(t *testing.T) {
	e := &AnalysisEntry{ID: "e1", Weight: "1", IncludeInFinalValue: true}

	e.ApplyPatch(map[string]any{
		"weight":                 "2.5",
		"include_in_final_value": false,
		"adjusted_value":         "305000",
		"notes":                  "corner lot discount",
	})

	assert.Equal(t, "2.5", e.Weight)
	assert.False(t, e.IncludeInFinalValue)
	require.NotNil(t, e.AdjustedValue)
	assert.Equal(t, "305000", *e.AdjustedValue)
	assert.Equal(t, "corner lot discount", e.Notes)

	e.ApplyPatch(map[string]any{"adjusted_value": nil})
	assert.Nil(t, e.AdjustedValue)
}

func TestSaleEntryState(t *testing.T) {
	price := "280000"
	e := &ComparableSaleEntry{
		ID:                "s1",
		SubjectPropertyID: "BC001",
		SalePrice:         &price,
		Status:            SaleEntryStatusActive,
		AdjustmentFactors: map[string]string{"location": "-5000"},
	}

	m := e.State()
	assert.Equal(t, "active", m["status"])
	assert.Equal(t, "280000", m["sale_price"])
	assert.Nil(t, m["adjusted_price"])
	assert.Equal(t, map[string]string{"location": "-5000"}, m["adjustment_factors"])
}
