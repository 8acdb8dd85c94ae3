package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessor-cli/internal/model"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "assessor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLitePropertyRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	lat, lon := 46.21, -119.13
	p := &model.Property{
		PropertyID:   "BC001",
		PropertyType: model.PropertyTypeResidential,
		Address:      "1100 Oak St",
		Acres:        "0.25",
		Status:       model.PropertyStatusActive,
		Latitude:     &lat,
		Longitude:    &lon,
		Extension:    map[string]any{"zoning": "R-1"},
	}
	require.NoError(t, s.CreateProperty(ctx, p))

	got, err := s.GetProperty(ctx, "BC001")
	require.NoError(t, err)
	assert.Equal(t, model.PropertyTypeResidential, got.PropertyType)
	assert.Equal(t, "0.25", got.Acres)
	assert.Nil(t, got.CurrentValue)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, 46.21, *got.Latitude)
	assert.Equal(t, "R-1", got.Extension["zoning"])
	assert.Equal(t, int64(1), got.Version)

	_, err = s.GetProperty(ctx, "BC404")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteUpdatePropertyVersioning(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	p := &model.Property{PropertyID: "BC001", PropertyType: model.PropertyTypeResidential, Status: model.PropertyStatusActive}
	require.NoError(t, s.CreateProperty(ctx, p))

	p.Status = model.PropertyStatusExempt
	require.NoError(t, s.UpdateProperty(ctx, p, 1))
	assert.Equal(t, int64(2), p.Version)

	stale := *p
	stale.Status = model.PropertyStatusSold
	require.ErrorIs(t, s.UpdateProperty(ctx, &stale, 1), ErrConflict)

	missing := &model.Property{PropertyID: "BC404", PropertyType: model.PropertyTypeVacant}
	require.ErrorIs(t, s.UpdateProperty(ctx, missing, 1), ErrNotFound)

	got, err := s.GetProperty(ctx, "BC001")
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusExempt, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestSQLiteListPropertiesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)
	for _, id := range []string{"BC003", "BC001", "BC002"} {
		require.NoError(t, s.CreateProperty(ctx, &model.Property{
			PropertyID: id, PropertyType: model.PropertyTypeResidential, Status: model.PropertyStatusActive,
		}))
	}

	list, err := s.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "BC003", list[0].PropertyID)
	assert.Equal(t, "BC002", list[2].PropertyID)
}

func TestSQLiteImprovementsAndSales(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	require.NoError(t, s.CreateProperty(ctx, &model.Property{
		PropertyID: "BC001", PropertyType: model.PropertyTypeResidential, Status: model.PropertyStatusActive,
	}))
	sqft := 2000.0
	beds := 3
	require.NoError(t, s.CreateImprovement(ctx, &model.Improvement{
		PropertyID: "BC001", SquareFootage: &sqft, BedroomCount: &beds, Quality: "average",
	}))

	imps, err := s.GetImprovementsByProperty(ctx, "BC001")
	require.NoError(t, err)
	require.Len(t, imps, 1)
	require.NotNil(t, imps[0].BedroomCount)
	assert.Equal(t, 3, *imps[0].BedroomCount)
	assert.Nil(t, imps[0].BathroomCount)

	price := "280000"
	saleDate := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	e := &model.ComparableSaleEntry{
		SubjectPropertyID: "BC001",
		SaleDate:          &saleDate,
		SalePrice:         &price,
		Status:            model.SaleEntryStatusActive,
		AdjustmentFactors: map[string]string{"location": "-5000"},
	}
	require.NoError(t, s.CreateSaleEntry(ctx, e))

	got, err := s.GetSaleEntry(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SalePrice)
	assert.Equal(t, "280000", *got.SalePrice)
	assert.Equal(t, map[string]string{"location": "-5000"}, got.AdjustmentFactors)

	bySubject, err := s.ListSaleEntriesBySubject(ctx, "BC001")
	require.NoError(t, err)
	assert.Len(t, bySubject, 1)
}

func TestSQLiteAnalysisLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	a := &model.ComparableAnalysis{SubjectPropertyID: "BC001", Name: "2026 revaluation", Status: model.AnalysisStatusDraft}
	require.NoError(t, s.CreateAnalysis(ctx, a))

	e := &model.AnalysisEntry{AnalysisID: a.ID, SaleEntryID: "s1", IncludeInFinalValue: true}
	require.NoError(t, s.CreateAnalysisEntry(ctx, e))
	assert.Equal(t, "1", e.Weight)

	conclusion := "285000"
	a.ValueConclusion = &conclusion
	a.Status = model.AnalysisStatusFinal
	require.NoError(t, s.UpdateAnalysis(ctx, a, 1))

	got, err := s.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusFinal, got.Status)
	require.NotNil(t, got.ValueConclusion)
	assert.Equal(t, "285000", *got.ValueConclusion)

	entries, err := s.GetAnalysisEntries(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e.Weight = "3"
	require.NoError(t, s.UpdateAnalysisEntry(ctx, e, 1))
	require.ErrorIs(t, s.UpdateAnalysisEntry(ctx, e, 1), ErrConflict)
}

func TestSQLiteLineageAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	user := "assessor-1"
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendLineage(ctx, []model.LineageRecord{
		{
			EntityKind: "property", EntityID: "BC001", FieldName: "status",
			OldValue:        model.FieldValue{Kind: model.ValueKindString, Value: "active"},
			NewValue:        model.FieldValue{Kind: model.ValueKindString, Value: "exempt"},
			ChangeTimestamp: base, Source: model.SourceManual, ActingUserID: &user,
			SourceDetails: map[string]string{"operation": "update_property"},
		},
		{
			EntityKind: "property", EntityID: "BC001", FieldName: "acres",
			OldValue:        model.FieldValue{Kind: model.ValueKindString, Value: "0.25"},
			NewValue:        model.FieldValue{Kind: model.ValueKindString, Value: "0.30"},
			ChangeTimestamp: base, Source: model.SourceManual, ActingUserID: &user,
		},
	}))
	require.NoError(t, s.AppendLineage(ctx, []model.LineageRecord{
		{
			EntityKind: "property", EntityID: "BC002", FieldName: "status",
			OldValue:        model.FieldValue{Kind: model.ValueKindString, Value: "active"},
			NewValue:        model.FieldValue{Kind: model.ValueKindString, Value: "sold"},
			ChangeTimestamp: base.Add(time.Hour), Source: model.SourceImport,
		},
	}))

	byEntity, err := s.QueryLineage(ctx, LineageFilter{EntityID: "BC001"})
	require.NoError(t, err)
	require.Len(t, byEntity, 2)
	// Equal timestamps read back in append order, same as the memory backend.
	assert.Equal(t, "status", byEntity[0].FieldName)
	assert.Equal(t, "acres", byEntity[1].FieldName)
	assert.Equal(t, map[string]string{"operation": "update_property"}, byEntity[0].SourceDetails)
	require.NotNil(t, byEntity[1].ActingUserID)
	assert.Equal(t, "assessor-1", *byEntity[1].ActingUserID)

	bySource, err := s.QueryLineage(ctx, LineageFilter{Source: model.SourceImport, Limit: 5})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "BC002", bySource[0].EntityID)

	all, err := s.QueryLineage(ctx, LineageFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BC002", all[0].EntityID)

	start := base.Add(-time.Minute)
	end := base.Add(time.Minute)
	ranged, err := s.QueryLineage(ctx, LineageFilter{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}
