package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessor-cli/internal/model"
)

func TestMemoryPropertyRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	p := &model.Property{
		PropertyID:   "BC001",
		PropertyType: model.PropertyTypeResidential,
		Address:      "1100 Oak St",
		Status:       model.PropertyStatusActive,
	}
	require.NoError(t, s.CreateProperty(ctx, p))
	assert.Equal(t, int64(1), p.Version)

	got, err := s.GetProperty(ctx, "BC001")
	require.NoError(t, err)
	assert.Equal(t, "1100 Oak St", got.Address)

	// Reads hand out copies; mutating one does not leak into the store.
	got.Address = "mutated"
	again, err := s.GetProperty(ctx, "BC001")
	require.NoError(t, err)
	assert.Equal(t, "1100 Oak St", again.Address)
}

func TestMemoryGetPropertyNotFound(t *testing.T) {
	s := NewMemory()
	_, err := s.GetProperty(context.Background(), "BC404")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListPropertiesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	for _, id := range []string{"BC003", "BC001", "BC002"} {
		require.NoError(t, s.CreateProperty(ctx, &model.Property{PropertyID: id, Status: model.PropertyStatusActive}))
	}

	list, err := s.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "BC003", list[0].PropertyID)
	assert.Equal(t, "BC001", list[1].PropertyID)
	assert.Equal(t, "BC002", list[2].PropertyID)
}

func TestMemoryUpdatePropertyVersioning(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	p := &model.Property{PropertyID: "BC001", Status: model.PropertyStatusActive}
	require.NoError(t, s.CreateProperty(ctx, p))

	p.Status = model.PropertyStatusExempt
	require.NoError(t, s.UpdateProperty(ctx, p, 1))
	assert.Equal(t, int64(2), p.Version)

	// Stale expected version loses.
	p.Status = model.PropertyStatusSold
	err := s.UpdateProperty(ctx, p, 1)
	require.ErrorIs(t, err, ErrConflict)

	got, err := s.GetProperty(ctx, "BC001")
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusExempt, got.Status)

	err = s.UpdateProperty(ctx, &model.Property{PropertyID: "BC404"}, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryImprovements(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	sqft := 2000.0
	require.NoError(t, s.CreateImprovement(ctx, &model.Improvement{PropertyID: "BC001", SquareFootage: &sqft}))
	require.NoError(t, s.CreateImprovement(ctx, &model.Improvement{PropertyID: "BC001"}))

	imps, err := s.GetImprovementsByProperty(ctx, "BC001")
	require.NoError(t, err)
	require.Len(t, imps, 2)
	assert.NotEmpty(t, imps[0].ID)
	require.NotNil(t, imps[0].SquareFootage)
	assert.Equal(t, 2000.0, *imps[0].SquareFootage)

	none, err := s.GetImprovementsByProperty(ctx, "BC404")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemorySaleEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	price := "280000"
	e := &model.ComparableSaleEntry{SubjectPropertyID: "BC001", SalePrice: &price, Status: model.SaleEntryStatusActive}
	require.NoError(t, s.CreateSaleEntry(ctx, e))
	require.NotEmpty(t, e.ID)

	got, err := s.GetSaleEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "BC001", got.SubjectPropertyID)

	bySubject, err := s.ListSaleEntriesBySubject(ctx, "BC001")
	require.NoError(t, err)
	assert.Len(t, bySubject, 1)

	got.Status = model.SaleEntryStatusWithdrawn
	require.NoError(t, s.UpdateSaleEntry(ctx, got, 1))
	require.ErrorIs(t, s.UpdateSaleEntry(ctx, got, 1), ErrConflict)
}

func TestMemoryAnalysisEntryDefaults(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	a := &model.ComparableAnalysis{SubjectPropertyID: "BC001", Name: "2026 revaluation", Status: model.AnalysisStatusDraft}
	require.NoError(t, s.CreateAnalysis(ctx, a))

	e := &model.AnalysisEntry{AnalysisID: a.ID, SaleEntryID: "s1", IncludeInFinalValue: true}
	require.NoError(t, s.CreateAnalysisEntry(ctx, e))
	assert.Equal(t, "1", e.Weight)

	entries, err := s.GetAnalysisEntries(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMemoryAppendLineageBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	ts := time.Now().UTC()
	batch := []model.LineageRecord{
		{EntityKind: "property", EntityID: "BC001", FieldName: "acres", ChangeTimestamp: ts, Source: model.SourceImport},
		{EntityKind: "property", EntityID: "BC001", FieldName: "status", ChangeTimestamp: ts, Source: model.SourceImport},
	}
	require.NoError(t, s.AppendLineage(ctx, batch))

	got, err := s.QueryLineage(ctx, LineageFilter{EntityID: "BC001"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.NotEmpty(t, r.ID)
	}
	// Equal timestamps keep append order.
	assert.Equal(t, "acres", got[0].FieldName)
	assert.Equal(t, "status", got[1].FieldName)
}

func TestMemoryQueryLineageFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	user := "assessor-1"
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []model.LineageRecord{
		{EntityKind: "property", EntityID: "BC001", FieldName: "status", ChangeTimestamp: base, Source: model.SourceImport},
		{EntityKind: "property", EntityID: "BC001", FieldName: "status", ChangeTimestamp: base.Add(time.Hour), Source: model.SourceManual, ActingUserID: &user},
		{EntityKind: "property", EntityID: "BC002", FieldName: "acres", ChangeTimestamp: base.Add(2 * time.Hour), Source: model.SourceManual, ActingUserID: &user},
	}
	require.NoError(t, s.AppendLineage(ctx, records))

	got, err := s.QueryLineage(ctx, LineageFilter{EntityID: "BC001", FieldName: "status"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, model.SourceManual, got[0].Source)

	got, err = s.QueryLineage(ctx, LineageFilter{UserID: "assessor-1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.QueryLineage(ctx, LineageFilter{Source: model.SourceImport})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	start, end := base.Add(30*time.Minute), base.Add(90*time.Minute)
	got, err = s.QueryLineage(ctx, LineageFilter{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BC001", got[0].EntityID)

	got, err = s.QueryLineage(ctx, LineageFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
