package comps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessor-cli/internal/model"
	"github.com/sells-group/assessor-cli/internal/store"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func seedProperty(t *testing.T, st store.Store, id string, ptype model.PropertyType, sqft float64, beds int, baths float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.CreateProperty(ctx, &model.Property{
		PropertyID:   id,
		PropertyType: ptype,
		Status:       model.PropertyStatusActive,
	}))
	require.NoError(t, st.CreateImprovement(ctx, &model.Improvement{
		PropertyID:    id,
		SquareFootage: f(sqft),
		BedroomCount:  i(beds),
		BathroomCount: f(baths),
	}))
}

func TestScoreIdenticalImprovements(t *testing.T) {
	sub := &model.Property{PropertyID: "BC001", PropertyType: model.PropertyTypeResidential}
	cand := &model.Property{PropertyID: "BC002", PropertyType: model.PropertyTypeResidential}
	imps := []model.Improvement{{SquareFootage: f(2000), BedroomCount: i(3), BathroomCount: f(2)}}

	// 100 type + 50 footage + 25 bedrooms + 25 bathrooms.
	assert.Equal(t, 200.0, Score(sub, imps, cand, imps))
}

func TestScoreQuarterFootageDelta(t *testing.T) {
	sub := &model.Property{PropertyID: "BC001", PropertyType: model.PropertyTypeResidential}
	cand := &model.Property{PropertyID: "BC006", PropertyType: model.PropertyTypeResidential}
	subImps := []model.Improvement{{SquareFootage: f(2000), BedroomCount: i(3), BathroomCount: f(2)}}
	candImps := []model.Improvement{{SquareFootage: f(2500), BedroomCount: i(3), BathroomCount: f(2)}}

	// 100 + (1 - 500/2000)*50 + 25 + 25 = 187.5
	assert.Equal(t, 187.5, Score(sub, subImps, cand, candImps))
}

func TestScoreTypeMismatch(t *testing.T) {
	sub := &model.Property{PropertyID: "BC001", PropertyType: model.PropertyTypeResidential}
	cand := &model.Property{PropertyID: "BC010", PropertyType: model.PropertyTypeCommercial}
	imps := []model.Improvement{{SquareFootage: f(2000), BedroomCount: i(3), BathroomCount: f(2)}}

	// Improvement terms still apply without the 100-point base.
	assert.Equal(t, 100.0, Score(sub, imps, cand, imps))
}

func TestScoreAdjacentCounts(t *testing.T) {
	sub := &model.Property{PropertyType: model.PropertyTypeResidential}
	cand := &model.Property{PropertyType: model.PropertyTypeResidential}
	subImps := []model.Improvement{{BedroomCount: i(3), BathroomCount: f(2)}}

	tests := []struct {
		name  string
		beds  int
		baths float64
		want  float64
	}{
		{"both exact", 3, 2, 150},
		{"bedroom off by one", 4, 2, 140},
		{"bathroom off by one", 3, 3, 140},
		{"bedroom off by two", 5, 2, 125},
		{"fractional bathroom delta scores zero", 3, 2.5, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candImps := []model.Improvement{{BedroomCount: i(tt.beds), BathroomCount: f(tt.baths)}}
			assert.Equal(t, tt.want, Score(sub, subImps, cand, candImps))
		})
	}
}

func TestScoreFootageClamped(t *testing.T) {
	sub := &model.Property{PropertyType: model.PropertyTypeResidential}
	cand := &model.Property{PropertyType: model.PropertyTypeResidential}
	subImps := []model.Improvement{{SquareFootage: f(1000)}}
	candImps := []model.Improvement{{SquareFootage: f(5000)}}

	// Delta ratio 4.0 clamps to 1, so the footage term bottoms out at zero
	// instead of going negative.
	assert.Equal(t, 100.0, Score(sub, subImps, cand, candImps))
}

func TestScoreNoImprovements(t *testing.T) {
	sub := &model.Property{PropertyType: model.PropertyTypeResidential}
	cand := &model.Property{PropertyType: model.PropertyTypeResidential}
	assert.Equal(t, 100.0, Score(sub, nil, cand, nil))
	assert.Equal(t, 100.0, Score(sub, []model.Improvement{{SquareFootage: f(2000)}}, cand, nil))
}

func TestFindComparablesRanksAndTruncates(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedProperty(t, st, "BC001", model.PropertyTypeResidential, 2000, 3, 2)
	seedProperty(t, st, "BC002", model.PropertyTypeResidential, 2000, 3, 2) // 200
	seedProperty(t, st, "BC006", model.PropertyTypeResidential, 2500, 3, 2) // 187.5
	seedProperty(t, st, "BC010", model.PropertyTypeCommercial, 2000, 3, 2)  // 100

	engine := NewEngine(st)
	got, err := engine.FindComparables(ctx, "BC001", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "BC002", got[0].Property.PropertyID)
	assert.Equal(t, 200.0, got[0].SimilarityScore)
	assert.Equal(t, "BC006", got[1].Property.PropertyID)
	assert.Equal(t, 187.5, got[1].SimilarityScore)
}

func TestFindComparablesExcludesSubject(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedProperty(t, st, "BC001", model.PropertyTypeResidential, 2000, 3, 2)
	seedProperty(t, st, "BC002", model.PropertyTypeResidential, 2000, 3, 2)

	got, err := NewEngine(st).FindComparables(ctx, "BC001", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BC002", got[0].Property.PropertyID)
}

func TestFindComparablesMissingSubject(t *testing.T) {
	st := store.NewMemory()
	seedProperty(t, st, "BC002", model.PropertyTypeResidential, 2000, 3, 2)

	// Absence of the subject is a business outcome, not an error.
	got, err := NewEngine(st).FindComparables(context.Background(), "BC404", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindComparablesStableTieOrder(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedProperty(t, st, "BC001", model.PropertyTypeResidential, 2000, 3, 2)
	// Three identical candidates all score 200; insertion order must hold.
	seedProperty(t, st, "BC003", model.PropertyTypeResidential, 2000, 3, 2)
	seedProperty(t, st, "BC002", model.PropertyTypeResidential, 2000, 3, 2)
	seedProperty(t, st, "BC009", model.PropertyTypeResidential, 2000, 3, 2)

	engine := NewEngine(st)
	for run := 0; run < 3; run++ {
		got, err := engine.FindComparables(ctx, "BC001", 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "BC003", got[0].Property.PropertyID)
		assert.Equal(t, "BC002", got[1].Property.PropertyID)
		assert.Equal(t, "BC009", got[2].Property.PropertyID)
	}
}

func TestFindComparablesAnnotatesDistance(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.CreateProperty(ctx, &model.Property{
		PropertyID: "BC001", PropertyType: model.PropertyTypeResidential,
		Status:   model.PropertyStatusActive,
		Latitude: f(46.21), Longitude: f(-119.13),
	}))
	require.NoError(t, st.CreateProperty(ctx, &model.Property{
		PropertyID: "BC002", PropertyType: model.PropertyTypeResidential,
		Status:   model.PropertyStatusActive,
		Latitude: f(46.28), Longitude: f(-119.28),
	}))
	require.NoError(t, st.CreateProperty(ctx, &model.Property{
		PropertyID: "BC003", PropertyType: model.PropertyTypeResidential,
		Status:     model.PropertyStatusActive,
	}))

	got, err := NewEngine(st).FindComparables(ctx, "BC001", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]model.ComparableCandidate{}
	for _, c := range got {
		byID[c.Property.PropertyID] = c
	}
	require.NotNil(t, byID["BC002"].DistanceMiles)
	assert.InDelta(t, 8.8, *byID["BC002"].DistanceMiles, 1.0)
	assert.Nil(t, byID["BC003"].DistanceMiles)
}
