// Package comps implements comparable-property discovery: scoring and
// ranking candidate parcels by similarity to a subject parcel.
package comps

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessor-cli/internal/geo"
	"github.com/sells-group/assessor-cli/internal/model"
	"github.com/sells-group/assessor-cli/internal/store"
)

// Scoring terms. The additive formula is load-bearing: scores are compared
// across runs and test fixtures, so the constants and clamping must not
// drift.
const (
	typeMatchScore   = 100.0
	sqftTermMax      = 50.0
	bedroomExact     = 25.0
	bedroomAdjacent  = 15.0
	bathroomExact    = 25.0
	bathroomAdjacent = 15.0
)

// Engine discovers comparable properties for a subject parcel. It is a pure
// read path: no state is written and the score is recomputed on every call.
type Engine struct {
	st store.Store
}

// NewEngine creates a discovery Engine over the given store.
func NewEngine(st store.Store) *Engine {
	return &Engine{st: st}
}

// FindComparables scores every other property against the subject and
// returns at most count candidates, best first. Ties keep the candidate
// pool's insertion order so results are reproducible. A missing subject
// yields an empty result, not an error; "no comparables" is a business
// outcome.
func (e *Engine) FindComparables(ctx context.Context, subjectPropertyID string, count int) ([]model.ComparableCandidate, error) {
	subject, err := e.st.GetProperty(ctx, subjectPropertyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			zap.L().Debug("comps: subject not found", zap.String("property_id", subjectPropertyID))
			return nil, nil
		}
		return nil, eris.Wrapf(err, "comps: get subject %s", subjectPropertyID)
	}

	subjectImps, err := e.st.GetImprovementsByProperty(ctx, subjectPropertyID)
	if err != nil {
		return nil, eris.Wrapf(err, "comps: get subject improvements %s", subjectPropertyID)
	}

	pool, err := e.st.ListProperties(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "comps: list candidate pool")
	}

	candidates := make([]model.ComparableCandidate, 0, len(pool))
	for i := range pool {
		cand := &pool[i]
		if cand.PropertyID == subjectPropertyID {
			continue
		}
		candImps, err := e.st.GetImprovementsByProperty(ctx, cand.PropertyID)
		if err != nil {
			return nil, eris.Wrapf(err, "comps: get candidate improvements %s", cand.PropertyID)
		}
		c := model.ComparableCandidate{
			Property:        *cand,
			SimilarityScore: Score(subject, subjectImps, cand, candImps),
		}
		if d, ok := geo.MilesBetween(subject.Latitude, subject.Longitude, cand.Latitude, cand.Longitude); ok {
			c.DistanceMiles = &d
		}
		candidates = append(candidates, c)
	}

	// Stable sort: equal scores keep pool order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SimilarityScore > candidates[j].SimilarityScore
	})
	if count > 0 && len(candidates) > count {
		candidates = candidates[:count]
	}

	zap.L().Debug("comps: discovery complete",
		zap.String("subject", subjectPropertyID),
		zap.Int("pool_size", len(pool)-1),
		zap.Int("returned", len(candidates)),
	)
	return candidates, nil
}

// Score computes the similarity of a candidate to the subject:
//
//	base:      100 when property types match, else 0
//	footage:   (1 - min(|delta|/subjectSqft, 1)) * 50 when both sides have a value
//	bedrooms:  25 exact, 15 off-by-one, else 0
//	bathrooms: 25 exact, 15 off-by-one, else 0
//
// The improvement terms use the first improvement on each side; parcels
// with several structures are scored on whichever was recorded first (a
// known limitation, kept for result compatibility). The result is an
// ordinal ranking signal, not a percentage.
func Score(subject *model.Property, subjectImps []model.Improvement, candidate *model.Property, candidateImps []model.Improvement) float64 {
	score := 0.0
	if candidate.PropertyType == subject.PropertyType {
		score += typeMatchScore
	}

	if len(subjectImps) == 0 || len(candidateImps) == 0 {
		return score
	}
	subImp := &subjectImps[0]
	candImp := &candidateImps[0]

	if subImp.SquareFootage != nil && candImp.SquareFootage != nil && *subImp.SquareFootage > 0 {
		ratio := math.Abs(*candImp.SquareFootage-*subImp.SquareFootage) / *subImp.SquareFootage
		score += (1 - math.Min(ratio, 1)) * sqftTermMax
	}

	if subImp.BedroomCount != nil && candImp.BedroomCount != nil {
		switch diff := absInt(*candImp.BedroomCount - *subImp.BedroomCount); diff {
		case 0:
			score += bedroomExact
		case 1:
			score += bedroomAdjacent
		}
	}

	if subImp.BathroomCount != nil && candImp.BathroomCount != nil {
		// Same scheme as bedrooms; a fractional delta (e.g. 2.5 vs 2) scores zero.
		switch diff := math.Abs(*candImp.BathroomCount - *subImp.BathroomCount); {
		case diff == 0:
			score += bathroomExact
		case diff == 1:
			score += bathroomAdjacent
		}
	}

	return score
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
