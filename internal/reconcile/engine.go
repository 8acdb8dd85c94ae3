// Package reconcile turns an analysis's weighted comparable entries into a
// single value conclusion.
package reconcile

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessor-cli/internal/model"
	"github.com/sells-group/assessor-cli/internal/records"
	"github.com/sells-group/assessor-cli/internal/store"
)

// ErrNoParticipatingEntries is returned when no entry contributes a usable
// weighted value. Distinct from store.ErrNotFound so a caller can say "add
// or re-include comparables" instead of "analysis missing".
var ErrNoParticipatingEntries = eris.New("reconcile: no participating entries")

// Options controls a reconciliation run.
type Options struct {
	// Finalize moves the analysis to status final on success.
	Finalize bool
	// ApplyToProperty writes the conclusion onto the subject property's
	// current value (source "calculated"), routed through the mutation
	// tracker like any other property update.
	ApplyToProperty bool
	UserID          *string
}

// Result is the outcome of a reconciliation run.
type Result struct {
	AnalysisID      string   `json:"analysis_id"`
	ValueConclusion string   `json:"value_conclusion"`
	EntriesUsed     int      `json:"entries_used"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Engine computes value conclusions. Weights and values are decimal strings
// persisted by analysts; arithmetic runs at full precision on rationals and
// is re-serialized, so no floating-point drift reaches the store.
type Engine struct {
	st      store.Store
	updater *records.Updater
}

// NewEngine creates a reconciliation Engine.
func NewEngine(st store.Store, updater *records.Updater) *Engine {
	return &Engine{st: st, updater: updater}
}

// Reconcile computes the weighted average over the analysis's included
// entries and writes it onto the analysis.
//
// Effective value resolution per entry: analyst-overridden adjusted value,
// else the sale entry's adjusted price, else its sale price. Entries where
// none of the three parse as a number are excluded from the computation and
// reported as warnings, never silently dropped. Entries with the include
// flag off never participate.
func (e *Engine) Reconcile(ctx context.Context, analysisID string, opts Options) (*Result, error) {
	analysis, err := e.st.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: get analysis %s", analysisID)
	}

	entries, err := e.st.GetAnalysisEntries(ctx, analysisID)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: get entries for %s", analysisID)
	}

	result := &Result{AnalysisID: analysisID}
	weightedSum := new(big.Rat)
	weightSum := new(big.Rat)

	for i := range entries {
		entry := &entries[i]
		if !entry.IncludeInFinalValue {
			continue
		}

		value, warn, err := e.effectiveValue(ctx, entry)
		if err != nil {
			return nil, err
		}
		if value == nil {
			result.Warnings = append(result.Warnings, warn)
			zap.L().Warn("reconcile: entry excluded, no resolvable value",
				zap.String("analysis_id", analysisID),
				zap.String("entry_id", entry.ID),
			)
			continue
		}

		weight, ok := model.ParseDecimal(entry.Weight)
		if !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("entry %s: unparseable weight %q, excluded", entry.ID, entry.Weight))
			continue
		}

		weightedSum.Add(weightedSum, new(big.Rat).Mul(value, weight))
		weightSum.Add(weightSum, weight)
		result.EntriesUsed++
	}

	if weightSum.Sign() == 0 {
		// Analysis keeps its prior status and conclusion.
		return nil, ErrNoParticipatingEntries
	}

	conclusion := new(big.Rat).Quo(weightedSum, weightSum)
	result.ValueConclusion = model.FormatDecimal(conclusion)

	patch := map[string]any{"value_conclusion": result.ValueConclusion}
	if opts.Finalize {
		patch["status"] = string(model.AnalysisStatusFinal)
	}
	if _, _, err := e.updater.UpdateAnalysis(ctx, analysisID, patch, model.SourceCalculated, opts.UserID); err != nil {
		return nil, eris.Wrapf(err, "reconcile: write conclusion for %s", analysisID)
	}

	if opts.ApplyToProperty {
		propPatch := map[string]any{"current_value": result.ValueConclusion}
		if _, _, err := e.updater.UpdateProperty(ctx, analysis.SubjectPropertyID, propPatch, model.SourceCalculated, opts.UserID); err != nil {
			return nil, eris.Wrapf(err, "reconcile: apply conclusion to property %s", analysis.SubjectPropertyID)
		}
	}

	zap.L().Info("reconcile: conclusion computed",
		zap.String("analysis_id", analysisID),
		zap.String("value_conclusion", result.ValueConclusion),
		zap.Int("entries_used", result.EntriesUsed),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// effectiveValue resolves the value an entry contributes. A nil value with
// a warning means the entry has nothing usable.
func (e *Engine) effectiveValue(ctx context.Context, entry *model.AnalysisEntry) (*big.Rat, string, error) {
	if entry.AdjustedValue != nil {
		if v, ok := model.ParseDecimal(*entry.AdjustedValue); ok {
			return v, "", nil
		}
	}

	sale, err := e.st.GetSaleEntry(ctx, entry.SaleEntryID)
	if err != nil {
		return nil, "", eris.Wrapf(err, "reconcile: get sale entry %s", entry.SaleEntryID)
	}
	if sale.AdjustedPrice != nil {
		if v, ok := model.ParseDecimal(*sale.AdjustedPrice); ok {
			return v, "", nil
		}
	}
	if sale.SalePrice != nil {
		if v, ok := model.ParseDecimal(*sale.SalePrice); ok {
			return v, "", nil
		}
	}
	return nil, fmt.Sprintf("entry %s: no adjusted value, adjusted price, or sale price resolves to a number", entry.ID), nil
}
