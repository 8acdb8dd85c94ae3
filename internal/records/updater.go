// Package records owns the guarded update sequence for tracked entities:
// read current state, compute the field diff, write the new state, append
// lineage. Every mutation of a property, sale entry, analysis, or analysis
// entry routes through the Updater so the audit trail stays complete.
package records

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessor-cli/internal/activity"
	"github.com/sells-group/assessor-cli/internal/lineage"
	"github.com/sells-group/assessor-cli/internal/model"
	"github.com/sells-group/assessor-cli/internal/store"
)

// Entity kinds as stored on lineage records.
const (
	KindProperty      = "property"
	KindSaleEntry     = "sale_entry"
	KindAnalysis      = "analysis"
	KindAnalysisEntry = "analysis_entry"
)

// ErrAnalysisFinal is returned when mutating an entry of a finalized analysis.
var ErrAnalysisFinal = eris.New("records: analysis is final")

// maxConflictRetries bounds the optimistic retry loop. The per-key lock
// serializes writers in this process; retries cover writers in other
// processes sharing the store.
const maxConflictRetries = 3

// Updater applies patches to tracked entities. The read→diff→write sequence
// runs under a per-entity lock, and version conflicts from concurrent
// out-of-process writers are retried with a fresh read before surfacing
// store.ErrConflict.
type Updater struct {
	st       store.Store
	tracker  *lineage.Tracker
	recorder activity.Recorder

	// Lock-per-entity-key. Entries are never evicted; the working set is
	// bounded by the parcel count of a single county.
	locks sync.Map
}

// NewUpdater creates an Updater. A nil recorder disables activity output.
func NewUpdater(st store.Store, tracker *lineage.Tracker, recorder activity.Recorder) *Updater {
	if recorder == nil {
		recorder = activity.Noop{}
	}
	return &Updater{st: st, tracker: tracker, recorder: recorder}
}

func (u *Updater) lock(kind, id string) func() {
	v, _ := u.locks.LoadOrStore(kind+"/"+id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// UpdateProperty applies patch to the property and records lineage for every
// field the patch actually changed.
func (u *Updater) UpdateProperty(ctx context.Context, propertyID string, patch map[string]any, source model.ChangeSource, userID *string) (*model.Property, []model.LineageRecord, error) {
	if err := validate(patch, source); err != nil {
		return nil, nil, err
	}
	unlock := u.lock(KindProperty, propertyID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		p, err := u.st.GetProperty(ctx, propertyID)
		if err != nil {
			return nil, nil, err
		}
		before := p.State()
		expected := p.Version
		p.ApplyPatch(patch)

		if err := u.st.UpdateProperty(ctx, p, expected); err != nil {
			if errors.Is(err, store.ErrConflict) {
				lastErr = err
				zap.L().Warn("records: property update conflict, retrying",
					zap.String("property_id", propertyID),
					zap.Int("attempt", attempt+1),
				)
				continue
			}
			return nil, nil, err
		}

		written, err := u.track(ctx, KindProperty, propertyID, before, p.State(), patch, source, userID, "update_property")
		if err != nil {
			return nil, nil, err
		}
		u.recorder.Record("property updated", KindProperty, propertyID)
		return p, written, nil
	}
	return nil, nil, eris.Wrapf(lastErr, "records: update property %s: retries exhausted", propertyID)
}

// UpdateSaleEntry applies patch to a comparable sale entry with lineage.
func (u *Updater) UpdateSaleEntry(ctx context.Context, id string, patch map[string]any, source model.ChangeSource, userID *string) (*model.ComparableSaleEntry, []model.LineageRecord, error) {
	if err := validate(patch, source); err != nil {
		return nil, nil, err
	}
	unlock := u.lock(KindSaleEntry, id)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		e, err := u.st.GetSaleEntry(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		before := e.State()
		expected := e.Version
		e.ApplyPatch(patch)

		if err := u.st.UpdateSaleEntry(ctx, e, expected); err != nil {
			if errors.Is(err, store.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, nil, err
		}

		written, err := u.track(ctx, KindSaleEntry, id, before, e.State(), patch, source, userID, "update_sale_entry")
		if err != nil {
			return nil, nil, err
		}
		u.recorder.Record("comparable sale entry updated", KindSaleEntry, id)
		return e, written, nil
	}
	return nil, nil, eris.Wrapf(lastErr, "records: update sale entry %s: retries exhausted", id)
}

// UpdateAnalysis applies patch to a reconciliation analysis with lineage.
func (u *Updater) UpdateAnalysis(ctx context.Context, id string, patch map[string]any, source model.ChangeSource, userID *string) (*model.ComparableAnalysis, []model.LineageRecord, error) {
	if err := validate(patch, source); err != nil {
		return nil, nil, err
	}
	unlock := u.lock(KindAnalysis, id)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		a, err := u.st.GetAnalysis(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		before := a.State()
		expected := a.Version
		a.ApplyPatch(patch)

		if err := u.st.UpdateAnalysis(ctx, a, expected); err != nil {
			if errors.Is(err, store.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, nil, err
		}

		written, err := u.track(ctx, KindAnalysis, id, before, a.State(), patch, source, userID, "update_analysis")
		if err != nil {
			return nil, nil, err
		}
		u.recorder.Record("analysis updated", KindAnalysis, id)
		return a, written, nil
	}
	return nil, nil, eris.Wrapf(lastErr, "records: update analysis %s: retries exhausted", id)
}

// UpdateAnalysisEntry applies patch to an analysis entry with lineage.
// Entries of a finalized analysis reject mutation.
func (u *Updater) UpdateAnalysisEntry(ctx context.Context, id string, patch map[string]any, source model.ChangeSource, userID *string) (*model.AnalysisEntry, []model.LineageRecord, error) {
	if err := validate(patch, source); err != nil {
		return nil, nil, err
	}
	unlock := u.lock(KindAnalysisEntry, id)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		e, err := u.st.GetAnalysisEntry(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		parent, err := u.st.GetAnalysis(ctx, e.AnalysisID)
		if err != nil {
			return nil, nil, err
		}
		if parent.Status == model.AnalysisStatusFinal {
			return nil, nil, ErrAnalysisFinal
		}

		before := e.State()
		expected := e.Version
		e.ApplyPatch(patch)

		if err := u.st.UpdateAnalysisEntry(ctx, e, expected); err != nil {
			if errors.Is(err, store.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, nil, err
		}

		written, err := u.track(ctx, KindAnalysisEntry, id, before, e.State(), patch, source, userID, "update_analysis_entry")
		if err != nil {
			return nil, nil, err
		}
		u.recorder.Record("analysis entry updated", KindAnalysisEntry, id)
		return e, written, nil
	}
	return nil, nil, eris.Wrapf(lastErr, "records: update analysis entry %s: retries exhausted", id)
}

// track narrows before/after to the keys the caller attempted to change and
// hands them to the mutation tracker. The entity write has already
// succeeded at this point; a ledger failure is surfaced so the caller knows
// the trail is incomplete.
func (u *Updater) track(ctx context.Context, kind, id string, before, after, patch map[string]any, source model.ChangeSource, userID *string, operation string) ([]model.LineageRecord, error) {
	beforeSub := make(map[string]any, len(patch))
	afterSub := make(map[string]any, len(patch))
	for k := range patch {
		beforeSub[k] = before[k]
		afterSub[k] = after[k]
	}
	details := map[string]string{
		"operation": operation,
		"entity_id": id,
	}
	return u.tracker.TrackUpdate(ctx, kind, id, beforeSub, afterSub, source, userID, details)
}

func validate(patch map[string]any, source model.ChangeSource) error {
	if len(patch) == 0 {
		return eris.New("records: empty patch")
	}
	if !model.ValidSource(source) {
		return eris.Errorf("records: unknown change source %q", source)
	}
	return nil
}
