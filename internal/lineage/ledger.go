// Package lineage implements the field-level audit trail: the append-only
// ledger and the mutation tracker that feeds it.
package lineage

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessor-cli/internal/model"
	"github.com/sells-group/assessor-cli/internal/store"
)

// Ledger exposes the read patterns over the append-only lineage store.
// There is no update or delete: a correction is a new forward-dated record
// with source "correction".
type Ledger struct {
	st store.Store
}

// NewLedger creates a Ledger over the given store.
func NewLedger(st store.Store) *Ledger {
	return &Ledger{st: st}
}

// Append writes a batch of records atomically. Records from one mutation
// share a change timestamp and become visible all at once.
func (l *Ledger) Append(ctx context.Context, records []model.LineageRecord) error {
	if len(records) == 0 {
		return nil
	}
	return eris.Wrap(l.st.AppendLineage(ctx, records), "lineage: append batch")
}

// ByEntityAndField returns all changes to one field of one entity, newest first.
func (l *Ledger) ByEntityAndField(ctx context.Context, entityID, fieldName string) ([]model.LineageRecord, error) {
	return l.st.QueryLineage(ctx, store.LineageFilter{EntityID: entityID, FieldName: fieldName})
}

// ByEntity returns all changes to one entity, newest first.
func (l *Ledger) ByEntity(ctx context.Context, entityID string) ([]model.LineageRecord, error) {
	return l.st.QueryLineage(ctx, store.LineageFilter{EntityID: entityID})
}

// ByUser returns changes made by one user, newest first, truncated to limit.
func (l *Ledger) ByUser(ctx context.Context, userID string, limit int) ([]model.LineageRecord, error) {
	return l.st.QueryLineage(ctx, store.LineageFilter{UserID: userID, Limit: limit})
}

// ByDateRange returns changes within [start, end], newest first, truncated to limit.
func (l *Ledger) ByDateRange(ctx context.Context, start, end time.Time, limit int) ([]model.LineageRecord, error) {
	return l.st.QueryLineage(ctx, store.LineageFilter{Start: &start, End: &end, Limit: limit})
}

// BySource returns changes with the given provenance tag, newest first,
// truncated to limit.
func (l *Ledger) BySource(ctx context.Context, source model.ChangeSource, limit int) ([]model.LineageRecord, error) {
	return l.st.QueryLineage(ctx, store.LineageFilter{Source: source, Limit: limit})
}
