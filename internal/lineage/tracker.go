package lineage

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/assessor-cli/internal/model"
)

// Tracker diffs entity state around an update and appends one lineage
// record per changed field. It is never invoked for entity creation; only
// changes to existing state are recorded.
type Tracker struct {
	ledger *Ledger
}

// NewTracker creates a Tracker writing to the given ledger.
func NewTracker(ledger *Ledger) *Tracker {
	return &Tracker{ledger: ledger}
}

// TrackUpdate compares before and after for every key the caller attempted
// to change (the keys of after), serializes changed values canonically, and
// appends the batch atomically. All records in the batch share one change
// timestamp. Returns the records written.
//
// Serialization failures degrade to best-effort string coercion with a
// warning; they never fail the caller's primary mutation.
func (t *Tracker) TrackUpdate(ctx context.Context, entityKind, entityID string, before, after map[string]any, source model.ChangeSource, userID *string, details map[string]string) ([]model.LineageRecord, error) {
	changedAt := time.Now().UTC()

	// Deterministic record order within a batch.
	keys := make([]string, 0, len(after))
	for k := range after {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var records []model.LineageRecord
	for _, key := range keys {
		oldVal, oldOK := model.CanonicalValue(before[key])
		newVal, newOK := model.CanonicalValue(after[key])
		if !oldOK || !newOK {
			zap.L().Warn("lineage: value coerced to string for audit trail",
				zap.String("entity_kind", entityKind),
				zap.String("entity_id", entityID),
				zap.String("field", key),
			)
		}
		if oldVal.Equal(newVal) {
			continue
		}
		records = append(records, model.LineageRecord{
			EntityKind:      entityKind,
			EntityID:        entityID,
			FieldName:       key,
			OldValue:        oldVal,
			NewValue:        newVal,
			ChangeTimestamp: changedAt,
			Source:          source,
			ActingUserID:    userID,
			SourceDetails:   details,
		})
	}

	if len(records) == 0 {
		return nil, nil
	}
	if err := t.ledger.Append(ctx, records); err != nil {
		return nil, err
	}

	zap.L().Debug("lineage: tracked update",
		zap.String("entity_kind", entityKind),
		zap.String("entity_id", entityID),
		zap.Int("fields_changed", len(records)),
		zap.String("source", string(source)),
	)
	return records, nil
}
