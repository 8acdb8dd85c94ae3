// Package store defines the persistence boundary for the valuation core and
// its three backends (in-memory, SQLite, Postgres). The engines treat the
// store as an opaque collaborator with consistent reads and durable writes.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessor-cli/internal/model"
)

// ErrNotFound is returned when a referenced entity does not exist. Callers
// distinguish it from system faults with errors.Is.
var ErrNotFound = eris.New("store: not found")

// ErrConflict is returned when an update's expected version does not match
// the stored version (another writer got there first).
var ErrConflict = eris.New("store: version conflict")

// LineageFilter selects lineage records. All criteria are optional and
// conjunctive; results are always sorted by change timestamp descending.
type LineageFilter struct {
	EntityID  string
	FieldName string
	UserID    string
	Source    model.ChangeSource
	Start     *time.Time
	End       *time.Time
	Limit     int
}

// Store is the persistence interface consumed by the valuation core.
//
// Update operations use optimistic concurrency: the caller passes the
// version it read, and the store returns ErrConflict when the stored
// version differs. On success the store bumps Version and UpdatedAt on the
// passed struct.
//
// AppendLineage writes the whole batch atomically; a partially visible
// batch is never observable. The lineage table is append-only; no update
// or delete operation exists.
type Store interface {
	CreateProperty(ctx context.Context, p *model.Property) error
	GetProperty(ctx context.Context, propertyID string) (*model.Property, error)
	ListProperties(ctx context.Context) ([]model.Property, error)
	UpdateProperty(ctx context.Context, p *model.Property, expectedVersion int64) error

	CreateImprovement(ctx context.Context, imp *model.Improvement) error
	GetImprovementsByProperty(ctx context.Context, propertyID string) ([]model.Improvement, error)

	CreateSaleEntry(ctx context.Context, e *model.ComparableSaleEntry) error
	GetSaleEntry(ctx context.Context, id string) (*model.ComparableSaleEntry, error)
	ListSaleEntriesBySubject(ctx context.Context, propertyID string) ([]model.ComparableSaleEntry, error)
	UpdateSaleEntry(ctx context.Context, e *model.ComparableSaleEntry, expectedVersion int64) error

	CreateAnalysis(ctx context.Context, a *model.ComparableAnalysis) error
	GetAnalysis(ctx context.Context, id string) (*model.ComparableAnalysis, error)
	UpdateAnalysis(ctx context.Context, a *model.ComparableAnalysis, expectedVersion int64) error

	CreateAnalysisEntry(ctx context.Context, e *model.AnalysisEntry) error
	GetAnalysisEntry(ctx context.Context, id string) (*model.AnalysisEntry, error)
	GetAnalysisEntries(ctx context.Context, analysisID string) ([]model.AnalysisEntry, error)
	UpdateAnalysisEntry(ctx context.Context, e *model.AnalysisEntry, expectedVersion int64) error

	AppendLineage(ctx context.Context, records []model.LineageRecord) error
	QueryLineage(ctx context.Context, f LineageFilter) ([]model.LineageRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}
