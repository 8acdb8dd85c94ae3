package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/assessor-cli/internal/model"
)

// MemoryStore implements Store with in-process maps. It is both the
// zero-dependency backend for small installations and the fake the engine
// tests run against. Property iteration preserves insertion order so
// discovery tie-breaks are reproducible.
type MemoryStore struct {
	mu sync.RWMutex

	properties      map[string]*model.Property
	propertyOrder   []string
	improvements    map[string][]model.Improvement // keyed by property id
	saleEntries     map[string]*model.ComparableSaleEntry
	analyses        map[string]*model.ComparableAnalysis
	analysisEntries map[string]*model.AnalysisEntry
	entryOrder      []string // analysis entry ids in insertion order
	lineage         []model.LineageRecord
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		properties:      make(map[string]*model.Property),
		improvements:    make(map[string][]model.Improvement),
		saleEntries:     make(map[string]*model.ComparableSaleEntry),
		analyses:        make(map[string]*model.ComparableAnalysis),
		analysisEntries: make(map[string]*model.AnalysisEntry),
	}
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                      { return nil }

func (s *MemoryStore) CreateProperty(ctx context.Context, p *model.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now

	cp := *p
	s.properties[p.PropertyID] = &cp
	s.propertyOrder = append(s.propertyOrder, p.PropertyID)
	return nil
}

func (s *MemoryStore) GetProperty(ctx context.Context, propertyID string) (*model.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListProperties(ctx context.Context) ([]model.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Property, 0, len(s.propertyOrder))
	for _, id := range s.propertyOrder {
		out = append(out, *s.properties[id])
	}
	return out, nil
}

func (s *MemoryStore) UpdateProperty(ctx context.Context, p *model.Property, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.properties[p.PropertyID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expectedVersion {
		return ErrConflict
	}
	p.Version = expectedVersion + 1
	p.UpdatedAt = time.Now().UTC()
	p.CreatedAt = cur.CreatedAt

	cp := *p
	s.properties[p.PropertyID] = &cp
	return nil
}

func (s *MemoryStore) CreateImprovement(ctx context.Context, imp *model.Improvement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if imp.ID == "" {
		imp.ID = uuid.New().String()
	}
	imp.CreatedAt = time.Now().UTC()
	s.improvements[imp.PropertyID] = append(s.improvements[imp.PropertyID], *imp)
	return nil
}

func (s *MemoryStore) GetImprovementsByProperty(ctx context.Context, propertyID string) ([]model.Improvement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	imps := s.improvements[propertyID]
	out := make([]model.Improvement, len(imps))
	copy(out, imps)
	return out, nil
}

func (s *MemoryStore) CreateSaleEntry(ctx context.Context, e *model.ComparableSaleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now

	cp := *e
	s.saleEntries[e.ID] = &cp
	return nil
}

func (s *MemoryStore) GetSaleEntry(ctx context.Context, id string) (*model.ComparableSaleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.saleEntries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) ListSaleEntriesBySubject(ctx context.Context, propertyID string) ([]model.ComparableSaleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ComparableSaleEntry
	for _, e := range s.saleEntries {
		if e.SubjectPropertyID == propertyID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateSaleEntry(ctx context.Context, e *model.ComparableSaleEntry, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.saleEntries[e.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expectedVersion {
		return ErrConflict
	}
	e.Version = expectedVersion + 1
	e.UpdatedAt = time.Now().UTC()
	e.CreatedAt = cur.CreatedAt

	cp := *e
	s.saleEntries[e.ID] = &cp
	return nil
}

func (s *MemoryStore) CreateAnalysis(ctx context.Context, a *model.ComparableAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.Version = 1
	a.CreatedAt = now
	a.UpdatedAt = now

	cp := *a
	s.analyses[a.ID] = &cp
	return nil
}

func (s *MemoryStore) GetAnalysis(ctx context.Context, id string) (*model.ComparableAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.analyses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) UpdateAnalysis(ctx context.Context, a *model.ComparableAnalysis, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.analyses[a.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expectedVersion {
		return ErrConflict
	}
	a.Version = expectedVersion + 1
	a.UpdatedAt = time.Now().UTC()
	a.CreatedAt = cur.CreatedAt

	cp := *a
	s.analyses[a.ID] = &cp
	return nil
}

func (s *MemoryStore) CreateAnalysisEntry(ctx context.Context, e *model.AnalysisEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Weight == "" {
		e.Weight = "1"
	}
	now := time.Now().UTC()
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now

	cp := *e
	s.analysisEntries[e.ID] = &cp
	s.entryOrder = append(s.entryOrder, e.ID)
	return nil
}

func (s *MemoryStore) GetAnalysisEntry(ctx context.Context, id string) (*model.AnalysisEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.analysisEntries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) GetAnalysisEntries(ctx context.Context, analysisID string) ([]model.AnalysisEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AnalysisEntry
	for _, id := range s.entryOrder {
		if e := s.analysisEntries[id]; e.AnalysisID == analysisID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateAnalysisEntry(ctx context.Context, e *model.AnalysisEntry, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.analysisEntries[e.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expectedVersion {
		return ErrConflict
	}
	e.Version = expectedVersion + 1
	e.UpdatedAt = time.Now().UTC()
	e.CreatedAt = cur.CreatedAt

	cp := *e
	s.analysisEntries[e.ID] = &cp
	return nil
}

func (s *MemoryStore) AppendLineage(ctx context.Context, records []model.LineageRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Single append under the lock: the batch becomes visible all at once.
	batch := make([]model.LineageRecord, len(records))
	copy(batch, records)
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.New().String()
		}
	}
	s.lineage = append(s.lineage, batch...)
	return nil
}

func (s *MemoryStore) QueryLineage(ctx context.Context, f LineageFilter) ([]model.LineageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.LineageRecord
	for _, r := range s.lineage {
		if f.EntityID != "" && r.EntityID != f.EntityID {
			continue
		}
		if f.FieldName != "" && r.FieldName != f.FieldName {
			continue
		}
		if f.UserID != "" && (r.ActingUserID == nil || *r.ActingUserID != f.UserID) {
			continue
		}
		if f.Source != "" && r.Source != f.Source {
			continue
		}
		if f.Start != nil && r.ChangeTimestamp.Before(*f.Start) {
			continue
		}
		if f.End != nil && r.ChangeTimestamp.After(*f.End) {
			continue
		}
		out = append(out, r)
	}

	// Newest first; SliceStable keeps batch-internal order for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangeTimestamp.After(out[j].ChangeTimestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
