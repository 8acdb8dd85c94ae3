package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/assessor-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS properties (
	property_id   TEXT PRIMARY KEY,
	property_type TEXT NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	acres         TEXT NOT NULL DEFAULT '',
	current_value TEXT,
	status        TEXT NOT NULL DEFAULT 'active',
	latitude      REAL,
	longitude     REAL,
	extension     TEXT NOT NULL DEFAULT '{}',
	version       INTEGER NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS improvements (
	id             TEXT PRIMARY KEY,
	property_id    TEXT NOT NULL REFERENCES properties(property_id),
	square_footage REAL,
	bedroom_count  INTEGER,
	bathroom_count REAL,
	quality        TEXT NOT NULL DEFAULT '',
	condition      TEXT NOT NULL DEFAULT '',
	year_built     INTEGER,
	created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_entries (
	id                  TEXT PRIMARY KEY,
	subject_property_id TEXT NOT NULL,
	comp_property_id    TEXT NOT NULL DEFAULT '',
	sale_date           DATETIME,
	sale_price          TEXT,
	adjusted_price      TEXT,
	distance_miles      REAL,
	similarity_score    REAL,
	adjustment_factors  TEXT NOT NULL DEFAULT '{}',
	status              TEXT NOT NULL DEFAULT 'active',
	version             INTEGER NOT NULL DEFAULT 1,
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id                  TEXT PRIMARY KEY,
	subject_property_id TEXT NOT NULL,
	name                TEXT NOT NULL DEFAULT '',
	methodology         TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'draft',
	value_conclusion    TEXT,
	version             INTEGER NOT NULL DEFAULT 1,
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_entries (
	id             TEXT PRIMARY KEY,
	analysis_id    TEXT NOT NULL REFERENCES analyses(id),
	sale_entry_id  TEXT NOT NULL,
	weight         TEXT NOT NULL DEFAULT '1',
	include_final  INTEGER NOT NULL DEFAULT 1,
	adjusted_value TEXT,
	notes          TEXT NOT NULL DEFAULT '',
	version        INTEGER NOT NULL DEFAULT 1,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS lineage (
	id             TEXT PRIMARY KEY,
	entity_kind    TEXT NOT NULL,
	entity_id      TEXT NOT NULL,
	field_name     TEXT NOT NULL,
	old_kind       TEXT NOT NULL,
	old_value      TEXT NOT NULL DEFAULT '',
	new_kind       TEXT NOT NULL,
	new_value      TEXT NOT NULL DEFAULT '',
	changed_at     DATETIME NOT NULL,
	source         TEXT NOT NULL,
	acting_user_id TEXT,
	source_details TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_improvements_property ON improvements(property_id);
CREATE INDEX IF NOT EXISTS idx_sale_entries_subject ON sale_entries(subject_property_id);
CREATE INDEX IF NOT EXISTS idx_analysis_entries_analysis ON analysis_entries(analysis_id);
CREATE INDEX IF NOT EXISTS idx_lineage_entity ON lineage(entity_id);
CREATE INDEX IF NOT EXISTS idx_lineage_entity_field ON lineage(entity_id, field_name);
CREATE INDEX IF NOT EXISTS idx_lineage_user ON lineage(acting_user_id);
CREATE INDEX IF NOT EXISTS idx_lineage_source ON lineage(source);
CREATE INDEX IF NOT EXISTS idx_lineage_changed_at ON lineage(changed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProperty(ctx context.Context, p *model.Property) error {
	now := time.Now().UTC()
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now

	extJSON, err := marshalMap(p.Extension)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal extension")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO properties (property_id, property_type, address, acres, current_value, status, latitude, longitude, extension, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PropertyID, string(p.PropertyType), p.Address, p.Acres, p.CurrentValue, string(p.Status),
		p.Latitude, p.Longitude, extJSON, p.Version, now, now,
	)
	return eris.Wrapf(err, "sqlite: insert property %s", p.PropertyID)
}

func (s *SQLiteStore) GetProperty(ctx context.Context, propertyID string) (*model.Property, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT property_id, property_type, address, acres, current_value, status, latitude, longitude, extension, version, created_at, updated_at
		 FROM properties WHERE property_id = ?`,
		propertyID,
	)
	return scanProperty(row)
}

func (s *SQLiteStore) ListProperties(ctx context.Context) ([]model.Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT property_id, property_type, address, acres, current_value, status, latitude, longitude, extension, version, created_at, updated_at
		 FROM properties ORDER BY rowid`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list properties")
	}
	defer rows.Close()

	var out []model.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list properties iterate")
}

func (s *SQLiteStore) UpdateProperty(ctx context.Context, p *model.Property, expectedVersion int64) error {
	extJSON, err := marshalMap(p.Extension)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal extension")
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE properties SET property_type = ?, address = ?, acres = ?, current_value = ?, status = ?, latitude = ?, longitude = ?, extension = ?, version = version + 1, updated_at = ?
		 WHERE property_id = ? AND version = ?`,
		string(p.PropertyType), p.Address, p.Acres, p.CurrentValue, string(p.Status),
		p.Latitude, p.Longitude, extJSON, now, p.PropertyID, expectedVersion,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update property %s", p.PropertyID)
	}
	if err := s.checkVersioned(ctx, res, `SELECT 1 FROM properties WHERE property_id = ?`, p.PropertyID); err != nil {
		return err
	}
	p.Version = expectedVersion + 1
	p.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) CreateImprovement(ctx context.Context, imp *model.Improvement) error {
	if imp.ID == "" {
		imp.ID = uuid.New().String()
	}
	imp.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO improvements (id, property_id, square_footage, bedroom_count, bathroom_count, quality, condition, year_built, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		imp.ID, imp.PropertyID, imp.SquareFootage, imp.BedroomCount, imp.BathroomCount,
		imp.Quality, imp.Condition, imp.YearBuilt, imp.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert improvement for %s", imp.PropertyID)
}

func (s *SQLiteStore) GetImprovementsByProperty(ctx context.Context, propertyID string) ([]model.Improvement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, property_id, square_footage, bedroom_count, bathroom_count, quality, condition, year_built, created_at
		 FROM improvements WHERE property_id = ? ORDER BY rowid`,
		propertyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get improvements")
	}
	defer rows.Close()

	var out []model.Improvement
	for rows.Next() {
		var imp model.Improvement
		if err := rows.Scan(&imp.ID, &imp.PropertyID, &imp.SquareFootage, &imp.BedroomCount,
			&imp.BathroomCount, &imp.Quality, &imp.Condition, &imp.YearBuilt, &imp.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan improvement")
		}
		out = append(out, imp)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get improvements iterate")
}

func (s *SQLiteStore) CreateSaleEntry(ctx context.Context, e *model.ComparableSaleEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now

	adjJSON, err := marshalMap(e.AdjustmentFactors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal adjustment factors")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sale_entries (id, subject_property_id, comp_property_id, sale_date, sale_price, adjusted_price, distance_miles, similarity_score, adjustment_factors, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SubjectPropertyID, e.CompPropertyID, e.SaleDate, e.SalePrice, e.AdjustedPrice,
		e.DistanceMiles, e.SimilarityScore, adjJSON, string(e.Status), e.Version, now, now,
	)
	return eris.Wrapf(err, "sqlite: insert sale entry for %s", e.SubjectPropertyID)
}

func (s *SQLiteStore) GetSaleEntry(ctx context.Context, id string) (*model.ComparableSaleEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject_property_id, comp_property_id, sale_date, sale_price, adjusted_price, distance_miles, similarity_score, adjustment_factors, status, version, created_at, updated_at
		 FROM sale_entries WHERE id = ?`,
		id,
	)
	return scanSaleEntry(row)
}

func (s *SQLiteStore) ListSaleEntriesBySubject(ctx context.Context, propertyID string) ([]model.ComparableSaleEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject_property_id, comp_property_id, sale_date, sale_price, adjusted_price, distance_miles, similarity_score, adjustment_factors, status, version, created_at, updated_at
		 FROM sale_entries WHERE subject_property_id = ? ORDER BY rowid`,
		propertyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sale entries")
	}
	defer rows.Close()

	var out []model.ComparableSaleEntry
	for rows.Next() {
		e, err := scanSaleEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list sale entries iterate")
}

func (s *SQLiteStore) UpdateSaleEntry(ctx context.Context, e *model.ComparableSaleEntry, expectedVersion int64) error {
	adjJSON, err := marshalMap(e.AdjustmentFactors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal adjustment factors")
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE sale_entries SET comp_property_id = ?, sale_date = ?, sale_price = ?, adjusted_price = ?, distance_miles = ?, similarity_score = ?, adjustment_factors = ?, status = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		e.CompPropertyID, e.SaleDate, e.SalePrice, e.AdjustedPrice, e.DistanceMiles,
		e.SimilarityScore, adjJSON, string(e.Status), now, e.ID, expectedVersion,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update sale entry %s", e.ID)
	}
	if err := s.checkVersioned(ctx, res, `SELECT 1 FROM sale_entries WHERE id = ?`, e.ID); err != nil {
		return err
	}
	e.Version = expectedVersion + 1
	e.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) CreateAnalysis(ctx context.Context, a *model.ComparableAnalysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.Version = 1
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, subject_property_id, name, methodology, status, value_conclusion, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SubjectPropertyID, a.Name, a.Methodology, string(a.Status), a.ValueConclusion, a.Version, now, now,
	)
	return eris.Wrapf(err, "sqlite: insert analysis for %s", a.SubjectPropertyID)
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*model.ComparableAnalysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject_property_id, name, methodology, status, value_conclusion, version, created_at, updated_at
		 FROM analyses WHERE id = ?`,
		id,
	)

	var a model.ComparableAnalysis
	var status string
	err := row.Scan(&a.ID, &a.SubjectPropertyID, &a.Name, &a.Methodology, &status,
		&a.ValueConclusion, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis")
	}
	a.Status = model.AnalysisStatus(status)
	return &a, nil
}

func (s *SQLiteStore) UpdateAnalysis(ctx context.Context, a *model.ComparableAnalysis, expectedVersion int64) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET name = ?, methodology = ?, status = ?, value_conclusion = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		a.Name, a.Methodology, string(a.Status), a.ValueConclusion, now, a.ID, expectedVersion,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update analysis %s", a.ID)
	}
	if err := s.checkVersioned(ctx, res, `SELECT 1 FROM analyses WHERE id = ?`, a.ID); err != nil {
		return err
	}
	a.Version = expectedVersion + 1
	a.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) CreateAnalysisEntry(ctx context.Context, e *model.AnalysisEntry) error {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_entries (id, analysis_id, sale_entry_id, weight, include_final, adjusted_value, notes, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AnalysisID, e.SaleEntryID, e.Weight, e.IncludeInFinalValue, e.AdjustedValue, e.Notes, e.Version, now, now,
	)
	return eris.Wrapf(err, "sqlite: insert analysis entry for %s", e.AnalysisID)
}

func (s *SQLiteStore) GetAnalysisEntry(ctx context.Context, id string) (*model.AnalysisEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, analysis_id, sale_entry_id, weight, include_final, adjusted_value, notes, version, created_at, updated_at
		 FROM analysis_entries WHERE id = ?`,
		id,
	)
	return scanAnalysisEntry(row)
}

func (s *SQLiteStore) GetAnalysisEntries(ctx context.Context, analysisID string) ([]model.AnalysisEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, analysis_id, sale_entry_id, weight, include_final, adjusted_value, notes, version, created_at, updated_at
		 FROM analysis_entries WHERE analysis_id = ? ORDER BY rowid`,
		analysisID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get analysis entries")
	}
	defer rows.Close()

	var out []model.AnalysisEntry
	for rows.Next() {
		e, err := scanAnalysisEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get analysis entries iterate")
}

func (s *SQLiteStore) UpdateAnalysisEntry(ctx context.Context, e *model.AnalysisEntry, expectedVersion int64) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE analysis_entries SET weight = ?, include_final = ?, adjusted_value = ?, notes = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		e.Weight, e.IncludeInFinalValue, e.AdjustedValue, e.Notes, now, e.ID, expectedVersion,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update analysis entry %s", e.ID)
	}
	if err := s.checkVersioned(ctx, res, `SELECT 1 FROM analysis_entries WHERE id = ?`, e.ID); err != nil {
		return err
	}
	e.Version = expectedVersion + 1
	e.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) AppendLineage(ctx context.Context, records []model.LineageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin lineage batch")
	}
	defer tx.Rollback()

	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		detailsJSON, err := marshalMap(r.SourceDetails)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal source details")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO lineage (id, entity_kind, entity_id, field_name, old_kind, old_value, new_kind, new_value, changed_at, source, acting_user_id, source_details)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.EntityKind, r.EntityID, r.FieldName,
			string(r.OldValue.Kind), r.OldValue.Value, string(r.NewValue.Kind), r.NewValue.Value,
			r.ChangeTimestamp, string(r.Source), r.ActingUserID, detailsJSON,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert lineage %s.%s", r.EntityID, r.FieldName)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit lineage batch")
}

func (s *SQLiteStore) QueryLineage(ctx context.Context, f LineageFilter) ([]model.LineageRecord, error) {
	query := `SELECT id, entity_kind, entity_id, field_name, old_kind, old_value, new_kind, new_value, changed_at, source, acting_user_id, source_details
	          FROM lineage WHERE 1=1`
	var args []any

	if f.EntityID != "" {
		query += ` AND entity_id = ?`
		args = append(args, f.EntityID)
	}
	if f.FieldName != "" {
		query += ` AND field_name = ?`
		args = append(args, f.FieldName)
	}
	if f.UserID != "" {
		query += ` AND acting_user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(f.Source))
	}
	if f.Start != nil {
		query += ` AND changed_at >= ?`
		args = append(args, f.Start.UTC())
	}
	if f.End != nil {
		query += ` AND changed_at <= ?`
		args = append(args, f.End.UTC())
	}
	// Newest timestamp first; rowid breaks ties in append order so batches
	// read back the way they were written, matching the memory backend.
	query += ` ORDER BY changed_at DESC, rowid ASC`

	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query lineage")
	}
	defer rows.Close()

	var out []model.LineageRecord
	for rows.Next() {
		r, err := scanLineage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: query lineage iterate")
}

// helpers

// checkVersioned distinguishes a missing row from a version mismatch after a
// guarded UPDATE touched zero rows.
func (s *SQLiteStore) checkVersioned(ctx context.Context, res sql.Result, existsQuery string, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n > 0 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, existsQuery, id).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: existence check")
	}
	return ErrConflict
}

func marshalMap[V any](m map[string]V) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProperty(row scannable) (*model.Property, error) {
	var p model.Property
	var propertyType, status, extJSON string

	err := row.Scan(&p.PropertyID, &propertyType, &p.Address, &p.Acres, &p.CurrentValue,
		&status, &p.Latitude, &p.Longitude, &extJSON, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan property")
	}
	p.PropertyType = model.PropertyType(propertyType)
	p.Status = model.PropertyStatus(status)
	if extJSON != "" && extJSON != "{}" {
		if err := json.Unmarshal([]byte(extJSON), &p.Extension); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal extension")
		}
	}
	return &p, nil
}

func scanSaleEntry(row scannable) (*model.ComparableSaleEntry, error) {
	var e model.ComparableSaleEntry
	var status, adjJSON string

	err := row.Scan(&e.ID, &e.SubjectPropertyID, &e.CompPropertyID, &e.SaleDate, &e.SalePrice,
		&e.AdjustedPrice, &e.DistanceMiles, &e.SimilarityScore, &adjJSON, &status,
		&e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan sale entry")
	}
	e.Status = model.SaleEntryStatus(status)
	if adjJSON != "" && adjJSON != "{}" {
		if err := json.Unmarshal([]byte(adjJSON), &e.AdjustmentFactors); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal adjustment factors")
		}
	}
	return &e, nil
}

func scanAnalysisEntry(row scannable) (*model.AnalysisEntry, error) {
	var e model.AnalysisEntry

	err := row.Scan(&e.ID, &e.AnalysisID, &e.SaleEntryID, &e.Weight, &e.IncludeInFinalValue,
		&e.AdjustedValue, &e.Notes, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis entry")
	}
	return &e, nil
}

func scanLineage(row scannable) (*model.LineageRecord, error) {
	var r model.LineageRecord
	var oldKind, newKind, source, detailsJSON string

	err := row.Scan(&r.ID, &r.EntityKind, &r.EntityID, &r.FieldName,
		&oldKind, &r.OldValue.Value, &newKind, &r.NewValue.Value,
		&r.ChangeTimestamp, &source, &r.ActingUserID, &detailsJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lineage")
	}
	r.OldValue.Kind = model.ValueKind(oldKind)
	r.NewValue.Kind = model.ValueKind(newKind)
	r.Source = model.ChangeSource(source)
	if detailsJSON != "" && detailsJSON != "{}" {
		if err := json.Unmarshal([]byte(detailsJSON), &r.SourceDetails); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal source details")
		}
	}
	return &r, nil
}
