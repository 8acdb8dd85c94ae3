package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/assessor-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which is how the Postgres store is tested without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (or mock) without connecting.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS properties (
	property_id   TEXT PRIMARY KEY,
	property_type TEXT NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	acres         TEXT NOT NULL DEFAULT '',
	current_value TEXT,
	status        TEXT NOT NULL DEFAULT 'active',
	latitude      DOUBLE PRECISION,
	longitude     DOUBLE PRECISION,
	extension     JSONB NOT NULL DEFAULT '{}',
	version       BIGINT NOT NULL DEFAULT 1,
	seq           BIGINT GENERATED ALWAYS AS IDENTITY,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS improvements (
	id             TEXT PRIMARY KEY,
	property_id    TEXT NOT NULL REFERENCES properties(property_id),
	square_footage DOUBLE PRECISION,
	bedroom_count  INTEGER,
	bathroom_count DOUBLE PRECISION,
	quality        TEXT NOT NULL DEFAULT '',
	condition      TEXT NOT NULL DEFAULT '',
	year_built     INTEGER,
	seq            BIGINT GENERATED ALWAYS AS IDENTITY,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_entries (
	id                  TEXT PRIMARY KEY,
	subject_property_id TEXT NOT NULL,
	comp_property_id    TEXT NOT NULL DEFAULT '',
	sale_date           TIMESTAMPTZ,
	sale_price          TEXT,
	adjusted_price      TEXT,
	distance_miles      DOUBLE PRECISION,
	similarity_score    DOUBLE PRECISION,
	adjustment_factors  JSONB NOT NULL DEFAULT '{}',
	status              TEXT NOT NULL DEFAULT 'active',
	version             BIGINT NOT NULL DEFAULT 1,
	seq                 BIGINT GENERATED ALWAYS AS IDENTITY,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id                  TEXT PRIMARY KEY,
	subject_property_id TEXT NOT NULL,
	name                TEXT NOT NULL DEFAULT '',
	methodology         TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'draft',
	value_conclusion    TEXT,
	version             BIGINT NOT NULL DEFAULT 1,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_entries (
	id             TEXT PRIMARY KEY,
	analysis_id    TEXT NOT NULL REFERENCES analyses(id),
	sale_entry_id  TEXT NOT NULL,
	weight         TEXT NOT NULL DEFAULT '1',
	include_final  BOOLEAN NOT NULL DEFAULT TRUE,
	adjusted_value TEXT,
	notes          TEXT NOT NULL DEFAULT '',
	version        BIGINT NOT NULL DEFAULT 1,
	seq            BIGINT GENERATED ALWAYS AS IDENTITY,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
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
	changed_at     TIMESTAMPTZ NOT NULL,
	source         TEXT NOT NULL,
	acting_user_id TEXT,
	source_details JSONB NOT NULL DEFAULT '{}',
	seq            BIGINT GENERATED ALWAYS AS IDENTITY
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateProperty(ctx context.Context, p *model.Property) error {
	now := time.Now().UTC()
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now

	extJSON, err := marshalMap(p.Extension)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal extension")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO properties (property_id, property_type, address, acres, current_value, status, latitude, longitude, extension, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.PropertyID, string(p.PropertyType), p.Address, p.Acres, p.CurrentValue, string(p.Status),
		p.Latitude, p.Longitude, extJSON, p.Version, now, now,
	)
	return eris.Wrapf(err, "postgres: insert property %s", p.PropertyID)
}

func (s *PostgresStore) GetProperty(ctx context.Context, propertyID string) (*model.Property, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT property_id, property_type, address, acres, current_value, status, latitude, longitude, extension, version, created_at, updated_at
		 FROM properties WHERE property_id = $1`,
		propertyID,
	)
	return scanPropertyPG(row)
}

func (s *PostgresStore) ListProperties(ctx context.Context) ([]model.Property, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT property_id, property_type, address, acres, current_value, status, latitude, longitude, extension, version, created_at, updated_at
		 FROM properties ORDER BY seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list properties")
	}
	defer rows.Close()

	var out []model.Property
	for rows.Next() {
		p, err := scanPropertyPG(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list properties iterate")
}

func (s *PostgresStore) UpdateProperty(ctx context.Context, p *model.Property, expectedVersion int64) error {
	extJSON, err := marshalMap(p.Extension)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal extension")
	}
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE properties SET property_type = $1, address = $2, acres = $3, current_value = $4, status = $5, latitude = $6, longitude = $7, extension = $8, version = version + 1, updated_at = $9
		 WHERE property_id = $10 AND version = $11`,
		string(p.PropertyType), p.Address, p.Acres, p.CurrentValue, string(p.Status),
		p.Latitude, p.Longitude, extJSON, now, p.PropertyID, expectedVersion,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update property %s", p.PropertyID)
	}
	if err := s.checkVersioned(ctx, tag, `SELECT 1 FROM properties WHERE property_id = $1`, p.PropertyID); err != nil {
		return err
	}
	p.Version = expectedVersion + 1
	p.UpdatedAt = now
	return nil
}

func (s *PostgresStore) CreateImprovement(ctx context.Context, imp *model.Improvement) error {
	if imp.ID == "" {
		imp.ID = uuid.New().String()
	}
	imp.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO improvements (id, property_id, square_footage, bedroom_count, bathroom_count, quality, condition, year_built, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		imp.ID, imp.PropertyID, imp.SquareFootage, imp.BedroomCount, imp.BathroomCount,
		imp.Quality, imp.Condition, imp.YearBuilt, imp.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert improvement for %s", imp.PropertyID)
}

func (s *PostgresStore) GetImprovementsByProperty(ctx context.Context, propertyID string) ([]model.Improvement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, property_id, square_footage, bedroom_count, bathroom_count, quality, condition, year_built, created_at
		 FROM improvements WHERE property_id = $1 ORDER BY seq`,
		propertyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get improvements")
	}
	defer rows.Close()

	var out []model.Improvement
	for rows.Next() {
		var imp model.Improvement
		if err := rows.Scan(&imp.ID, &imp.PropertyID, &imp.SquareFootage, &imp.BedroomCount,
			&imp.BathroomCount, &imp.Quality, &imp.Condition, &imp.YearBuilt, &imp.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan improvement")
		}
		out = append(out, imp)
	}
	return out, eris.Wrap(rows.Err(), "postgres: get improvements iterate")
}

func (s *PostgresStore) CreateSaleEntry(ctx context.Context, e *model.ComparableSaleEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now

	adjJSON, err := marshalMap(e.AdjustmentFactors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal adjustment factors")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sale_entries (id, subject_property_id, comp_property_id, sale_date, sale_price, adjusted_price, distance_miles, similarity_score, adjustment_factors, status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.SubjectPropertyID, e.CompPropertyID, e.SaleDate, e.SalePrice, e.AdjustedPrice,
		e.DistanceMiles, e.SimilarityScore, adjJSON, string(e.Status), e.Version, now, now,
	)
	return eris.Wrapf(err, "postgres: insert sale entry for %s", e.SubjectPropertyID)
}

func (s *PostgresStore) GetSaleEntry(ctx context.Context, id string) (*model.ComparableSaleEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, subject_property_id, comp_property_id, sale_date, sale_price, adjusted_price, distance_miles, similarity_score, adjustment_factors, status, version, created_at, updated_at
		 FROM sale_entries WHERE id = $1`,
		id,
	)
	return scanSaleEntryPG(row)
}

func (s *PostgresStore) ListSaleEntriesBySubject(ctx context.Context, propertyID string) ([]model.ComparableSaleEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, subject_property_id, comp_property_id, sale_date, sale_price, adjusted_price, distance_miles, similarity_score, adjustment_factors, status, version, created_at, updated_at
		 FROM sale_entries WHERE subject_property_id = $1 ORDER BY seq`,
		propertyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sale entries")
	}
	defer rows.Close()

	var out []model.ComparableSaleEntry
	for rows.Next() {
		e, err := scanSaleEntryPG(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sale entries iterate")
}

func (s *PostgresStore) UpdateSaleEntry(ctx context.Context, e *model.ComparableSaleEntry, expectedVersion int64) error {
	adjJSON, err := marshalMap(e.AdjustmentFactors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal adjustment factors")
	}
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE sale_entries SET comp_property_id = $1, sale_date = $2, sale_price = $3, adjusted_price = $4, distance_miles = $5, similarity_score = $6, adjustment_factors = $7, status = $8, version = version + 1, updated_at = $9
		 WHERE id = $10 AND version = $11`,
		e.CompPropertyID, e.SaleDate, e.SalePrice, e.AdjustedPrice, e.DistanceMiles,
		e.SimilarityScore, adjJSON, string(e.Status), now, e.ID, expectedVersion,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update sale entry %s", e.ID)
	}
	if err := s.checkVersioned(ctx, tag, `SELECT 1 FROM sale_entries WHERE id = $1`, e.ID); err != nil {
		return err
	}
	e.Version = expectedVersion + 1
	e.UpdatedAt = now
	return nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a *model.ComparableAnalysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.Version = 1
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, subject_property_id, name, methodology, status, value_conclusion, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.SubjectPropertyID, a.Name, a.Methodology, string(a.Status), a.ValueConclusion, a.Version, now, now,
	)
	return eris.Wrapf(err, "postgres: insert analysis for %s", a.SubjectPropertyID)
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*model.ComparableAnalysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, subject_property_id, name, methodology, status, value_conclusion, version, created_at, updated_at
		 FROM analyses WHERE id = $1`,
		id,
	)

	var a model.ComparableAnalysis
	var status string
	err := row.Scan(&a.ID, &a.SubjectPropertyID, &a.Name, &a.Methodology, &status,
		&a.ValueConclusion, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan analysis")
	}
	a.Status = model.AnalysisStatus(status)
	return &a, nil
}

func (s *PostgresStore) UpdateAnalysis(ctx context.Context, a *model.ComparableAnalysis, expectedVersion int64) error {
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET name = $1, methodology = $2, status = $3, value_conclusion = $4, version = version + 1, updated_at = $5
		 WHERE id = $6 AND version = $7`,
		a.Name, a.Methodology, string(a.Status), a.ValueConclusion, now, a.ID, expectedVersion,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update analysis %s", a.ID)
	}
	if err := s.checkVersioned(ctx, tag, `SELECT 1 FROM analyses WHERE id = $1`, a.ID); err != nil {
		return err
	}
	a.Version = expectedVersion + 1
	a.UpdatedAt = now
	return nil
}

func (s *PostgresStore) CreateAnalysisEntry(ctx context.Context, e *model.AnalysisEntry) error {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_entries (id, analysis_id, sale_entry_id, weight, include_final, adjusted_value, notes, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.AnalysisID, e.SaleEntryID, e.Weight, e.IncludeInFinalValue, e.AdjustedValue, e.Notes, e.Version, now, now,
	)
	return eris.Wrapf(err, "postgres: insert analysis entry for %s", e.AnalysisID)
}

func (s *PostgresStore) GetAnalysisEntry(ctx context.Context, id string) (*model.AnalysisEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, analysis_id, sale_entry_id, weight, include_final, adjusted_value, notes, version, created_at, updated_at
		 FROM analysis_entries WHERE id = $1`,
		id,
	)
	return scanAnalysisEntryPG(row)
}

func (s *PostgresStore) GetAnalysisEntries(ctx context.Context, analysisID string) ([]model.AnalysisEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, analysis_id, sale_entry_id, weight, include_final, adjusted_value, notes, version, created_at, updated_at
		 FROM analysis_entries WHERE analysis_id = $1 ORDER BY seq`,
		analysisID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get analysis entries")
	}
	defer rows.Close()

	var out []model.AnalysisEntry
	for rows.Next() {
		e, err := scanAnalysisEntryPG(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: get analysis entries iterate")
}

func (s *PostgresStore) UpdateAnalysisEntry(ctx context.Context, e *model.AnalysisEntry, expectedVersion int64) error {
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE analysis_entries SET weight = $1, include_final = $2, adjusted_value = $3, notes = $4, version = version + 1, updated_at = $5
		 WHERE id = $6 AND version = $7`,
		e.Weight, e.IncludeInFinalValue, e.AdjustedValue, e.Notes, now, e.ID, expectedVersion,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update analysis entry %s", e.ID)
	}
	if err := s.checkVersioned(ctx, tag, `SELECT 1 FROM analysis_entries WHERE id = $1`, e.ID); err != nil {
		return err
	}
	e.Version = expectedVersion + 1
	e.UpdatedAt = now
	return nil
}

func (s *PostgresStore) AppendLineage(ctx context.Context, records []model.LineageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin lineage batch")
	}
	defer tx.Rollback(ctx)

	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		detailsJSON, err := marshalMap(r.SourceDetails)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal source details")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO lineage (id, entity_kind, entity_id, field_name, old_kind, old_value, new_kind, new_value, changed_at, source, acting_user_id, source_details)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			r.ID, r.EntityKind, r.EntityID, r.FieldName,
			string(r.OldValue.Kind), r.OldValue.Value, string(r.NewValue.Kind), r.NewValue.Value,
			r.ChangeTimestamp, string(r.Source), r.ActingUserID, detailsJSON,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert lineage %s.%s", r.EntityID, r.FieldName)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit lineage batch")
}

func (s *PostgresStore) QueryLineage(ctx context.Context, f LineageFilter) ([]model.LineageRecord, error) {
	query := `SELECT id, entity_kind, entity_id, field_name, old_kind, old_value, new_kind, new_value, changed_at, source, acting_user_id, source_details
	          FROM lineage WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.EntityID != "" {
		query += ` AND entity_id = ` + arg(f.EntityID)
	}
	if f.FieldName != "" {
		query += ` AND field_name = ` + arg(f.FieldName)
	}
	if f.UserID != "" {
		query += ` AND acting_user_id = ` + arg(f.UserID)
	}
	if f.Source != "" {
		query += ` AND source = ` + arg(string(f.Source))
	}
	if f.Start != nil {
		query += ` AND changed_at >= ` + arg(f.Start.UTC())
	}
	if f.End != nil {
		query += ` AND changed_at <= ` + arg(f.End.UTC())
	}
	// Newest timestamp first; seq breaks ties in append order so batches
	// read back the way they were written, matching the memory backend.
	query += ` ORDER BY changed_at DESC, seq ASC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query lineage")
	}
	defer rows.Close()

	var out []model.LineageRecord
	for rows.Next() {
		r, err := scanLineagePG(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: query lineage iterate")
}

// helpers

func (s *PostgresStore) checkVersioned(ctx context.Context, tag pgconn.CommandTag, existsQuery string, id string) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	var one int
	err := s.pool.QueryRow(ctx, existsQuery, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "postgres: existence check")
	}
	return ErrConflict
}

type pgScannable interface {
	Scan(dest ...any) error
}

func scanPropertyPG(row pgScannable) (*model.Property, error) {
	var p model.Property
	var propertyType, status string
	var extJSON []byte

	err := row.Scan(&p.PropertyID, &propertyType, &p.Address, &p.Acres, &p.CurrentValue,
		&status, &p.Latitude, &p.Longitude, &extJSON, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan property")
	}
	p.PropertyType = model.PropertyType(propertyType)
	p.Status = model.PropertyStatus(status)
	if len(extJSON) > 0 && string(extJSON) != "{}" {
		if err := json.Unmarshal(extJSON, &p.Extension); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal extension")
		}
	}
	return &p, nil
}

func scanSaleEntryPG(row pgScannable) (*model.ComparableSaleEntry, error) {
	var e model.ComparableSaleEntry
	var status string
	var adjJSON []byte

	err := row.Scan(&e.ID, &e.SubjectPropertyID, &e.CompPropertyID, &e.SaleDate, &e.SalePrice,
		&e.AdjustedPrice, &e.DistanceMiles, &e.SimilarityScore, &adjJSON, &status,
		&e.Version, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan sale entry")
	}
	e.Status = model.SaleEntryStatus(status)
	if len(adjJSON) > 0 && string(adjJSON) != "{}" {
		if err := json.Unmarshal(adjJSON, &e.AdjustmentFactors); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal adjustment factors")
		}
	}
	return &e, nil
}

func scanAnalysisEntryPG(row pgScannable) (*model.AnalysisEntry, error) {
	var e model.AnalysisEntry

	err := row.Scan(&e.ID, &e.AnalysisID, &e.SaleEntryID, &e.Weight, &e.IncludeInFinalValue,
		&e.AdjustedValue, &e.Notes, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan analysis entry")
	}
	return &e, nil
}

func scanLineagePG(row pgScannable) (*model.LineageRecord, error) {
	var r model.LineageRecord
	var oldKind, newKind, source string
	var detailsJSON []byte

	err := row.Scan(&r.ID, &r.EntityKind, &r.EntityID, &r.FieldName,
		&oldKind, &r.OldValue.Value, &newKind, &r.NewValue.Value,
		&r.ChangeTimestamp, &source, &r.ActingUserID, &detailsJSON)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan lineage")
	}
	r.OldValue.Kind = model.ValueKind(oldKind)
	r.NewValue.Kind = model.ValueKind(newKind)
	r.Source = model.ChangeSource(source)
	if len(detailsJSON) > 0 && string(detailsJSON) != "{}" {
		if err := json.Unmarshal(detailsJSON, &r.SourceDetails); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal source details")
		}
	}
	return &r, nil
}
