package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS dataset_seq`,
	`CREATE TABLE IF NOT EXISTS datasets (
	id          VARCHAR PRIMARY KEY,
	seq         BIGINT NOT NULL DEFAULT nextval('dataset_seq'),
	owner       VARCHAR NOT NULL,
	filename    VARCHAR NOT NULL,
	uploaded_at TIMESTAMP NOT NULL,
	row_count   INTEGER NOT NULL,
	summary     VARCHAR NOT NULL,
	raw_key     VARCHAR NOT NULL,
	raw_size    BIGINT NOT NULL,
	report_key  VARCHAR,
	report_at   TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS owner_limits (
	owner        VARCHAR PRIMARY KEY,
	upload_limit INTEGER NOT NULL
)`,
}

const datasetColumns = `id, owner, filename, uploaded_at, summary, raw_key, raw_size, report_key, report_at`

// DuckOptions tunes the embedded database.
type DuckOptions struct {
	MemoryLimit string
	Threads     int
}

// DuckRepository implements Repository on an embedded DuckDB file.
type DuckRepository struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewDuckRepository opens (or creates) the database at path and applies the schema.
func NewDuckRepository(path string, opts DuckOptions, logger *zap.Logger) (*DuckRepository, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	var pragmas []string
	if opts.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
	}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}
	pragmas = append(pragmas, "PRAGMA enable_progress_bar=false")

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	logger.Info("database ready", zap.String("path", path))
	return &DuckRepository{db: db, path: path, logger: logger}, nil
}

// Close closes the database.
func (r *DuckRepository) Close() error {
	return r.db.Close()
}

func (r *DuckRepository) Create(ctx context.Context, ds *models.Dataset, limit int) ([]*models.Dataset, error) {
	if limit < 1 {
		return nil, fmt.Errorf("invalid retention limit %d", limit)
	}
	summary, err := json.Marshal(ds.Summary)
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (id, owner, filename, uploaded_at, row_count, summary, raw_key, raw_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Owner, ds.Filename, dbTime(ds.UploadedAt), ds.Summary.TotalCount,
		string(summary), ds.RawKey, ds.RawSize)
	if err != nil {
		return nil, fmt.Errorf("inserting dataset: %w", err)
	}

	// limit is a validated int, not user text
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM datasets WHERE owner = ? ORDER BY uploaded_at DESC, seq DESC OFFSET %d`,
		datasetColumns, limit), ds.Owner)
	if err != nil {
		return nil, fmt.Errorf("selecting overflow: %w", err)
	}
	evicted, err := scanDatasets(rows)
	if err != nil {
		return nil, err
	}

	for _, old := range evicted {
		if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, old.ID); err != nil {
			return nil, fmt.Errorf("evicting dataset %s: %w", old.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return evicted, nil
}

func (r *DuckRepository) Count(ctx context.Context, owner string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets WHERE owner = ?`, owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting datasets: %w", err)
	}
	return n, nil
}

func (r *DuckRepository) List(ctx context.Context, owner string, limit int) ([]*models.Dataset, error) {
	query := fmt.Sprintf(`SELECT %s FROM datasets WHERE owner = ? ORDER BY uploaded_at DESC, seq DESC`, datasetColumns)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	return scanDatasets(rows)
}

func (r *DuckRepository) Get(ctx context.Context, id, owner string) (*models.Dataset, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM datasets WHERE id = ? AND owner = ?`, datasetColumns), id, owner)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Resource: "dataset", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", id, err)
	}
	return ds, nil
}

func (r *DuckRepository) Delete(ctx context.Context, id, owner string) (*models.Dataset, error) {
	ds, err := r.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ? AND owner = ?`, id, owner); err != nil {
		return nil, fmt.Errorf("deleting dataset %s: %w", id, err)
	}
	return ds, nil
}

func (r *DuckRepository) Latest(ctx context.Context, owner string) (*models.Dataset, error) {
	list, err := r.List(ctx, owner, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &models.NotFoundError{Resource: "dataset", ID: "latest"}
	}
	return list[0], nil
}

func (r *DuckRepository) SetReport(ctx context.Context, id, key string, at time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var previous sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT report_key FROM datasets WHERE id = ?`, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		// evicted or deleted while rendering
		return "", &models.NotFoundError{Resource: "dataset", ID: id}
	}
	if err != nil {
		return "", fmt.Errorf("loading report key: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE datasets SET report_key = ?, report_at = ? WHERE id = ?`,
		key, dbTime(at), id); err != nil {
		return "", fmt.Errorf("updating report: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return previous.String, nil
}

func (r *DuckRepository) OwnerLimit(ctx context.Context, owner string) (int, bool, error) {
	var limit int
	err := r.db.QueryRowContext(ctx, `SELECT upload_limit FROM owner_limits WHERE owner = ?`, owner).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("loading owner limit: %w", err)
	}
	return limit, true, nil
}

func (r *DuckRepository) SetOwnerLimit(ctx context.Context, owner string, limit int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO owner_limits (owner, upload_limit) VALUES (?, ?)`, owner, limit)
	if err != nil {
		return fmt.Errorf("saving owner limit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(s scanner) (*models.Dataset, error) {
	var (
		ds        models.Dataset
		summary   string
		reportKey sql.NullString
		reportAt  sql.NullTime
	)
	if err := s.Scan(&ds.ID, &ds.Owner, &ds.Filename, &ds.UploadedAt, &summary,
		&ds.RawKey, &ds.RawSize, &reportKey, &reportAt); err != nil {
		return nil, err
	}
	if err := json.NewDecoder(strings.NewReader(summary)).Decode(&ds.Summary); err != nil {
		return nil, fmt.Errorf("decoding summary of %s: %w", ds.ID, err)
	}
	ds.UploadedAt = ds.UploadedAt.UTC()
	ds.ReportKey = reportKey.String
	if reportAt.Valid {
		at := reportAt.Time.UTC()
		ds.ReportAt = &at
	}
	return &ds, nil
}

func scanDatasets(rows *sql.Rows) ([]*models.Dataset, error) {
	defer rows.Close()
	out := make([]*models.Dataset, 0)
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dataset: %w", err)
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating datasets: %w", err)
	}
	return out, nil
}

// dbTime normalises to the precision DuckDB TIMESTAMP keeps.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

var _ Repository = (*DuckRepository)(nil)
