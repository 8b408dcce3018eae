// Package store handles SQLite persistence of imported samples.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dysgair/capteval/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout keeps stored timestamps lexically ordered.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for batches and samples.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			imported_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY,
			batch_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			human TEXT NOT NULL,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS sample_variants (
			sample_id INTEGER NOT NULL,
			system TEXT NOT NULL,
			mode TEXT NOT NULL,
			hypothesis TEXT NOT NULL,
			cer REAL,
			wer REAL,
			attribution TEXT NOT NULL,
			PRIMARY KEY (sample_id, system, mode)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_batch ON samples(batch_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_created_at ON samples(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ImportBatch stores samples under name, replacing any batch with that name.
func (s *Store) ImportBatch(ctx context.Context, name string, samples []model.Sample) (id int64, err error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("batch name is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if err = deleteBatch(ctx, tx, name); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO batches (name, imported_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	sampleStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (batch_id, position, text, human, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := sampleStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	variantStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sample_variants (sample_id, system, mode, hypothesis, cer, wer, attribution)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := variantStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	for pos, sample := range samples {
		var createdAt any
		if sample.CreatedAt != nil {
			createdAt = sample.CreatedAt.UTC().Format(timeLayout)
		}
		res, err := sampleStmt.ExecContext(ctx, id, pos, sample.Text, sample.Human, createdAt)
		if err != nil {
			return 0, err
		}
		sampleID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		for _, src := range model.Sources {
			v := sample.Variant(src)
			if _, err := variantStmt.ExecContext(ctx, sampleID, src.System.Key(), src.Mode.String(),
				v.Hypothesis, nullable(v.CER), nullable(v.WER), v.Attribution); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func deleteBatch(ctx context.Context, tx *sql.Tx, name string) error {
	stmts := []string{
		`DELETE FROM sample_variants WHERE sample_id IN (
			SELECT s.id FROM samples s JOIN batches b ON b.id = s.batch_id WHERE b.name = ?)`,
		`DELETE FROM samples WHERE batch_id IN (SELECT id FROM batches WHERE name = ?)`,
		`DELETE FROM batches WHERE name = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, name); err != nil {
			return err
		}
	}
	return nil
}

// ListBatches returns stored batches ordered by import time.
func (s *Store) ListBatches(ctx context.Context) ([]model.BatchInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT b.name, b.imported_at, COUNT(s.id)
		FROM batches b
		LEFT JOIN samples s ON s.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.imported_at ASC, b.id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var batches []model.BatchInfo
	for rows.Next() {
		var info model.BatchInfo
		var importedAt string
		if err := rows.Scan(&info.Name, &importedAt, &info.SampleCount); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, importedAt)
		if err != nil {
			return nil, err
		}
		info.ImportedAt = parsed
		batches = append(batches, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListSamples returns stored samples matching filter in import order.
func (s *Store) ListSamples(ctx context.Context, filter model.SampleFilter) ([]model.Sample, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Batch != "" {
		clauses = append(clauses, "b.name = ?")
		args = append(args, filter.Batch)
	}
	if filter.Since != nil {
		clauses = append(clauses, "COALESCE(s.created_at, b.imported_at) >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)

	query := fmt.Sprintf(`WITH picked AS (
		SELECT s.id, s.text, s.human, s.created_at
		FROM samples s
		JOIN batches b ON b.id = s.batch_id
		WHERE %s
		ORDER BY s.id DESC
		LIMIT ?
	)
	SELECT p.id, p.text, p.human, p.created_at, v.system, v.mode, v.hypothesis, v.cer, v.wer, v.attribution
	FROM picked p
	LEFT JOIN sample_variants v ON v.sample_id = p.id
	ORDER BY p.id ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var samples []model.Sample
	lastID := int64(-1)
	for rows.Next() {
		var (
			id          int64
			text, human string
			createdAt   sql.NullString
			system      sql.NullString
			mode        sql.NullString
			hypothesis  sql.NullString
			cer, wer    sql.NullFloat64
			attribution model.Attribution
		)
		if err := rows.Scan(&id, &text, &human, &createdAt, &system, &mode, &hypothesis, &cer, &wer, &attribution); err != nil {
			return nil, err
		}
		if id != lastID {
			sample := model.Sample{Text: text, Human: human}
			if createdAt.Valid {
				parsed, err := time.Parse(timeLayout, createdAt.String)
				if err != nil {
					return nil, err
				}
				sample.CreatedAt = &parsed
			}
			samples = append(samples, sample)
			lastID = id
		}
		if !system.Valid {
			continue
		}
		src, err := parseSource(system.String, mode.String)
		if err != nil {
			return nil, err
		}
		v := model.Variant{Hypothesis: hypothesis.String, Attribution: attribution}
		if cer.Valid {
			v.CER = model.Float(cer.Float64)
		}
		if wer.Valid {
			v.WER = model.Float(wer.Float64)
		}
		last := len(samples) - 1
		samples[last] = samples[last].WithVariant(src, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func parseSource(system, mode string) (model.Source, error) {
	for _, src := range model.Sources {
		if src.System.Key() == system && src.Mode.String() == mode {
			return src, nil
		}
	}
	return model.Source{}, fmt.Errorf("unknown variant %s/%s", system, mode)
}
