package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout has fixed-width fractional seconds so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run kinds.
const (
	KindCompress   = "compress"
	KindDecompress = "decompress"
	KindBench      = "bench"
)

// Run is one catalogued compress, decompress or bench invocation.
type Run struct {
	ID            string
	Kind          string
	Dataset       string
	Source        string
	Target        string
	TruncateCount int
	RecordCount   int64
	OriginalBytes int64
	PackedBytes   int64
	Duration      time.Duration
	CreatedAt     time.Time
}

// RecordRun inserts a new run.
func (d *DB) RecordRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := d.db.Exec(`
		INSERT INTO runs (id, kind, dataset, source, target, truncate_count, record_count,
		                  original_bytes, packed_bytes, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, nullStr(run.Dataset), nullStr(run.Source), nullStr(run.Target),
		run.TruncateCount, run.RecordCount, run.OriginalBytes, run.PackedBytes,
		run.Duration.Milliseconds(), run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its ID.
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.db.QueryRow(`
		SELECT id, kind, dataset, source, target, truncate_count, record_count,
		       original_bytes, packed_bytes, duration_ms, created_at
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(`
		SELECT id, kind, dataset, source, target, truncate_count, record_count,
		       original_bytes, packed_bytes, duration_ms, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var dataset, source, target sql.NullString
	var durationMS int64
	var createdAt string

	err := s.Scan(
		&run.ID, &run.Kind, &dataset, &source, &target, &run.TruncateCount, &run.RecordCount,
		&run.OriginalBytes, &run.PackedBytes, &durationMS, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Dataset = dataset.String
	run.Source = source.String
	run.Target = target.String
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	return &run, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
