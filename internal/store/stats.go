package store

import (
	"database/sql"
	"fmt"
)

// Metrics holds reconstruction quality for a run.
type Metrics struct {
	RunID       string
	MSE         float64
	MAE         float64
	RelError    float64
	MaxAbsError float64
	OrigMean    float64
	ReconMean   float64
	OrigStdDev  float64
	ReconStdDev float64
}

// RecordMetrics inserts or replaces the metrics of a run.
func (d *DB) RecordMetrics(m *Metrics) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO run_metrics
			(run_id, mse, mae, rel_error, max_abs_error, orig_mean, recon_mean, orig_stddev, recon_stddev)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RunID, m.MSE, m.MAE, m.RelError, m.MaxAbsError,
		m.OrigMean, m.ReconMean, m.OrigStdDev, m.ReconStdDev,
	)
	if err != nil {
		return fmt.Errorf("recording metrics: %w", err)
	}
	return nil
}

// GetMetrics retrieves the metrics of a run.
func (d *DB) GetMetrics(runID string) (*Metrics, error) {
	var m Metrics
	var origMean, reconMean, origStd, reconStd sql.NullFloat64
	err := d.db.QueryRow(`
		SELECT run_id, mse, mae, rel_error, max_abs_error, orig_mean, recon_mean, orig_stddev, recon_stddev
		FROM run_metrics WHERE run_id = ?`, runID,
	).Scan(&m.RunID, &m.MSE, &m.MAE, &m.RelError, &m.MaxAbsError, &origMean, &reconMean, &origStd, &reconStd)
	if err != nil {
		return nil, fmt.Errorf("getting metrics: %w", err)
	}
	m.OrigMean = origMean.Float64
	m.ReconMean = reconMean.Float64
	m.OrigStdDev = origStd.Float64
	m.ReconStdDev = reconStd.Float64
	return &m, nil
}

// TruncateSummary aggregates the runs that used one truncate count.
type TruncateSummary struct {
	TruncateCount int
	Runs          int
	Records       int64
	OriginalBytes int64
	PackedBytes   int64
	// MeanRelError averages over runs that recorded metrics; zero if none did.
	MeanRelError float64
}

// Summary returns one row per truncate count, ascending.
func (d *DB) Summary() ([]TruncateSummary, error) {
	rows, err := d.db.Query(`
		SELECT r.truncate_count, COUNT(*), SUM(r.record_count), SUM(r.original_bytes),
		       SUM(r.packed_bytes), AVG(m.rel_error)
		FROM runs r LEFT JOIN run_metrics m ON m.run_id = r.id
		GROUP BY r.truncate_count
		ORDER BY r.truncate_count`)
	if err != nil {
		return nil, fmt.Errorf("summarizing runs: %w", err)
	}
	defer rows.Close()

	var out []TruncateSummary
	for rows.Next() {
		var s TruncateSummary
		var rel sql.NullFloat64
		if err := rows.Scan(&s.TruncateCount, &s.Runs, &s.Records, &s.OriginalBytes, &s.PackedBytes, &rel); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		s.MeanRelError = rel.Float64
		out = append(out, s)
	}
	return out, rows.Err()
}
