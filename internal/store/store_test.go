package store

import (
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigration(t *testing.T) {
	db := setupTestDB(t)

	var version int
	err := db.Conn().QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		t.Fatalf("failed to read user_version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected user_version 1, got %d", version)
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := t.TempDir() + "/catalog.db"
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.RecordRun(&Run{Kind: KindCompress, TruncateCount: 12}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	db.Close()

	// Reopening must not re-run migrations or lose data.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()
	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run after reopen, got %d", len(runs))
	}
}

func TestRunsCRUD(t *testing.T) {
	db := setupTestDB(t)

	run := &Run{
		Kind:          KindCompress,
		Source:        "data/gaussian_original.bin",
		Target:        "data/gaussian_compressed.fpk",
		TruncateCount: 12,
		RecordCount:   1000,
		OriginalBytes: 4000,
		PackedBytes:   3016,
		Duration:      1500 * time.Millisecond,
	}
	if err := db.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected RecordRun to assign an ID")
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("expected RecordRun to assign CreatedAt")
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Kind != KindCompress || got.Source != run.Source || got.Target != run.Target {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.Dataset != "" {
		t.Errorf("expected empty dataset, got %q", got.Dataset)
	}
	if got.RecordCount != 1000 || got.PackedBytes != 3016 {
		t.Errorf("unexpected counts: %+v", got)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got.Duration)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
}

func TestRunDuplicateID(t *testing.T) {
	db := setupTestDB(t)

	if err := db.RecordRun(&Run{ID: "fixed", Kind: KindBench}); err != nil {
		t.Fatalf("first RecordRun failed: %v", err)
	}
	if err := db.RecordRun(&Run{ID: "fixed", Kind: KindBench}); err == nil {
		t.Error("expected error on duplicate run ID, got nil")
	}
}

func TestGetRunNotFound(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.GetRun("missing"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestListRunsOrderAndLimit(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, kind := range []string{KindCompress, KindDecompress, KindBench} {
		err := db.RecordRun(&Run{
			ID:        kind,
			Kind:      kind,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Kind != KindBench || runs[1].Kind != KindDecompress {
		t.Errorf("unexpected order: %s, %s", runs[0].Kind, runs[1].Kind)
	}

	all, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs, got %d", len(all))
	}
}

func TestMetrics(t *testing.T) {
	db := setupTestDB(t)

	run := &Run{Kind: KindBench, Dataset: "gaussian", TruncateCount: 12}
	if err := db.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	m := &Metrics{RunID: run.ID, MSE: 1e-6, MAE: 5e-4, RelError: 1e-4, MaxAbsError: 0.002, OrigMean: 0.1, ReconMean: 0.099}
	if err := db.RecordMetrics(m); err != nil {
		t.Fatalf("RecordMetrics failed: %v", err)
	}

	got, err := db.GetMetrics(run.ID)
	if err != nil {
		t.Fatalf("GetMetrics failed: %v", err)
	}
	if *got != *m {
		t.Errorf("GetMetrics = %+v, want %+v", got, m)
	}

	// Replacing keeps a single row.
	m.MSE = 2e-6
	if err := db.RecordMetrics(m); err != nil {
		t.Fatalf("RecordMetrics replace failed: %v", err)
	}
	got, _ = db.GetMetrics(run.ID)
	if got.MSE != 2e-6 {
		t.Errorf("MSE after replace = %g", got.MSE)
	}
}

func TestMetricsRequireRun(t *testing.T) {
	db := setupTestDB(t)
	if err := db.RecordMetrics(&Metrics{RunID: "nope"}); err == nil {
		t.Error("expected foreign key error for unknown run")
	}
}

func TestSummary(t *testing.T) {
	db := setupTestDB(t)

	runs := []*Run{
		{Kind: KindCompress, TruncateCount: 12, RecordCount: 10, OriginalBytes: 40, PackedBytes: 30},
		{Kind: KindBench, TruncateCount: 12, RecordCount: 20, OriginalBytes: 80, PackedBytes: 60},
		{Kind: KindBench, TruncateCount: 8, RecordCount: 5, OriginalBytes: 20, PackedBytes: 18},
	}
	for _, r := range runs {
		if err := db.RecordRun(r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}
	if err := db.RecordMetrics(&Metrics{RunID: runs[1].ID, RelError: 0.5}); err != nil {
		t.Fatalf("RecordMetrics failed: %v", err)
	}

	sum, err := db.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(sum) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(sum))
	}
	if sum[0].TruncateCount != 8 || sum[0].Runs != 1 || sum[0].MeanRelError != 0 {
		t.Errorf("unexpected k=8 row: %+v", sum[0])
	}
	s := sum[1]
	if s.TruncateCount != 12 || s.Runs != 2 || s.Records != 30 || s.OriginalBytes != 120 || s.PackedBytes != 90 {
		t.Errorf("unexpected k=12 row: %+v", s)
	}
	if s.MeanRelError != 0.5 {
		t.Errorf("MeanRelError = %g, want 0.5", s.MeanRelError)
	}
}
