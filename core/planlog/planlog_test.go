package planlog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(base time.Time) []Record {
	return []Record{
		{Timestamp: base, PlanID: "a", Status: "OPTIMAL", OrderIDs: []int64{1, 2}, Items: 3},
		{Timestamp: base.Add(time.Hour), PlanID: "b", Status: "FALLBACK", OrderIDs: []int64{2}, Items: 1, Skipped: 1},
		{Timestamp: base.Add(2 * time.Hour), PlanID: "c", Status: "FAILED", OrderIDs: []int64{3}, ErrorKind: "unschedulable", Error: "cannot schedule"},
	}
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, r := range sampleRecords(base) {
		require.NoError(t, s.Append(ctx, r))
	}

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].PlanID)

	byOrder, err := s.Query(ctx, Query{OrderID: 2})
	require.NoError(t, err)
	assert.Len(t, byOrder, 2)

	byStatus, err := s.Query(ctx, Query{Status: "FAILED"})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "cannot schedule", byStatus[0].Error)

	ranged, err := s.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "b", ranged[0].PlanID)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "plans.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestJSONLStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))
	s, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), Record{PlanID: "x", Timestamp: time.Now()}))
	out, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "x", out[0].PlanID)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "plans.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestRotatingJSONLStoreRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	// ~12KB per record against a 1MB limit forces a rotation
	big := make([]string, 200)
	for i := range big {
		big[i] = "capacity exceeded on line assembly-01 during night shift"
	}
	n := 120
	for i := 0; i < n; i++ {
		require.NoError(t, s.Append(context.Background(), Record{PlanID: "r", Timestamp: time.Now(), Warnings: big}))
	}
	files, _ := filepath.Glob(filepath.Join(dir, "plans*"))
	assert.Greater(t, len(files), 1, "expected rotated backups")

	out, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, n)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	_, err = Open(Config{Backend: "jsonl"})
	assert.Error(t, err)

	_, err = Open(Config{Backend: "kafka", Path: "x"})
	assert.Error(t, err)

	s, err = Open(Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "p.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())
}

func TestRecordJSONKeys(t *testing.T) {
	data, err := json.Marshal(Record{Timestamp: time.Unix(0, 0), PlanID: "p", OrderIDs: []int64{1}})
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"timestamp", "plan_id", "status", "order_ids", "window", "items", "makespan_hours"} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "error")
}
