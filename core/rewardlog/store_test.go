package rewardlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/PREETHAM1590/waste-app/core/model"
)

func sampleRecords(base time.Time) []Record {
	return []Record{
		{Timestamp: base, UserID: "u1", Wallet: "w1", Activity: "scan", Tokens: 21, Success: true, Batched: true},
		{Timestamp: base.Add(time.Hour), UserID: "u2", Wallet: "w2", Activity: "streak", Tokens: 120, Success: true},
		{Timestamp: base.Add(2 * time.Hour), UserID: "u1", Wallet: "w1", Activity: "community", Tokens: 25, Success: false, Error: "boom"},
	}
}

func runStoreTests(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, r := range sampleRecords(base) {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := store.Query(ctx, Query{})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("query all returned %d records", len(all))
	}

	byUser, err := store.Query(ctx, Query{UserID: "u1"})
	if err != nil {
		t.Fatalf("query user: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("u1 records = %d, want 2", len(byUser))
	}

	byActivity, err := store.Query(ctx, Query{Activity: model.ActivityStreak, HasActivity: true})
	if err != nil {
		t.Fatalf("query activity: %v", err)
	}
	if len(byActivity) != 1 || byActivity[0].Tokens != 120 {
		t.Errorf("streak records = %+v", byActivity)
	}

	// The scan filter must not match everything just because scan is the
	// zero activity type.
	byScan, err := store.Query(ctx, Query{Activity: model.ActivityScan, HasActivity: true})
	if err != nil {
		t.Fatalf("query scan: %v", err)
	}
	if len(byScan) != 1 {
		t.Errorf("scan records = %d, want 1", len(byScan))
	}

	window, err := store.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(window) != 1 || window[0].UserID != "u2" {
		t.Errorf("window records = %+v", window)
	}
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "rewards.log"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	runStoreTests(t, store)
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "rewards.log"), 10, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	runStoreTests(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rewards.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	runStoreTests(t, store)
}

func TestNewStoreDispatch(t *testing.T) {
	dir := t.TempDir()

	jsonl, err := NewStore(Config{Backend: "jsonl", Path: filepath.Join(dir, "a.log")})
	if err != nil {
		t.Fatalf("jsonl: %v", err)
	}
	if _, ok := jsonl.(*JSONLStore); !ok {
		t.Errorf("backend jsonl built %T", jsonl)
	}

	rotating, err := NewStore(Config{Backend: "jsonl", Path: filepath.Join(dir, "b.log"), MaxSizeMB: 5})
	if err != nil {
		t.Fatalf("rotating: %v", err)
	}
	if _, ok := rotating.(*RotatingJSONLStore); !ok {
		t.Errorf("rotating backend built %T", rotating)
	}

	sqlite, err := NewStore(Config{Backend: "sqlite", Path: filepath.Join(dir, "c.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := sqlite.(*SQLiteStore); !ok {
		t.Errorf("sqlite backend built %T", sqlite)
	}

	if _, err := NewStore(Config{Backend: "bogus", Path: "x"}); err == nil {
		t.Errorf("bogus backend must fail")
	}
}
