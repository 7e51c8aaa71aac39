package history_test

import (
	"context"
	"testing"
	"time"

	"themereel/internal/history"
	"themereel/internal/testsupport"
)

func TestRecordAndListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, theme := range []string{"theme1", "theme2", "theme3"} {
		_, err := store.Record(ctx, history.Record{
			RunID:      "run-a",
			Theme:      theme,
			OutputPath: "/out/" + theme + ".mp4",
			Status:     history.StatusSucceeded,
			SizeBytes:  int64(1000 * (i + 1)),
			Elapsed:    1500 * time.Millisecond,
			FinishedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	records, err := store.List(ctx, history.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Theme != "theme3" || records[2].Theme != "theme1" {
		t.Fatalf("expected newest first, got %s..%s", records[0].Theme, records[2].Theme)
	}
	if records[0].SizeBytes != 3000 || records[0].Elapsed != 1500*time.Millisecond {
		t.Fatalf("unexpected record %+v", records[0])
	}
	if !records[0].StartedAt.Equal(base.Add(2*time.Second - 1500*time.Millisecond)) {
		t.Fatalf("unexpected derived start %v", records[0].StartedAt)
	}

	limited, err := store.List(ctx, history.ListOptions{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected 1 limited record, got %d (%v)", len(limited), err)
	}
}

func TestListFiltersAndTally(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	rows := []history.Record{
		{RunID: "run-a", Theme: "t1", Status: history.StatusSucceeded},
		{RunID: "run-a", Theme: "t2", Status: history.StatusFailed, ErrorKind: "render", Diagnostic: "ffmpeg failed"},
		{RunID: "run-a", Theme: "t3", Status: history.StatusErrored, ErrorKind: "timeout"},
		{RunID: "run-a", Theme: "t4", Status: history.StatusErrored, ErrorKind: "validation"},
		{RunID: "run-b", Theme: "t1", Status: history.StatusSucceeded},
	}
	for _, row := range rows {
		if _, err := store.Record(ctx, row); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	tally, err := store.RunTally(ctx, "run-a")
	if err != nil {
		t.Fatalf("RunTally: %v", err)
	}
	if tally.Succeeded != 1 || tally.Failed != 1 || tally.Errored != 2 || tally.Total() != 4 {
		t.Fatalf("unexpected tally %+v", tally)
	}

	errored, err := store.List(ctx, history.ListOptions{RunID: "run-a", Status: history.StatusErrored})
	if err != nil || len(errored) != 2 {
		t.Fatalf("expected 2 errored rows, got %d (%v)", len(errored), err)
	}
	failed, err := store.List(ctx, history.ListOptions{Theme: "t2"})
	if err != nil || len(failed) != 1 || failed[0].Diagnostic != "ffmpeg failed" || failed[0].ErrorKind != "render" {
		t.Fatalf("unexpected theme filter result %+v (%v)", failed, err)
	}
}

func TestRecordValidatesInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if _, err := store.Record(ctx, history.Record{Status: history.StatusSucceeded}); err == nil {
		t.Fatal("expected error without run id")
	}
	if _, err := store.Record(ctx, history.Record{RunID: "r", Status: "weird"}); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestSetPublishedAndPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	oldID, err := store.Record(ctx, history.Record{RunID: "r", Theme: "old", Status: history.StatusSucceeded, FinishedAt: old})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := store.Record(ctx, history.Record{RunID: "r", Theme: "new", Status: history.StatusSucceeded}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.SetPublished(ctx, oldID, "s3://bucket/old.mp4"); err != nil {
		t.Fatalf("SetPublished: %v", err)
	}
	if err := store.SetPublished(ctx, 9999, "s3://x"); err == nil {
		t.Fatal("expected error for unknown id")
	}

	removed, err := store.Prune(ctx, old.Add(time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 pruned row, got %d (%v)", removed, err)
	}
	records, err := store.List(ctx, history.ListOptions{})
	if err != nil || len(records) != 1 || records[0].Theme != "new" {
		t.Fatalf("unexpected remaining rows %+v (%v)", records, err)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(context.Background(), history.Record{RunID: "r", Theme: "t", Status: history.StatusFailed}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenHistory(t, cfg)
	records, err := reopened.List(context.Background(), history.ListOptions{})
	if err != nil || len(records) != 1 {
		t.Fatalf("expected persisted record, got %d (%v)", len(records), err)
	}
}
