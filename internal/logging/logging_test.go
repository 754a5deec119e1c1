package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestToSystemLog(t *testing.T) {
	record := slog.NewRecord(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), slog.LevelError, "failed to delete media object", 0)
	record.AddAttrs(
		slog.String("location", "acme-daycare"),
		slog.String("principal_id", "user_1"),
		slog.String("error", "boom"),
		slog.Float64("latency_ms", 12.6),
		slog.String("key", "community/acme-daycare/thread/x"),
	)

	entry := toSystemLog(record, []slog.Attr{slog.String("request_id", "req-1")})
	if entry.Location != "acme-daycare" || entry.RequestID != "req-1" || entry.Error != "boom" {
		t.Errorf("unexpected columns: %+v", entry)
	}
	if entry.PrincipalID == nil || *entry.PrincipalID != "user_1" {
		t.Errorf("principal not captured: %v", entry.PrincipalID)
	}
	if entry.LatencyMs != 13 {
		t.Errorf("LatencyMs = %d, want 13", entry.LatencyMs)
	}
	var extra map[string]interface{}
	if err := json.Unmarshal(entry.Extra, &extra); err != nil {
		t.Fatalf("extra: %v", err)
	}
	if extra["key"] != "community/acme-daycare/thread/x" || len(extra) != 1 {
		t.Errorf("unexpected extra: %v", extra)
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestFanout_PerSinkLevels(t *testing.T) {
	var all, errs bytes.Buffer
	h := newFanout([]Sink{
		{Handler: slog.NewJSONHandler(&all, &slog.HandlerOptions{Level: slog.LevelDebug}), MinLevel: slog.LevelInfo},
		{Handler: slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelDebug}), MinLevel: slog.LevelError},
		{Handler: nil, MinLevel: slog.LevelDebug},
	})
	logger := slog.New(h).With("location", "acme-daycare")

	logger.Debug("cache miss")
	logger.Info("thread created")
	logger.Warn("incorrect location PIN")
	logger.Error("failed to delete media object")

	if got := bytes.Count(all.Bytes(), []byte("\n")); got != 3 {
		t.Errorf("info sink got %d records, want 3", got)
	}
	if got := bytes.Count(errs.Bytes(), []byte("\n")); got != 1 {
		t.Errorf("error sink got %d records, want 1", got)
	}
	if !bytes.Contains(errs.Bytes(), []byte(`"location":"acme-daycare"`)) {
		t.Errorf("attrs not propagated: %s", errs.String())
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled on every sink")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be enabled")
	}
}

func TestFanout_FailingSinkDoesNotStopOthers(t *testing.T) {
	var out bytes.Buffer
	h := newFanout([]Sink{
		{Handler: failingHandler{slog.NewJSONHandler(&bytes.Buffer{}, nil)}, MinLevel: slog.LevelInfo},
		{Handler: slog.NewJSONHandler(&out, nil), MinLevel: slog.LevelInfo},
	})
	record := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	if err := h.Handle(context.Background(), record); err == nil {
		t.Error("expected the failing sink's error")
	}
	if !bytes.Contains(out.Bytes(), []byte(`"msg":"boom"`)) {
		t.Errorf("second sink missed the record: %s", out.String())
	}
}

func TestRunCleanup_ReportsPerLocation(t *testing.T) {
	var out bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&out, nil)))
	defer slog.SetDefault(prev)

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var gotCutoff time.Time
	prune := func(_ context.Context, cutoff time.Time) ([]LocationCount, error) {
		gotCutoff = cutoff
		return []LocationCount{{Location: "", Deleted: 2}, {Location: "acme-daycare", Deleted: 5}}, nil
	}

	if total := runCleanup(context.Background(), prune, 720*time.Hour, now); total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if want := now.Add(-720 * time.Hour); !gotCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", gotCutoff, want)
	}
	if !bytes.Contains(out.Bytes(), []byte(`"location":"acme-daycare","deleted":5`)) {
		t.Errorf("missing per-location line: %s", out.String())
	}
	if !bytes.Contains(out.Bytes(), []byte(`"msg":"log cleanup completed","deleted":7,"locations":2`)) {
		t.Errorf("missing summary line: %s", out.String())
	}
}

func TestRunCleanup_DisabledAndFailing(t *testing.T) {
	var out bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&out, nil)))
	defer slog.SetDefault(prev)

	called := false
	prune := func(context.Context, time.Time) ([]LocationCount, error) {
		called = true
		return nil, errors.New("connection refused")
	}

	if total := runCleanup(context.Background(), prune, 0, time.Now()); total != 0 || called {
		t.Error("zero retention should skip pruning")
	}
	if total := runCleanup(context.Background(), prune, time.Hour, time.Now()); total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if !bytes.Contains(out.Bytes(), []byte(`"level":"WARN","msg":"log cleanup failed"`)) {
		t.Errorf("failure not logged at WARN: %s", out.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != slog.LevelDebug || ParseLevel("WARN") != slog.LevelWarn || ParseLevel("nope") != slog.LevelInfo {
		t.Error("unexpected level mapping")
	}
}
