package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"tally/internal/amqp"
	applog "tally/internal/log"
	"tally/internal/sheets/memory"
	"tally/internal/storage"
)

const twoExpenses = `[
 {"id":"b","description":"bus","amount":2.5,"category":"Transport","date":"2024-05-02"},
 {"id":"a","description":"lunch","amount":12,"category":"Food","date":"2024-05-01"}
]`

func newTestWorker(t *testing.T) (*MirrorWorker, *storage.MemoryStore, *memory.Mirror) {
	t.Helper()
	kv := storage.NewMemoryStore()
	m := memory.New()
	w := NewMirrorWorker(kv, m, time.Hour, applog.New(applog.Config{Output: io.Discard}))
	return w, kv, m
}

func TestSyncMirrorsStore(t *testing.T) {
	ctx := context.Background()
	w, kv, m := newTestWorker(t)

	wrote, err := w.Sync(ctx, false)
	if err != nil || !wrote {
		t.Fatalf("first sync = %v, %v", wrote, err)
	}
	if rows := m.Rows(); len(rows) != 1 {
		t.Fatalf("empty store should mirror only the header, got %v", rows)
	}

	_ = kv.Set(ctx, storage.KeyExpenses, twoExpenses)
	if wrote, err := w.Sync(ctx, false); err != nil || !wrote {
		t.Fatalf("sync after change = %v, %v", wrote, err)
	}
	rows := m.Rows()
	if len(rows) != 3 || rows[1][0] != "b" || rows[2][2] != "lunch" {
		t.Fatalf("rows = %v", rows)
	}

	if wrote, _ := w.Sync(ctx, false); wrote {
		t.Fatal("unchanged store should be skipped")
	}
	if wrote, _ := w.Sync(ctx, true); !wrote {
		t.Fatal("forced sync should write")
	}
	if m.Replaces() != 3 {
		t.Fatalf("replaces = %d", m.Replaces())
	}
}

func TestSyncKeepsMirrorOnCorruptStore(t *testing.T) {
	ctx := context.Background()
	w, kv, m := newTestWorker(t)
	_ = kv.Set(ctx, storage.KeyExpenses, twoExpenses)
	if _, err := w.Sync(ctx, false); err != nil {
		t.Fatal(err)
	}

	_ = kv.Set(ctx, storage.KeyExpenses, "{garbage")
	if _, err := w.Sync(ctx, true); err == nil {
		t.Fatal("expected decode error")
	}
	if len(m.Rows()) != 3 {
		t.Fatal("mirror should keep the last good copy")
	}
}

func TestHandleChangePropagatesMirrorErrors(t *testing.T) {
	ctx := context.Background()
	w, _, m := newTestWorker(t)
	m.FailWith(errors.New("quota exceeded"))

	err := w.HandleChange(ctx, amqp.NewExpenseChangedMessage("add", []string{"x"}, 1))
	if err == nil {
		t.Fatal("a failed mirror must be reported so the message is requeued")
	}

	m.FailWith(nil)
	if err := w.HandleChange(ctx, amqp.NewExpenseChangedMessage("add", []string{"x"}, 1)); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
}

func TestStartStop(t *testing.T) {
	w, _, m := newTestWorker(t)
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}
	if !w.IsRunning() {
		t.Fatal("worker should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Fatal("worker should be stopped")
	}
	if m.Replaces() != 1 {
		t.Fatalf("initial sync should run once, got %d", m.Replaces())
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
