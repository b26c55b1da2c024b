// Package worker keeps external mirrors of the expense list in step with
// the persisted store.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tally/internal/amqp"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/sheets"
	"tally/internal/storage"
)

// MirrorWorker copies the persisted expense list into a sheets.Mirror,
// either when notified of a change or on a fixed interval as a backstop for
// lost messages.
type MirrorWorker struct {
	kv       storage.KeyValue
	mirror   sheets.Mirror
	interval time.Duration
	logger   *applog.Logger

	syncMu     sync.Mutex
	lastSynced string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorWorker(kv storage.KeyValue, mirror sheets.Mirror, interval time.Duration, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MirrorWorker{
		kv:       kv,
		mirror:   mirror,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleChange mirrors the store after an expense-change message.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ExpenseChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing expense change",
		applog.FieldOperation, msg.Operation, applog.FieldRevision, msg.Revision, applog.FieldCount, len(msg.IDs))
	_, err := w.Sync(ctx, true)
	return err
}

// Sync reads the persisted list and writes it to the mirror. Unless force
// is set, an unchanged list since the last successful sync is skipped. It
// reports whether the mirror was written.
func (w *MirrorWorker) Sync(ctx context.Context, force bool) (bool, error) {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	raw, ok, err := w.kv.Get(ctx, storage.KeyExpenses)
	if err != nil {
		return false, fmt.Errorf("read expenses: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		raw = "[]"
	}
	if !force && raw == w.lastSynced {
		return false, nil
	}
	expenses, err := services.DecodeExpenses([]byte(raw))
	if err != nil {
		// A corrupt store must not wipe the mirror.
		return false, err
	}
	if err := w.mirror.Replace(ctx, expenses); err != nil {
		return false, fmt.Errorf("mirror expenses: %w", err)
	}
	w.lastSynced = raw
	w.logger.InfoContext(ctx, "Mirror updated", applog.FieldOperation, applog.OpMirror, applog.FieldCount, len(expenses))
	return true, nil
}

// Start runs an initial sync and then one every interval until Stop or
// ctx ends. It fails if the worker is already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.loop(ctx)
	w.logger.InfoContext(ctx, "Mirror worker started", "interval", w.interval)
	return nil
}

func (w *MirrorWorker) loop(ctx context.Context) {
	defer close(w.doneCh)
	t := time.NewTicker(w.interval)
	defer t.Stop()

	w.periodic(ctx)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			w.periodic(ctx)
		}
	}
}

func (w *MirrorWorker) periodic(ctx context.Context) {
	if _, err := w.Sync(ctx, false); err != nil {
		w.logger.ErrorContext(ctx, "Periodic mirror failed", applog.FieldError, err)
	}
}

// Stop signals the loop and waits for it, or for ctx to expire.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stop)
	select {
	case <-done:
		w.logger.InfoContext(ctx, "Mirror worker stopped")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}
}

func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
