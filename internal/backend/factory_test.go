package backend

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/storage"
)

type stubNotifier struct{ closed bool }

func (s *stubNotifier) PublishExpenseChange(context.Context, string, []string, int64) error {
	return nil
}

func (s *stubNotifier) Close() error {
	s.closed = true
	return nil
}

func quietFactory() *DefaultFactory {
	return NewFactory(applog.New(applog.Config{Output: io.Discard}))
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tally.db")

	res, err := quietFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if err := res.Ready(ctx); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if err := res.Store.Set(ctx, storage.KeyBudget, "250"); err != nil {
		t.Fatal(err)
	}
	if res.Notifier != nil {
		t.Fatal("notifier should be nil without AMQP")
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	res, err = quietFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()
	if v, ok, _ := res.Store.Get(ctx, storage.KeyBudget); !ok || v != "250" {
		t.Fatalf("reopened value = %q, %v", v, ok)
	}
}

func TestCreateMemoryBackendSeeds(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed_budget.txt"), []byte("42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatal(err)
	}
	if v, _, _ := res.Store.Get(context.Background(), storage.KeyBudget); v != "42" {
		t.Fatalf("seeded budget = %q", v)
	}
}

func TestNotifierAttachment(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: MemoryBackend, DataDirectory: t.TempDir(), AMQPURL: "amqp://x/", AMQPExchange: "e", AMQPQueue: "q"}

	f := quietFactory()
	stub := &stubNotifier{}
	f.dialNotifier = func(Config, *applog.Logger) (notifier, error) { return stub, nil }
	res, err := f.CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Notifier == nil {
		t.Fatal("notifier should be attached")
	}
	_ = res.Cleanup()
	if !stub.closed {
		t.Fatal("cleanup should close the notifier")
	}

	f.dialNotifier = func(Config, *applog.Logger) (notifier, error) { return nil, errors.New("connection refused") }
	res, err = f.CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("broker outage must not fail startup: %v", err)
	}
	if res.Notifier != nil {
		t.Fatal("notifier should be nil after a failed dial")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite ok", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"memory ok", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x/", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config should fail")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", AMQPURL: "amqp://x/", AMQPExchange: "e", AMQPQueue: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != MemoryBackend || cfg.DataDirectory != "data" || cfg.AMQPQueue != "q" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("unknown backend should fail")
	}
}
