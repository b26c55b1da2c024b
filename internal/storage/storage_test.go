package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func exerciseKeyValue(t *testing.T, kv KeyValue) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, KeyBudget); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, KeyBudget, "250.5"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := kv.Get(ctx, KeyBudget)
	if err != nil || !ok || v != "250.5" {
		t.Fatalf("get after set: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := kv.Set(ctx, KeyBudget, "300"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _, _ := kv.Get(ctx, KeyBudget); v != "300" {
		t.Fatalf("overwrite not visible: %q", v)
	}
	if err := kv.Set(ctx, KeyExpenses, ""); err != nil {
		t.Fatalf("set empty: %v", err)
	}
	if v, ok, _ := kv.Get(ctx, KeyExpenses); !ok || v != "" {
		t.Fatalf("empty value must be stored as present: v=%q ok=%v", v, ok)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseKeyValue(t, NewMemoryStore())
}

func TestSQLiteRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tally.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	exerciseKeyValue(t, repo)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.Set(context.Background(), KeyTheme, "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	repo.Close()

	// Reopening runs migrations again; that must be a no-op.
	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	v, ok, err := repo.Get(context.Background(), KeyTheme)
	if err != nil || !ok || v != "dark" {
		t.Fatalf("value lost across reopen: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestNewMemoryFromFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewMemoryFromFiles(dir)
	if _, ok, _ := s.Get(context.Background(), KeyExpenses); ok {
		t.Fatalf("expected no seed when files missing")
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_expenses.json", `[{"id":"a","description":"x","amount":1,"category":"Food","date":"2024-01-01"}]`)
	mustWrite("seed_budget.txt", " 500 \n")

	s = NewMemoryFromFiles(dir)
	if v, ok, _ := s.Get(context.Background(), KeyExpenses); !ok || v == "" {
		t.Fatalf("expenses seed not loaded")
	}
	if v, _, _ := s.Get(context.Background(), KeyBudget); v != "500" {
		t.Fatalf("budget seed = %q", v)
	}
}
