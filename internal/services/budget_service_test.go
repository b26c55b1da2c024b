package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	applog "tally/internal/log"
	"tally/internal/storage"
)

func TestBudgetServiceLoad(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		stored string
		set    bool
		want   int64
	}{
		{name: "absent", want: DefaultBudget.Cents},
		{name: "stored", stored: "250.5", set: true, want: 25050},
		{name: "zero", stored: "0", set: true, want: 0},
		{name: "corrupt", stored: "lots", set: true, want: DefaultBudget.Cents},
		{name: "negative", stored: "-3", set: true, want: DefaultBudget.Cents},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemoryStore()
			if tt.set {
				_ = kv.Set(ctx, storage.KeyBudget, tt.stored)
			}
			s := NewBudgetService(ctx, kv, quietLogger())
			if got := s.Value().Cents; got != tt.want {
				t.Fatalf("Value = %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("read failure", func(t *testing.T) {
		s := NewBudgetService(ctx, &failingKV{KeyValue: storage.NewMemoryStore(), failGet: true}, quietLogger())
		if s.Value() != DefaultBudget {
			t.Fatalf("Value = %v", s.Value())
		}
	})
}

func TestBudgetServiceSet(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		input     string
		wantCents int64
		persisted string
	}{
		{"500", 50000, "500"},
		{"12,75", 1275, "12.75"},
		{"", 0, "0"},
		{"abc", 0, "0"},
		{"-40", 0, "0"},
		{"1e3", 100000, "1000"},
		{"-2e2", 0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kv := storage.NewMemoryStore()
			s := NewBudgetService(ctx, kv, quietLogger())
			got, err := s.Set(ctx, tt.input)
			if err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got.Cents != tt.wantCents || s.Value().Cents != tt.wantCents {
				t.Fatalf("Set(%q) = %d, want %d", tt.input, got.Cents, tt.wantCents)
			}
			raw, _, _ := kv.Get(ctx, storage.KeyBudget)
			if raw != tt.persisted {
				t.Fatalf("persisted %q, want %q", raw, tt.persisted)
			}
		})
	}
}

func TestBudgetServiceSetPersistFailure(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KeyValue: storage.NewMemoryStore()}
	s := NewBudgetService(ctx, kv, quietLogger())
	kv.failSet = true
	if _, err := s.Set(ctx, "5"); err == nil {
		t.Fatal("expected error")
	}
	if s.Value() != DefaultBudget {
		t.Fatalf("value changed: %v", s.Value())
	}
}

func TestPreferenceService(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	p := NewPreferenceService(ctx, kv, quietLogger())
	if p.Theme() != ThemeLight {
		t.Fatalf("default theme = %s", p.Theme())
	}

	next, err := p.Toggle(ctx)
	if err != nil || next != ThemeDark {
		t.Fatalf("Toggle = %s, %v", next, err)
	}
	if again := NewPreferenceService(ctx, kv, quietLogger()); again.Theme() != ThemeDark {
		t.Fatalf("theme not persisted: %s", again.Theme())
	}

	if err := p.SetTheme(ctx, Theme("sepia")); err != ErrInvalidTheme {
		t.Fatalf("SetTheme(sepia) = %v", err)
	}
	if th, err := ParseTheme(" Light "); err != nil || th != ThemeLight {
		t.Fatalf("ParseTheme = %s, %v", th, err)
	}

	_ = kv.Set(ctx, storage.KeyTheme, "neon")
	if p := NewPreferenceService(ctx, kv, quietLogger()); p.Theme() != ThemeLight {
		t.Fatalf("corrupt theme should fall back to light, got %s", p.Theme())
	}
}

func TestPreferenceServiceLogsUnderOwnComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{JSON: true, Output: &buf})
	kv := &failingKV{KeyValue: storage.NewMemoryStore(), failGet: true}

	p := NewPreferenceService(context.Background(), kv, logger)
	if p.Theme() != ThemeLight {
		t.Fatalf("theme = %s", p.Theme())
	}

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec[applog.FieldComponent] != applog.ComponentPrefs {
		t.Fatalf("component = %v", rec[applog.FieldComponent])
	}
}
