package memory

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"
)

func TestMirrorReplace(t *testing.T) {
	m := New()
	ctx := context.Background()
	expenses := []core.Expense{
		{ID: "b", Description: "bus", Amount: core.Money{Cents: 250}, Category: "Transport", Date: core.NewDate(2024, 5, 2)},
		{ID: "a", Description: "lunch", Amount: core.Money{Cents: 1200}, Category: "Food", Date: core.NewDate(2024, 5, 1)},
	}
	if err := m.Replace(ctx, expenses); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	rows := m.Rows()
	if len(rows) != 3 || rows[0][0] != "ID" {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][0] != "b" || rows[1][1] != "2024-05-02" || rows[1][4] != 2.5 {
		t.Fatalf("first data row = %v", rows[1])
	}

	if err := m.Replace(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if len(m.Rows()) != 1 || m.Replaces() != 2 {
		t.Fatalf("rows=%d replaces=%d", len(m.Rows()), m.Replaces())
	}

	boom := errors.New("quota")
	m.FailWith(boom)
	if err := m.Replace(ctx, expenses); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if m.Replaces() != 2 {
		t.Fatal("failed replace should not count")
	}
}
