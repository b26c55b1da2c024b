package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	d := DateOf(time.Date(2024, 5, 1, 23, 59, 0, 0, loc))
	if d.String() != "2024-05-01" {
		t.Fatalf("expected 2024-05-01, got %s", d)
	}
	if !d.Equal(NewDate(2024, 5, 1)) {
		t.Fatalf("expected normalized date to equal NewDate")
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 2, 29))
	if err != nil || string(b) != `"2024-02-29"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-05-01"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Equal(NewDate(2024, 5, 1)) {
		t.Fatalf("unexpected date %s", d)
	}
	if err := json.Unmarshal([]byte(`"05/01/2024"`), &d); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    "Food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{Date: Date{}, Description: "a", Amount: Money{Cents: 1}, Category: "Food"}, ErrInvalidDate},
		{Expense{Date: NewDate(2025, 1, 1), Description: "  ", Amount: Money{Cents: 1}, Category: "Food"}, ErrEmptyDescription},
		{Expense{Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 201), Amount: Money{Cents: 1}, Category: "Food"}, ErrDescriptionLength},
		{Expense{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}, Category: "Food"}, ErrInvalidAmount},
		{Expense{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: "Groceries"}, ErrInvalidCategory},
	}
	for i, tc := range bads {
		err := tc.e.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		if !IsValidationError(err) {
			t.Fatalf("case %d expected validation error classification", i)
		}
	}
	if IsValidationError(errors.New("disk full")) {
		t.Fatalf("unrelated error classified as validation failure")
	}
}

func TestExpenseJSONShape(t *testing.T) {
	e := Expense{ID: "x1", Description: `say "hi"`, Amount: Money{Cents: 1550}, Category: "Food", Date: NewDate(2024, 5, 1)}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"x1","description":"say \"hi\"","amount":15.5,"category":"Food","date":"2024-05-01"}`
	if string(b) != want {
		t.Fatalf("got %s\nwant %s", b, want)
	}
	var back Expense
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != e.ID || back.Description != e.Description || back.Amount != e.Amount ||
		back.Category != e.Category || !back.Date.Equal(e.Date) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, e)
	}
}

func TestCategoryRegistry(t *testing.T) {
	names := CategoryNames()
	if len(names) != len(Categories()) || len(names) == 0 {
		t.Fatalf("registry size mismatch")
	}
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			t.Fatalf("duplicate category %q", n)
		}
		seen[n] = true
		cfg, ok := LookupCategory(n)
		if !ok || cfg.Color == "" || cfg.Icon == "" {
			t.Fatalf("category %q missing display config", n)
		}
	}
	if !IsValidCategory(CategoryOther) {
		t.Fatalf("fallback category must be registered")
	}
	if IsValidCategory("food") {
		t.Fatalf("lookup must be case sensitive")
	}

	// Mutating the returned slice must not affect the registry.
	cats := Categories()
	cats[0].Name = "Hacked"
	if _, ok := LookupCategory("Hacked"); ok {
		t.Fatalf("registry mutated through returned slice")
	}
}
