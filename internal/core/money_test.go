package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{".", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseNonNegativeCentsAllowsZero(t *testing.T) {
	got, err := ParseNonNegativeCents("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (err=%v)", got, err)
	}
	if _, err := ParseNonNegativeCents("-3"); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestParseLenientCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1e3", 100000, true},
		{"2.5E2", 25000, true},
		{"12,75", 1275, true},
		{"+40", 4000, true},
		{"-40", 0, true},
		{"-1e3", 0, true},
		{"0", 0, true},
		{"1e20", 0, false},
		{"-1e30", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseLenientCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := map[float64]int64{
		30:      3000,
		12.345:  1235,
		0.1:     10,
		19.99:   1999,
		1000000: 100000000,
	}
	for in, want := range cases {
		if got := MoneyFromFloat(in).Cents; got != want {
			t.Fatalf("MoneyFromFloat(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	m := Money{Cents: 4500}
	if m.String() != "45.00" {
		t.Fatalf("String() = %q", m.String())
	}
	if m.Format() != "$45.00" {
		t.Fatalf("Format() = %q", m.Format())
	}
	if (Money{Cents: -250}).Format() != "-$2.50" {
		t.Fatalf("negative format = %q", (Money{Cents: -250}).Format())
	}
	if m.Float() != 45 {
		t.Fatalf("Float() = %v", m.Float())
	}
}

func TestMoneyJSON(t *testing.T) {
	var m Money
	for in, want := range map[string]int64{`15`: 1500, `15.5`: 1550, `"7.25"`: 725, `null`: 0} {
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.Cents != want {
			t.Fatalf("unmarshal %s = %d, want %d", in, m.Cents, want)
		}
	}
	for _, in := range []string{`"abc"`, `-1e30`, `1e20`, `"184467440737095516.17"`} {
		m = Money{Cents: 42}
		err := json.Unmarshal([]byte(in), &m)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("unmarshal %s: expected ErrInvalidAmount, got %v", in, err)
		}
		if m.Cents != 42 {
			t.Fatalf("unmarshal %s overwrote amount with %d", in, m.Cents)
		}
	}
	b, _ := json.Marshal(Money{Cents: 1000})
	if string(b) != "10" {
		t.Fatalf("marshal = %s", b)
	}
}
