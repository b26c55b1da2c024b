package assistant

import (
	"errors"
	"testing"

	"tally/internal/core"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"  \n{\"a\":1}\n  ", `{"a":1}`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsedExpenseDraft(t *testing.T) {
	today := core.NewDate(2024, 5, 3)
	tests := []struct {
		name    string
		in      ParsedExpense
		want    core.Expense
		wantErr error
	}{
		{
			name: "complete",
			in:   ParsedExpense{Amount: core.Money{Cents: 500}, Description: " tea ", Category: "Food", Date: "2024-05-01"},
			want: core.Expense{Description: "tea", Amount: core.Money{Cents: 500}, Category: "Food", Date: core.NewDate(2024, 5, 1)},
		},
		{
			name: "defaults",
			in:   ParsedExpense{Amount: core.Money{Cents: 500}},
			want: core.Expense{Description: "Other", Amount: core.Money{Cents: 500}, Category: "Other", Date: today},
		},
		{
			name:    "zero amount",
			in:      ParsedExpense{Description: "x", Category: "Food"},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "bad date",
			in:      ParsedExpense{Amount: core.Money{Cents: 1}, Date: "2024-13-40"},
			wantErr: core.ErrInvalidDate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Draft(today)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Draft: %v", err)
			}
			if got.Description != tt.want.Description || got.Amount != tt.want.Amount ||
				got.Category != tt.want.Category || !got.Date.Equal(tt.want.Date) {
				t.Fatalf("Draft = %+v, want %+v", got, tt.want)
			}
		})
	}
}
