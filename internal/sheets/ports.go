// Package sheets defines the spreadsheet mirror of the expense list and
// the row layout shared by its adapters.
package sheets

import (
	"context"

	"tally/internal/core"
)

// Mirror replaces the mirrored sheet contents with the given expenses.
type Mirror interface {
	Replace(ctx context.Context, expenses []core.Expense) error
}

// Header is the first row of every mirrored sheet.
var Header = []any{"ID", "Date", "Description", "Category", "Amount"}

// Rows renders expenses as sheet rows, header first. Amounts are written as
// numbers so the sheet can sum them.
func Rows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, append([]any(nil), Header...))
	for _, e := range expenses {
		rows = append(rows, []any{e.ID, e.Date.String(), e.Description, e.Category, e.Amount.Float()})
	}
	return rows
}
