// Package export renders a set of expenses as CSV, JSON, XLSX or PDF.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tally/internal/core"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileName is the suggested download name, e.g. expenses-2024-05-03.csv.
func (f Format) FileName(day core.Date) string {
	return fmt.Sprintf("expenses-%s.%s", day, f)
}

// Report is the input of every export: the expenses plus the derived
// figures the richer formats print.
type Report struct {
	Expenses    []core.Expense
	Total       core.Money
	Budget      core.BudgetStatus
	Breakdown   []core.CategoryShare
	GeneratedAt time.Time
}

// NewReport computes the derived figures for expenses against budget.
func NewReport(expenses []core.Expense, budget core.Money, now time.Time) Report {
	total := core.Total(expenses)
	return Report{
		Expenses:    expenses,
		Total:       total,
		Budget:      core.NewBudgetStatus(total, budget),
		Breakdown:   core.Breakdown(expenses),
		GeneratedAt: now,
	}
}

// Write renders r in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, r.Expenses)
	case FormatJSON:
		return WriteJSON(w, r.Expenses)
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatPDF:
		return WritePDF(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// CSVHeader is the first line of every CSV export.
const CSVHeader = "id,description,amount,category,date"

// WriteCSV writes one line per expense. The description is always quoted,
// with embedded quotes doubled; the other fields never need quoting.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	var sb strings.Builder
	sb.WriteString(CSVHeader)
	sb.WriteByte('\n')
	for _, e := range expenses {
		sb.WriteString(e.ID)
		sb.WriteByte(',')
		sb.WriteString(quoteCSV(e.Description))
		sb.WriteByte(',')
		sb.WriteString(e.Amount.String())
		sb.WriteByte(',')
		sb.WriteString(e.Category)
		sb.WriteByte(',')
		sb.WriteString(e.Date.String())
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteJSON writes the full records, identifiers included, indented.
func WriteJSON(w io.Writer, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(expenses)
}
