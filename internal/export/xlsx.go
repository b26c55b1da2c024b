package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	expensesSheet = "Expenses"
	summarySheet  = "Summary"
)

// WriteXLSX writes a workbook with the expense list on one sheet and the
// budget status and category breakdown on another.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expensesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F46E5"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("bold style: %w", err)
	}

	headers := []any{"ID", "Date", "Description", "Category", "Amount"}
	if err := f.SetSheetRow(expensesSheet, "A1", &headers); err != nil {
		return err
	}
	if err := f.SetCellStyle(expensesSheet, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("style expense header: %w", err)
	}

	row := 2
	for _, e := range r.Expenses {
		cells := []any{e.ID, e.Date.String(), e.Description, e.Category, e.Amount.Float()}
		if err := f.SetSheetRow(expensesSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return err
		}
		row++
	}
	totalRow := []any{"Total", r.Total.Float()}
	if err := f.SetSheetRow(expensesSheet, fmt.Sprintf("D%d", row), &totalRow); err != nil {
		return err
	}
	if err := f.SetCellStyle(expensesSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), boldStyle); err != nil {
		return fmt.Errorf("style total: %w", err)
	}
	if err := f.SetCellStyle(expensesSheet, "E2", fmt.Sprintf("E%d", row), moneyStyle); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}
	for _, w := range []struct {
		col   string
		width float64
	}{{"A", 38}, {"B", 12}, {"C", 40}} {
		if err := f.SetColWidth(expensesSheet, w.col, w.col, w.width); err != nil {
			return fmt.Errorf("width of column %s: %w", w.col, err)
		}
	}

	budgetRows := [][]any{
		{"Budget", r.Budget.Budget.Float()},
		{"Spent", r.Budget.Spent.Float()},
		{"Remaining", r.Budget.Remaining.Float()},
		{"Used %", r.Budget.Percent},
		{"Status", string(r.Budget.Level)},
	}
	for i, cells := range budgetRows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &cells); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(budgetRows)), boldStyle); err != nil {
		return fmt.Errorf("style budget labels: %w", err)
	}

	start := len(budgetRows) + 2
	breakdownHeader := []any{"Category", "Amount", "Share %"}
	if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", start), &breakdownHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", start), fmt.Sprintf("C%d", start), headerStyle); err != nil {
		return fmt.Errorf("style breakdown header: %w", err)
	}
	for i, s := range r.Breakdown {
		cells := []any{s.Category, s.Amount.Float(), s.Percent}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", start+1+i), &cells); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 16); err != nil {
		return fmt.Errorf("width of summary column: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
