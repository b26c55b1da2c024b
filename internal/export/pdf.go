package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF writes a one-document report: summary figures, the category
// breakdown with bars, then the expense table.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Expense report", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Expense report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, "Generated "+r.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range [][2]string{
		{"Expenses", fmt.Sprintf("%d", len(r.Expenses))},
		{"Total spent", r.Total.Format()},
		{"Budget", r.Budget.Budget.Format()},
		{"Remaining", r.Budget.Remaining.Format()},
		{"Budget used", fmt.Sprintf("%.1f%% (%s)", r.Budget.Percent, r.Budget.Level)},
	} {
		pdf.CellFormat(45, 7, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, line[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if len(r.Breakdown) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "By category", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, s := range r.Breakdown {
			pdf.CellFormat(35, 7, tr(s.Category), "", 0, "L", false, 0, "")
			x, y := pdf.GetXY()
			red, green, blue := hexColor(s.Color)
			pdf.SetFillColor(red, green, blue)
			pdf.Rect(x, y+1.5, 100*s.Percent/100, 4, "F")
			pdf.SetX(x + 105)
			pdf.CellFormat(0, 7, fmt.Sprintf("%s (%.1f%%)", s.Amount.Format(), s.Percent), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	widths := []float64{25, 85, 35, 30}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(79, 70, 229)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range []string{"Date", "Description", "Category", "Amount"} {
		align := "L"
		if i == 3 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, e := range r.Expenses {
		pdf.CellFormat(widths[0], 7, e.Date.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(truncate(e.Description, 48)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, tr(e.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, e.Amount.Format(), "1", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// hexColor parses "#RRGGBB", falling back to grey.
func hexColor(s string) (int, int, int) {
	var r, g, b int
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return 150, 150, 150
	}
	return r, g, b
}
