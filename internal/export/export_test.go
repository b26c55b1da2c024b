package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"tally/internal/core"
)

func sampleExpenses() []core.Expense {
	return []core.Expense{
		{ID: "e2", Description: `Pizza "Margherita", large`, Amount: core.Money{Cents: 1250}, Category: "Food", Date: core.NewDate(2024, 5, 2)},
		{ID: "e1", Description: "Bus pass", Amount: core.Money{Cents: 4000}, Category: "Transport", Date: core.NewDate(2024, 5, 1)},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleExpenses()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "id,description,amount,category,date\n" +
		`e2,"Pizza ""Margherita"", large",12.50,Food,2024-05-02` + "\n" +
		`e1,"Bus pass",40.00,Transport,2024-05-01` + "\n"
	if buf.String() != want {
		t.Fatalf("csv =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	_ = WriteCSV(&buf, nil)
	if buf.String() != CSVHeader+"\n" {
		t.Fatalf("empty csv = %q", buf.String())
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	in := sampleExpenses()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Fatalf("json not indented:\n%s", buf.String())
	}

	var out []core.Expense
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d", len(out))
	}
	for i := range in {
		a, b := in[i], out[i]
		if a.ID != b.ID || a.Description != b.Description || a.Amount != b.Amount || a.Category != b.Category || !a.Date.Equal(b.Date) {
			t.Errorf("record %d: %+v != %+v", i, a, b)
		}
	}

	buf.Reset()
	_ = WriteJSON(&buf, nil)
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty json = %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	r := NewReport(sampleExpenses(), core.Money{Cents: 10000}, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC))
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, r); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(expensesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][0] != "ID" || rows[1][0] != "e2" || rows[3][3] != "Total" {
		t.Fatalf("rows = %v", rows)
	}
	if w, err := f.GetColWidth(expensesSheet, "C"); err != nil || w != 40 {
		t.Fatalf("description column width = %v (err=%v)", w, err)
	}
	if style, err := f.GetCellStyle(expensesSheet, "E4"); err != nil || style == 0 {
		t.Fatalf("total amount unstyled: style=%d err=%v", style, err)
	}
	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if summary[4][1] != string(core.BudgetOK) {
		t.Fatalf("summary = %v", summary)
	}
	if summary[6][0] != "Category" || summary[7][0] != "Transport" {
		t.Fatalf("breakdown rows = %v", summary[6:])
	}
}

func TestWriteXLSXEmptyReport(t *testing.T) {
	r := NewReport(nil, core.Money{Cents: 0}, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC))
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, r); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(expensesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][3] != "Total" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestWritePDF(t *testing.T) {
	r := NewReport(sampleExpenses(), core.Money{Cents: 10000}, time.Now())
	var buf bytes.Buffer
	if err := WritePDF(&buf, r); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", buf.Bytes()[:16])
	}

	buf.Reset()
	if err := WritePDF(&buf, NewReport(nil, core.Money{}, time.Now())); err != nil {
		t.Fatalf("empty report: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"csv", "JSON", " xlsx ", "pdf"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v", err)
	}
	if got := FormatCSV.FileName(core.NewDate(2024, 5, 3)); got != "expenses-2024-05-03.csv" {
		t.Fatalf("FileName = %s", got)
	}
	if err := Write(&bytes.Buffer{}, Format("xml"), Report{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Write err = %v", err)
	}
}

func TestHexColor(t *testing.T) {
	if r, g, b := hexColor("#FF8000"); r != 255 || g != 128 || b != 0 {
		t.Fatalf("hexColor = %d,%d,%d", r, g, b)
	}
	if r, _, _ := hexColor("teal"); r != 150 {
		t.Fatal("invalid color should fall back to grey")
	}
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
}
