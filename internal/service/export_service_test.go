package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

func exportFixture(t *testing.T) (*ExportService, *stubReportStore) {
	t.Helper()
	_, stub, mem, _, _ := newReportFixture(t, ReportOptions{})
	catalog := NewCatalogService(categoryStore{mem}, questionStore{mem}, nil, zerolog.Nop())

	scores := map[string]int{"q1": 5, "q2": 4, "q3": 3, "q4": 5, "q_old": 2}
	for n := 5; n <= 19; n++ {
		scores["q"+strconv.Itoa(n)] = 1
	}
	stub.exportRows = []model.ExportRow{{
		Respondent: model.Respondent{
			ID: 1, Name: "Ana", Identifier: "20231234", Program: "CS", Semester: 3,
			CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		},
		TotalScore:  34,
		CompletedAt: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		Scores:      scores,
	}}
	return NewExportService(stub, catalog), stub
}

func TestExportCSV_Columns(t *testing.T) {
	svc, _ := exportFixture(t)

	out, err := svc.CSV(context.Background(), model.SearchFilter{})
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}

	header := records[0]
	// 6 respondent columns + 19 questions + 1 orphan + 2 trailing.
	if len(header) != 28 {
		t.Fatalf("expected 28 columns, got %d: %v", len(header), header)
	}
	if header[0] != "ID" || header[5] != "Registered_At" {
		t.Errorf("unexpected leading columns %v", header[:6])
	}
	if header[6] != "Q1_info" || header[10] != "Q5_comm" || header[24] != "Q19_problem" {
		t.Errorf("unexpected question columns %v", header[6:25])
	}
	if header[25] != "Q_OLD" {
		t.Errorf("orphan code should be appended, got %s", header[25])
	}
	if header[26] != "Total_Score" || header[27] != "Completed_At" {
		t.Errorf("unexpected trailing columns %v", header[26:])
	}

	row := records[1]
	if row[1] != "Ana" || row[6] != "5" || row[25] != "2" || row[26] != "34" {
		t.Errorf("unexpected row %v", row)
	}
	if row[27] != "2024-03-01 08:30:00" {
		t.Errorf("completed_at = %s", row[27])
	}
}

func TestExportXLSX(t *testing.T) {
	svc, _ := exportFixture(t)

	out, err := svc.XLSX(context.Background(), model.SearchFilter{})
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ExportSheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][6] != "Q1_info" || rows[1][2] != "20231234" || rows[1][26] != "34" {
		t.Errorf("unexpected sheet content %v / %v", rows[0][:7], rows[1])
	}
}

func TestExport_NeutralisesFormulaCells(t *testing.T) {
	svc, stub := exportFixture(t)
	stub.exportRows[0].Respondent.Name = `=HYPERLINK("http://x","y")`
	stub.exportRows[0].Respondent.Program = "+cmd|' /C calc'!A0"

	out, err := svc.CSV(context.Background(), model.SearchFilter{})
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if got := records[1][1]; got != `'=HYPERLINK("http://x","y")` {
		t.Errorf("csv name = %q", got)
	}
	if got := records[1][3]; got != "'+cmd|' /C calc'!A0" {
		t.Errorf("csv program = %q", got)
	}

	out, err = svc.XLSX(context.Background(), model.SearchFilter{})
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	name, err := f.GetCellValue(ExportSheetName, "B2")
	if err != nil || name != `'=HYPERLINK("http://x","y")` {
		t.Errorf("xlsx name = %q, %v", name, err)
	}
	if formula, _ := f.GetCellFormula(ExportSheetName, "B2"); formula != "" {
		t.Errorf("name cell must not carry a formula, got %q", formula)
	}
}

func TestSafeCell(t *testing.T) {
	tests := map[string]string{
		"Ana":         "Ana",
		"":            "",
		"-1+2":        "'-1+2",
		"@SUM(A1)":    "'@SUM(A1)",
		"\tx":         "'\tx",
		"Informatika": "Informatika",
	}
	for in, want := range tests {
		if got := safeCell(in); got != want {
			t.Errorf("safeCell(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename("csv", time.Date(2024, 1, 31, 10, 15, 0, 0, time.UTC))
	if got != "survey_export_20240131_101500.csv" {
		t.Fatalf("unexpected filename %s", got)
	}
}
