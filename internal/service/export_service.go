package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/survey-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

// ExportSheetName is the worksheet holding the exported responses.
const ExportSheetName = "Survey Data"

const exportTimeLayout = "2006-01-02 15:04:05"

// safeCell keeps spreadsheet applications from evaluating free text as a formula.
func safeCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// ExportTable is a rendered export: a header row and one record per completed response.
type ExportTable struct {
	Header  []string
	Records [][]string
	Scores  [][]*int
}

// ExportService renders completed responses as CSV or XLSX.
type ExportService struct {
	store   ReportStore
	catalog *CatalogService
}

// NewExportService creates a new ExportService.
func NewExportService(store ReportStore, catalog *CatalogService) *ExportService {
	return &ExportService{store: store, catalog: catalog}
}

// QuestionHeader is the column title of a question, e.g. Q1_info.
func QuestionHeader(code, category string) string {
	if category == "" {
		return strings.ToUpper(code)
	}
	return strings.ToUpper(code) + "_" + category
}

// BuildTable lays out rows with one column per catalog question in catalog
// order. Codes that are only present in stored answers are appended, sorted.
func BuildTable(questions []model.Question, rows []model.ExportRow) *ExportTable {
	known := make(map[string]bool, len(questions))
	codes := make([]string, 0, len(questions))
	header := []string{"ID", "Name", "Identifier", "Program", "Semester", "Registered_At"}
	for _, q := range questions {
		known[q.Code] = true
		codes = append(codes, q.Code)
		header = append(header, QuestionHeader(q.Code, q.Category))
	}

	orphanSet := make(map[string]bool)
	for _, r := range rows {
		for code := range r.Scores {
			if !known[code] {
				orphanSet[code] = true
			}
		}
	}
	orphans := make([]string, 0, len(orphanSet))
	for code := range orphanSet {
		orphans = append(orphans, code)
	}
	sort.Slice(orphans, func(i, j int) bool { return naturalLess(orphans[i], orphans[j]) })
	for _, code := range orphans {
		codes = append(codes, code)
		header = append(header, QuestionHeader(code, ""))
	}
	header = append(header, "Total_Score", "Completed_At")

	table := &ExportTable{Header: header}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Respondent.ID),
			safeCell(r.Respondent.Name),
			safeCell(r.Respondent.Identifier),
			safeCell(r.Respondent.Program),
			strconv.Itoa(r.Respondent.Semester),
			r.Respondent.CreatedAt.UTC().Format(exportTimeLayout),
		}
		scores := make([]*int, len(codes))
		for i, code := range codes {
			if v, ok := r.Scores[code]; ok {
				v := v
				scores[i] = &v
				rec = append(rec, strconv.Itoa(v))
			} else {
				rec = append(rec, "")
			}
		}
		rec = append(rec, strconv.Itoa(r.TotalScore), r.CompletedAt.UTC().Format(exportTimeLayout))
		table.Records = append(table.Records, rec)
		table.Scores = append(table.Scores, scores)
	}
	return table
}

// Table loads the completed responses matching f and lays them out.
func (s *ExportService) Table(ctx context.Context, f model.SearchFilter) (*ExportTable, []model.ExportRow, error) {
	questions, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	rows, err := s.store.ListExportRows(ctx, f)
	if err != nil {
		return nil, nil, fmt.Errorf("list export rows: %w", err)
	}
	return BuildTable(questions, rows), rows, nil
}

// CSV renders the completed responses matching f as CSV.
func (s *ExportService) CSV(ctx context.Context, f model.SearchFilter) ([]byte, error) {
	table, _, err := s.Table(ctx, f)
	if err != nil {
		return nil, err
	}
	return RenderCSV(table)
}

// RenderCSV writes the table as CSV.
func RenderCSV(table *ExportTable) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(table.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(table.Records); err != nil {
		return nil, err
	}
	return buf.Bytes(), w.Error()
}

// XLSX renders the completed responses matching f as an Excel workbook.
func (s *ExportService) XLSX(ctx context.Context, f model.SearchFilter) ([]byte, error) {
	table, rows, err := s.Table(ctx, f)
	if err != nil {
		return nil, err
	}
	return RenderXLSX(table, rows)
}

// RenderXLSX writes the table into a single-sheet workbook with numeric cells
// for ids, semesters and scores.
func RenderXLSX(table *ExportTable, rows []model.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(ExportSheetName, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cells := []interface{}{
			r.Respondent.ID,
			safeCell(r.Respondent.Name),
			safeCell(r.Respondent.Identifier),
			safeCell(r.Respondent.Program),
			r.Respondent.Semester,
			r.Respondent.CreatedAt.UTC().Format(exportTimeLayout),
		}
		for _, score := range table.Scores[i] {
			if score == nil {
				cells = append(cells, nil)
			} else {
				cells = append(cells, *score)
			}
		}
		cells = append(cells, r.TotalScore, r.CompletedAt.UTC().Format(exportTimeLayout))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &cells); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stats summarizes the data set for the export CLI.
func (s *ExportService) Stats(ctx context.Context) (*model.ExportStats, error) {
	totalRespondents, totalSurveys, avgTotal, err := s.store.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}
	questions, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &model.ExportStats{
		TotalRespondents:  totalRespondents,
		TotalSurveys:      totalSurveys,
		AverageTotalScore: round2(avgTotal),
		MaxTotalScore:     len(questions) * model.ScoreMax,
	}, nil
}

// ExportFilename builds a timestamped download name such as survey_export_20240131_101500.csv.
func ExportFilename(ext string, now time.Time) string {
	return fmt.Sprintf("survey_export_%s.%s", now.Format("20060102_150405"), ext)
}
