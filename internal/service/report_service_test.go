package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
)

// stubReportStore returns canned aggregates.
type stubReportStore struct {
	totalRespondents int
	totalSurveys     int
	avgTotal         float64
	categoryAvgs     []model.CategoryAverage
	overall          float64
	programs         []model.LabelCount
	semesters        map[int]int
	trend            []model.TrendPoint
	trendSince       time.Time
	lowest           []model.QuestionScore
	searchRows       []model.SearchResultRow
	searchTotal      int
	lastLimit        int
	lastOffset       int
	exportRows       []model.ExportRow
}

func (s *stubReportStore) GetSummaryCounts(context.Context) (int, int, float64, error) {
	return s.totalRespondents, s.totalSurveys, s.avgTotal, nil
}
func (s *stubReportStore) GetCategoryAverages(context.Context) ([]model.CategoryAverage, error) {
	return s.categoryAvgs, nil
}
func (s *stubReportStore) GetOverallAverage(context.Context) (float64, error) { return s.overall, nil }
func (s *stubReportStore) GetProgramCounts(context.Context) ([]model.LabelCount, error) {
	return s.programs, nil
}
func (s *stubReportStore) GetSemesterCounts(context.Context) (map[int]int, error) {
	return s.semesters, nil
}
func (s *stubReportStore) GetDailyTrend(_ context.Context, since time.Time) ([]model.TrendPoint, error) {
	s.trendSince = since
	return s.trend, nil
}
func (s *stubReportStore) GetLowestQuestions(context.Context, int) ([]model.QuestionScore, error) {
	return s.lowest, nil
}
func (s *stubReportStore) ListPrograms(context.Context) ([]string, error) {
	return []string{"CS", "IS"}, nil
}
func (s *stubReportStore) Search(_ context.Context, _ model.SearchFilter, limit, offset int) ([]model.SearchResultRow, int, error) {
	s.lastLimit, s.lastOffset = limit, offset
	return s.searchRows, s.searchTotal, nil
}
func (s *stubReportStore) ListRecentCompletions(context.Context, int) ([]model.SearchResultRow, error) {
	return nil, nil
}
func (s *stubReportStore) ListExportRows(context.Context, model.SearchFilter) ([]model.ExportRow, error) {
	return s.exportRows, nil
}

// memChartCache is an in-memory ChartCache.
type memChartCache struct {
	data *model.ChartData
	sets int
}

func (c *memChartCache) GetChartData(context.Context) (*model.ChartData, error) { return c.data, nil }
func (c *memChartCache) SetChartData(_ context.Context, d *model.ChartData) error {
	c.data = d
	c.sets++
	return nil
}
func (c *memChartCache) InvalidateChartData(context.Context) error {
	c.data = nil
	return nil
}

func newReportFixture(t *testing.T, opts ReportOptions) (*ReportService, *stubReportStore, *memStore, *memChartCache, *recordingPublisher) {
	t.Helper()
	mem := newMemStore()
	mem.seedSurveyCatalog()
	stub := &stubReportStore{semesters: map[int]int{}}
	cache := &memChartCache{}
	pub := &recordingPublisher{}
	buffer := newMemBuffer()
	log := zerolog.Nop()
	catalog := NewCatalogService(categoryStore{mem}, questionStore{mem}, nil, log)
	svc := NewReportService(stub, catalog, respondentStore{mem}, responseStore{mem}, buffer, cache, pub, opts, log)
	return svc, stub, mem, cache, pub
}

func TestDashboard(t *testing.T) {
	svc, stub, _, _, _ := newReportFixture(t, ReportOptions{})
	stub.totalRespondents = 4
	stub.totalSurveys = 3
	stub.avgTotal = 61.3333

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.CompletionRate != 75 {
		t.Errorf("completion rate = %v, want 75", d.CompletionRate)
	}
	if d.AverageTotalScore != 61.33 {
		t.Errorf("average total = %v, want 61.33", d.AverageTotalScore)
	}
	if d.MaxTotalScore != 95 || d.QuestionCount != 19 {
		t.Errorf("max total = %d for %d questions, want 95 for 19", d.MaxTotalScore, d.QuestionCount)
	}
	if d.RecentCompletions == nil {
		t.Error("recent completions should be an empty slice, not nil")
	}
}

func TestChartData_ZeroFilledTrendAndCache(t *testing.T) {
	svc, stub, _, cache, _ := newReportFixture(t, ReportOptions{TrendDays: 7})
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC) }

	stub.categoryAvgs = []model.CategoryAverage{{Category: "info", AverageScore: 4.25}, {Category: "comm", AverageScore: 1}}
	stub.overall = 1.6842
	stub.programs = []model.LabelCount{{Label: "CS", Count: 3}, {Label: "IS", Count: 1}}
	stub.semesters = map[int]int{3: 2, 5: 2}
	stub.trend = []model.TrendPoint{{Date: "2024-03-08", AverageScore: 40.5, Count: 2}}

	data, err := svc.ChartData(context.Background())
	if err != nil {
		t.Fatalf("ChartData: %v", err)
	}

	if want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC); !stub.trendSince.Equal(want) {
		t.Errorf("trend since = %v, want %v", stub.trendSince, want)
	}
	if len(data.Trend) != 7 || data.Trend[0].Date != "2024-03-04" || data.Trend[6].Date != "2024-03-10" {
		t.Fatalf("unexpected trend %+v", data.Trend)
	}
	if data.Trend[4].AverageScore != 40.5 || data.Trend[3].AverageScore != 0 {
		t.Errorf("trend not filled correctly: %+v", data.Trend)
	}

	if len(data.Categories) != 5 || data.Averages[0] != 4.25 || data.Averages[2] != 0 {
		t.Errorf("unexpected category averages %v %v", data.Categories, data.Averages)
	}
	if data.OverallAverage != 1.68 {
		t.Errorf("overall = %v", data.OverallAverage)
	}
	if len(data.SemesterDistribution) != 8 || data.SemesterDistribution[2] != 2 || data.SemesterDistribution[0] != 0 {
		t.Errorf("unexpected semesters %v", data.SemesterDistribution)
	}
	if data.ProgramStudies[0] != "CS" || data.ProgramCounts[0] != 3 {
		t.Errorf("unexpected programs %v %v", data.ProgramStudies, data.ProgramCounts)
	}

	if cache.sets != 1 {
		t.Fatalf("expected snapshot cached once, got %d", cache.sets)
	}
	stub.overall = 5
	again, _ := svc.ChartData(context.Background())
	if again.OverallAverage != 1.68 || cache.sets != 1 {
		t.Fatal("second call should be served from cache")
	}
}

func TestSearch_Pagination(t *testing.T) {
	svc, stub, _, _, _ := newReportFixture(t, ReportOptions{})
	stub.searchTotal = 45

	result, page, err := svc.Search(context.Background(), model.SearchFilter{Page: 3, PerPage: 500})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if stub.lastLimit != 100 || stub.lastOffset != 200 {
		t.Errorf("limit/offset = %d/%d, want 100/200", stub.lastLimit, stub.lastOffset)
	}
	if page.TotalPages != 1 || page.TotalItems != 45 {
		t.Errorf("unexpected pagination %+v", page)
	}
	if result.Rows == nil || len(result.Programs) != 2 {
		t.Errorf("unexpected result %+v", result)
	}

	_, page, _ = svc.Search(context.Background(), model.SearchFilter{})
	if page.Page != 1 || page.PerPage != 20 || page.TotalPages != 3 {
		t.Errorf("defaults not applied: %+v", page)
	}
}

func TestPurgeAll(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without configured code", func(t *testing.T) {
		svc, _, _, _, _ := newReportFixture(t, ReportOptions{})
		if err := svc.PurgeAll(ctx, "anything"); !errors.Is(err, ErrPurgeDisabled) {
			t.Fatalf("expected ErrPurgeDisabled, got %v", err)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, _, _, _, _ := newReportFixture(t, ReportOptions{PurgeConfirmCode: "HAPUS-SEMUA"})
		if err := svc.PurgeAll(ctx, "hapus"); !errors.Is(err, ErrInvalidConfirmation) {
			t.Fatalf("expected ErrInvalidConfirmation, got %v", err)
		}
	})

	t.Run("matching code wipes data", func(t *testing.T) {
		svc, _, mem, cache, pub := newReportFixture(t, ReportOptions{PurgeConfirmCode: "HAPUS-SEMUA"})
		mem.respondents[1] = &model.Respondent{ID: 1, Identifier: "20231234"}
		cache.data = &model.ChartData{}
		buffer := svc.buffer.(*memBuffer)
		if err := buffer.Put(ctx, 1, "info", map[string]int{"q1": 3}); err != nil {
			t.Fatalf("Put: %v", err)
		}

		if err := svc.PurgeAll(ctx, "HAPUS-SEMUA"); err != nil {
			t.Fatalf("PurgeAll: %v", err)
		}
		if len(mem.respondents) != 0 {
			t.Error("respondents should be gone")
		}
		if cache.data != nil {
			t.Error("chart cache should be invalidated")
		}
		if left, _ := buffer.GetAll(ctx, 1); len(left) != 0 {
			t.Errorf("buffered answers should be purged, got %v", left)
		}
		if types := pub.types(); len(types) != 1 || types[0] != model.EventDataPurged {
			t.Errorf("expected purge event, got %v", types)
		}
	})
}

func TestDeleteResponse_KeepsRespondent(t *testing.T) {
	f := newSurveyFixture(t)
	p := f.register(t)
	f.submit(t, p.ID, "info", infoAnswers)
	for _, c := range []string{"comm", "content", "security", "problem"} {
		f.submit(t, p.ID, c, f.uniform(t, c, 1))
	}
	resp, err := f.survey.Completion(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}

	svc := NewReportService(&stubReportStore{}, f.catalog, respondentStore{f.store}, responseStore{f.store},
		f.buffer, nil, nil, ReportOptions{}, zerolog.Nop())

	detail, err := svc.ResponseDetail(context.Background(), resp.ID)
	if err != nil || detail.Respondent.ID != p.ID || len(detail.Response.Answers) != 19 {
		t.Fatalf("ResponseDetail: %+v, %v", detail, err)
	}

	if err := svc.DeleteResponse(context.Background(), resp.ID); err != nil {
		t.Fatalf("DeleteResponse: %v", err)
	}
	if err := svc.DeleteResponse(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	respondent, response, err := svc.RespondentDetail(context.Background(), p.ID)
	if err != nil || respondent == nil {
		t.Fatalf("respondent must survive response deletion: %v", err)
	}
	if response != nil {
		t.Fatal("response should be gone")
	}
}
