package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/repository"
	"github.com/stemsi/survey-backend/internal/response"
)

const (
	recentCompletionsLimit = 5
	lowestQuestionsLimit   = 5
	defaultPerPage         = 20
	maxPerPage             = 100
)

// ReportOptions tunes the reporting service.
type ReportOptions struct {
	TrendDays        int
	PurgeConfirmCode string
}

// ReportService builds the admin dashboard, chart data and search results and
// performs admin deletions.
type ReportService struct {
	store       ReportStore
	catalog     *CatalogService
	respondents RespondentStore
	responses   ResponseStore
	buffer      AnswerBuffer
	cache       ChartCache
	publisher   EventPublisher
	opts        ReportOptions
	log         zerolog.Logger
	now         func() time.Time
}

// NewReportService creates a new ReportService. buffer, cache and publisher may be nil.
func NewReportService(
	store ReportStore,
	catalog *CatalogService,
	respondents RespondentStore,
	responses ResponseStore,
	buffer AnswerBuffer,
	cache ChartCache,
	publisher EventPublisher,
	opts ReportOptions,
	log zerolog.Logger,
) *ReportService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if opts.TrendDays <= 0 {
		opts.TrendDays = 7
	}
	return &ReportService{
		store:       store,
		catalog:     catalog,
		respondents: respondents,
		responses:   responses,
		buffer:      buffer,
		cache:       cache,
		publisher:   publisher,
		opts:        opts,
		log:         log.With().Str("component", "report_service").Logger(),
		now:         time.Now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Dashboard returns the headline numbers and the latest completions.
func (s *ReportService) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	totalRespondents, totalSurveys, avgTotal, err := s.store.GetSummaryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary counts: %w", err)
	}
	questions, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	recent, err := s.store.ListRecentCompletions(ctx, recentCompletionsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent completions: %w", err)
	}
	if recent == nil {
		recent = []model.SearchResultRow{}
	}

	d := &model.Dashboard{
		TotalRespondents:  totalRespondents,
		TotalSurveys:      totalSurveys,
		AverageTotalScore: round2(avgTotal),
		QuestionCount:     len(questions),
		MaxTotalScore:     len(questions) * model.ScoreMax,
		RecentCompletions: recent,
	}
	if totalRespondents > 0 {
		d.CompletionRate = round2(float64(totalSurveys) / float64(totalRespondents) * 100)
	}
	return d, nil
}

// ChartData returns the cached chart snapshot, computing and caching it on a miss.
func (s *ReportService) ChartData(ctx context.Context) (*model.ChartData, error) {
	if s.cache != nil {
		cached, err := s.cache.GetChartData(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Chart cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}
	return s.RefreshChartData(ctx)
}

// RefreshChartData recomputes the chart snapshot and stores it in the cache.
func (s *ReportService) RefreshChartData(ctx context.Context) (*model.ChartData, error) {
	data, err := s.ComputeChartData(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetChartData(ctx, data); err != nil {
			s.log.Warn().Err(err).Msg("Chart cache write failed")
		}
	}
	return data, nil
}

// ComputeChartData builds the chart snapshot straight from the database.
func (s *ReportService) ComputeChartData(ctx context.Context) (*model.ChartData, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	catAvgs, err := s.store.GetCategoryAverages(ctx)
	if err != nil {
		return nil, fmt.Errorf("category averages: %w", err)
	}
	overall, err := s.store.GetOverallAverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("overall average: %w", err)
	}
	programs, err := s.store.GetProgramCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("program counts: %w", err)
	}
	semesters, err := s.store.GetSemesterCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("semester counts: %w", err)
	}
	totalRespondents, totalSurveys, _, err := s.store.GetSummaryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary counts: %w", err)
	}
	lowest, err := s.store.GetLowestQuestions(ctx, lowestQuestionsLimit)
	if err != nil {
		return nil, fmt.Errorf("lowest questions: %w", err)
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(s.opts.TrendDays - 1))
	points, err := s.store.GetDailyTrend(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}

	data := &model.ChartData{
		OverallAverage:   round2(overall),
		TotalRespondents: totalRespondents,
		TotalSurveys:     totalSurveys,
		GeneratedAt:      now,
	}

	avgByCategory := make(map[string]float64, len(catAvgs))
	for _, a := range catAvgs {
		avgByCategory[a.Category] = a.AverageScore
	}
	for _, c := range categories {
		data.Categories = append(data.Categories, c.Label)
		data.CategoryCodes = append(data.CategoryCodes, c.Code)
		data.Averages = append(data.Averages, round2(avgByCategory[c.Code]))
	}

	data.ProgramStudies = []string{}
	data.ProgramCounts = []int{}
	for _, p := range programs {
		data.ProgramStudies = append(data.ProgramStudies, p.Label)
		data.ProgramCounts = append(data.ProgramCounts, p.Count)
	}

	for sem := model.SemesterMin; sem <= model.SemesterMax; sem++ {
		data.SemesterLabels = append(data.SemesterLabels, fmt.Sprintf("Semester %d", sem))
		data.SemesterDistribution = append(data.SemesterDistribution, semesters[sem])
	}

	byDay := make(map[string]model.TrendPoint, len(points))
	for _, p := range points {
		byDay[p.Date] = p
	}
	for d := 0; d < s.opts.TrendDays; d++ {
		day := start.AddDate(0, 0, d).Format("2006-01-02")
		p, ok := byDay[day]
		if !ok {
			p = model.TrendPoint{Date: day}
		}
		p.AverageScore = round2(p.AverageScore)
		data.Trend = append(data.Trend, p)
	}

	data.LowestQuestions = make([]model.QuestionScore, 0, len(lowest))
	for _, q := range lowest {
		q.AverageScore = round2(q.AverageScore)
		data.LowestQuestions = append(data.LowestQuestions, q)
	}
	return data, nil
}

// NormalizeFilter clamps paging parameters to sane values.
func NormalizeFilter(f model.SearchFilter) model.SearchFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
	return f
}

// Search returns one page of respondents matching the filter.
func (s *ReportService) Search(ctx context.Context, f model.SearchFilter) (*model.SearchResult, *response.Pagination, error) {
	f = NormalizeFilter(f)

	rows, total, err := s.store.Search(ctx, f, f.PerPage, (f.Page-1)*f.PerPage)
	if err != nil {
		return nil, nil, fmt.Errorf("search: %w", err)
	}
	programs, err := s.store.ListPrograms(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list programs: %w", err)
	}
	if rows == nil {
		rows = []model.SearchResultRow{}
	}
	if programs == nil {
		programs = []string{}
	}

	result := &model.SearchResult{Rows: rows, Programs: programs, Total: total, Page: f.Page, PerPage: f.PerPage}
	return result, response.NewPagination(f.Page, f.PerPage, total), nil
}

// RespondentDetail returns a respondent with their response, if any.
func (s *ReportService) RespondentDetail(ctx context.Context, id int) (*model.Respondent, *model.SurveyResponse, error) {
	p, err := s.respondents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	resp, err := s.responses.GetByRespondent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return p, nil, nil
		}
		return nil, nil, err
	}
	return p, resp, nil
}

// ResponseDetail returns a response with its answers and respondent.
func (s *ReportService) ResponseDetail(ctx context.Context, id uuid.UUID) (*model.ResponseDetail, error) {
	resp, err := s.responses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p, err := s.respondents.GetByID(ctx, resp.RespondentID)
	if err != nil {
		return nil, fmt.Errorf("get respondent: %w", err)
	}
	return &model.ResponseDetail{Respondent: *p, Response: *resp}, nil
}

// DeleteResponse removes a response and its answers; the respondent stays.
func (s *ReportService) DeleteResponse(ctx context.Context, id uuid.UUID) error {
	if err := s.responses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info().Str("response_id", id.String()).Msg("Response deleted")
	s.publish(ctx, model.SurveyEvent{Type: model.EventResponseDeleted, ResponseID: id.String()})
	return nil
}

// PurgeAll wipes every respondent, response and answer, buffered answers
// included. The confirmation code must match the configured one; an empty
// configured code disables purging.
func (s *ReportService) PurgeAll(ctx context.Context, confirmation string) error {
	if s.opts.PurgeConfirmCode == "" {
		return ErrPurgeDisabled
	}
	if subtle.ConstantTimeCompare([]byte(confirmation), []byte(s.opts.PurgeConfirmCode)) != 1 {
		return ErrInvalidConfirmation
	}
	if err := s.responses.PurgeAll(ctx); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	if s.buffer != nil {
		if err := s.buffer.PurgeAll(ctx); err != nil {
			return fmt.Errorf("purge buffers: %w", err)
		}
	}
	if s.cache != nil {
		_ = s.cache.InvalidateChartData(ctx)
	}
	s.log.Warn().Msg("All survey data purged")
	s.publish(ctx, model.SurveyEvent{Type: model.EventDataPurged})
	return nil
}

func (s *ReportService) publish(ctx context.Context, event model.SurveyEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", string(event.Type)).Msg("Failed to publish event")
	}
}
