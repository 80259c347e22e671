package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/survey-backend/internal/model"
)

// ReportRepository runs the read-only aggregate queries behind the admin dashboard,
// search and exports.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// GetSummaryCounts retrieves the headline numbers for the dashboard.
func (r *ReportRepository) GetSummaryCounts(ctx context.Context) (totalRespondents, totalSurveys int, avgTotal float64, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM respondents),
			(SELECT COUNT(*) FROM survey_responses),
			(SELECT COALESCE(AVG(total_score), 0)::float8 FROM survey_responses)`,
	).Scan(&totalRespondents, &totalSurveys, &avgTotal)
	return
}

// GetCategoryAverages returns the mean item score per category.
func (r *ReportRepository) GetCategoryAverages(ctx context.Context) ([]model.CategoryAverage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, AVG(score)::float8 FROM survey_answers GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CategoryAverage
	for rows.Next() {
		var a model.CategoryAverage
		if err := rows.Scan(&a.Category, &a.AverageScore); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetOverallAverage returns the mean item score over every stored answer.
func (r *ReportRepository) GetOverallAverage(ctx context.Context) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(score), 0)::float8 FROM survey_answers`).Scan(&avg)
	return avg, err
}

// GetProgramCounts returns respondents per program of study, largest first.
func (r *ReportRepository) GetProgramCounts(ctx context.Context) ([]model.LabelCount, error) {
	return r.labelCounts(ctx,
		`SELECT program, COUNT(*) FROM respondents GROUP BY program ORDER BY COUNT(*) DESC, program`)
}

// GetSemesterCounts returns respondents per semester.
func (r *ReportRepository) GetSemesterCounts(ctx context.Context) (map[int]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT semester, COUNT(*) FROM respondents GROUP BY semester`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var semester, count int
		if err := rows.Scan(&semester, &count); err != nil {
			return nil, err
		}
		counts[semester] = count
	}
	return counts, rows.Err()
}

func (r *ReportRepository) labelCounts(ctx context.Context, query string, args ...any) ([]model.LabelCount, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LabelCount
	for rows.Next() {
		var lc model.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// GetDailyTrend returns the mean total score per UTC day for responses completed since `since`.
// Days without responses are absent.
func (r *ReportRepository) GetDailyTrend(ctx context.Context, since time.Time) ([]model.TrendPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT to_char((completed_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD') AS day,
		        AVG(total_score)::float8, COUNT(*)
		 FROM survey_responses
		 WHERE completed_at >= $1
		 GROUP BY day
		 ORDER BY day`, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.TrendPoint
	for rows.Next() {
		var p model.TrendPoint
		if err := rows.Scan(&p.Date, &p.AverageScore, &p.Count); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetLowestQuestions ranks questions by ascending mean score.
// Answers to deleted questions are included with an empty text.
func (r *ReportRepository) GetLowestQuestions(ctx context.Context, limit int) ([]model.QuestionScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sa.question_code, sa.category, COALESCE(q.text, ''),
		        AVG(sa.score)::float8 AS avg_score, COUNT(*)
		 FROM survey_answers sa
		 LEFT JOIN questions q ON q.code = sa.question_code
		 GROUP BY sa.question_code, sa.category, q.text
		 ORDER BY avg_score ASC, sa.question_code
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QuestionScore
	for rows.Next() {
		var qs model.QuestionScore
		if err := rows.Scan(&qs.Code, &qs.Category, &qs.Text, &qs.AverageScore, &qs.Answers); err != nil {
			return nil, err
		}
		out = append(out, qs)
	}
	return out, rows.Err()
}

// ListPrograms returns the distinct programs of study, alphabetically.
func (r *ReportRepository) ListPrograms(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT program FROM respondents ORDER BY program`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var programs []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// buildFilter turns a search filter into a WHERE clause over respondents r
// LEFT JOIN survey_responses sr.
func buildFilter(f model.SearchFilter) (string, []any) {
	where := ` WHERE 1=1`
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		where += fmt.Sprintf(" AND (r.name ILIKE $%d OR r.identifier ILIKE $%d)", len(args), len(args))
	}
	if f.Program != "" {
		args = append(args, f.Program)
		where += fmt.Sprintf(" AND r.program = $%d", len(args))
	}
	if f.Semester > 0 {
		args = append(args, f.Semester)
		where += fmt.Sprintf(" AND r.semester = $%d", len(args))
	}
	if f.Completed != nil {
		if *f.Completed {
			where += ` AND sr.id IS NOT NULL`
		} else {
			where += ` AND sr.id IS NULL`
		}
	}
	return where, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

const searchColumns = `r.id, r.name, r.identifier, r.program, r.semester, r.created_at,
	sr.id::text, sr.total_score, sr.question_count, sr.completed_at`

// Search returns a page of respondents matching the filter plus the total match count.
func (r *ReportRepository) Search(ctx context.Context, f model.SearchFilter, limit, offset int) ([]model.SearchResultRow, int, error) {
	where, args := buildFilter(f)
	from := ` FROM respondents r LEFT JOIN survey_responses sr ON sr.respondent_id = r.id`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + searchColumns + from + where +
		fmt.Sprintf(` ORDER BY r.created_at DESC, r.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	searchRows, err := scanSearchRows(rows)
	return searchRows, total, err
}

// ListRecentCompletions returns the most recently completed responses.
func (r *ReportRepository) ListRecentCompletions(ctx context.Context, limit int) ([]model.SearchResultRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+searchColumns+`
		 FROM survey_responses sr JOIN respondents r ON r.id = sr.respondent_id
		 ORDER BY sr.completed_at DESC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanSearchRows(rows)
}

func scanSearchRows(rows pgx.Rows) ([]model.SearchResultRow, error) {
	defer rows.Close()

	var out []model.SearchResultRow
	for rows.Next() {
		var row model.SearchResultRow
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Identifier, &row.Program, &row.Semester, &row.CreatedAt,
			&row.ResponseID, &row.TotalScore, &row.QuestionCount, &row.CompletedAt,
		); err != nil {
			return nil, err
		}
		if row.TotalScore != nil && row.QuestionCount != nil && *row.QuestionCount > 0 {
			avg := float64(*row.TotalScore) / float64(*row.QuestionCount)
			row.AverageScore = &avg
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListExportRows returns every completed response matching the filter with its answers,
// ordered by completion time.
func (r *ReportRepository) ListExportRows(ctx context.Context, f model.SearchFilter) ([]model.ExportRow, error) {
	completed := true
	f.Completed = &completed
	where, args := buildFilter(f)

	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.name, r.identifier, r.program, r.semester, r.created_at,
		        sr.id, sr.total_score, sr.completed_at,
		        COALESCE(array_agg(sa.question_code ORDER BY sa.question_code) FILTER (WHERE sa.question_code IS NOT NULL), '{}'),
		        COALESCE(array_agg(sa.score::int ORDER BY sa.question_code) FILTER (WHERE sa.question_code IS NOT NULL), '{}')
		 FROM respondents r
		 LEFT JOIN survey_responses sr ON sr.respondent_id = r.id
		 LEFT JOIN survey_answers sa ON sa.response_id = sr.id`+where+`
		 GROUP BY r.id, sr.id
		 ORDER BY sr.completed_at, r.id`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ExportRow
	for rows.Next() {
		var (
			row        model.ExportRow
			responseID uuid.UUID
			codes      []string
			scores     []int32
		)
		if err := rows.Scan(
			&row.Respondent.ID, &row.Respondent.Name, &row.Respondent.Identifier,
			&row.Respondent.Program, &row.Respondent.Semester, &row.Respondent.CreatedAt,
			&responseID, &row.TotalScore, &row.CompletedAt, &codes, &scores,
		); err != nil {
			return nil, err
		}
		row.Scores = make(map[string]int, len(codes))
		for i, code := range codes {
			if i < len(scores) {
				row.Scores[code] = int(scores[i])
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
