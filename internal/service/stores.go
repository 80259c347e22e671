package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/survey-backend/internal/model"
)

// RespondentStore is the respondent persistence used by the services.
type RespondentStore interface {
	GetByID(ctx context.Context, id int) (*model.Respondent, error)
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	Create(ctx context.Context, p *model.Respondent) error
	Delete(ctx context.Context, id int) error
}

// CategoryStore is the category persistence used by the catalog.
type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, c *model.Category) error
}

// QuestionStore is the question persistence used by the catalog.
type QuestionStore interface {
	ListAll(ctx context.Context) ([]model.Question, error)
	ListByCategory(ctx context.Context, category string) ([]model.Question, error)
	GetByID(ctx context.Context, id int) (*model.Question, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	HasAnswers(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id int) error
}

// ResponseStore persists completed surveys.
type ResponseStore interface {
	Create(ctx context.Context, resp *model.SurveyResponse) error
	ExistsForRespondent(ctx context.Context, respondentID int) (bool, error)
	GetByRespondent(ctx context.Context, respondentID int) (*model.SurveyResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.SurveyResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PurgeAll(ctx context.Context) error
}

// AnswerBuffer holds the answers of categories submitted but not yet finalized.
type AnswerBuffer interface {
	Put(ctx context.Context, respondentID int, category string, answers map[string]int) error
	Get(ctx context.Context, respondentID int, category string) (map[string]int, error)
	GetAll(ctx context.Context, respondentID int) (map[string]map[string]int, error)
	ClearAll(ctx context.Context, respondentID int) error
	PurgeAll(ctx context.Context) error
}

// ReportStore runs the aggregate reads for the admin dashboard.
type ReportStore interface {
	GetSummaryCounts(ctx context.Context) (totalRespondents, totalSurveys int, avgTotal float64, err error)
	GetCategoryAverages(ctx context.Context) ([]model.CategoryAverage, error)
	GetOverallAverage(ctx context.Context) (float64, error)
	GetProgramCounts(ctx context.Context) ([]model.LabelCount, error)
	GetSemesterCounts(ctx context.Context) (map[int]int, error)
	GetDailyTrend(ctx context.Context, since time.Time) ([]model.TrendPoint, error)
	GetLowestQuestions(ctx context.Context, limit int) ([]model.QuestionScore, error)
	ListPrograms(ctx context.Context) ([]string, error)
	Search(ctx context.Context, f model.SearchFilter, limit, offset int) ([]model.SearchResultRow, int, error)
	ListRecentCompletions(ctx context.Context, limit int) ([]model.SearchResultRow, error)
	ListExportRows(ctx context.Context, f model.SearchFilter) ([]model.ExportRow, error)
}

// AdminStore is the admin persistence used by authentication.
type AdminStore interface {
	GetByID(ctx context.Context, id int) (*model.Admin, error)
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, a *model.Admin) error
}

// EventPublisher fans survey lifecycle events out to listeners.
type EventPublisher interface {
	Publish(ctx context.Context, event model.SurveyEvent) error
}

// ChartCache holds the last computed chart snapshot.
type ChartCache interface {
	GetChartData(ctx context.Context) (*model.ChartData, error)
	SetChartData(ctx context.Context, data *model.ChartData) error
	InvalidateChartData(ctx context.Context) error
}
