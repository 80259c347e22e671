package router

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/repository"
)

// memDB backs every Postgres store with maps so the full HTTP stack can run
// without a database. Deleting a respondent cascades like the schema does.
type memDB struct {
	mu          sync.Mutex
	nextID      int
	respondents map[int]model.Respondent
	categories  []model.Category
	questions   []model.Question
	responses   map[uuid.UUID]model.SurveyResponse
	admins      map[int]model.Admin
}

func newMemDB() *memDB {
	db := &memDB{
		respondents: make(map[int]model.Respondent),
		responses:   make(map[uuid.UUID]model.SurveyResponse),
		admins:      make(map[int]model.Admin),
	}
	// Three short steps: a q1-q2, b q3-q4, c q5.
	for i, cat := range []string{"a", "b", "c"} {
		db.categories = append(db.categories, model.Category{Code: cat, Label: "Step " + cat, Position: i + 1})
	}
	for n, cat := range []string{"a", "a", "b", "b", "c"} {
		db.nextID++
		db.questions = append(db.questions, model.Question{
			ID: db.nextID, Code: "q" + strconv.Itoa(n+1), Category: cat, Text: "Question " + strconv.Itoa(n+1),
		})
	}
	return db
}

type respondentRepo struct{ *memDB }

func (r respondentRepo) GetByID(_ context.Context, id int) (*model.Respondent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.respondents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r respondentRepo) ExistsByIdentifier(_ context.Context, identifier string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.respondents {
		if p.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (r respondentRepo) Create(_ context.Context, p *model.Respondent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.respondents {
		if existing.Identifier == p.Identifier {
			return repository.ErrDuplicateIdentifier
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	r.respondents[p.ID] = *p
	return nil
}

func (r respondentRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.respondents[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.respondents, id)
	for rid, resp := range r.responses {
		if resp.RespondentID == id {
			delete(r.responses, rid)
		}
	}
	return nil
}

type categoryRepo struct{ *memDB }

func (r categoryRepo) List(_ context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		c.QuestionCount = 0
		for _, q := range r.questions {
			if q.Category == c.Code {
				c.QuestionCount++
			}
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r categoryRepo) Create(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing.Code == c.Code {
			return repository.ErrDuplicateCategory
		}
	}
	r.categories = append(r.categories, *c)
	return nil
}

type questionRepo struct{ *memDB }

func (r questionRepo) ListAll(_ context.Context) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Question(nil), r.questions...), nil
}

func (r questionRepo) ListByCategory(_ context.Context, category string) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Question
	for _, q := range r.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r questionRepo) GetByID(_ context.Context, id int) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.questions {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r questionRepo) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.questions {
		if q.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r questionRepo) HasAnswers(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		for _, a := range resp.Answers {
			if a.QuestionCode == code {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r questionRepo) Create(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.questions {
		if existing.Code == q.Code {
			return repository.ErrDuplicateQuestionCode
		}
	}
	r.nextID++
	q.ID = r.nextID
	r.questions = append(r.questions, *q)
	return nil
}

func (r questionRepo) Update(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.questions {
		if r.questions[i].ID == q.ID {
			r.questions[i].Text = q.Text
			r.questions[i].Category = q.Category
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r questionRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.questions {
		if r.questions[i].ID == id {
			r.questions = append(r.questions[:i], r.questions[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type responseRepo struct{ *memDB }

func (r responseRepo) Create(_ context.Context, resp *model.SurveyResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.responses {
		if existing.RespondentID == resp.RespondentID {
			return repository.ErrResponseExists
		}
	}
	resp.ID = uuid.New()
	resp.CompletedAt = time.Now()
	r.responses[resp.ID] = *resp
	return nil
}

func (r responseRepo) ExistsForRespondent(_ context.Context, respondentID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		if resp.RespondentID == respondentID {
			return true, nil
		}
	}
	return false, nil
}

func (r responseRepo) GetByRespondent(_ context.Context, respondentID int) (*model.SurveyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		if resp.RespondentID == respondentID {
			return &resp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r responseRepo) GetByID(_ context.Context, id uuid.UUID) (*model.SurveyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &resp, nil
}

func (r responseRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.responses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.responses, id)
	return nil
}

func (r responseRepo) PurgeAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.respondents = make(map[int]model.Respondent)
	r.responses = make(map[uuid.UUID]model.SurveyResponse)
	return nil
}

type adminRepo struct{ *memDB }

func (r adminRepo) GetByID(_ context.Context, id int) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r adminRepo) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r adminRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.admins), nil
}

func (r adminRepo) Create(_ context.Context, a *model.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if existing.Username == a.Username {
			return repository.ErrDuplicateAdminUsername
		}
	}
	r.nextID++
	a.ID = r.nextID
	r.admins[a.ID] = *a
	return nil
}

// reportRepo answers the aggregate queries from the in-memory responses.
type reportRepo struct{ *memDB }

func (r reportRepo) GetSummaryCounts(context.Context) (int, int, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, resp := range r.responses {
		sum += resp.TotalScore
	}
	avg := 0.0
	if len(r.responses) > 0 {
		avg = float64(sum) / float64(len(r.responses))
	}
	return len(r.respondents), len(r.responses), avg, nil
}

func (r reportRepo) GetCategoryAverages(context.Context) ([]model.CategoryAverage, error) {
	return nil, nil
}

func (r reportRepo) GetOverallAverage(context.Context) (float64, error) { return 0, nil }

func (r reportRepo) GetProgramCounts(context.Context) ([]model.LabelCount, error) { return nil, nil }

func (r reportRepo) GetSemesterCounts(context.Context) (map[int]int, error) {
	return map[int]int{}, nil
}

func (r reportRepo) GetDailyTrend(context.Context, time.Time) ([]model.TrendPoint, error) {
	return nil, nil
}

func (r reportRepo) GetLowestQuestions(context.Context, int) ([]model.QuestionScore, error) {
	return nil, nil
}

func (r reportRepo) ListPrograms(context.Context) ([]string, error) { return nil, nil }

func (r reportRepo) Search(_ context.Context, _ model.SearchFilter, _, _ int) ([]model.SearchResultRow, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []model.SearchResultRow
	for _, p := range r.respondents {
		rows = append(rows, model.SearchResultRow{Respondent: p})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, len(rows), nil
}

func (r reportRepo) ListRecentCompletions(context.Context, int) ([]model.SearchResultRow, error) {
	return nil, nil
}

func (r reportRepo) ListExportRows(context.Context, model.SearchFilter) ([]model.ExportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []model.ExportRow
	for _, resp := range r.responses {
		row := model.ExportRow{
			Respondent:  r.respondents[resp.RespondentID],
			TotalScore:  resp.TotalScore,
			CompletedAt: resp.CompletedAt,
			Scores:      make(map[string]int, len(resp.Answers)),
		}
		for _, a := range resp.Answers {
			row.Scores[a.QuestionCode] = a.Score
		}
		rows = append(rows, row)
	}
	return rows, nil
}
