package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/repository"
)

// memStore implements the respondent, category, question and response stores
// in memory, with the same cascade behavior as the SQL schema.
type memStore struct {
	mu          sync.Mutex
	respondents map[int]*model.Respondent
	categories  []model.Category
	questions   []model.Question
	responses   map[uuid.UUID]*model.SurveyResponse
	nextID      int

	// createErr, when set, is returned by the next response Create call.
	createErr error
}

func newMemStore() *memStore {
	return &memStore{
		respondents: make(map[int]*model.Respondent),
		responses:   make(map[uuid.UUID]*model.SurveyResponse),
	}
}

// seedSurveyCatalog loads the five default categories with 19 questions:
// info q1-q4, comm q5-q8, content q9-q12, security q13-q16, problem q17-q19.
func (m *memStore) seedSurveyCatalog() {
	layout := []struct {
		code, label string
		from, to    int
	}{
		{"info", "Information Literacy", 1, 4},
		{"comm", "Communication", 5, 8},
		{"content", "Content Creation", 9, 12},
		{"security", "Security", 13, 16},
		{"problem", "Problem Solving", 17, 19},
	}
	for i, l := range layout {
		m.categories = append(m.categories, model.Category{Code: l.code, Label: l.label, Position: i + 1})
		for n := l.from; n <= l.to; n++ {
			m.nextID++
			m.questions = append(m.questions, model.Question{
				ID:       m.nextID,
				Code:     "q" + strconv.Itoa(n),
				Category: l.code,
				Text:     "Question " + strconv.Itoa(n),
			})
		}
	}
}

// ─── RespondentStore ────────────────────────────────────────────────

type respondentStore struct{ *memStore }

func (s respondentStore) GetByID(_ context.Context, id int) (*model.Respondent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.respondents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s respondentStore) ExistsByIdentifier(_ context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.respondents {
		if p.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (s respondentStore) Create(_ context.Context, p *model.Respondent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.respondents {
		if existing.Identifier == p.Identifier {
			return repository.ErrDuplicateIdentifier
		}
	}
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Now()
	cp := *p
	s.respondents[p.ID] = &cp
	return nil
}

func (s respondentStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.respondents[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.respondents, id)
	for rid, r := range s.responses {
		if r.RespondentID == id {
			delete(s.responses, rid)
		}
	}
	return nil
}

// ─── CategoryStore ──────────────────────────────────────────────────

type categoryStore struct{ *memStore }

func (s categoryStore) List(_ context.Context) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		c.QuestionCount = 0
		for _, q := range s.questions {
			if q.Category == c.Code {
				c.QuestionCount++
			}
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s categoryStore) Create(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Code == c.Code {
			return repository.ErrDuplicateCategory
		}
	}
	s.categories = append(s.categories, *c)
	return nil
}

// ─── QuestionStore ──────────────────────────────────────────────────

type questionStore struct{ *memStore }

func (s questionStore) ListAll(_ context.Context) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Question(nil), s.questions...), nil
}

func (s questionStore) ListByCategory(_ context.Context, category string) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Question
	for _, q := range s.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s questionStore) GetByID(_ context.Context, id int) (*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.ID == id {
			cp := q
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s questionStore) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s questionStore) HasAnswers(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		for _, a := range r.Answers {
			if a.QuestionCode == code {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s questionStore) Create(_ context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.questions {
		if existing.Code == q.Code {
			return repository.ErrDuplicateQuestionCode
		}
	}
	s.nextID++
	q.ID = s.nextID
	s.questions = append(s.questions, *q)
	return nil
}

func (s questionStore) Update(_ context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.questions {
		if s.questions[i].ID == q.ID {
			s.questions[i].Text = q.Text
			s.questions[i].Category = q.Category
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s questionStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.questions {
		if s.questions[i].ID == id {
			s.questions = append(s.questions[:i], s.questions[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ─── ResponseStore ──────────────────────────────────────────────────

type responseStore struct{ *memStore }

func (s responseStore) Create(_ context.Context, resp *model.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		return err
	}
	for _, r := range s.responses {
		if r.RespondentID == resp.RespondentID {
			return repository.ErrResponseExists
		}
	}
	resp.ID = uuid.New()
	resp.CompletedAt = time.Now()
	cp := *resp
	cp.Answers = append([]model.SurveyAnswer(nil), resp.Answers...)
	s.responses[resp.ID] = &cp
	return nil
}

func (s responseStore) ExistsForRespondent(_ context.Context, respondentID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.RespondentID == respondentID {
			return true, nil
		}
	}
	return false, nil
}

func (s responseStore) GetByRespondent(_ context.Context, respondentID int) (*model.SurveyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.RespondentID == respondentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s responseStore) GetByID(_ context.Context, id uuid.UUID) (*model.SurveyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s responseStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.responses, id)
	return nil
}

func (s responseStore) PurgeAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respondents = make(map[int]*model.Respondent)
	s.responses = make(map[uuid.UUID]*model.SurveyResponse)
	return nil
}

// ─── AnswerBuffer ───────────────────────────────────────────────────

type memBuffer struct {
	mu      sync.Mutex
	data    map[int]map[string]map[string]int
	putErr  error
	cleared []int
}

func newMemBuffer() *memBuffer {
	return &memBuffer{data: make(map[int]map[string]map[string]int)}
}

func (b *memBuffer) Put(_ context.Context, respondentID int, category string, answers map[string]int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	if b.data[respondentID] == nil {
		b.data[respondentID] = make(map[string]map[string]int)
	}
	cp := make(map[string]int, len(answers))
	for k, v := range answers {
		cp[k] = v
	}
	b.data[respondentID][category] = cp
	return nil
}

func (b *memBuffer) Get(_ context.Context, respondentID int, category string) (map[string]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[string]int{}
	for k, v := range b.data[respondentID][category] {
		out[k] = v
	}
	return out, nil
}

func (b *memBuffer) GetAll(_ context.Context, respondentID int) (map[string]map[string]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]map[string]int)
	for cat, answers := range b.data[respondentID] {
		cp := make(map[string]int, len(answers))
		for k, v := range answers {
			cp[k] = v
		}
		out[cat] = cp
	}
	return out, nil
}

func (b *memBuffer) ClearAll(_ context.Context, respondentID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, respondentID)
	b.cleared = append(b.cleared, respondentID)
	return nil
}

func (b *memBuffer) PurgeAll(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[int]map[string]map[string]int)
	return nil
}

// ─── EventPublisher ─────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.SurveyEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.SurveyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []model.SurveyEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.SurveyEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var errBoom = errors.New("boom")
