package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/repository"
)

var (
	questionCodePattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)
	firstNumber         = regexp.MustCompile(`\d+`)
)

// CatalogService manages categories and the question bank.
type CatalogService struct {
	categories CategoryStore
	questions  QuestionStore
	publisher  EventPublisher
	log        zerolog.Logger
}

// NewCatalogService creates a new CatalogService. A nil publisher disables events.
func NewCatalogService(categories CategoryStore, questions QuestionStore, publisher EventPublisher, log zerolog.Logger) *CatalogService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &CatalogService{
		categories: categories,
		questions:  questions,
		publisher:  publisher,
		log:        log.With().Str("component", "catalog_service").Logger(),
	}
}

// codeNumber extracts the first run of digits in code. Codes without digits sort last.
func codeNumber(code string) int {
	m := firstNumber.FindString(code)
	if m == "" {
		return math.MaxInt
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return math.MaxInt
	}
	return n
}

// naturalLess orders codes by their numeric part, then lexically, so q2 < q10.
func naturalLess(a, b string) bool {
	na, nb := codeNumber(a), codeNumber(b)
	if na != nb {
		return na < nb
	}
	return a < b
}

// SortQuestions orders questions by natural code order, stable for equal codes.
func SortQuestions(questions []model.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return naturalLess(questions[i].Code, questions[j].Code)
	})
}

// ListCategories returns categories in survey order.
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// GetCategory returns one category by code.
func (s *CatalogService) GetCategory(ctx context.Context, code string) (*model.Category, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].Code == code {
			return &categories[i], nil
		}
	}
	return nil, ErrCategoryNotFound
}

// CreateCategory adds a category to the survey.
func (s *CatalogService) CreateCategory(ctx context.Context, code, label string, position int) (*model.Category, error) {
	code = strings.TrimSpace(code)
	if !questionCodePattern.MatchString(code) {
		return nil, &ValidationError{Fields: map[string]string{"code": "code must match ^[a-z0-9_]{1,32}$"}}
	}

	c := &model.Category{Code: code, Label: strings.TrimSpace(label), Position: position}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateCategory) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}

	s.changed(ctx)
	return c, nil
}

// ListByCategory returns a category's questions in natural code order.
func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]model.Question, error) {
	questions, err := s.questions.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	SortQuestions(questions)
	return questions, nil
}

// ListAll returns every question grouped by category position, natural order inside each group.
func (s *CatalogService) ListAll(ctx context.Context) ([]model.Question, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rank := make(map[string]int, len(categories))
	for i, c := range categories {
		rank[c.Code] = i
	}
	sort.SliceStable(questions, func(i, j int) bool {
		ri, rj := rank[questions[i].Category], rank[questions[j].Category]
		if ri != rj {
			return ri < rj
		}
		return naturalLess(questions[i].Code, questions[j].Code)
	})
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Create adds a question. A blank code is generated from the category's existing codes.
func (s *CatalogService) Create(ctx context.Context, code, category, text string) (*model.Question, error) {
	code = strings.TrimSpace(code)
	category = strings.TrimSpace(category)
	text = strings.TrimSpace(text)

	if _, err := s.GetCategory(ctx, category); err != nil {
		return nil, err
	}

	if code == "" {
		generated, err := s.GenerateCode(ctx, category)
		if err != nil {
			return nil, err
		}
		code = generated
	} else if !questionCodePattern.MatchString(code) {
		return nil, ErrInvalidQuestionCode
	} else {
		exists, err := s.questions.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateQuestionCode
		}
	}

	q := &model.Question{Code: code, Category: category, Text: text}
	if err := s.questions.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrDuplicateQuestionCode) {
			return nil, ErrDuplicateQuestionCode
		}
		return nil, err
	}

	s.log.Info().Str("code", q.Code).Str("category", q.Category).Msg("Question created")
	s.changed(ctx)
	return q, nil
}

// GenerateCode proposes q{n+1} where n is the highest number used in the category.
// On a global collision it falls back to q{n+1}_{category}, and fails if that is taken too.
func (s *CatalogService) GenerateCode(ctx context.Context, category string) (string, error) {
	existing, err := s.questions.ListByCategory(ctx, category)
	if err != nil {
		return "", err
	}

	highest := 0
	for _, q := range existing {
		if n := codeNumber(q.Code); n != math.MaxInt && n > highest {
			highest = n
		}
	}

	base := fmt.Sprintf("q%d", highest+1)
	for _, candidate := range []string{base, base + "_" + category} {
		if !questionCodePattern.MatchString(candidate) {
			continue
		}
		exists, err := s.questions.CodeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrDuplicateQuestionCode
}

// Update edits a question's text and, while it has no stored answers, its category.
func (s *CatalogService) Update(ctx context.Context, id int, text, category string) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	category = strings.TrimSpace(category)
	if category != "" && category != q.Category {
		if _, err := s.GetCategory(ctx, category); err != nil {
			return nil, err
		}
		used, err := s.questions.HasAnswers(ctx, q.Code)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, ErrQuestionInUse
		}
		q.Category = category
	}
	q.Text = strings.TrimSpace(text)

	if err := s.questions.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.changed(ctx)
	return q, nil
}

// Delete removes a question. Stored answers that reference its code are kept.
func (s *CatalogService) Delete(ctx context.Context, id int) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info().Int("question_id", id).Msg("Question deleted")
	s.changed(ctx)
	return nil
}

func (s *CatalogService) changed(ctx context.Context) {
	if err := s.publisher.Publish(ctx, model.SurveyEvent{Type: model.EventCatalogChanged}); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish catalog change")
	}
}
