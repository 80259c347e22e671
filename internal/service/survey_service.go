package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/repository"
)

// StepResult is the outcome of a valid step submission: either the next
// category to show or the persisted response when the survey is finished.
type StepResult struct {
	Next      string
	Completed *model.SurveyResponse
}

// SurveyService walks a respondent through the categories in order, buffers
// each valid step, and persists the whole survey once the last step is valid.
type SurveyService struct {
	respondents RespondentStore
	catalog     *CatalogService
	buffer      AnswerBuffer
	responses   ResponseStore
	publisher   EventPublisher
	log         zerolog.Logger
}

// NewSurveyService creates a new SurveyService. A nil publisher disables events.
func NewSurveyService(
	respondents RespondentStore,
	catalog *CatalogService,
	buffer AnswerBuffer,
	responses ResponseStore,
	publisher EventPublisher,
	log zerolog.Logger,
) *SurveyService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &SurveyService{
		respondents: respondents,
		catalog:     catalog,
		buffer:      buffer,
		responses:   responses,
		publisher:   publisher,
		log:         log.With().Str("component", "survey_service").Logger(),
	}
}

// stepState is everything the guards resolve before a step can be shown or submitted.
type stepState struct {
	respondent *model.Respondent
	steps      []model.Category
	index      int
	buffered   map[string]map[string]int
}

// Steps returns the categories that make up the survey, in order. Categories
// without questions are skipped.
func (s *SurveyService) Steps(ctx context.Context) ([]model.Category, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	steps := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if c.QuestionCount > 0 {
			steps = append(steps, c)
		}
	}
	return steps, nil
}

// FirstStep returns the code of the first category.
func (s *SurveyService) FirstStep(ctx context.Context) (string, error) {
	steps, err := s.Steps(ctx)
	if err != nil {
		return "", err
	}
	if len(steps) == 0 {
		return "", ErrEmptyCatalog
	}
	return steps[0].Code, nil
}

func (s *SurveyService) respondent(ctx context.Context, respondentID int) (*model.Respondent, error) {
	p, err := s.respondents.GetByID(ctx, respondentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownRespondent
		}
		return nil, fmt.Errorf("get respondent: %w", err)
	}
	return p, nil
}

// resolve runs the guards shared by GetStep and SubmitStep: known respondent,
// not yet completed, known category, and every earlier category answered.
func (s *SurveyService) resolve(ctx context.Context, respondentID int, category string) (*stepState, error) {
	p, err := s.respondent(ctx, respondentID)
	if err != nil {
		return nil, err
	}

	done, err := s.responses.ExistsForRespondent(ctx, respondentID)
	if err != nil {
		return nil, fmt.Errorf("check completion: %w", err)
	}
	if done {
		return nil, ErrAlreadyCompleted
	}

	steps, err := s.Steps(ctx)
	if err != nil {
		return nil, err
	}
	index := -1
	for i, c := range steps {
		if c.Code == category {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrCategoryNotFound
	}

	buffered, err := s.buffer.GetAll(ctx, respondentID)
	if err != nil {
		return nil, fmt.Errorf("read buffered answers: %w", err)
	}
	for _, earlier := range steps[:index] {
		if _, ok := buffered[earlier.Code]; !ok {
			return nil, &StepRedirect{Category: earlier.Code}
		}
	}

	return &stepState{respondent: p, steps: steps, index: index, buffered: buffered}, nil
}

// GetStep returns what is needed to render one category, with buffered answers
// prefilled and unanswered questions set to 0.
func (s *SurveyService) GetStep(ctx context.Context, respondentID int, category string) (*model.StepView, error) {
	st, err := s.resolve(ctx, respondentID, category)
	if err != nil {
		return nil, err
	}

	questions, err := s.catalog.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	answers := make(map[string]int, len(questions))
	saved := st.buffered[category]
	for _, q := range questions {
		answers[q.Code] = saved[q.Code]
	}

	view := &model.StepView{
		Respondent: *st.respondent,
		Category:   st.steps[st.index],
		Position:   st.index + 1,
		Total:      len(st.steps),
		Questions:  questions,
		Answers:    answers,
	}
	if st.index > 0 {
		view.PrevCategory = st.steps[st.index-1].Code
	}
	if st.index < len(st.steps)-1 {
		view.NextCategory = st.steps[st.index+1].Code
	}
	return view, nil
}

// parseScore accepts an integer in [ScoreMin, ScoreMax].
func parseScore(raw string) (int, bool, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, false
	}
	return n, true, n >= model.ScoreMin && n <= model.ScoreMax
}

// SubmitStep validates one category's answers. A valid non-final step is
// buffered; a valid final step finalizes the survey. Keys that are not
// questions of the category are ignored.
func (s *SurveyService) SubmitStep(ctx context.Context, respondentID int, category string, raw map[string]string) (*StepResult, error) {
	st, err := s.resolve(ctx, respondentID, category)
	if err != nil {
		return nil, err
	}

	questions, err := s.catalog.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	answers := make(map[string]int, len(questions))
	fields := make(map[string]string)
	display := make(map[string]int, len(questions))
	for code, score := range st.buffered[category] {
		display[code] = score
	}

	for _, q := range questions {
		value, ok := raw[q.Code]
		if !ok || strings.TrimSpace(value) == "" {
			fields[q.Code] = "answer is required"
			continue
		}
		score, parsed, inRange := parseScore(value)
		if parsed {
			display[q.Code] = score
		}
		if !inRange {
			fields[q.Code] = fmt.Sprintf("answer must be an integer between %d and %d", model.ScoreMin, model.ScoreMax)
			continue
		}
		answers[q.Code] = score
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields, Answers: display}
	}

	if st.index < len(st.steps)-1 {
		if err := s.buffer.Put(ctx, respondentID, category, answers); err != nil {
			return nil, fmt.Errorf("buffer answers: %w", err)
		}
		return &StepResult{Next: st.steps[st.index+1].Code}, nil
	}

	st.buffered[category] = answers
	resp, err := s.finalize(ctx, st)
	if err != nil {
		return nil, err
	}
	return &StepResult{Completed: resp}, nil
}

// finalize merges every buffered category against the current catalog, sums
// the scores and stores the response in one transaction. Buffers are cleared
// only after the commit succeeded.
func (s *SurveyService) finalize(ctx context.Context, st *stepState) (*model.SurveyResponse, error) {
	respondentID := st.respondent.ID

	all, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	byCategory := make(map[string][]model.Question, len(st.steps))
	for _, q := range all {
		byCategory[q.Category] = append(byCategory[q.Category], q)
	}

	// Every answer key must belong to exactly one buffered step.
	owner := make(map[string]string)
	for _, step := range st.steps {
		for code := range st.buffered[step.Code] {
			if prev, dup := owner[code]; dup {
				s.log.Error().
					Int("respondent_id", respondentID).
					Str("code", code).
					Str("first", prev).
					Str("second", step.Code).
					Msg("Answer key buffered under two categories")
				return nil, ErrAnswerKeyConflict
			}
			owner[code] = step.Code
		}
	}

	var (
		rows  []model.SurveyAnswer
		total int
	)
	for _, step := range st.steps {
		saved := st.buffered[step.Code]
		for _, q := range byCategory[step.Code] {
			score, ok := saved[q.Code]
			if !ok || owner[q.Code] != step.Code {
				// The catalog gained a question after this step was buffered.
				return nil, &StepRedirect{Category: step.Code}
			}
			rows = append(rows, model.SurveyAnswer{QuestionCode: q.Code, Category: step.Code, Score: score})
			total += score
		}
	}

	resp := &model.SurveyResponse{
		RespondentID:  respondentID,
		TotalScore:    total,
		QuestionCount: len(rows),
		Answers:       rows,
	}

	if err := s.responses.Create(ctx, resp); err != nil {
		if errors.Is(err, repository.ErrResponseExists) {
			s.clear(ctx, respondentID)
			return nil, ErrAlreadyCompleted
		}
		s.log.Error().Err(err).Int("respondent_id", respondentID).Msg("Failed to persist survey response")
		return nil, &PersistenceError{Err: err}
	}

	s.clear(ctx, respondentID)

	s.log.Info().
		Int("respondent_id", respondentID).
		Str("response_id", resp.ID.String()).
		Int("total_score", resp.TotalScore).
		Int("questions", resp.QuestionCount).
		Msg("Survey completed")

	event := model.SurveyEvent{
		Type:          model.EventResponseCompleted,
		RespondentID:  respondentID,
		ResponseID:    resp.ID.String(),
		Name:          st.respondent.Name,
		Program:       st.respondent.Program,
		TotalScore:    resp.TotalScore,
		QuestionCount: resp.QuestionCount,
		OccurredAt:    resp.CompletedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Int("respondent_id", respondentID).Msg("Failed to publish completion event")
	}
	return resp, nil
}

func (s *SurveyService) clear(ctx context.Context, respondentID int) {
	if err := s.buffer.ClearAll(ctx, respondentID); err != nil {
		s.log.Warn().Err(err).Int("respondent_id", respondentID).Msg("Failed to clear buffered answers")
	}
}

// Status reports the respondent's progress.
func (s *SurveyService) Status(ctx context.Context, respondentID int) (*model.SurveyStatus, error) {
	if _, err := s.respondent(ctx, respondentID); err != nil {
		return nil, err
	}

	status := &model.SurveyStatus{RespondentID: respondentID, AnsweredCategories: []string{}}

	resp, err := s.responses.GetByRespondent(ctx, respondentID)
	switch {
	case err == nil:
		status.Completed = true
		status.Response = resp
		return status, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("get response: %w", err)
	}

	steps, err := s.Steps(ctx)
	if err != nil {
		return nil, err
	}
	buffered, err := s.buffer.GetAll(ctx, respondentID)
	if err != nil {
		return nil, fmt.Errorf("read buffered answers: %w", err)
	}
	for _, step := range steps {
		if _, ok := buffered[step.Code]; ok {
			status.AnsweredCategories = append(status.AnsweredCategories, step.Code)
		} else if status.CurrentCategory == "" {
			status.CurrentCategory = step.Code
		}
	}
	if status.CurrentCategory == "" && len(steps) > 0 {
		status.CurrentCategory = steps[len(steps)-1].Code
	}
	return status, nil
}

// Completion returns the stored response, or a redirect to the current step
// when the respondent has not finished yet.
func (s *SurveyService) Completion(ctx context.Context, respondentID int) (*model.SurveyResponse, error) {
	status, err := s.Status(ctx, respondentID)
	if err != nil {
		return nil, err
	}
	if !status.Completed {
		if status.CurrentCategory == "" {
			return nil, ErrEmptyCatalog
		}
		return nil, &StepRedirect{Category: status.CurrentCategory}
	}
	return status.Response, nil
}
