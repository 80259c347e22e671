package model

import (
	"time"

	"github.com/google/uuid"
)

// SurveyResponse is the persisted result of a completed survey.
type SurveyResponse struct {
	ID            uuid.UUID      `json:"id"`
	RespondentID  int            `json:"respondent_id"`
	TotalScore    int            `json:"total_score"`
	QuestionCount int            `json:"question_count"`
	CompletedAt   time.Time      `json:"completed_at"`
	Answers       []SurveyAnswer `json:"answers,omitempty"`
}

// AverageScore is the mean item score on the 1-5 scale.
func (r *SurveyResponse) AverageScore() float64 {
	if r.QuestionCount == 0 {
		return 0
	}
	return float64(r.TotalScore) / float64(r.QuestionCount)
}

// SurveyAnswer is one scored question inside a response. Category is captured at
// submission time so later catalog edits do not move historical answers.
type SurveyAnswer struct {
	ResponseID   uuid.UUID `json:"-"`
	QuestionCode string    `json:"question_code"`
	Category     string    `json:"category"`
	Score        int       `json:"score"`
}

// ResponseDetail is a response together with its respondent.
type ResponseDetail struct {
	Respondent Respondent     `json:"respondent"`
	Response   SurveyResponse `json:"response"`
}

// SubmitStepRequest is the JSON shape of a step submission.
type SubmitStepRequest struct {
	Answers map[string]any `json:"answers"`
}

// StepView is everything a client needs to render one survey step.
type StepView struct {
	Respondent   Respondent     `json:"respondent"`
	Category     Category       `json:"category"`
	Position     int            `json:"position"`
	Total        int            `json:"total"`
	Questions    []Question     `json:"questions"`
	Answers      map[string]int `json:"answers"`
	PrevCategory string         `json:"prev_category,omitempty"`
	NextCategory string         `json:"next_category,omitempty"`
}

// SurveyStatus summarizes where a respondent is in the survey.
type SurveyStatus struct {
	RespondentID       int             `json:"respondent_id"`
	Completed          bool            `json:"completed"`
	CurrentCategory    string          `json:"current_category,omitempty"`
	AnsweredCategories []string        `json:"answered_categories"`
	Response           *SurveyResponse `json:"response,omitempty"`
}
