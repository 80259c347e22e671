package model

import "time"

// SurveyEventType names a survey lifecycle event.
type SurveyEventType string

const (
	EventResponseCompleted SurveyEventType = "response.completed"
	EventResponseDeleted   SurveyEventType = "response.deleted"
	EventRespondentDeleted SurveyEventType = "respondent.deleted"
	EventDataPurged        SurveyEventType = "data.purged"
	EventCatalogChanged    SurveyEventType = "catalog.changed"
)

// SurveyEvent is published on the survey events channel and the report refresh queue.
type SurveyEvent struct {
	Type          SurveyEventType `json:"type"`
	RespondentID  int             `json:"respondent_id,omitempty"`
	ResponseID    string          `json:"response_id,omitempty"`
	Name          string          `json:"name,omitempty"`
	Program       string          `json:"program,omitempty"`
	TotalScore    int             `json:"total_score,omitempty"`
	QuestionCount int             `json:"question_count,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
