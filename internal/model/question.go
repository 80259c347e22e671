package model

import "time"

// Likert scale bounds for every answer.
const (
	ScoreMin = 1
	ScoreMax = 5
)

// Question is a catalog entry. Code is the stable answer key and never changes.
type Question struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Category  string    `json:"category"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateQuestionRequest is the payload for adding a question. A blank code is generated.
type CreateQuestionRequest struct {
	Code     string `json:"code" binding:"omitempty,max=32"`
	Category string `json:"category" binding:"required"`
	Text     string `json:"text" binding:"required,min=3,max=1000"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Text     string `json:"text" binding:"required,min=3,max=1000"`
	Category string `json:"category" binding:"omitempty"`
}
