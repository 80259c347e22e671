package model

import "time"

// Identifier (NIM) bounds and the semester range accepted at registration.
const (
	IdentifierMinLen = 8
	IdentifierMaxLen = 20
	SemesterMin      = 1
	SemesterMax      = 8
	NameMinLen       = 2
	NameMaxLen       = 100
)

// Respondent is a person who registers to take the survey. Immutable after creation.
type Respondent struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Identifier string    `json:"identifier"`
	Program    string    `json:"program"`
	Semester   int       `json:"semester"`
	CreatedAt  time.Time `json:"created_at"`
}

// RegisterRespondentRequest is the registration payload, bound from JSON or a form post.
type RegisterRespondentRequest struct {
	Name       string `json:"name" form:"name" binding:"required,min=2,max=100"`
	Identifier string `json:"identifier" form:"identifier" binding:"required,digits,min=8,max=20"`
	Program    string `json:"program" form:"program" binding:"required,max=100"`
	Semester   int    `json:"semester" form:"semester" binding:"required,min=1,max=8"`
}

// RegisterRespondentResponse is returned after a successful registration.
type RegisterRespondentResponse struct {
	Respondent Respondent `json:"respondent"`
	Token      string     `json:"token"`
	Next       string     `json:"next"`
}

// IdentifierAvailability is the result of an identifier availability check.
type IdentifierAvailability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}
