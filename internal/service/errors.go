package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateIdentifier   = errors.New("identifier already registered")
	ErrUnknownRespondent     = errors.New("unknown respondent")
	ErrAlreadyCompleted      = errors.New("survey already completed")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrAnswerKeyConflict     = errors.New("question code buffered under more than one category")
	ErrQuestionInUse         = errors.New("question already has answers")
	ErrDuplicateQuestionCode = errors.New("question code already exists")
	ErrDuplicateCategory     = errors.New("category already exists")
	ErrInvalidQuestionCode   = errors.New("question code must match ^[a-z0-9_]{1,32}$")
	ErrPurgeDisabled         = errors.New("purge is disabled")
	ErrInvalidConfirmation   = errors.New("invalid confirmation code")
	ErrEmptyCatalog          = errors.New("survey has no categories")
)

// ValidationError carries per-field reasons. Answers, when set, are the
// submitted answers merged over the buffered ones so a form can be redisplayed.
type ValidationError struct {
	Fields  map[string]string
	Answers map[string]int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// PersistenceError means the final write did not commit. Buffered answers are
// intact and the same submission can be retried.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist survey response: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// StepRedirect tells the caller to send the respondent to another category.
type StepRedirect struct {
	Category string
}

func (e *StepRedirect) Error() string {
	return "redirect to category " + e.Category
}
