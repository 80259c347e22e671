package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateIdentifier    = errors.New("respondent with this identifier already exists")
	ErrResponseExists         = errors.New("respondent already has a survey response")
	ErrDuplicateQuestionCode  = errors.New("question code already exists")
	ErrDuplicateCategory      = errors.New("category code already exists")
	ErrDuplicateAdminUsername = errors.New("admin with this username already exists")
)

// Unique constraint names from migrations/000001_init.up.sql.
const (
	constraintRespondentIdentifier = "respondents_identifier_key"
	constraintResponseRespondent   = "survey_responses_respondent_id_key"
	constraintQuestionCode         = "questions_code_key"
	constraintCategoryPK           = "categories_pkey"
	constraintAdminUsername        = "admins_username_key"
)

// uniqueViolation reports whether err is a 23505 raised by the named constraint.
// An empty constraint matches any unique violation.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// notFound maps pgx.ErrNoRows to ErrNotFound and leaves other errors untouched.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
