package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/survey-backend/internal/model"
)

// QuestionRepository handles question catalog data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `q.id, q.code, q.category, q.text, q.created_at, q.updated_at`

// ListAll returns every question, grouped by category position.
// Order inside a category is left to the caller.
func (r *QuestionRepository) ListAll(ctx context.Context) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT `+questionColumns+`
		 FROM questions q JOIN categories c ON c.code = q.category
		 ORDER BY c.position, q.code`)
}

// ListByCategory returns the questions of one category.
func (r *QuestionRepository) ListByCategory(ctx context.Context, category string) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT `+questionColumns+` FROM questions q WHERE q.category = $1 ORDER BY q.code`,
		category)
}

func (r *QuestionRepository) list(ctx context.Context, query string, args ...any) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Code, &q.Category, &q.Text, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id int) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions q WHERE q.id = $1`, id,
	).Scan(&q.ID, &q.Code, &q.Category, &q.Text, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// CodeExists reports whether any question already uses code.
func (r *QuestionRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE code = $1)`, code,
	).Scan(&exists)
	return exists, err
}

// HasAnswers reports whether any stored answer references code.
func (r *QuestionRepository) HasAnswers(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM survey_answers WHERE question_code = $1)`, code,
	).Scan(&exists)
	return exists, err
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (code, category, text)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		q.Code, q.Category, q.Text,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if uniqueViolation(err, constraintQuestionCode) {
			return ErrDuplicateQuestionCode
		}
		return err
	}
	return nil
}

// Update changes a question's text and category. The code is never updated.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE questions SET text = $1, category = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3
		 RETURNING updated_at`,
		q.Text, q.Category, q.ID,
	).Scan(&q.UpdatedAt)
	return notFound(err)
}

// Delete removes a question. Historical answers keep their code and stay in place.
func (r *QuestionRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
