package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/survey-backend/internal/database"
	"github.com/stemsi/survey-backend/internal/model"
)

// ResponseRepository handles completed survey responses and their answer rows.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// Create persists the response header and one row per answer in a single
// transaction. Either everything is stored or nothing is.
func (r *ResponseRepository) Create(ctx context.Context, resp *model.SurveyResponse) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO survey_responses (id, respondent_id, total_score, question_count)
			 VALUES ($1, $2, $3, $4)
			 RETURNING completed_at`,
			resp.ID, resp.RespondentID, resp.TotalScore, resp.QuestionCount,
		).Scan(&resp.CompletedAt)
		if err != nil {
			if uniqueViolation(err, constraintResponseRespondent) {
				return ErrResponseExists
			}
			return fmt.Errorf("insert response: %w", err)
		}

		rows := make([][]any, 0, len(resp.Answers))
		for i := range resp.Answers {
			resp.Answers[i].ResponseID = resp.ID
			a := resp.Answers[i]
			rows = append(rows, []any{a.ResponseID, a.QuestionCode, a.Category, int16(a.Score)})
		}

		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"survey_answers"},
			[]string{"response_id", "question_code", "category", "score"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("insert answers: wrote %d of %d rows", n, len(rows))
		}
		return nil
	})
}

// ExistsForRespondent reports whether the respondent has completed the survey.
func (r *ResponseRepository) ExistsForRespondent(ctx context.Context, respondentID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM survey_responses WHERE respondent_id = $1)`, respondentID,
	).Scan(&exists)
	return exists, err
}

// GetByRespondent retrieves the respondent's response with its answers.
func (r *ResponseRepository) GetByRespondent(ctx context.Context, respondentID int) (*model.SurveyResponse, error) {
	return r.get(ctx, `WHERE respondent_id = $1`, respondentID)
}

// GetByID retrieves a response with its answers.
func (r *ResponseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SurveyResponse, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *ResponseRepository) get(ctx context.Context, where string, arg any) (*model.SurveyResponse, error) {
	resp := &model.SurveyResponse{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, respondent_id, total_score, question_count, completed_at
		 FROM survey_responses `+where, arg,
	).Scan(&resp.ID, &resp.RespondentID, &resp.TotalScore, &resp.QuestionCount, &resp.CompletedAt)
	if err != nil {
		return nil, notFound(err)
	}

	answers, err := r.ListAnswers(ctx, resp.ID)
	if err != nil {
		return nil, err
	}
	resp.Answers = answers
	return resp, nil
}

// ListAnswers returns the answer rows of a response.
func (r *ResponseRepository) ListAnswers(ctx context.Context, responseID uuid.UUID) ([]model.SurveyAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT response_id, question_code, category, score
		 FROM survey_answers WHERE response_id = $1
		 ORDER BY category, question_code`, responseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.SurveyAnswer
	for rows.Next() {
		var a model.SurveyAnswer
		if err := rows.Scan(&a.ResponseID, &a.QuestionCode, &a.Category, &a.Score); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// Delete removes a response and its answers. The respondent is kept.
func (r *ResponseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM survey_responses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeAll removes every respondent, response and answer. The catalog and admins
// are kept. Identity sequences keep counting so respondent ids are never reused.
func (r *ResponseRepository) PurgeAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		`TRUNCATE survey_answers, survey_responses, respondents`)
	return err
}
