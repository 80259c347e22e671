package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/survey-backend/internal/model"
)

// RespondentRepository handles respondent data access.
type RespondentRepository struct {
	pool *pgxpool.Pool
}

// NewRespondentRepository creates a new RespondentRepository.
func NewRespondentRepository(pool *pgxpool.Pool) *RespondentRepository {
	return &RespondentRepository{pool: pool}
}

// GetByID retrieves a respondent by ID.
func (r *RespondentRepository) GetByID(ctx context.Context, id int) (*model.Respondent, error) {
	p := &model.Respondent{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, identifier, program, semester, created_at
		 FROM respondents WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Identifier, &p.Program, &p.Semester, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ExistsByIdentifier reports whether the identifier is already registered.
func (r *RespondentRepository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM respondents WHERE identifier = $1)`, identifier,
	).Scan(&exists)
	return exists, err
}

// Create inserts a new respondent.
func (r *RespondentRepository) Create(ctx context.Context, p *model.Respondent) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO respondents (name, identifier, program, semester)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		p.Name, p.Identifier, p.Program, p.Semester,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if uniqueViolation(err, constraintRespondentIdentifier) {
			return ErrDuplicateIdentifier
		}
		return err
	}
	return nil
}

// Delete removes a respondent. The response and its answers go with it (ON DELETE CASCADE).
func (r *RespondentRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM respondents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
