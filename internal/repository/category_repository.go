package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/survey-backend/internal/model"
)

// CategoryRepository handles survey category data access.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories in survey order, each with its question count.
func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.code, c.label, c.position, COUNT(q.id)
		 FROM categories c
		 LEFT JOIN questions q ON q.category = c.code
		 GROUP BY c.code, c.label, c.position
		 ORDER BY c.position, c.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Code, &c.Label, &c.Position, &c.QuestionCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (code, label, position) VALUES ($1, $2, $3)`,
		c.Code, c.Label, c.Position,
	)
	if uniqueViolation(err, constraintCategoryPK) {
		return ErrDuplicateCategory
	}
	return err
}
