package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/acconduty/od-form-api/internal/models"
	"github.com/acconduty/od-form-api/pkg/errors"
)

// CoordinatorRepository reads coordinator accounts used for login.
type CoordinatorRepository struct {
	db *sqlx.DB
}

// NewCoordinatorRepository constructs a CoordinatorRepository.
func NewCoordinatorRepository(db *sqlx.DB) *CoordinatorRepository {
	return &CoordinatorRepository{db: db}
}

// FindByEmail returns the coordinator with the given email, or
// ErrNotFound.
func (r *CoordinatorRepository) FindByEmail(ctx context.Context, email string) (*models.Coordinator, error) {
	query := `SELECT id, email, full_name, password_hash, created_at FROM coordinators WHERE email = $1`
	var coord models.Coordinator
	if err := r.db.GetContext(ctx, &coord, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, mapStoreError(err, "get coordinator")
	}
	return &coord, nil
}
