package postgres

import (
	"context"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/repository"
)

type provisioningFailureRepository struct {
	db DBTX
}

func NewProvisioningFailureRepository(db DBTX) repository.ProvisioningFailureRepository {
	return &provisioningFailureRepository{db: db}
}

func (r *provisioningFailureRepository) Create(ctx context.Context, f *domain.ProvisioningFailure) error {
	query := `INSERT INTO provisioning_failures (application_id, stage, reason, created_at)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	f.CreatedAt = time.Now().UTC()
	return r.db.QueryRowContext(ctx, query, f.ApplicationID, f.Stage, f.Reason, f.CreatedAt).Scan(&f.ID)
}

func (r *provisioningFailureRepository) List(ctx context.Context, limit int32) ([]domain.ProvisioningFailure, error) {
	query := `SELECT id, application_id, stage, reason, created_at FROM provisioning_failures
	          ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []domain.ProvisioningFailure
	for rows.Next() {
		var f domain.ProvisioningFailure
		if err := rows.Scan(&f.ID, &f.ApplicationID, &f.Stage, &f.Reason, &f.CreatedAt); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
