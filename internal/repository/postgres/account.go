package postgres

import (
	"context"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/repository"
)

type accountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) repository.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, username, email, password_hash, first_name, last_name, active, created_on`

func scanAccount(row rowScanner) (*domain.Account, error) {
	acc := &domain.Account{}
	err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash, &acc.FirstName, &acc.LastName, &acc.Active, &acc.CreatedOn)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *accountRepository) Create(ctx context.Context, acc *domain.Account) error {
	query := `INSERT INTO accounts (username, email, password_hash, first_name, last_name, active, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	acc.CreatedOn = time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, acc.Username, acc.Email, acc.PasswordHash, acc.FirstName, acc.LastName, acc.Active, acc.CreatedOn).Scan(&acc.ID)
	return mapError(err, "account")
}

func (r *accountRepository) GetByID(ctx context.Context, id int32) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "account")
	}
	return acc, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, mapError(err, "account")
	}
	return acc, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1) ORDER BY id LIMIT 1`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(err, "account")
	}
	return acc, nil
}

func (r *accountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *accountRepository) SetActive(ctx context.Context, id int32, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "account")
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id int32, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "account")
}

func (r *accountRepository) AddRole(ctx context.Context, id int32, role domain.Role) error {
	query := `INSERT INTO account_roles (account_id, role) VALUES ($1, $2) ON CONFLICT (account_id, role) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, id, role)
	return mapError(err, "account role")
}

func (r *accountRepository) HasRole(ctx context.Context, id int32, role domain.Role) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM account_roles WHERE account_id = $1 AND role = $2)`
	err := r.db.QueryRowContext(ctx, query, id, role).Scan(&exists)
	return exists, err
}

func (r *accountRepository) ListRoles(ctx context.Context, id int32) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM account_roles WHERE account_id = $1 ORDER BY role`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if role, ok := domain.ParseRole(name); ok {
			roles = append(roles, role)
		}
	}
	return roles, rows.Err()
}
