package postgres

import (
	"context"
	"database/sql"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository"

	"github.com/lib/pq"
)

const applicationColumns = `id, full_name, national_id, birth_date, email, phone, profession, motivation, status,
	submitted_at, account_id, account_active, generated_credential, credential_issued_at`

type applicationRepository struct {
	db DBTX
}

func NewApplicationRepository(db DBTX) repository.ApplicationRepository {
	return &applicationRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*domain.MembershipApplication, error) {
	var (
		app        domain.MembershipApplication
		birthDate  time.Time
		profession sql.NullString
		accountID  sql.NullInt32
		credential sql.NullString
		credIssued sql.NullTime
	)
	err := row.Scan(
		&app.ID, &app.FullName, &app.NationalID, &birthDate, &app.Email, &app.Phone, &profession,
		&app.Motivation, &app.Status, &app.SubmittedAt, &accountID, &app.AccountActive,
		&credential, &credIssued,
	)
	if err != nil {
		return nil, err
	}
	app.BirthDate = birthDate.Format("2006-01-02")
	if profession.Valid {
		app.Profession = &profession.String
	}
	if accountID.Valid {
		id := accountID.Int32
		app.AccountID = &id
	}
	if credential.Valid {
		app.GeneratedCredential = &credential.String
	}
	if credIssued.Valid {
		t := credIssued.Time
		app.CredentialIssuedAt = &t
	}
	return &app, nil
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.MembershipApplication) error {
	query := `INSERT INTO membership_applications
	          (full_name, national_id, birth_date, email, phone, profession, motivation, status, submitted_at, account_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	app.SubmittedAt = time.Now().UTC()
	logger.DatabaseCall("INSERT", "membership_applications", "email", app.Email)
	err := r.db.QueryRowContext(ctx, query,
		app.FullName, app.NationalID, app.BirthDate, app.Email, app.Phone, app.Profession,
		app.Motivation, app.Status, app.SubmittedAt, app.AccountActive,
	).Scan(&app.ID)
	logger.DatabaseResult("INSERT", 1, err, "table", "membership_applications")
	return mapError(err, "application")
}

func (r *applicationRepository) GetByID(ctx context.Context, id int32) (*domain.MembershipApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM membership_applications WHERE id = $1`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "application")
	}
	return app, nil
}

func (r *applicationRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.MembershipApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM membership_applications WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "membership_applications", "id", id)
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "application")
	}
	return app, nil
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.MembershipApplication) error {
	query := `UPDATE membership_applications
	          SET full_name=$1, email=$2, phone=$3, profession=$4, motivation=$5, status=$6,
	              account_id=$7, account_active=$8, generated_credential=$9, credential_issued_at=$10
	          WHERE id=$11`
	res, err := r.db.ExecContext(ctx, query,
		app.FullName, app.Email, app.Phone, app.Profession, app.Motivation, app.Status,
		app.AccountID, app.AccountActive, app.GeneratedCredential, app.CredentialIssuedAt, app.ID,
	)
	if err != nil {
		return mapError(err, "application")
	}
	return requireAffected(res, "application")
}

func (r *applicationRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM membership_applications WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "application")
	}
	return requireAffected(res, "application")
}

func (r *applicationRepository) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.MembershipApplication, error) {
	logger.EnterMethod("applicationRepository.List", "status", filter.Status, "ids", len(filter.IDs))

	ids := make([]int64, len(filter.IDs))
	for i, id := range filter.IDs {
		ids[i] = int64(id)
	}
	query := `SELECT ` + applicationColumns + ` FROM membership_applications
	          WHERE ($1 = '' OR status = $1) AND (cardinality($2::bigint[]) = 0 OR id = ANY($2::bigint[]))
	          ORDER BY submitted_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, string(filter.Status), pq.Array(ids))
	if err != nil {
		logger.ExitMethodWithError("applicationRepository.List", err)
		return nil, err
	}
	defer rows.Close()

	apps, err := collectApplications(rows)
	if err != nil {
		logger.ExitMethodWithError("applicationRepository.List", err)
		return nil, err
	}
	logger.ExitMethod("applicationRepository.List", "count", len(apps))
	return apps, nil
}

func (r *applicationRepository) ListApprovedWithoutAccount(ctx context.Context) ([]domain.MembershipApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM membership_applications
	          WHERE status = 'APPROVED' AND account_id IS NULL ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (r *applicationRepository) ClearCredentialsIssuedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE membership_applications SET generated_credential = NULL, credential_issued_at = NULL
	          WHERE generated_credential IS NOT NULL AND credential_issued_at < $1`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collectApplications(rows *sql.Rows) ([]domain.MembershipApplication, error) {
	var apps []domain.MembershipApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}
