package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"membership-backend/internal/logger"
	"membership-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run inside or
// outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.ApplicationRepository
	repository.AccountRepository
	repository.DonationRepository
	repository.ProvisioningFailureRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                            db,
		ApplicationRepository:         NewApplicationRepository(db),
		AccountRepository:             NewAccountRepository(db),
		DonationRepository:            NewDonationRepository(db),
		ProvisioningFailureRepository: NewProvisioningFailureRepository(db),
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	logger.DatabaseCall("BEGIN", "transaction")
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.DatabaseResult("BEGIN", 0, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newTxScope(sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		logger.DatabaseResult("COMMIT", 0, err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txScope struct {
	tx           *sql.Tx
	applications repository.ApplicationRepository
	accounts     repository.AccountRepository
	donations    repository.DonationRepository
	failures     repository.ProvisioningFailureRepository
}

func newTxScope(tx *sql.Tx) *txScope {
	return &txScope{
		tx:           tx,
		applications: NewApplicationRepository(tx),
		accounts:     NewAccountRepository(tx),
		donations:    NewDonationRepository(tx),
		failures:     NewProvisioningFailureRepository(tx),
	}
}

func (t *txScope) Applications() repository.ApplicationRepository { return t.applications }
func (t *txScope) Accounts() repository.AccountRepository         { return t.accounts }
func (t *txScope) Donations() repository.DonationRepository       { return t.donations }
func (t *txScope) ProvisioningFailures() repository.ProvisioningFailureRepository {
	return t.failures
}

func (t *txScope) Savepoint(ctx context.Context, name string, fn func() error) error {
	if !validSavepointName(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := fn(); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint failed: %v)", err, rbErr)
		}
		return err
	}
	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func validSavepointName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
