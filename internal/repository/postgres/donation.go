package postgres

import (
	"context"
	"database/sql"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/logger"
	"membership-backend/internal/repository"
)

const donationColumns = `id, donor_name, amount, preference_id, payment_id, status, settled_at, created_at`

type donationRepository struct {
	db DBTX
}

func NewDonationRepository(db DBTX) repository.DonationRepository {
	return &donationRepository{db: db}
}

func scanDonation(row rowScanner) (*domain.DonationOrder, error) {
	var (
		order        domain.DonationOrder
		preferenceID sql.NullString
		paymentID    sql.NullString
		settledAt    sql.NullTime
	)
	err := row.Scan(&order.ID, &order.DonorName, &order.Amount, &preferenceID, &paymentID, &order.Status, &settledAt, &order.CreatedAt)
	if err != nil {
		return nil, err
	}
	if preferenceID.Valid {
		order.PreferenceID = &preferenceID.String
	}
	if paymentID.Valid {
		order.PaymentID = &paymentID.String
	}
	if settledAt.Valid {
		t := settledAt.Time
		order.SettledAt = &t
	}
	return &order, nil
}

func (r *donationRepository) Create(ctx context.Context, order *domain.DonationOrder) error {
	query := `INSERT INTO donation_orders (donor_name, amount, status, created_at)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	order.CreatedAt = time.Now().UTC()
	logger.DatabaseCall("INSERT", "donation_orders", "amount", order.Amount.StringFixed(2))
	err := r.db.QueryRowContext(ctx, query, order.DonorName, order.Amount, order.Status, order.CreatedAt).Scan(&order.ID)
	logger.DatabaseResult("INSERT", 1, err, "table", "donation_orders")
	return mapError(err, "donation order")
}

func (r *donationRepository) GetByID(ctx context.Context, id int32) (*domain.DonationOrder, error) {
	query := `SELECT ` + donationColumns + ` FROM donation_orders WHERE id = $1`
	order, err := scanDonation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "donation order")
	}
	return order, nil
}

func (r *donationRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.DonationOrder, error) {
	query := `SELECT ` + donationColumns + ` FROM donation_orders WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "donation_orders", "id", id)
	order, err := scanDonation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "donation order")
	}
	return order, nil
}

func (r *donationRepository) AttachPreference(ctx context.Context, id int32, preferenceID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE donation_orders SET preference_id = $1 WHERE id = $2`, preferenceID, id)
	if err != nil {
		return mapError(err, "donation order")
	}
	return requireAffected(res, "donation order")
}

// Settle writes the terminal status. The status guard makes a second settlement a no-op
// at the row level even if a caller skipped the lock.
func (r *donationRepository) Settle(ctx context.Context, order *domain.DonationOrder) error {
	query := `UPDATE donation_orders SET status = $1, payment_id = $2, settled_at = $3
	          WHERE id = $4 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, order.Status, order.PaymentID, order.SettledAt, order.ID)
	if err != nil {
		return mapError(err, "donation order")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Conflict("donation order is already settled")
	}
	return nil
}

func (r *donationRepository) List(ctx context.Context, page, pageSize int32) ([]domain.DonationOrder, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + donationColumns + ` FROM donation_orders
	          ORDER BY settled_at DESC NULLS LAST, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := collectDonations(rows)
	if err != nil {
		return nil, 0, err
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM donation_orders`).Scan(&count); err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (r *donationRepository) ListAll(ctx context.Context) ([]domain.DonationOrder, error) {
	query := `SELECT ` + donationColumns + ` FROM donation_orders ORDER BY settled_at DESC NULLS LAST, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDonations(rows)
}

func (r *donationRepository) ListPendingCreatedBefore(ctx context.Context, before time.Time) ([]domain.DonationOrder, error) {
	query := `SELECT ` + donationColumns + ` FROM donation_orders
	          WHERE status = 'pending' AND created_at < $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDonations(rows)
}

func collectDonations(rows *sql.Rows) ([]domain.DonationOrder, error) {
	var orders []domain.DonationOrder
	for rows.Next() {
		order, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}
