package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/voucher-service/internal/domain"
)

// VoucherRepository encapsulates voucher persistence. Every owned lookup is
// scoped by (id, user_id) so a missing voucher and another tenant's voucher
// surface identically as pgx.ErrNoRows.
type VoucherRepository interface {
	Create(ctx context.Context, voucher *domain.Voucher) error
	GetOwned(ctx context.Context, id, userID string) (*domain.Voucher, error)
	GetOwnedForUpdate(ctx context.Context, id, userID string) (*domain.Voucher, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Voucher, error)
	UpdateTotal(ctx context.Context, voucher *domain.Voucher, total decimal.Decimal) error
	SetStatus(ctx context.Context, voucher *domain.Voucher, status domain.VoucherStatus) error
	Delete(ctx context.Context, id, userID string) error
	WithTx(tx pgx.Tx) VoucherRepository
}

type voucherRepository struct {
	db Querier
}

// NewVoucherRepository instantiates repository.
func NewVoucherRepository(db Querier) VoucherRepository {
	return &voucherRepository{db: db}
}

func (r *voucherRepository) WithTx(tx pgx.Tx) VoucherRepository {
	return &voucherRepository{db: tx}
}

const voucherColumns = `id, reference, user_id, name, department, description,
               start_date, end_date, status, total_amount, created_at, updated_at`

func (r *voucherRepository) Create(ctx context.Context, voucher *domain.Voucher) error {
	const query = `
        INSERT INTO vouchers (reference, user_id, name, department, description, start_date, end_date, status, total_amount)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		voucher.Reference,
		voucher.UserID,
		voucher.Name,
		voucher.Department,
		voucher.Description,
		voucher.StartDate,
		voucher.EndDate,
		voucher.Status,
		voucher.TotalAmount,
	).Scan(&voucher.ID, &voucher.CreatedAt, &voucher.UpdatedAt)
}

func (r *voucherRepository) GetOwned(ctx context.Context, id, userID string) (*domain.Voucher, error) {
	const query = `
        SELECT ` + voucherColumns + `
        FROM vouchers WHERE id=$1 AND user_id=$2`
	return r.fetchSingle(ctx, query, id, userID)
}

// GetOwnedForUpdate locks the voucher row for the remainder of the
// transaction. Concurrent expense mutations against one voucher serialize
// here, so the recomputed total always reflects both writes.
func (r *voucherRepository) GetOwnedForUpdate(ctx context.Context, id, userID string) (*domain.Voucher, error) {
	const query = `
        SELECT ` + voucherColumns + `
        FROM vouchers WHERE id=$1 AND user_id=$2 FOR UPDATE`
	return r.fetchSingle(ctx, query, id, userID)
}

func (r *voucherRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Voucher, error) {
	var voucher domain.Voucher
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&voucher.ID,
		&voucher.Reference,
		&voucher.UserID,
		&voucher.Name,
		&voucher.Department,
		&voucher.Description,
		&voucher.StartDate,
		&voucher.EndDate,
		&voucher.Status,
		&voucher.TotalAmount,
		&voucher.CreatedAt,
		&voucher.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *voucherRepository) ListByUser(ctx context.Context, userID string) ([]domain.Voucher, error) {
	const query = `
        SELECT ` + voucherColumns + `
        FROM vouchers WHERE user_id=$1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Voucher
	for rows.Next() {
		var voucher domain.Voucher
		if err := rows.Scan(
			&voucher.ID,
			&voucher.Reference,
			&voucher.UserID,
			&voucher.Name,
			&voucher.Department,
			&voucher.Description,
			&voucher.StartDate,
			&voucher.EndDate,
			&voucher.Status,
			&voucher.TotalAmount,
			&voucher.CreatedAt,
			&voucher.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, voucher)
	}
	return result, rows.Err()
}

func (r *voucherRepository) UpdateTotal(ctx context.Context, voucher *domain.Voucher, total decimal.Decimal) error {
	const query = `
        UPDATE vouchers SET total_amount=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	if err := r.db.QueryRow(ctx, query, total, voucher.ID).Scan(&voucher.UpdatedAt); err != nil {
		return err
	}
	voucher.TotalAmount = total
	return nil
}

func (r *voucherRepository) SetStatus(ctx context.Context, voucher *domain.Voucher, status domain.VoucherStatus) error {
	const query = `
        UPDATE vouchers SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	if err := r.db.QueryRow(ctx, query, status, voucher.ID).Scan(&voucher.UpdatedAt); err != nil {
		return err
	}
	voucher.Status = status
	return nil
}

// Delete removes the voucher; child expenses go with it via the FK cascade.
func (r *voucherRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM vouchers WHERE id=$1 AND user_id=$2`
	cmd, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
