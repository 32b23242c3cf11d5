package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/voucher-service/internal/domain"
)

// ExpenseRepository encapsulates expense persistence.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error
	Update(ctx context.Context, expense *domain.Expense) error
	GetByID(ctx context.Context, id string) (*domain.Expense, error)
	Delete(ctx context.Context, id string) error
	ListByVoucher(ctx context.Context, voucherID string) ([]domain.Expense, error)
	ListByVouchers(ctx context.Context, voucherIDs []string) (map[string][]domain.Expense, error)
	SumByVoucher(ctx context.Context, voucherID string) (decimal.Decimal, error)
	WithTx(tx pgx.Tx) ExpenseRepository
}

type expenseRepository struct {
	db Querier
}

// NewExpenseRepository instantiates repository.
func NewExpenseRepository(db Querier) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) WithTx(tx pgx.Tx) ExpenseRepository {
	return &expenseRepository{db: tx}
}

const expenseColumns = `id, voucher_id, description, transport_type, amount,
               distance, occurred_at, notes, created_at`

func (r *expenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	const query = `
        INSERT INTO expenses (voucher_id, description, transport_type, amount, distance, occurred_at, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		expense.VoucherID,
		expense.Description,
		expense.TransportType,
		expense.Amount,
		expense.Distance,
		expense.OccurredAt,
		expense.Notes,
	).Scan(&expense.ID, &expense.CreatedAt)
}

// Update rewrites the mutable fields; voucher_id is never touched.
func (r *expenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	const query = `
        UPDATE expenses SET description=$1, transport_type=$2, amount=$3, distance=$4, occurred_at=$5, notes=$6
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, query,
		expense.Description,
		expense.TransportType,
		expense.Amount,
		expense.Distance,
		expense.OccurredAt,
		expense.Notes,
		expense.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *expenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	const query = `
        SELECT ` + expenseColumns + `
        FROM expenses WHERE id=$1`

	var expense domain.Expense
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&expense.ID,
		&expense.VoucherID,
		&expense.Description,
		&expense.TransportType,
		&expense.Amount,
		&expense.Distance,
		&expense.OccurredAt,
		&expense.Notes,
		&expense.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM expenses WHERE id=$1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByVoucher returns expenses most-recent first; the ordering is a
// user-facing guarantee of the composed voucher view.
func (r *expenseRepository) ListByVoucher(ctx context.Context, voucherID string) ([]domain.Expense, error) {
	const query = `
        SELECT ` + expenseColumns + `
        FROM expenses WHERE voucher_id=$1 ORDER BY occurred_at DESC`

	rows, err := r.db.Query(ctx, query, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// ListByVouchers fetches expenses for a set of vouchers grouped by parent id.
func (r *expenseRepository) ListByVouchers(ctx context.Context, voucherIDs []string) (map[string][]domain.Expense, error) {
	grouped := make(map[string][]domain.Expense, len(voucherIDs))
	if len(voucherIDs) == 0 {
		return grouped, nil
	}

	const query = `
        SELECT ` + expenseColumns + `
        FROM expenses WHERE voucher_id = ANY($1) ORDER BY occurred_at DESC`

	rows, err := r.db.Query(ctx, query, voucherIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}
	for _, expense := range expenses {
		grouped[expense.VoucherID] = append(grouped[expense.VoucherID], expense)
	}
	return grouped, nil
}

// SumByVoucher totals the current expense set in SQL decimal arithmetic.
func (r *expenseRepository) SumByVoucher(ctx context.Context, voucherID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE voucher_id=$1`

	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, voucherID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func scanExpenses(rows pgx.Rows) ([]domain.Expense, error) {
	var result []domain.Expense
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(
			&expense.ID,
			&expense.VoucherID,
			&expense.Description,
			&expense.TransportType,
			&expense.Amount,
			&expense.Distance,
			&expense.OccurredAt,
			&expense.Notes,
			&expense.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, expense)
	}
	return result, rows.Err()
}
