package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/voucher-service/internal/config"
	"github.com/spec-kit/voucher-service/internal/domain"
	"github.com/spec-kit/voucher-service/internal/events"
	"github.com/spec-kit/voucher-service/internal/repository"
	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

// ExpenseService coordinates expense mutations. Each mutation locks the
// parent voucher row, applies the write, and recomputes the voucher total
// inside one transaction, so the aggregate invariant
// total_amount == sum(expense amounts) holds at every commit point.
type ExpenseService struct {
	vouchers   repository.VoucherRepository
	expenses   repository.ExpenseRepository
	tx         TxRunner
	dispatcher events.Dispatcher
	policy     config.ExpenseConfig
}

// ExpenseDependencies bundles collaborators for the expense service.
type ExpenseDependencies struct {
	VoucherRepo repository.VoucherRepository
	ExpenseRepo repository.ExpenseRepository
	Tx          TxRunner
	Dispatcher  events.Dispatcher
	Policy      config.ExpenseConfig
}

// NewExpenseService constructs the service.
func NewExpenseService(deps ExpenseDependencies) *ExpenseService {
	return &ExpenseService{
		vouchers:   deps.VoucherRepo,
		expenses:   deps.ExpenseRepo,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		policy:     deps.Policy,
	}
}

// AddExpense validates, normalizes, and attaches an expense to the caller's
// draft voucher, returning the expense together with the voucher carrying
// its recomputed total.
func (s *ExpenseService) AddExpense(ctx context.Context, userID, voucherID string, input domain.ExpenseInput) (*domain.Expense, *domain.Voucher, error) {
	var expense *domain.Expense
	var voucher *domain.Voucher

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		vouchers := s.vouchers.WithTx(tx)
		expenses := s.expenses.WithTx(tx)

		var err error
		voucher, err = vouchers.GetOwnedForUpdate(ctx, voucherID, userID)
		if err != nil {
			return mapVoucherLookup(err)
		}

		expense, err = domain.NewExpense(input, voucher, s.policy.FuelRate)
		if err != nil {
			return err
		}
		if err := expenses.Create(ctx, expense); err != nil {
			return err
		}
		return s.recomputeTotal(ctx, vouchers, expenses, voucher)
	})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publishExpenseEvent(ctx, events.EventExpenseAdded, userID, voucher, expense)
	return expense, voucher, nil
}

// UpdateExpense rewrites an expense's mutable fields. The parent voucher is
// immutable on the expense; ownership is checked against it, and the total
// is recomputed in the same transaction.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, expenseID string, input domain.ExpenseInput) (*domain.Expense, *domain.Voucher, error) {
	var expense *domain.Expense
	var voucher *domain.Voucher

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		vouchers := s.vouchers.WithTx(tx)
		expenses := s.expenses.WithTx(tx)

		existing, voucherLocked, err := s.resolveOwnedExpense(ctx, vouchers, expenses, userID, expenseID)
		if err != nil {
			return err
		}
		voucher = voucherLocked

		normalized, err := domain.NewExpense(input, voucher, s.policy.FuelRate)
		if err != nil {
			return err
		}
		normalized.ID = existing.ID
		normalized.VoucherID = existing.VoucherID
		normalized.CreatedAt = existing.CreatedAt
		expense = normalized

		if err := expenses.Update(ctx, expense); err != nil {
			return err
		}
		return s.recomputeTotal(ctx, vouchers, expenses, voucher)
	})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publishExpenseEvent(ctx, events.EventExpenseUpdated, userID, voucher, expense)
	return expense, voucher, nil
}

// DeleteExpense removes an expense from the caller's draft voucher and
// recomputes the total transactionally.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, expenseID string) (*domain.Voucher, error) {
	var expense *domain.Expense
	var voucher *domain.Voucher

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		vouchers := s.vouchers.WithTx(tx)
		expenses := s.expenses.WithTx(tx)

		existing, voucherLocked, err := s.resolveOwnedExpense(ctx, vouchers, expenses, userID, expenseID)
		if err != nil {
			return err
		}
		expense = existing
		voucher = voucherLocked

		if !voucher.Editable() {
			return apperrors.NewVoucherImmutable()
		}
		if err := expenses.Delete(ctx, expense.ID); err != nil {
			return err
		}
		return s.recomputeTotal(ctx, vouchers, expenses, voucher)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishExpenseEvent(ctx, events.EventExpenseRemoved, userID, voucher, expense)
	return voucher, nil
}

// RecomputeTotal re-derives and persists the voucher total from its current
// expense set. Idempotent; exposed for administrative reconciliation.
func (s *ExpenseService) RecomputeTotal(ctx context.Context, userID, voucherID string) (*domain.Voucher, error) {
	var voucher *domain.Voucher

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		vouchers := s.vouchers.WithTx(tx)
		expenses := s.expenses.WithTx(tx)

		var err error
		voucher, err = vouchers.GetOwnedForUpdate(ctx, voucherID, userID)
		if err != nil {
			return mapVoucherLookup(err)
		}
		return s.recomputeTotal(ctx, vouchers, expenses, voucher)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return voucher, nil
}

// resolveOwnedExpense loads the expense, locks its parent voucher scoped to
// the caller, and re-reads the expense under the lock. A foreign or missing
// expense surfaces as NotFound either way.
func (s *ExpenseService) resolveOwnedExpense(ctx context.Context, vouchers repository.VoucherRepository, expenses repository.ExpenseRepository, userID, expenseID string) (*domain.Expense, *domain.Voucher, error) {
	expense, err := expenses.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("expense", nil)
		}
		return nil, nil, err
	}

	voucher, err := vouchers.GetOwnedForUpdate(ctx, expense.VoucherID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("expense", nil)
		}
		return nil, nil, err
	}

	// Re-read now that the voucher row is locked; a concurrent delete may
	// have won the race before the lock was acquired.
	expense, err = expenses.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("expense", nil)
		}
		return nil, nil, err
	}
	return expense, voucher, nil
}

func (s *ExpenseService) recomputeTotal(ctx context.Context, vouchers repository.VoucherRepository, expenses repository.ExpenseRepository, voucher *domain.Voucher) error {
	total, err := expenses.SumByVoucher(ctx, voucher.ID)
	if err != nil {
		return err
	}
	return vouchers.UpdateTotal(ctx, voucher, total)
}

func (s *ExpenseService) publishExpenseEvent(ctx context.Context, eventType events.EventType, userID string, voucher *domain.Voucher, expense *domain.Expense) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		VoucherID: voucher.ID,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload: events.ExpenseChangedPayload{
			ExpenseID:     expense.ID,
			TransportType: expense.TransportType,
			Amount:        expense.Amount.StringFixed(2),
			NewTotal:      voucher.TotalAmount.StringFixed(2),
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
