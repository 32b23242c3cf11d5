package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/voucher-service/internal/config"
	"github.com/spec-kit/voucher-service/internal/domain"
	"github.com/spec-kit/voucher-service/internal/repository"
)

func testPolicy() config.ExpenseConfig {
	return config.ExpenseConfig{FuelRate: domain.DefaultFuelRate}
}

// fakeStore is an in-memory stand-in for Postgres shared by the fake
// repositories. Its transaction runner snapshots state before the scoped
// function and restores it on error, mirroring rollback semantics.
type fakeStore struct {
	mu       sync.Mutex
	vouchers map[string]domain.Voucher
	expenses map[string]domain.Expense

	failUpdateTotal error
	failCreate      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vouchers: make(map[string]domain.Voucher),
		expenses: make(map[string]domain.Expense),
	}
}

func (s *fakeStore) snapshot() (map[string]domain.Voucher, map[string]domain.Expense) {
	vouchers := make(map[string]domain.Voucher, len(s.vouchers))
	for k, v := range s.vouchers {
		vouchers[k] = v
	}
	expenses := make(map[string]domain.Expense, len(s.expenses))
	for k, e := range s.expenses {
		expenses[k] = e
	}
	return vouchers, expenses
}

type fakeTxRunner struct {
	store *fakeStore
}

func (r *fakeTxRunner) WithTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	vouchers, expenses := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.vouchers = vouchers
		r.store.expenses = expenses
		return err
	}
	return nil
}

type fakeVoucherRepo struct {
	store *fakeStore
}

func (r *fakeVoucherRepo) WithTx(pgx.Tx) repository.VoucherRepository { return r }

func (r *fakeVoucherRepo) Create(_ context.Context, voucher *domain.Voucher) error {
	voucher.ID = uuid.NewString()
	voucher.CreatedAt = time.Now()
	voucher.UpdatedAt = voucher.CreatedAt
	r.store.vouchers[voucher.ID] = *voucher
	return nil
}

func (r *fakeVoucherRepo) GetOwned(_ context.Context, id, userID string) (*domain.Voucher, error) {
	voucher, ok := r.store.vouchers[id]
	if !ok || voucher.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	copied := voucher
	return &copied, nil
}

func (r *fakeVoucherRepo) GetOwnedForUpdate(ctx context.Context, id, userID string) (*domain.Voucher, error) {
	return r.GetOwned(ctx, id, userID)
}

func (r *fakeVoucherRepo) ListByUser(_ context.Context, userID string) ([]domain.Voucher, error) {
	var result []domain.Voucher
	for _, voucher := range r.store.vouchers {
		if voucher.UserID == userID {
			result = append(result, voucher)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeVoucherRepo) UpdateTotal(_ context.Context, voucher *domain.Voucher, total decimal.Decimal) error {
	if r.store.failUpdateTotal != nil {
		return r.store.failUpdateTotal
	}
	stored, ok := r.store.vouchers[voucher.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.TotalAmount = total
	stored.UpdatedAt = time.Now()
	r.store.vouchers[voucher.ID] = stored
	voucher.TotalAmount = total
	voucher.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeVoucherRepo) SetStatus(_ context.Context, voucher *domain.Voucher, status domain.VoucherStatus) error {
	stored, ok := r.store.vouchers[voucher.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	r.store.vouchers[voucher.ID] = stored
	voucher.Status = status
	voucher.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete mirrors the FK cascade: child expenses go with the voucher.
func (r *fakeVoucherRepo) Delete(_ context.Context, id, userID string) error {
	voucher, ok := r.store.vouchers[id]
	if !ok || voucher.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.store.vouchers, id)
	for expenseID, expense := range r.store.expenses {
		if expense.VoucherID == id {
			delete(r.store.expenses, expenseID)
		}
	}
	return nil
}

type fakeExpenseRepo struct {
	store *fakeStore
}

func (r *fakeExpenseRepo) WithTx(pgx.Tx) repository.ExpenseRepository { return r }

func (r *fakeExpenseRepo) Create(_ context.Context, expense *domain.Expense) error {
	if r.store.failCreate != nil {
		return r.store.failCreate
	}
	expense.ID = uuid.NewString()
	expense.CreatedAt = time.Now()
	r.store.expenses[expense.ID] = *expense
	return nil
}

func (r *fakeExpenseRepo) Update(_ context.Context, expense *domain.Expense) error {
	if _, ok := r.store.expenses[expense.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.store.expenses[expense.ID] = *expense
	return nil
}

func (r *fakeExpenseRepo) GetByID(_ context.Context, id string) (*domain.Expense, error) {
	expense, ok := r.store.expenses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := expense
	return &copied, nil
}

func (r *fakeExpenseRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.store.expenses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.expenses, id)
	return nil
}

func (r *fakeExpenseRepo) ListByVoucher(_ context.Context, voucherID string) ([]domain.Expense, error) {
	var result []domain.Expense
	for _, expense := range r.store.expenses {
		if expense.VoucherID == voucherID {
			result = append(result, expense)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurredAt.After(result[j].OccurredAt)
	})
	return result, nil
}

func (r *fakeExpenseRepo) ListByVouchers(ctx context.Context, voucherIDs []string) (map[string][]domain.Expense, error) {
	grouped := make(map[string][]domain.Expense, len(voucherIDs))
	for _, id := range voucherIDs {
		expenses, err := r.ListByVoucher(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(expenses) > 0 {
			grouped[id] = expenses
		}
	}
	return grouped, nil
}

func (r *fakeExpenseRepo) SumByVoucher(_ context.Context, voucherID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, expense := range r.store.expenses {
		if expense.VoucherID == voucherID {
			total = total.Add(expense.Amount)
		}
	}
	return total, nil
}

// testEnv bundles the fakes and both services under test.
type testEnv struct {
	store    *fakeStore
	vouchers *VoucherService
	expenses *ExpenseService
	profile  *domain.User
}

func newTestEnv(requireExpenseOnSubmit bool) *testEnv {
	store := newFakeStore()
	voucherRepo := &fakeVoucherRepo{store: store}
	expenseRepo := &fakeExpenseRepo{store: store}
	tx := &fakeTxRunner{store: store}

	policy := testPolicy()
	policy.RequireExpenseOnSubmit = requireExpenseOnSubmit

	return &testEnv{
		store: store,
		vouchers: NewVoucherService(VoucherDependencies{
			VoucherRepo: voucherRepo,
			ExpenseRepo: expenseRepo,
			Tx:          tx,
			Policy:      policy,
		}),
		expenses: NewExpenseService(ExpenseDependencies{
			VoucherRepo: voucherRepo,
			ExpenseRepo: expenseRepo,
			Tx:          tx,
			Policy:      policy,
		}),
		profile: &domain.User{
			ID:         "user-a",
			Email:      "a@example.com",
			Department: domain.DepartmentEngineering,
		},
	}
}
