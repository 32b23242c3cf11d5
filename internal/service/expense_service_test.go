package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/voucher-service/internal/domain"
	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

func mustCreateVoucher(t *testing.T, env *testEnv) *domain.Voucher {
	t.Helper()
	voucher, err := env.vouchers.CreateVoucher(context.Background(), env.profile, domain.VoucherInput{
		Name:      "Client visit",
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, domain.VoucherStatusDraft, voucher.Status)
	require.True(t, voucher.TotalAmount.IsZero())
	return voucher
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func cabInput(amountStr string) domain.ExpenseInput {
	return domain.ExpenseInput{
		Description:   "Airport cab",
		TransportType: domain.TransportCab,
		Amount:        amount(amountStr),
		OccurredAt:    time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestAddExpenseRecomputesTotal(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	expense, updated, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("250.00"))
	require.NoError(t, err)

	assert.Equal(t, "250.00", expense.Amount.StringFixed(2))
	assert.Equal(t, "250.00", updated.TotalAmount.StringFixed(2))

	stored := env.store.vouchers[voucher.ID]
	assert.Equal(t, "250.00", stored.TotalAmount.StringFixed(2))
}

func TestFuelExpenseDerivedFromDistance(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	_, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("250.00"))
	require.NoError(t, err)

	distance := 40
	expense, updated, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, domain.ExpenseInput{
		Description:   "Fuel for rental car",
		TransportType: domain.TransportFuel,
		Distance:      &distance,
		// Client-supplied amount must be ignored in favor of the server derivation.
		Amount:     amount("999.99"),
		OccurredAt: time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "140.00", expense.Amount.StringFixed(2))
	assert.Equal(t, "390.00", updated.TotalAmount.StringFixed(2))
}

func TestFuelExpenseWithoutDistanceRequiresAmount(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	_, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, domain.ExpenseInput{
		Description:   "Fuel top-up",
		TransportType: domain.TransportFuel,
		OccurredAt:    time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	// An explicit amount is accepted when no distance is given.
	expense, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, domain.ExpenseInput{
		Description:   "Fuel top-up",
		TransportType: domain.TransportFuel,
		Amount:        amount("52.75"),
		OccurredAt:    time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "52.75", expense.Amount.StringFixed(2))
}

func TestDeleteExpenseRecomputesTotal(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	cab, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("250.00"))
	require.NoError(t, err)

	distance := 40
	_, _, err = env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, domain.ExpenseInput{
		Description:   "Fuel",
		TransportType: domain.TransportFuel,
		Distance:      &distance,
		OccurredAt:    time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	updated, err := env.expenses.DeleteExpense(context.Background(), env.profile.ID, cab.ID)
	require.NoError(t, err)
	assert.Equal(t, "140.00", updated.TotalAmount.StringFixed(2))
}

func TestUpdateExpenseRecomputesTotal(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	cab, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("250.00"))
	require.NoError(t, err)

	expense, updated, err := env.expenses.UpdateExpense(context.Background(), env.profile.ID, cab.ID, cabInput("180.50"))
	require.NoError(t, err)

	assert.Equal(t, "180.50", expense.Amount.StringFixed(2))
	assert.Equal(t, cab.ID, expense.ID)
	assert.Equal(t, voucher.ID, expense.VoucherID)
	assert.Equal(t, "180.50", updated.TotalAmount.StringFixed(2))
}

func TestSubmittedVoucherIsImmutable(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	distance := 40
	fuel, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, domain.ExpenseInput{
		Description:   "Fuel",
		TransportType: domain.TransportFuel,
		Distance:      &distance,
		OccurredAt:    time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = env.vouchers.Submit(context.Background(), env.profile.ID, voucher.ID)
	require.NoError(t, err)

	_, _, err = env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("10.00"))
	assert.True(t, apperrors.IsCode(err, "VOUCHER_IMMUTABLE"))

	_, _, err = env.expenses.UpdateExpense(context.Background(), env.profile.ID, fuel.ID, cabInput("10.00"))
	assert.True(t, apperrors.IsCode(err, "VOUCHER_IMMUTABLE"))

	_, err = env.expenses.DeleteExpense(context.Background(), env.profile.ID, fuel.ID)
	assert.True(t, apperrors.IsCode(err, "VOUCHER_IMMUTABLE"))

	stored := env.store.vouchers[voucher.ID]
	assert.Equal(t, "140.00", stored.TotalAmount.StringFixed(2))
	assert.Len(t, env.store.expenses, 1)
}

func TestExpenseOpsOnForeignVoucherAreNotFound(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	cab, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("250.00"))
	require.NoError(t, err)

	_, _, err = env.expenses.AddExpense(context.Background(), "user-b", voucher.ID, cabInput("10.00"))
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, _, err = env.expenses.UpdateExpense(context.Background(), "user-b", cab.ID, cabInput("10.00"))
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = env.expenses.DeleteExpense(context.Background(), "user-b", cab.ID)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestRepeatedAddRemoveHasNoRoundingDrift(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	anchor, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("99.95"))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		expense, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("0.10"))
		require.NoError(t, err)
		_, err = env.expenses.DeleteExpense(context.Background(), env.profile.ID, expense.ID)
		require.NoError(t, err)
	}

	stored := env.store.vouchers[voucher.ID]
	assert.Equal(t, "99.95", stored.TotalAmount.StringFixed(2))
	assert.Equal(t, anchor.Amount.StringFixed(2), stored.TotalAmount.StringFixed(2))
}

func TestRecomputeTotalIsIdempotent(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	_, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("123.45"))
	require.NoError(t, err)

	first, err := env.expenses.RecomputeTotal(context.Background(), env.profile.ID, voucher.ID)
	require.NoError(t, err)
	second, err := env.expenses.RecomputeTotal(context.Background(), env.profile.ID, voucher.ID)
	require.NoError(t, err)

	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	assert.Equal(t, "123.45", second.TotalAmount.StringFixed(2))
}

func TestFailedRecomputeRollsBackExpenseWrite(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	_, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("250.00"))
	require.NoError(t, err)

	env.store.failUpdateTotal = errors.New("write timeout")
	_, _, err = env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, cabInput("60.00"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INTERNAL_ERROR"))

	// Neither the expense write nor the stale total may survive.
	env.store.failUpdateTotal = nil
	assert.Len(t, env.store.expenses, 1)
	stored := env.store.vouchers[voucher.ID]
	assert.Equal(t, "250.00", stored.TotalAmount.StringFixed(2))
}

func TestValidationRejectsMalformedExpense(t *testing.T) {
	env := newTestEnv(false)
	voucher := mustCreateVoucher(t, env)

	cases := []struct {
		name  string
		input domain.ExpenseInput
	}{
		{"missing description", domain.ExpenseInput{
			TransportType: domain.TransportBus,
			Amount:        amount("10.00"),
			OccurredAt:    time.Now(),
		}},
		{"unknown transport type", domain.ExpenseInput{
			Description:   "Ferry",
			TransportType: domain.TransportType("FERRY"),
			Amount:        amount("10.00"),
			OccurredAt:    time.Now(),
		}},
		{"zero amount", domain.ExpenseInput{
			Description:   "Bus",
			TransportType: domain.TransportBus,
			Amount:        amount("0"),
			OccurredAt:    time.Now(),
		}},
		{"negative amount", domain.ExpenseInput{
			Description:   "Bus",
			TransportType: domain.TransportBus,
			Amount:        amount("-5.00"),
			OccurredAt:    time.Now(),
		}},
		{"missing datetime", domain.ExpenseInput{
			Description:   "Bus",
			TransportType: domain.TransportBus,
			Amount:        amount("10.00"),
		}},
		{"distance on non-fuel", func() domain.ExpenseInput {
			distance := 12
			return domain.ExpenseInput{
				Description:   "Train",
				TransportType: domain.TransportTrain,
				Amount:        amount("10.00"),
				Distance:      &distance,
				OccurredAt:    time.Now(),
			}
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.expenses.AddExpense(context.Background(), env.profile.ID, voucher.ID, tc.input)
			assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "expected validation failure")
		})
	}

	assert.Empty(t, env.store.expenses)
}
