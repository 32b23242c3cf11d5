package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/voucher-service/internal/domain"
)

// VoucherView is the read-model for a voucher together with its expenses.
// ExpenseCount is always the cardinality of the list, never stored.
type VoucherView struct {
	Voucher      domain.Voucher
	Expenses     []domain.Expense
	ExpenseCount int
}

// TransportBreakdown aggregates a voucher's spend for one transport type.
type TransportBreakdown struct {
	TransportType domain.TransportType
	ExpenseCount  int
	Amount        decimal.Decimal
}

// VoucherReport is the reporting read-model: the composed view plus
// per-transport-type totals.
type VoucherReport struct {
	VoucherView
	Breakdown []TransportBreakdown
}

// ComposeVoucherView builds the read-model. Expenses are ordered
// most-recent datetime first; a voucher with no expenses yields an empty
// list and count 0.
func ComposeVoucherView(voucher domain.Voucher, expenses []domain.Expense) VoucherView {
	ordered := make([]domain.Expense, len(expenses))
	copy(ordered, expenses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.After(ordered[j].OccurredAt)
	})

	return VoucherView{
		Voucher:      voucher,
		Expenses:     ordered,
		ExpenseCount: len(ordered),
	}
}

// ComposeVoucherReport extends the view with per-transport totals, ordered
// by descending amount.
func ComposeVoucherReport(voucher domain.Voucher, expenses []domain.Expense) VoucherReport {
	view := ComposeVoucherView(voucher, expenses)

	byType := make(map[domain.TransportType]*TransportBreakdown)
	for _, expense := range view.Expenses {
		entry, ok := byType[expense.TransportType]
		if !ok {
			entry = &TransportBreakdown{TransportType: expense.TransportType, Amount: decimal.Zero}
			byType[expense.TransportType] = entry
		}
		entry.ExpenseCount++
		entry.Amount = entry.Amount.Add(expense.Amount)
	}

	breakdown := make([]TransportBreakdown, 0, len(byType))
	for _, entry := range byType {
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].Amount.Equal(breakdown[j].Amount) {
			return breakdown[i].Amount.GreaterThan(breakdown[j].Amount)
		}
		return breakdown[i].TransportType < breakdown[j].TransportType
	})

	return VoucherReport{VoucherView: view, Breakdown: breakdown}
}
