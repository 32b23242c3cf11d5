package dto

import (
	"time"

	"github.com/spec-kit/voucher-service/internal/domain"
	"github.com/spec-kit/voucher-service/internal/service"
)

// dateLayout is the wire format for trip dates.
const dateLayout = "2006-01-02"

// CreateVoucherRequest payload.
type CreateVoucherRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

// VoucherInput converts the wire payload to domain input. Unparseable dates
// are passed through as zero values for domain validation to reject.
func (r CreateVoucherRequest) VoucherInput() domain.VoucherInput {
	input := domain.VoucherInput{
		Name:        r.Name,
		Description: r.Description,
	}
	if t, err := time.Parse(dateLayout, r.StartDate); err == nil {
		input.StartDate = t
	}
	if t, err := time.Parse(dateLayout, r.EndDate); err == nil {
		input.EndDate = t
	}
	return input
}

// VoucherResponse is the wire shape of a voucher.
type VoucherResponse struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	Name        string    `json:"name"`
	Department  string    `json:"department"`
	Description *string   `json:"description,omitempty"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VoucherViewResponse adds the composed expense list and derived count.
type VoucherViewResponse struct {
	VoucherResponse
	Expenses     []ExpenseResponse `json:"expenses"`
	ExpenseCount int               `json:"expense_count"`
}

// TransportBreakdownResponse is one row of the report summary.
type TransportBreakdownResponse struct {
	TransportType string `json:"transport_type"`
	ExpenseCount  int    `json:"expense_count"`
	Amount        string `json:"amount"`
}

// VoucherReportResponse is the reporting read-model on the wire.
type VoucherReportResponse struct {
	VoucherViewResponse
	Breakdown []TransportBreakdownResponse `json:"breakdown"`
}

// FromVoucher maps a domain voucher to its wire shape. Amounts are rendered
// with two decimal places.
func FromVoucher(v domain.Voucher) VoucherResponse {
	return VoucherResponse{
		ID:          v.ID,
		Reference:   v.Reference,
		Name:        v.Name,
		Department:  string(v.Department),
		Description: v.Description,
		StartDate:   v.StartDate.Format(dateLayout),
		EndDate:     v.EndDate.Format(dateLayout),
		Status:      string(v.Status),
		TotalAmount: v.TotalAmount.StringFixed(2),
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// FromVoucherView maps the composed read-model.
func FromVoucherView(view service.VoucherView) VoucherViewResponse {
	expenses := make([]ExpenseResponse, len(view.Expenses))
	for i, expense := range view.Expenses {
		expenses[i] = FromExpense(expense)
	}
	return VoucherViewResponse{
		VoucherResponse: FromVoucher(view.Voucher),
		Expenses:        expenses,
		ExpenseCount:    view.ExpenseCount,
	}
}

// FromVoucherReport maps the reporting read-model.
func FromVoucherReport(report service.VoucherReport) VoucherReportResponse {
	breakdown := make([]TransportBreakdownResponse, len(report.Breakdown))
	for i, row := range report.Breakdown {
		breakdown[i] = TransportBreakdownResponse{
			TransportType: string(row.TransportType),
			ExpenseCount:  row.ExpenseCount,
			Amount:        row.Amount.StringFixed(2),
		}
	}
	return VoucherReportResponse{
		VoucherViewResponse: FromVoucherView(report.VoucherView),
		Breakdown:           breakdown,
	}
}
