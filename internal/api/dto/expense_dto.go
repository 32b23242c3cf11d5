package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/voucher-service/internal/domain"
)

// ExpenseRequest payload for create and update. Amount is a string to keep
// currency out of binary floating point on the wire; it is optional for
// FUEL expenses carrying a distance.
type ExpenseRequest struct {
	Description   string  `json:"description"`
	TransportType string  `json:"transport_type"`
	Amount        *string `json:"amount,omitempty"`
	Distance      *int    `json:"distance,omitempty"`
	Datetime      string  `json:"datetime"`
	Notes         *string `json:"notes,omitempty"`
}

// ExpenseInput converts the wire payload to domain input. Amounts that do
// not parse as decimals and datetimes that do not parse as RFC3339 surface
// as zero values for domain validation to reject.
func (r ExpenseRequest) ExpenseInput() domain.ExpenseInput {
	input := domain.ExpenseInput{
		Description:   r.Description,
		TransportType: domain.TransportType(r.TransportType),
		Distance:      r.Distance,
		Notes:         r.Notes,
	}
	if r.Amount != nil {
		if amount, err := decimal.NewFromString(*r.Amount); err == nil {
			input.Amount = &amount
		}
	}
	if t, err := time.Parse(time.RFC3339, r.Datetime); err == nil {
		input.OccurredAt = t
	}
	return input
}

// ExpenseResponse is the wire shape of an expense.
type ExpenseResponse struct {
	ID            string    `json:"id"`
	VoucherID     string    `json:"voucher_id"`
	Description   string    `json:"description"`
	TransportType string    `json:"transport_type"`
	Amount        string    `json:"amount"`
	Distance      *int      `json:"distance,omitempty"`
	Datetime      time.Time `json:"datetime"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromExpense maps a domain expense to its wire shape.
func FromExpense(e domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		VoucherID:     e.VoucherID,
		Description:   e.Description,
		TransportType: string(e.TransportType),
		Amount:        e.Amount.StringFixed(2),
		Distance:      e.Distance,
		Datetime:      e.OccurredAt,
		Notes:         e.Notes,
		CreatedAt:     e.CreatedAt,
	}
}
