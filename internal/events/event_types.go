package events

import (
	"time"

	"github.com/spec-kit/voucher-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVoucherCreated   EventType = "voucher_created"
	EventVoucherSubmitted EventType = "voucher_submitted"
	EventVoucherDeleted   EventType = "voucher_deleted"
	EventExpenseAdded     EventType = "expense_added"
	EventExpenseUpdated   EventType = "expense_updated"
	EventExpenseRemoved   EventType = "expense_removed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	VoucherID string      `json:"voucher_id"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// VoucherCreatedPayload payload.
type VoucherCreatedPayload struct {
	Reference  string            `json:"reference"`
	Name       string            `json:"name"`
	Department domain.Department `json:"department"`
}

// VoucherSubmittedPayload payload.
type VoucherSubmittedPayload struct {
	Reference    string `json:"reference"`
	TotalAmount  string `json:"total_amount"`
	ExpenseCount int    `json:"expense_count"`
}

// VoucherDeletedPayload payload.
type VoucherDeletedPayload struct {
	Reference string `json:"reference"`
}

// ExpenseChangedPayload covers expense add/update/remove events.
type ExpenseChangedPayload struct {
	ExpenseID     string               `json:"expense_id"`
	TransportType domain.TransportType `json:"transport_type"`
	Amount        string               `json:"amount"`
	NewTotal      string               `json:"new_total"`
}
