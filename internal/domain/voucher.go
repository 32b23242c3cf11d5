package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

// VoucherStatus enumerates lifecycle states for vouchers.
type VoucherStatus string

const (
	VoucherStatusDraft     VoucherStatus = "DRAFT"
	VoucherStatusSubmitted VoucherStatus = "SUBMITTED"
)

// allowedTransitions is the whole state machine: draft moves to submitted
// exactly once and submitted is terminal.
var allowedTransitions = map[VoucherStatus][]VoucherStatus{
	VoucherStatusDraft:     {VoucherStatusSubmitted},
	VoucherStatusSubmitted: {},
}

// ValidTransition reports whether current may move to next.
func ValidTransition(current, next VoucherStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Voucher is the aggregate for one trip/claim period. TotalAmount is
// derived from the expense set and never client-supplied; Department is
// copied from the owner at creation time and not re-derived later.
type Voucher struct {
	ID          string
	Reference   string
	UserID      string
	Name        string
	Department  Department
	Description *string
	StartDate   time.Time
	EndDate     time.Time
	Status      VoucherStatus
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Editable reports whether the expense set under the voucher may change.
func (v *Voucher) Editable() bool {
	return v.Status == VoucherStatusDraft
}

// VoucherInput is the caller-supplied payload for voucher creation.
type VoucherInput struct {
	Name        string
	Description *string
	StartDate   time.Time
	EndDate     time.Time
}

const maxNameLength = 255

// NewVoucher validates input and builds a draft voucher for the owner.
// The owner's department is captured here; later profile changes do not
// touch existing vouchers.
func NewVoucher(input VoucherInput, owner *User) (*Voucher, error) {
	details := map[string]any{}

	name := strings.TrimSpace(input.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		details["name"] = "must be between 1 and 255 characters"
	}
	if input.StartDate.IsZero() {
		details["start_date"] = "is required"
	}
	if input.EndDate.IsZero() {
		details["end_date"] = "is required"
	}
	// Single-day trips (start == end) are valid.
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		details["end_date"] = "must not be before start_date"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid voucher", details)
	}

	return &Voucher{
		UserID:      owner.ID,
		Name:        name,
		Department:  owner.Department,
		Description: normalizeOptional(input.Description),
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      VoucherStatusDraft,
		TotalAmount: decimal.Zero,
	}, nil
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
