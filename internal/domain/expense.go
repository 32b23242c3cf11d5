package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

// TransportType enumerates expense categories.
type TransportType string

const (
	TransportBus     TransportType = "BUS"
	TransportTrain   TransportType = "TRAIN"
	TransportCab     TransportType = "CAB"
	TransportAuto    TransportType = "AUTO"
	TransportFuel    TransportType = "FUEL"
	TransportFlight  TransportType = "FLIGHT"
	TransportParking TransportType = "PARKING"
	TransportFood    TransportType = "FOOD"
	TransportOther   TransportType = "OTHER"
)

var transportTypes = map[TransportType]struct{}{
	TransportBus:     {},
	TransportTrain:   {},
	TransportCab:     {},
	TransportAuto:    {},
	TransportFuel:    {},
	TransportFlight:  {},
	TransportParking: {},
	TransportFood:    {},
	TransportOther:   {},
}

// ValidTransportType reports whether t is a known category.
func ValidTransportType(t TransportType) bool {
	_, ok := transportTypes[t]
	return ok
}

// DefaultFuelRate is the currency-per-distance-unit constant used to derive
// fuel expense amounts when a distance is supplied.
var DefaultFuelRate = decimal.RequireFromString("3.5")

// Expense is one itemized cost entry belonging to exactly one voucher.
// VoucherID is immutable after creation.
type Expense struct {
	ID            string
	VoucherID     string
	Description   string
	TransportType TransportType
	Amount        decimal.Decimal
	Distance      *int
	OccurredAt    time.Time
	Notes         *string
	CreatedAt     time.Time
}

// ExpenseInput is the caller-supplied payload for expense creation/update.
// Amount may be nil when TransportType is FUEL and Distance is supplied;
// any amount the client does send in that case is ignored.
type ExpenseInput struct {
	Description   string
	TransportType TransportType
	Amount        *decimal.Decimal
	Distance      *int
	OccurredAt    time.Time
	Notes         *string
}

// NewExpense validates and normalizes input into an expense attached to the
// voucher. The server is the source of truth for fuel derivation: with a
// distance present, amount = distance * fuelRate rounded to 2 decimals.
func NewExpense(input ExpenseInput, voucher *Voucher, fuelRate decimal.Decimal) (*Expense, error) {
	if !voucher.Editable() {
		return nil, apperrors.NewVoucherImmutable()
	}

	details := map[string]any{}

	description := strings.TrimSpace(input.Description)
	if description == "" || utf8.RuneCountInString(description) > maxNameLength {
		details["description"] = "must be between 1 and 255 characters"
	}
	if !ValidTransportType(input.TransportType) {
		details["transport_type"] = "must be one of BUS, TRAIN, CAB, AUTO, FUEL, FLIGHT, PARKING, FOOD, OTHER"
	}
	if input.OccurredAt.IsZero() {
		details["datetime"] = "is required"
	}
	if input.Distance != nil && *input.Distance <= 0 {
		details["distance"] = "must be a positive integer"
	}
	if input.Distance != nil && input.TransportType != TransportFuel {
		details["distance"] = "is only meaningful for FUEL expenses"
	}

	var amount decimal.Decimal
	switch {
	case input.TransportType == TransportFuel && input.Distance != nil && *input.Distance > 0:
		amount = decimal.NewFromInt(int64(*input.Distance)).Mul(fuelRate).Round(2)
	case input.Amount == nil:
		details["amount"] = "is required"
	case !input.Amount.IsPositive():
		details["amount"] = "must be strictly positive"
	case !input.Amount.Equal(input.Amount.Round(2)):
		details["amount"] = "must have at most 2 decimal places"
	default:
		amount = input.Amount.Round(2)
	}

	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid expense", details)
	}

	return &Expense{
		VoucherID:     voucher.ID,
		Description:   description,
		TransportType: input.TransportType,
		Amount:        amount,
		Distance:      input.Distance,
		OccurredAt:    input.OccurredAt,
		Notes:         normalizeOptional(input.Notes),
	}, nil
}

// SumAmounts totals the expense amounts in decimal arithmetic.
func SumAmounts(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}
