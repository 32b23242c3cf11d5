package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/voucher-service/internal/config"
	"github.com/spec-kit/voucher-service/internal/domain"
	"github.com/spec-kit/voucher-service/internal/events"
	"github.com/spec-kit/voucher-service/internal/repository"
	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

// VoucherService coordinates voucher lifecycle and read-model composition.
// Every operation takes the caller's user id explicitly; ownership is the
// only tenant-isolation mechanism, so all lookups go through the
// (id, user_id)-scoped repository methods.
type VoucherService struct {
	vouchers   repository.VoucherRepository
	expenses   repository.ExpenseRepository
	tx         TxRunner
	dispatcher events.Dispatcher
	policy     config.ExpenseConfig
}

// VoucherDependencies bundles collaborators for the voucher service.
type VoucherDependencies struct {
	VoucherRepo repository.VoucherRepository
	ExpenseRepo repository.ExpenseRepository
	Tx          TxRunner
	Dispatcher  events.Dispatcher
	Policy      config.ExpenseConfig
}

// NewVoucherService constructs the service.
func NewVoucherService(deps VoucherDependencies) *VoucherService {
	return &VoucherService{
		vouchers:   deps.VoucherRepo,
		expenses:   deps.ExpenseRepo,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		policy:     deps.Policy,
	}
}

// CreateVoucher opens a new draft voucher for the owner with total 0. The
// owner's department is copied onto the voucher at this point.
func (s *VoucherService) CreateVoucher(ctx context.Context, owner *domain.User, input domain.VoucherInput) (*domain.Voucher, error) {
	voucher, err := domain.NewVoucher(input, owner)
	if err != nil {
		return nil, err
	}
	voucher.Reference = generateVoucherReference()

	if err := s.vouchers.Create(ctx, voucher); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventVoucherCreated,
		VoucherID: voucher.ID,
		UserID:    owner.ID,
		Payload: events.VoucherCreatedPayload{
			Reference:  voucher.Reference,
			Name:       voucher.Name,
			Department: voucher.Department,
		},
	})
	return voucher, nil
}

// ListVouchers returns the caller's vouchers as composed views, expenses
// grouped per voucher.
func (s *VoucherService) ListVouchers(ctx context.Context, userID string) ([]VoucherView, error) {
	vouchers, err := s.vouchers.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ids := make([]string, len(vouchers))
	for i, voucher := range vouchers {
		ids[i] = voucher.ID
	}

	grouped, err := s.expenses.ListByVouchers(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	views := make([]VoucherView, len(vouchers))
	for i, voucher := range vouchers {
		views[i] = ComposeVoucherView(voucher, grouped[voucher.ID])
	}
	return views, nil
}

// GetVoucher fetches one voucher with its expenses, enforcing ownership.
func (s *VoucherService) GetVoucher(ctx context.Context, userID, voucherID string) (*VoucherView, error) {
	voucher, expenses, err := s.loadOwned(ctx, userID, voucherID)
	if err != nil {
		return nil, err
	}
	view := ComposeVoucherView(*voucher, expenses)
	return &view, nil
}

// GetVoucherReport composes the reporting read-model for one voucher.
func (s *VoucherService) GetVoucherReport(ctx context.Context, userID, voucherID string) (*VoucherReport, error) {
	voucher, expenses, err := s.loadOwned(ctx, userID, voucherID)
	if err != nil {
		return nil, err
	}
	report := ComposeVoucherReport(*voucher, expenses)
	return &report, nil
}

// Submit moves the voucher from draft to submitted. The transition is
// irreversible; submitting anything but a draft fails with
// InvalidTransition. Depending on policy, an empty voucher may not be
// submittable.
func (s *VoucherService) Submit(ctx context.Context, userID, voucherID string) (*domain.Voucher, error) {
	var voucher *domain.Voucher
	var expenseCount int

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		vouchers := s.vouchers.WithTx(tx)
		expenses := s.expenses.WithTx(tx)

		var err error
		voucher, err = vouchers.GetOwnedForUpdate(ctx, voucherID, userID)
		if err != nil {
			return mapVoucherLookup(err)
		}
		if !domain.ValidTransition(voucher.Status, domain.VoucherStatusSubmitted) {
			return apperrors.NewInvalidTransition(string(voucher.Status), string(domain.VoucherStatusSubmitted))
		}

		current, err := expenses.ListByVoucher(ctx, voucher.ID)
		if err != nil {
			return err
		}
		expenseCount = len(current)
		if s.policy.RequireExpenseOnSubmit && expenseCount == 0 {
			return apperrors.NewValidationError("voucher has no expenses", map[string]any{
				"expenses": "at least one expense is required before submission",
			})
		}

		return vouchers.SetStatus(ctx, voucher, domain.VoucherStatusSubmitted)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventVoucherSubmitted,
		VoucherID: voucher.ID,
		UserID:    userID,
		Payload: events.VoucherSubmittedPayload{
			Reference:    voucher.Reference,
			TotalAmount:  voucher.TotalAmount.StringFixed(2),
			ExpenseCount: expenseCount,
		},
	})
	return voucher, nil
}

// Delete removes the voucher and, through the store's cascade, all of its
// expenses. Only the owner can delete; anyone else sees NotFound.
func (s *VoucherService) Delete(ctx context.Context, userID, voucherID string) error {
	voucher, err := s.vouchers.GetOwned(ctx, voucherID, userID)
	if err != nil {
		return mapVoucherLookup(err)
	}

	if err := s.vouchers.Delete(ctx, voucherID, userID); err != nil {
		return mapVoucherLookup(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventVoucherDeleted,
		VoucherID: voucher.ID,
		UserID:    userID,
		Payload:   events.VoucherDeletedPayload{Reference: voucher.Reference},
	})
	return nil
}

func (s *VoucherService) loadOwned(ctx context.Context, userID, voucherID string) (*domain.Voucher, []domain.Expense, error) {
	voucher, err := s.vouchers.GetOwned(ctx, voucherID, userID)
	if err != nil {
		return nil, nil, mapVoucherLookup(err)
	}
	expenses, err := s.expenses.ListByVoucher(ctx, voucher.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return voucher, expenses, nil
}

// mapVoucherLookup collapses "does not exist" and "owned by someone else"
// into the same NotFound, so resource ids of other tenants cannot be probed.
func mapVoucherLookup(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("voucher", nil)
	}
	return err
}

func (s *VoucherService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateVoucherReference() string {
	return "VCH-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
