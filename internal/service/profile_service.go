package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/voucher-service/internal/domain"
	"github.com/spec-kit/voucher-service/internal/repository"
	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

// defaultDepartment is assigned to lazily provisioned profiles until the
// employee picks their actual unit.
const defaultDepartment = domain.DepartmentOperations

// ProfileService manages employee profiles keyed by the identity provider's
// stable user id.
type ProfileService struct {
	users repository.UserRepository
}

// NewProfileService constructs the service.
func NewProfileService(users repository.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

// EnsureProfile lazily provisions the profile row on first authenticated
// request and returns the current profile. The identity provider's user id
// and email are trusted verbatim.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID, email string) (*domain.User, error) {
	user := &domain.User{
		ID:         userID,
		Email:      email,
		Department: defaultDepartment,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// GetProfile fetches a profile by id.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ProfileUpdateInput carries mutable profile fields.
type ProfileUpdateInput struct {
	FirstName  *string
	LastName   *string
	Department domain.Department
}

// UpdateProfile mutates name and department. Department changes do not
// re-derive the department on existing vouchers.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (*domain.User, error) {
	if !domain.ValidDepartment(input.Department) {
		return nil, apperrors.NewValidationError("invalid profile", map[string]any{
			"department": "must be one of ENGINEERING, SALES, MARKETING, FINANCE, HR, OPERATIONS",
		})
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Department = input.Department

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
