package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/voucher-service/internal/domain"
	"github.com/spec-kit/voucher-service/internal/repository"
	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Upsert(_ context.Context, user *domain.User) error {
	if existing, ok := r.users[user.ID]; ok {
		existing.Email = user.Email
		*user = *existing
		return nil
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) WithTx(pgx.Tx) repository.UserRepository { return r }

func TestEnsureProfileProvisionsDefaults(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewProfileService(repo)

	user, err := svc.EnsureProfile(context.Background(), "emp-1", "emp1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "emp-1", user.ID)
	assert.Equal(t, "emp1@example.com", user.Email)
	assert.Equal(t, domain.DepartmentOperations, user.Department)
}

func TestEnsureProfileKeepsExistingProfile(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewProfileService(repo)

	_, err := svc.EnsureProfile(context.Background(), "emp-1", "emp1@example.com")
	require.NoError(t, err)

	first := "Priya"
	_, err = svc.UpdateProfile(context.Background(), "emp-1", ProfileUpdateInput{
		FirstName:  &first,
		Department: domain.DepartmentFinance,
	})
	require.NoError(t, err)

	user, err := svc.EnsureProfile(context.Background(), "emp-1", "renamed@example.com")
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", user.Email)
	require.NotNil(t, user.FirstName)
	assert.Equal(t, "Priya", *user.FirstName)
	assert.Equal(t, domain.DepartmentFinance, user.Department)
}

func TestUpdateProfileRejectsUnknownDepartment(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewProfileService(repo)

	_, err := svc.EnsureProfile(context.Background(), "emp-1", "emp1@example.com")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(context.Background(), "emp-1", ProfileUpdateInput{
		Department: domain.Department("LEGAL"),
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestProfileNotFound(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewProfileService(repo)

	_, err := svc.GetProfile(context.Background(), "ghost")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = svc.UpdateProfile(context.Background(), "ghost", ProfileUpdateInput{
		Department: domain.DepartmentSales,
	})
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
