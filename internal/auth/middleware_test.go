package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/voucher-service/internal/domain"
	"github.com/spec-kit/voucher-service/internal/repository"
	"github.com/spec-kit/voucher-service/internal/service"
	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

type memoryUserRepo struct {
	users map[string]*domain.User
}

func (r *memoryUserRepo) Upsert(_ context.Context, user *domain.User) error {
	if existing, ok := r.users[user.ID]; ok {
		existing.Email = user.Email
		*user = *existing
		return nil
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) WithTx(pgx.Tx) repository.UserRepository { return r }

func newProtectedApp(t *testing.T, repo *memoryUserRepo) (*fiber.App, *TokenVerifier) {
	t.Helper()

	verifier := NewTokenVerifier("test-secret", "")
	middleware := NewAuthMiddleware(verifier, service.NewProfileService(repo))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	app.Get("/whoami", middleware.Handle, RequireUser(), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{
			"user_id":    principal.User.ID,
			"email":      principal.User.Email,
			"department": string(principal.User.Department),
		})
	})
	return app, verifier
}

func TestMiddlewareRejectsMissingOrBadToken(t *testing.T) {
	app, _ := newProtectedApp(t, &memoryUserRepo{users: map[string]*domain.User{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMiddlewareProvisionsProfileLazily(t *testing.T) {
	repo := &memoryUserRepo{users: map[string]*domain.User{}}
	app, verifier := newProtectedApp(t, repo)

	token, err := verifier.SignIdentity("emp-7", "emp7@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "emp-7")
	assert.Contains(t, string(body), string(domain.DepartmentOperations))

	// The profile row now exists without any explicit signup call.
	stored, ok := repo.users["emp-7"]
	require.True(t, ok)
	assert.Equal(t, "emp7@example.com", stored.Email)
}
