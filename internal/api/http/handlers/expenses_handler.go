package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/voucher-service/internal/api/dto"
	"github.com/spec-kit/voucher-service/internal/auth"
	"github.com/spec-kit/voucher-service/internal/service"
	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

// ExpensesHandler exposes expense endpoints. Responses carry the parent
// voucher with its recomputed total so clients can render the new aggregate
// without a second fetch.
type ExpensesHandler struct {
	expenses *service.ExpenseService
}

// NewExpensesHandler constructs handler.
func NewExpensesHandler(expenses *service.ExpenseService) *ExpensesHandler {
	return &ExpensesHandler{expenses: expenses}
}

// Create handles POST /api/vouchers/:id/expenses.
func (h *ExpensesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	expense, voucher, err := h.expenses.AddExpense(c.UserContext(), principal.User.ID, c.Params("id"), req.ExpenseInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"expense": dto.FromExpense(*expense),
			"voucher": dto.FromVoucher(*voucher),
		},
	})
}

// Update handles PUT /api/expenses/:id.
func (h *ExpensesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	expense, voucher, err := h.expenses.UpdateExpense(c.UserContext(), principal.User.ID, c.Params("id"), req.ExpenseInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"expense": dto.FromExpense(*expense),
			"voucher": dto.FromVoucher(*voucher),
		},
	})
}

// Delete handles DELETE /api/expenses/:id.
func (h *ExpensesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	voucher, err := h.expenses.DeleteExpense(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"voucher": dto.FromVoucher(*voucher),
		},
	})
}
