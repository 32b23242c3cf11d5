package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/voucher-service/internal/api/dto"
	"github.com/spec-kit/voucher-service/internal/auth"
	"github.com/spec-kit/voucher-service/internal/service"
	apperrors "github.com/spec-kit/voucher-service/pkg/util/errorutil"
)

// VouchersHandler exposes voucher endpoints. Ownership is enforced in the
// service layer against the authenticated principal.
type VouchersHandler struct {
	vouchers *service.VoucherService
}

// NewVouchersHandler constructs handler.
func NewVouchersHandler(vouchers *service.VoucherService) *VouchersHandler {
	return &VouchersHandler{vouchers: vouchers}
}

// Create handles POST /api/vouchers.
func (h *VouchersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	voucher, err := h.vouchers.CreateVoucher(c.UserContext(), principal.User, req.VoucherInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromVoucher(*voucher)})
}

// List handles GET /api/vouchers.
func (h *VouchersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	views, err := h.vouchers.ListVouchers(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}

	payload := make([]dto.VoucherViewResponse, len(views))
	for i, view := range views {
		payload[i] = dto.FromVoucherView(view)
	}
	return c.JSON(fiber.Map{"data": payload})
}

// Get handles GET /api/vouchers/:id.
func (h *VouchersHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	view, err := h.vouchers.GetVoucher(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromVoucherView(*view)})
}

// Submit handles POST /api/vouchers/:id/submit.
func (h *VouchersHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	voucher, err := h.vouchers.Submit(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromVoucher(*voucher)})
}

// Delete handles DELETE /api/vouchers/:id.
func (h *VouchersHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.vouchers.Delete(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Report handles GET /api/vouchers/:id/report.
func (h *VouchersHandler) Report(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	report, err := h.vouchers.GetVoucherReport(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromVoucherReport(*report)})
}
