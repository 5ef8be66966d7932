package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/pkg/errorutil"
)

// signatureHeader carries the gateway's notification signature.
const signatureHeader = "X-Gateway-Signature"

// PaymentsHandler manages payment orders and the gateway webhook.
type PaymentsHandler struct {
	service *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{service: paymentService}
}

// CreateOrder POST /tickets/:id/payments.
func (h *PaymentsHandler) CreateOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	payment, paymentURL, err := h.service.CreateOrder(c.UserContext(), principal.Actor(), c.Params("id"), req.Amount, req.Currency)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewPaymentResponse(payment, paymentURL)})
}

// ListPayments GET /tickets/:id/payments.
func (h *PaymentsHandler) ListPayments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	payments, err := h.service.ListByTicket(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, dto.NewPaymentResponse(&payments[i], ""))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Webhook POST /payments/webhook. Unauthenticated; trust comes from the
// payload signature, not a bearer token.
func (h *PaymentsHandler) Webhook(c *fiber.Ctx) error {
	result, err := h.service.HandleWebhook(c.UserContext(), c.Body(), c.Get(signatureHeader))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WebhookResponse{
		OrderID:       result.OrderID,
		PaymentStatus: string(result.PaymentStatus),
		Applied:       result.Applied,
	}})
}
