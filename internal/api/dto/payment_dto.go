package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateOrderRequest opens a payment order for a draft ticket.
type CreateOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentResponse is the API view of a payment.
type PaymentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	OrderID    string    `json:"order_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	PaymentURL string    `json:"payment_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WebhookResponse acknowledges a gateway notification.
type WebhookResponse struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	Applied       bool   `json:"applied"`
}

// NewPaymentResponse maps the domain payment.
func NewPaymentResponse(payment *domain.Payment, paymentURL string) PaymentResponse {
	return PaymentResponse{
		ID:         payment.ID,
		TicketID:   payment.TicketID,
		OrderID:    payment.OrderID,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		Status:     string(payment.Status),
		PaymentURL: paymentURL,
		CreatedAt:  payment.CreatedAt,
		UpdatedAt:  payment.UpdatedAt,
	}
}
