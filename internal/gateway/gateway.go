// Package gateway abstracts the payment gateway collaborator. Only the
// normalized order id and status ever reach the lifecycle engine; everything
// else in a notification stays opaque.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Status is the engine's normalized payment outcome vocabulary.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusExpired Status = "expired"
)

// ErrBadSignature marks a notification that failed authenticity checks. This
// is a security rejection, not a retryable failure.
var ErrBadSignature = errors.New("notification signature mismatch")

// OrderRequest describes a payment order to create.
type OrderRequest struct {
	OrderID      string
	Amount       int64
	Currency     string
	CustomerName string
	ContactInfo  string
}

// Order is the gateway's view of a created order.
type Order struct {
	OrderID    string
	PaymentURL string
}

// Notification is a verified, normalized gateway callback.
type Notification struct {
	OrderID string
	Status  Status
	// Raw is the complete payload verbatim, preserved for audit.
	Raw map[string]any
}

// PaymentGateway is the collaborator contract.
type PaymentGateway interface {
	// CreateOrder registers a payment order with the gateway.
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// ParseNotification verifies payload authenticity and normalizes it.
	// Returns ErrBadSignature when verification fails.
	ParseNotification(payload []byte, signature string) (*Notification, error)
}

// NormalizeStatus folds vendor status vocabulary into the engine's three
// outcomes. Unrecognized values are treated as failed.
func NormalizeStatus(vendor string) Status {
	switch vendor {
	case "settlement", "capture", "paid", "success":
		return StatusSuccess
	case "expire", "expired":
		return StatusExpired
	default:
		return StatusFailed
	}
}

// DecodeNotification pulls the order id and vendor status out of a raw
// payload without constraining the rest of its shape.
func DecodeNotification(payload []byte) (orderID, vendorStatus string, raw map[string]any, err error) {
	if err := json.Unmarshal(payload, &raw); err != nil {
		return "", "", nil, fmt.Errorf("decode notification: %w", err)
	}
	orderID = firstString(raw, "order_id", "orderId")
	vendorStatus = firstString(raw, "transaction_status", "status")
	if orderID == "" || vendorStatus == "" {
		return "", "", nil, errors.New("notification missing order id or status")
	}
	return orderID, vendorStatus, raw, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if val, ok := m[key].(string); ok && val != "" {
			return val
		}
	}
	return ""
}
