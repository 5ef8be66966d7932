package gateway

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

// httpGateway talks to the payment gateway over its REST API.
type httpGateway struct {
	baseURL   string
	serverKey string
	client    *http.Client
	logger    *zap.Logger
}

// NewHTTPGateway builds the production gateway client.
func NewHTTPGateway(cfg config.GatewayConfig, logger *zap.Logger) PaymentGateway {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpGateway{
		baseURL:   cfg.BaseURL,
		serverKey: cfg.ServerKey,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (g *httpGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(map[string]any{
		"order_id": req.OrderID,
		"amount":   req.Amount,
		"currency": req.Currency,
		"customer": map[string]string{
			"name":    req.CustomerName,
			"contact": req.ContactInfo,
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.serverKey, "")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Warn("gateway rejected order",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload))
		return nil, fmt.Errorf("gateway create order: status %d", resp.StatusCode)
	}

	var decoded struct {
		OrderID    string `json:"order_id"`
		PaymentURL string `json:"payment_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("gateway create order: %w", err)
	}
	if decoded.OrderID == "" {
		decoded.OrderID = req.OrderID
	}
	return &Order{OrderID: decoded.OrderID, PaymentURL: decoded.PaymentURL}, nil
}

func (g *httpGateway) ParseNotification(payload []byte, signature string) (*Notification, error) {
	orderID, vendorStatus, raw, err := DecodeNotification(payload)
	if err != nil {
		return nil, err
	}
	expected := SignNotification(orderID, vendorStatus, g.serverKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, ErrBadSignature
	}
	return &Notification{
		OrderID: orderID,
		Status:  NormalizeStatus(vendorStatus),
		Raw:     raw,
	}, nil
}

// SignNotification computes the signature the gateway attaches to callbacks:
// hex(sha512(orderID + vendorStatus + serverKey)).
func SignNotification(orderID, vendorStatus, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + vendorStatus + serverKey))
	return hex.EncodeToString(sum[:])
}
