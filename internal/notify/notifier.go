// Package notify sends team notifications for key ticket transitions with
// bounded retries. A notification failure is reported to the caller, never
// raised into the state change that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

// Event carries everything the team message needs.
type Event struct {
	TicketID     string
	TicketNo     string
	CustomerName string
	Category     string
	Summary      string
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// Dispatcher retries a Sender with exponential backoff.
type Dispatcher struct {
	sender       Sender
	dashboardURL string
	maxAttempts  int
	backoffBase  time.Duration
	sleep        func(time.Duration)
	logger       *zap.Logger
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(sender Sender, dashboardURL string, cfg config.NotificationConfig, logger *zap.Logger) *Dispatcher {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := time.Duration(cfg.BackoffBaseMilli) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Dispatcher{
		sender:       sender,
		dashboardURL: dashboardURL,
		maxAttempts:  maxAttempts,
		backoffBase:  backoff,
		sleep:        time.Sleep,
		logger:       logger,
	}
}

// BuildMessage renders the plain-text team message. It always contains the
// ticket number, customer name, issue category, and a link with the ticket id.
func (d *Dispatcher) BuildMessage(event Event) string {
	message := fmt.Sprintf("[%s] %s from %s (category %s)\n%s/tickets/%s",
		event.TicketNo,
		event.Summary,
		event.CustomerName,
		event.Category,
		d.dashboardURL,
		event.TicketID,
	)
	return message
}

// Notify sends the event's message, retrying up to the attempt limit with the
// backoff doubling between attempts. The error from the final attempt is
// returned for the caller to log.
func (d *Dispatcher) Notify(ctx context.Context, event Event) error {
	message := d.BuildMessage(event)

	var lastErr error
	backoff := d.backoffBase
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		lastErr = d.sender.Send(ctx, message)
		if lastErr == nil {
			return nil
		}
		d.logger.Warn("notification attempt failed",
			zap.String("ticket_no", event.TicketNo),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt < d.maxAttempts {
			d.sleep(backoff)
			backoff *= 2
		}
	}
	return fmt.Errorf("notify %s after %d attempts: %w", event.TicketNo, d.maxAttempts, lastErr)
}

// webhookSender posts the message as JSON to a team webhook.
type webhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender builds the production sender.
func NewWebhookSender(url string) Sender {
	return &webhookSender{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *webhookSender) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
