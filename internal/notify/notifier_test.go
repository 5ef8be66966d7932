package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

type scriptedSender struct {
	calls    int
	failures int
	messages []string
}

func (s *scriptedSender) Send(_ context.Context, message string) error {
	s.calls++
	s.messages = append(s.messages, message)
	if s.calls <= s.failures {
		return errors.New("webhook timeout")
	}
	return nil
}

func newTestDispatcher(sender Sender, maxAttempts int) (*Dispatcher, *[]time.Duration) {
	d := NewDispatcher(sender, "https://dash.example", config.NotificationConfig{
		MaxAttempts:      maxAttempts,
		BackoffBaseMilli: 100,
	}, zap.NewNop())
	var slept []time.Duration
	d.sleep = func(dur time.Duration) { slept = append(slept, dur) }
	return d, &slept
}

func sampleEvent() Event {
	return Event{
		TicketID:     "t1",
		TicketNo:     "WAC-2026-000042",
		CustomerName: "Dina",
		Category:     "ACCOUNT_HACKED",
		Summary:      "new complaint",
	}
}

func TestBuildMessageContents(t *testing.T) {
	d, _ := newTestDispatcher(&scriptedSender{}, 3)
	message := d.BuildMessage(sampleEvent())

	for _, want := range []string{
		"WAC-2026-000042",
		"Dina",
		"ACCOUNT_HACKED",
		"https://dash.example/tickets/t1",
	} {
		if !strings.Contains(message, want) {
			t.Errorf("message %q missing %q", message, want)
		}
	}
}

func TestNotifySucceedsFirstTry(t *testing.T) {
	sender := &scriptedSender{}
	d, slept := newTestDispatcher(sender, 3)

	if err := d.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if sender.calls != 1 {
		t.Errorf("calls = %d, want 1", sender.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %d times on immediate success", len(*slept))
	}
}

func TestNotifyRetriesWithDoublingBackoff(t *testing.T) {
	sender := &scriptedSender{failures: 2}
	d, slept := newTestDispatcher(sender, 3)

	if err := d.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if sender.calls != 3 {
		t.Errorf("calls = %d, want 3", sender.calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("slept = %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, (*slept)[i], want[i])
		}
	}
}

func TestNotifyExhaustsAttempts(t *testing.T) {
	sender := &scriptedSender{failures: 10}
	d, _ := newTestDispatcher(sender, 3)

	err := d.Notify(context.Background(), sampleEvent())
	if err == nil {
		t.Fatal("exhausted notify returned nil")
	}
	if sender.calls != 3 {
		t.Errorf("calls = %d, want exactly the attempt limit", sender.calls)
	}
	if !strings.Contains(err.Error(), "WAC-2026-000042") {
		t.Errorf("error %q should carry the ticket number", err)
	}
}

func TestNotifySendsIdenticalMessageEachAttempt(t *testing.T) {
	sender := &scriptedSender{failures: 1}
	d, _ := newTestDispatcher(sender, 3)

	if err := d.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.messages) != 2 || sender.messages[0] != sender.messages[1] {
		t.Errorf("retried message differs: %v", sender.messages)
	}
}
