package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	webhookCount   map[string]int64
	effectFailures map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:   make(map[string]int64),
		errorCount:     make(map[string]int64),
		webhookCount:   make(map[string]int64),
		effectFailures: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordWebhook counts webhook deliveries by normalized outcome.
func (m *Metrics) RecordWebhook(outcome string, applied bool) {
	if m == nil {
		return
	}
	key := outcome + "|" + strconv.FormatBool(applied)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhookCount[key]++
}

// RecordEffectFailure counts failed post-commit side effects.
func (m *Metrics) RecordEffectFailure(effect string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.effectFailures[effect]++
}

// Snapshot copies the webhook counters, mostly for the ready endpoint and tests.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.webhookCount))
	for k, v := range m.webhookCount {
		out[k] = v
	}
	return out
}
