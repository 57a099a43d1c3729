package health

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is one supervisory event raised by the assessor.
type Alert struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

// AlertLog is a bounded ring of alerts. When full, the oldest entry is
// evicted; the process never accumulates alerts without bound.
type AlertLog struct {
	mu    sync.Mutex
	ring  []Alert
	next  int
	count int
}

const defaultAlertCap = 256

func NewAlertLog(capacity int) *AlertLog {
	if capacity <= 0 {
		capacity = defaultAlertCap
	}
	return &AlertLog{ring: make([]Alert, capacity)}
}

func (l *AlertLog) Add(severity, title, message string, now time.Time) Alert {
	alert := Alert{
		ID:        uuid.NewString(),
		Severity:  severity,
		Title:     title,
		Message:   message,
		Timestamp: now,
	}
	l.mu.Lock()
	l.ring[l.next] = alert
	l.next = (l.next + 1) % len(l.ring)
	if l.count < len(l.ring) {
		l.count++
	}
	l.mu.Unlock()
	return alert
}

// Active returns unresolved alerts, newest first.
func (l *AlertLog) Active() []Alert {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Alert, 0, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.next - 1 - i + len(l.ring)) % len(l.ring)
		if !l.ring[idx].Resolved {
			out = append(out, l.ring[idx])
		}
	}
	return out
}

// Len returns the number of retained alerts.
func (l *AlertLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
