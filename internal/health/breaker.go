package health

import (
	"sync"
	"time"

	"keel/internal/logger"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Breaker is a threshold-triggered state machine over one risk dimension.
// It trips after maxConsecutive consecutive breaches, stays OPEN for at
// least recoveryWindow, then allows one probing evaluation in HALF_OPEN:
// still above threshold re-opens immediately, below closes.
type Breaker struct {
	mu             sync.Mutex
	name           string
	description    string
	threshold      float64
	current        float64
	state          State
	triggeredAt    time.Time
	consecutive    int
	maxConsecutive int
	recoveryWindow time.Duration
	metric         func(PerformanceMetrics) float64
}

func NewBreaker(name, description string, threshold float64, maxConsecutive int, recovery time.Duration, metric func(PerformanceMetrics) float64) *Breaker {
	if maxConsecutive < 1 {
		maxConsecutive = 1
	}
	return &Breaker{
		name:           name,
		description:    description,
		threshold:      threshold,
		maxConsecutive: maxConsecutive,
		recoveryWindow: recovery,
		metric:         metric,
		state:          StateClosed,
	}
}

// Evaluate feeds the breaker one metrics snapshot and reports whether it
// newly tripped on this evaluation. This is the only method that mutates
// breaker state.
func (b *Breaker) Evaluate(m PerformanceMetrics, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	value := b.metric(m)
	b.current = value
	breached := value >= b.threshold

	switch b.state {
	case StateClosed:
		if !breached {
			b.consecutive = 0
			return false
		}
		b.consecutive++
		if b.consecutive >= b.maxConsecutive {
			b.trip(now)
			return true
		}
		return false

	case StateOpen:
		if now.Sub(b.triggeredAt) < b.recoveryWindow {
			return false
		}
		b.state = StateHalfOpen
		logger.Infof("breaker %s: recovery window elapsed, probing (value=%.4f threshold=%.4f)", b.name, value, b.threshold)
		fallthrough

	case StateHalfOpen:
		if breached {
			b.trip(now)
			return true
		}
		b.state = StateClosed
		b.consecutive = 0
		logger.Infof("breaker %s: recovered, closing", b.name)
		return false
	}
	return false
}

func (b *Breaker) trip(now time.Time) {
	b.state = StateOpen
	b.triggeredAt = now
	b.consecutive = 0
	logger.Warnf("breaker %s: OPEN (value=%.4f threshold=%.4f, recovery=%s)", b.name, b.current, b.threshold, b.recoveryWindow)
}

// Reset forces the breaker back to CLOSED. Operator action only.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.consecutive = 0
	b.triggeredAt = time.Time{}
	logger.Infof("breaker %s: manually reset", b.name)
}

// BreakerStatus is a read-only view for health reports.
type BreakerStatus struct {
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	State        string     `json:"state"`
	CurrentValue float64    `json:"current_value"`
	Threshold    float64    `json:"threshold"`
	TriggeredAt  *time.Time `json:"triggered_at"`
}

func (b *Breaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := BreakerStatus{
		Name:         b.name,
		Description:  b.description,
		State:        b.state.String(),
		CurrentValue: b.current,
		Threshold:    b.threshold,
	}
	if !b.triggeredAt.IsZero() {
		ts := b.triggeredAt
		st.TriggeredAt = &ts
	}
	return st
}

func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateOpen
}

func (b *Breaker) Name() string { return b.name }
