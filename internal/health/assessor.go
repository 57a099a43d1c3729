package health

import (
	"fmt"
	"time"
)

// Overall health statuses.
const (
	StatusHealthy   = "HEALTHY"
	StatusDegraded  = "DEGRADED"
	StatusUnhealthy = "UNHEALTHY"
	StatusCritical  = "CRITICAL"
)

// DaemonInfo is the liveness slice of a health report.
type DaemonInfo struct {
	Running       bool    `json:"running"`
	Paused        bool    `json:"paused"`
	PID           int     `json:"pid"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// RiskVerdict carries the composite score and the resulting control
// actions.
type RiskVerdict struct {
	Score       int  `json:"score"`
	ShouldPause bool `json:"should_pause"`
	ShouldStop  bool `json:"should_stop"`
}

// HealthReport is the immutable product of one assessment cycle. Its JSON
// shape is the stable contract of the health control surface.
type HealthReport struct {
	Status          string             `json:"status"`
	RiskScore       int                `json:"risk_score"`
	Metrics         PerformanceMetrics `json:"metrics"`
	CircuitBreakers []BreakerStatus    `json:"circuit_breakers"`
	ActiveAlerts    []Alert            `json:"active_alerts"`
	Recommendations []string           `json:"recommendations"`
	Daemon          DaemonInfo         `json:"daemon"`
	Risk            RiskVerdict        `json:"risk"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// Assessor turns metrics and breaker states into the composite risk score,
// pause/stop verdicts, recommendations and alerts.
type Assessor struct {
	breakers *Manager
	alerts   *AlertLog
	nowFn    func() time.Time
}

func NewAssessor(breakers *Manager, alerts *AlertLog) *Assessor {
	return &Assessor{breakers: breakers, alerts: alerts, nowFn: time.Now}
}

// Assess runs the breakers over a fresh metrics snapshot and builds the
// cycle's health report.
func (a *Assessor) Assess(metrics PerformanceMetrics, daemon DaemonInfo) HealthReport {
	now := a.nowFn().UTC()
	tripped := a.breakers.CheckAll(metrics)
	for _, b := range tripped {
		st := b.Status()
		a.alerts.Add(SeverityCritical,
			fmt.Sprintf("circuit breaker %s tripped", st.Name),
			fmt.Sprintf("%s: value %.4f breached threshold %.4f", st.Description, st.CurrentValue, st.Threshold),
			now)
	}
	if metrics.Drawdown > 0.15 {
		a.alerts.Add(SeverityWarning, "elevated drawdown",
			fmt.Sprintf("drawdown at %.1f%% of peak", metrics.Drawdown*100), now)
	}
	if metrics.ConsecutiveLosses >= 2 {
		a.alerts.Add(SeverityWarning, "loss streak",
			fmt.Sprintf("%d losing trades in a row", metrics.ConsecutiveLosses), now)
	}

	return a.compose(metrics, daemon, now)
}

// Report builds a health report from the breakers' current state without
// feeding them the metrics. Read paths such as the control endpoint use
// this so that polling never advances breaker failure counters or
// consumes a half-open recovery probe.
func (a *Assessor) Report(metrics PerformanceMetrics, daemon DaemonInfo) HealthReport {
	return a.compose(metrics, daemon, a.nowFn().UTC())
}

func (a *Assessor) compose(metrics PerformanceMetrics, daemon DaemonInfo, now time.Time) HealthReport {
	open := a.breakers.OpenCount()
	score := RiskScore(metrics, open)
	status := statusFor(score, open)
	verdict := RiskVerdict{
		Score:       score,
		ShouldPause: score >= 70 || open > 0,
		ShouldStop:  score >= 90 || status == StatusCritical,
	}

	return HealthReport{
		Status:          status,
		RiskScore:       score,
		Metrics:         metrics,
		CircuitBreakers: a.breakers.Statuses(),
		ActiveAlerts:    a.alerts.Active(),
		Recommendations: recommendations(metrics, open, verdict),
		Daemon:          daemon,
		Risk:            verdict,
		GeneratedAt:     now,
	}
}

// RiskScore composes the additive penalties, clamped to [0, 100]. Each
// penalty is monotonic in its input.
func RiskScore(m PerformanceMetrics, openBreakers int) int {
	score := 30 * openBreakers

	if m.Drawdown > 0.15 {
		score += 20
		if m.Drawdown > 0.20 {
			score += 30
		}
	}
	if m.ConsecutiveLosses > 2 {
		score += 10 * (m.ConsecutiveLosses - 2)
	}
	if loss := m.DailyLoss(); loss > 0.07 {
		score += 15
		if loss > 0.10 {
			score += 25
		}
	}
	if m.TotalTrades > 0 && m.WinRate < 0.40 {
		score += 10
	}
	if m.TotalTrades > 0 && m.SharpeRatio < 0.5 {
		score += 10
	}
	if m.APILatencyMs > 3000 {
		score += 15
	}
	if m.DataStalenessSec > 60 {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func statusFor(score, openBreakers int) string {
	switch {
	case score >= 90 || openBreakers >= 3:
		return StatusCritical
	case score >= 70 || openBreakers >= 2:
		return StatusUnhealthy
	case score >= 50 || openBreakers >= 1:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// recommendations emits operator guidance in priority order: stop first,
// connectivity last.
func recommendations(m PerformanceMetrics, openBreakers int, verdict RiskVerdict) []string {
	var recs []string
	if verdict.ShouldStop {
		recs = append(recs, "stop trading until risk conditions clear")
	} else if verdict.ShouldPause {
		recs = append(recs, "pause trading and wait for breakers to recover")
	}
	if m.Drawdown > 0.15 || openBreakers > 0 {
		recs = append(recs, "review open positions and exposure")
	}
	if m.TotalTrades > 0 && (m.WinRate < 0.40 || m.SharpeRatio < 0.5) {
		recs = append(recs, "review strategy parameters: returns are below expectations")
	}
	if m.APILatencyMs > 3000 || m.DataStalenessSec > 60 || m.APIFailuresHour > 0 {
		recs = append(recs, "check market data connectivity")
	}
	if len(recs) == 0 {
		recs = append(recs, "all systems healthy")
	}
	return recs
}
