package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"keel/internal/admission"
	"keel/internal/config"
	"keel/internal/executor"
	"keel/internal/health"
	"keel/internal/logger"
	"keel/internal/notifier"
	"keel/internal/portfolio"
	"keel/internal/scheduler"
	"keel/internal/signal"
	"keel/internal/store/eventlog"
	"keel/internal/types"
	"keel/internal/watchlist"
)

const (
	defaultTick     = 30 * time.Second
	errorBackoff    = 60 * time.Second
	cycleTimeout    = 2 * time.Minute
	cycleInterval   = time.Hour
	defaultReportHr = 6
)

// Daemon is the control loop tying signal detection, admission control,
// execution and health supervision together. The running/paused flags are
// owned here and mutated only through the lifecycle methods; everything
// else reads them through accessors.
type Daemon struct {
	cfg        config.DaemonConfig
	processor  *signal.Processor
	gate       *admission.Gate
	exec       *executor.Executor
	portfolio  *portfolio.Service
	collector  *health.Collector
	assessor   *health.Assessor
	breakers   *health.Manager
	stats      *health.TradeStats
	dispatcher *notifier.Dispatcher
	events     *eventlog.EventLog
	wl         watchlist.Provider

	mu          sync.Mutex
	running     bool
	paused      bool
	pauseReason string
	startedAt   time.Time
	lastCycle   time.Time
	lastReport  time.Time
	cancel      context.CancelFunc

	nowFn func() time.Time
}

type Deps struct {
	Config     config.DaemonConfig
	Processor  *signal.Processor
	Gate       *admission.Gate
	Executor   *executor.Executor
	Portfolio  *portfolio.Service
	Collector  *health.Collector
	Assessor   *health.Assessor
	Breakers   *health.Manager
	TradeStats *health.TradeStats
	Dispatcher *notifier.Dispatcher
	Events     *eventlog.EventLog
	Watchlist  watchlist.Provider
}

func New(d Deps) *Daemon {
	return &Daemon{
		cfg:        d.Config,
		processor:  d.Processor,
		gate:       d.Gate,
		exec:       d.Executor,
		portfolio:  d.Portfolio,
		collector:  d.Collector,
		assessor:   d.Assessor,
		breakers:   d.Breakers,
		stats:      d.TradeStats,
		dispatcher: d.Dispatcher,
		events:     d.Events,
		wl:         d.Watchlist,
		nowFn:      time.Now,
	}
}

// Start launches the control loop in its own goroutine. It is a no-op if
// the loop is already running.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return errors.New("daemon already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	d.running = true
	d.paused = false
	d.pauseReason = ""
	d.startedAt = d.nowFn().UTC()
	d.lastCycle = time.Time{}
	d.lastReport = d.startedAt
	d.cancel = cancel
	d.mu.Unlock()

	tick := defaultTick
	if d.cfg.CheckIntervalSeconds > 0 {
		tick = time.Duration(d.cfg.CheckIntervalSeconds) * time.Second
	}

	d.logEvent(ctx, "info", "daemon", "started")
	if snap, err := d.portfolio.Snapshot(ctx); err == nil {
		d.dispatcher.NotifyDaemonStarted(d.wl.Symbols(), snap.TotalValue)
	} else {
		logger.Warnf("daemon: startup snapshot failed: %v", err)
	}

	loop := scheduler.NewTickLoop(loopCtx, "daemon", tick, errorBackoff)
	go func() {
		loop.Start(d.tick)
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()
	return nil
}

// Stop terminates the loop. Safe to call more than once.
func (d *Daemon) Stop(reason string) {
	d.mu.Lock()
	cancel := d.cancel
	wasRunning := d.running
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	if !wasRunning {
		return
	}
	logger.Infof("daemon: stopping: %s", reason)
	d.logEvent(context.Background(), "warn", "daemon", "stopped: "+reason)
	d.dispatcher.NotifyStopped(reason)
	if cancel != nil {
		cancel()
	}
}

// Pause suspends trading cycles while keeping the loop and the health
// reporting alive.
func (d *Daemon) Pause(reason string) {
	d.mu.Lock()
	already := d.paused
	d.paused = true
	d.pauseReason = reason
	d.mu.Unlock()

	if already {
		return
	}
	logger.Warnf("daemon: paused: %s", reason)
	d.logEvent(context.Background(), "warn", "daemon", "paused: "+reason)
	d.dispatcher.NotifyPaused(reason)
}

func (d *Daemon) Resume() {
	d.mu.Lock()
	wasPaused := d.paused
	d.paused = false
	d.pauseReason = ""
	d.mu.Unlock()

	if !wasPaused {
		return
	}
	logger.Infof("daemon: resumed")
	d.logEvent(context.Background(), "info", "daemon", "resumed")
	d.dispatcher.SendMessage("▶️ trading resumed")
}

func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Daemon) Paused() (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused, d.pauseReason
}

// Status is the snapshot served by the status control command.
type Status struct {
	Running       bool      `json:"running"`
	Paused        bool      `json:"paused"`
	PauseReason   string    `json:"pause_reason,omitempty"`
	PID           int       `json:"pid"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	LastCycleAt   time.Time `json:"last_cycle_at"`
	Watchlist     []string  `json:"watchlist"`
	TotalValue    float64   `json:"total_value"`
	CashBalance   float64   `json:"cash_balance"`
	Positions     int       `json:"positions"`
}

// Status reports lifecycle state plus a portfolio summary.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	info := d.Info()
	d.mu.Lock()
	st := Status{
		Running:       info.Running,
		Paused:        info.Paused,
		PauseReason:   d.pauseReason,
		PID:           info.PID,
		UptimeSeconds: info.UptimeSeconds,
		LastCycleAt:   d.lastCycle,
	}
	d.mu.Unlock()

	st.Watchlist = d.wl.Symbols()
	snap, err := d.portfolio.Snapshot(ctx)
	if err != nil {
		return st, fmt.Errorf("portfolio snapshot failed: %w", err)
	}
	st.TotalValue = snap.TotalValue
	st.CashBalance = snap.CashBalance
	st.Positions = snap.ActivePositions()
	return st, nil
}

// Info reports the liveness slice used in health reports.
func (d *Daemon) Info() health.DaemonInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	info := health.DaemonInfo{
		Running: d.running,
		Paused:  d.paused,
		PID:     os.Getpid(),
	}
	if d.running && !d.startedAt.IsZero() {
		info.UptimeSeconds = d.nowFn().UTC().Sub(d.startedAt).Seconds()
	}
	return info
}

// tick runs once per scheduler interval. Cycle and report work each run at
// their own cadence; an error from either pushes the loop into backoff.
func (d *Daemon) tick(ctx context.Context) error {
	now := d.nowFn().UTC()

	d.mu.Lock()
	paused := d.paused
	lastCycle := d.lastCycle
	lastReport := d.lastReport
	d.mu.Unlock()

	var cycleErr error
	if !paused && (lastCycle.IsZero() || scheduler.BoundaryCrossed(lastCycle, now, cycleInterval)) {
		d.mu.Lock()
		d.lastCycle = now
		d.mu.Unlock()
		cycleErr = d.runCycle(ctx)
	}

	reportEvery := time.Duration(d.cfg.StatusReportIntervalHours) * time.Hour
	if reportEvery <= 0 {
		reportEvery = defaultReportHr * time.Hour
	}
	if now.Sub(lastReport) >= reportEvery {
		d.mu.Lock()
		d.lastReport = now
		d.mu.Unlock()
		if err := d.statusReport(ctx); err != nil {
			logger.Errorf("daemon: status report failed: %v", err)
		}
	}
	return cycleErr
}

// runCycle is one full evaluation pass over the watchlist.
func (d *Daemon) runCycle(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, cycleTimeout)
	defer cancel()

	if _, err := d.portfolio.RecordValue(ctx); err != nil {
		logger.Warnf("daemon: portfolio value sample failed: %v", err)
	}

	signals := d.processor.CheckAll(ctx, d.cfg.Timeframes)
	if len(signals) == 0 {
		logger.Debugf("daemon: cycle complete, no signals")
		return nil
	}
	signals = signal.Prioritize(signals)
	logger.Infof("daemon: %d signal(s) after prioritization", len(signals))
	d.dispatcher.NotifySignalsFound(signals)

	report, err := d.healthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check before trading failed: %w", err)
	}
	if d.applyVerdict(report) {
		return nil
	}
	drawdown := report.Metrics.Drawdown

	for _, sig := range signals {
		if err := ctx.Err(); err != nil {
			return err
		}
		if signal.HasConflict(sig, signals) {
			logger.Warnf("daemon: dropping %s %s %s, conflicts with a higher-priority signal",
				sig.Action, sig.Symbol, sig.Timeframe)
			d.logEvent(ctx, "warn", "signal",
				fmt.Sprintf("conflict drop: %s %s %s", sig.Action, sig.Symbol, sig.Timeframe))
			continue
		}
		if err := d.handleSignal(ctx, sig, drawdown); err != nil {
			logger.Errorf("daemon: signal %s %s %s failed: %v", sig.Action, sig.Symbol, sig.Timeframe, err)
		}
	}
	return nil
}

// handleSignal admits and executes a single signal. Errors are isolated to
// the signal, they never abort the batch.
func (d *Daemon) handleSignal(ctx context.Context, sig types.Signal, drawdown float64) error {
	snap, err := d.portfolio.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("portfolio snapshot failed: %w", err)
	}

	var sizeUSD float64
	if sig.Action == types.ActionBuy {
		sizeUSD, err = d.portfolio.PositionSize(ctx, sig.Timeframe)
		if err != nil {
			return fmt.Errorf("position sizing failed: %w", err)
		}
		if sizeUSD < d.cfg.MinTradeValue {
			logger.Infof("daemon: skip %s %s, size %.2f below minimum %.2f",
				sig.Symbol, sig.Timeframe, sizeUSD, d.cfg.MinTradeValue)
			return nil
		}
	}

	dec, err := d.gate.Admit(ctx, sig, sizeUSD, snap, drawdown)
	if err != nil {
		return fmt.Errorf("admission check failed: %w", err)
	}
	if !dec.Allowed {
		logger.Infof("daemon: %s %s %s rejected: %s", sig.Action, sig.Symbol, sig.Timeframe, dec.Reason)
		d.logEvent(ctx, "info", "admission",
			fmt.Sprintf("rejected %s %s: %s", sig.Action, sig.Symbol, dec.Reason))
		return nil
	}

	res := d.exec.Execute(ctx, sig, dec.SizeUSD)
	if !res.Success {
		d.logEvent(ctx, "error", "executor",
			fmt.Sprintf("trade failed %s %s: %s", sig.Action, sig.Symbol, res.Error))
		return fmt.Errorf("execution failed: %s", res.Error)
	}

	switch sig.Action {
	case types.ActionBuy:
		d.stats.RecordBuy(sig.Symbol, res.ValueUSD)
	case types.ActionSell:
		pnl := d.stats.RecordSell(sig.Symbol, res.ValueUSD)
		logger.Infof("daemon: closed %s for pnl %.2f", sig.Symbol, pnl)
		if pnl < 0 {
			// A losing liquidation arms the stop-loss cooldown so the
			// symbol is not re-entered for the configured window.
			if err := d.exec.RecordStopLoss(ctx, sig.Symbol, sig.Price, res.Quantity, sig.Timeframe); err != nil {
				logger.Warnf("daemon: stop-loss record failed for %s: %v", sig.Symbol, err)
			}
		}
	}
	d.logEvent(ctx, "info", "executor",
		fmt.Sprintf("executed %s %s qty=%.8f value=%.2f order=%s",
			sig.Action, sig.Symbol, res.Quantity, res.ValueUSD, res.OrderID))
	d.dispatcher.NotifyTradeExecuted(res)
	return nil
}

// ResetBreaker clears a tripped circuit breaker by name. Operator action,
// exposed through the control surface.
func (d *Daemon) ResetBreaker(name string) error {
	if d.breakers == nil {
		return errors.New("no breaker manager configured")
	}
	if err := d.breakers.Reset(name); err != nil {
		return err
	}
	logger.Warnf("daemon: breaker %s manually reset", name)
	d.logEvent(context.Background(), "warn", "health", "breaker reset: "+name)
	return nil
}

// HealthCheck produces a health report for the control surface. It is a
// read: breaker state is reported as-is, not re-evaluated, so operators
// polling the endpoint cannot alter breaker timing.
func (d *Daemon) HealthCheck(ctx context.Context) (health.HealthReport, error) {
	metrics, err := d.collectMetrics(ctx)
	if err != nil {
		return health.HealthReport{}, err
	}
	return d.assessor.Report(metrics, d.Info()), nil
}

// healthCheck is the supervision path: it feeds the breakers and may
// trip them. Only the trading cycle and the report cadence call it.
func (d *Daemon) healthCheck(ctx context.Context) (health.HealthReport, error) {
	metrics, err := d.collectMetrics(ctx)
	if err != nil {
		return health.HealthReport{}, err
	}
	return d.assessor.Assess(metrics, d.Info()), nil
}

func (d *Daemon) collectMetrics(ctx context.Context) (health.PerformanceMetrics, error) {
	snap, err := d.portfolio.Snapshot(ctx)
	if err != nil {
		return health.PerformanceMetrics{}, fmt.Errorf("portfolio snapshot failed: %w", err)
	}
	metrics, err := d.collector.Collect(ctx, snap)
	if err != nil {
		return health.PerformanceMetrics{}, fmt.Errorf("metrics collection failed: %w", err)
	}
	return metrics, nil
}

// applyVerdict enforces the report's control actions. Returns true when
// trading must not proceed this cycle.
func (d *Daemon) applyVerdict(report health.HealthReport) bool {
	if report.Risk.ShouldStop {
		d.Stop(fmt.Sprintf("risk score %d, status %s", report.RiskScore, report.Status))
		return true
	}
	if report.Risk.ShouldPause {
		d.Pause(fmt.Sprintf("risk score %d, status %s", report.RiskScore, report.Status))
		return true
	}
	return false
}

// statusReport emits the periodic portfolio summary and health check.
func (d *Daemon) statusReport(ctx context.Context) error {
	snap, err := d.portfolio.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("portfolio snapshot failed: %w", err)
	}
	report, err := d.healthCheck(ctx)
	if err != nil {
		return err
	}
	d.applyVerdict(report)

	logger.Infof("daemon: status value=%.2f cash=%.2f positions=%d risk=%d status=%s",
		snap.TotalValue, snap.CashBalance, snap.ActivePositions(), report.RiskScore, report.Status)
	d.dispatcher.SendMessage(fmt.Sprintf(
		"📊 status report\nvalue: %.2f USD\ncash: %.2f USD\npositions: %d\nrisk score: %d (%s)",
		snap.TotalValue, snap.CashBalance, snap.ActivePositions(), report.RiskScore, report.Status))
	return nil
}

func (d *Daemon) logEvent(ctx context.Context, level, component, message string) {
	if d.events == nil {
		return
	}
	if err := d.events.Append(ctx, level, component, message); err != nil {
		logger.Warnf("daemon: event log append failed: %v", err)
	}
}
