package notifier

import (
	"fmt"
	"strings"

	"keel/internal/logger"
	"keel/internal/pkg/text"
	"keel/internal/types"
)

const maxMessageLen = 3800

// Dispatcher formats daemon events and pushes them through a TextNotifier.
// Delivery failures are logged but never propagated: notifications must not
// block or fail trading.
type Dispatcher struct {
	notifier TextNotifier
}

func NewDispatcher(n TextNotifier) *Dispatcher {
	if n == nil {
		n = Nop{}
	}
	return &Dispatcher{notifier: n}
}

func (d *Dispatcher) SendMessage(msg string) {
	msg = text.Truncate(msg, maxMessageLen)
	if err := d.notifier.SendText(msg); err != nil {
		logger.Warnf("notifier: send failed: %v", err)
	}
}

func (d *Dispatcher) NotifyDaemonStarted(watchlist []string, capital float64) {
	d.SendMessage(fmt.Sprintf("🚀 trading daemon started\nwatchlist: %s\ncapital: %.2f USD",
		strings.Join(watchlist, ", "), capital))
}

func (d *Dispatcher) NotifySignalsFound(signals []types.Signal) {
	if len(signals) == 0 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📡 %d signal(s) found\n", len(signals))
	for _, s := range signals {
		fmt.Fprintf(&b, "- %s %s %s at %.2f (%s)\n", s.Action, s.Symbol, s.Timeframe, s.Price, s.Reason)
	}
	d.SendMessage(b.String())
}

func (d *Dispatcher) NotifyTradeExecuted(res types.TradeResult) {
	sig := res.Signal
	d.SendMessage(fmt.Sprintf("%s %s %s\nqty: %.8f at %.2f\nvalue: %.2f USD\ntimeframe: %s\nreason: %s",
		actionIcon(sig.Action), sig.Action, sig.Symbol,
		res.Quantity, sig.Price, res.ValueUSD, sig.Timeframe, sig.Reason))
}

func (d *Dispatcher) NotifyPaused(reason string) {
	d.SendMessage(fmt.Sprintf("⏸ trading paused: %s", reason))
}

func (d *Dispatcher) NotifyStopped(reason string) {
	d.SendMessage(fmt.Sprintf("🛑 trading stopped: %s", reason))
}

func actionIcon(a types.Action) string {
	if a == types.ActionSell {
		return "🔴"
	}
	return "🟢"
}
