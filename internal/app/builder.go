package app

import (
	"context"
	"fmt"
	"time"

	"keel/internal/admission"
	"keel/internal/config"
	"keel/internal/daemon"
	"keel/internal/executor"
	"keel/internal/health"
	"keel/internal/logger"
	"keel/internal/market"
	"keel/internal/notifier"
	"keel/internal/pkg/symbol"
	"keel/internal/portfolio"
	"keel/internal/signal"
	"keel/internal/store"
	"keel/internal/store/eventlog"
	"keel/internal/store/sqlite"
	"keel/internal/strategy"
	controlhttp "keel/internal/transport/http/control"
	"keel/internal/watchlist"
)

// AppBuilder assembles the dependency graph. The override hooks let tests
// swap the heavier collaborators for fakes.
type AppBuilder struct {
	cfg *config.Config

	storeFn  func(config.StoreConfig) (store.Store, error)
	marketFn func(config.MarketConfig) market.Source
	eventsFn func(config.StoreConfig) (*eventlog.EventLog, error)

	notifierOverride notifier.TextNotifier
}

type AppBuilderOption func(*AppBuilder)

func WithNotifier(n notifier.TextNotifier) AppBuilderOption {
	return func(b *AppBuilder) { b.notifierOverride = n }
}

func WithStoreFn(fn func(config.StoreConfig) (store.Store, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.storeFn = fn }
}

func WithMarketFn(fn func(config.MarketConfig) market.Source) AppBuilderOption {
	return func(b *AppBuilder) { b.marketFn = fn }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:      cfg,
		storeFn:  openStore,
		marketFn: openMarketSource,
		eventsFn: openEventLog,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	return sqlite.NewSqliteStore(cfg.Path)
}

func openEventLog(cfg config.StoreConfig) (*eventlog.EventLog, error) {
	return eventlog.New(cfg.EventLogPath)
}

func openMarketSource(cfg config.MarketConfig) market.Source {
	return market.NewBinanceSource(market.BinanceConfig{
		RESTBaseURL: cfg.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	st, err := b.storeFn(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}
	events, err := b.eventsFn(cfg.Store)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("event log init failed: %w", err)
	}

	wl, stopWatch, err := b.buildWatchlist(cfg.Watchlist)
	if err != nil {
		events.Close()
		st.Close()
		return nil, err
	}
	logger.Infof("✓ watchlist loaded: %v", wl.Symbols())

	source := b.marketFn(cfg.Market)
	strat := strategy.NewMADistance(source, wl)

	intervals := make(map[string]time.Duration, len(cfg.Daemon.MinCheckIntervals))
	for tf, secs := range cfg.Daemon.MinCheckIntervals {
		intervals[tf] = time.Duration(secs) * time.Second
	}
	processor := signal.NewProcessor(wl, strat, intervals)

	cooldown := admission.NewCooldownManager(cfg.Cooldown, st)
	positions := admission.NewPositionManager(cfg.Positions, cfg.Cash)
	gate := admission.NewGate(cooldown, positions)

	exec := executor.New(st, cfg.Store.Account, cfg.Market.QuoteCurrency, cfg.Daemon.MinTradeValue)
	pf := portfolio.NewService(st, source, cfg.Store.Account, cfg.Market.QuoteCurrency, cfg.Positions.PositionSizes)

	stats := health.NewTradeStats()
	breakers := health.NewManager()
	alerts := health.NewAlertLog(0)
	collector := health.NewCollector(st, source, stats)
	assessor := health.NewAssessor(breakers, alerts)

	dispatcher := notifier.NewDispatcher(b.buildNotifier(cfg.Notify))

	dmn := daemon.New(daemon.Deps{
		Config:     cfg.Daemon,
		Processor:  processor,
		Gate:       gate,
		Executor:   exec,
		Portfolio:  pf,
		Collector:  collector,
		Assessor:   assessor,
		Breakers:   breakers,
		TradeStats: stats,
		Dispatcher: dispatcher,
		Events:     events,
		Watchlist:  wl,
	})

	httpSrv, err := controlhttp.NewServer(controlhttp.ServerConfig{
		Addr:   cfg.Control.HTTPAddr,
		Daemon: dmn,
		Events: events,
	})
	if err != nil {
		events.Close()
		st.Close()
		return nil, fmt.Errorf("control http server init failed: %w", err)
	}

	return &App{
		cfg:       cfg,
		daemon:    dmn,
		httpSrv:   httpSrv,
		store:     st,
		events:    events,
		stopWatch: stopWatch,
	}, nil
}

func (b *AppBuilder) buildWatchlist(cfg config.WatchlistConfig) (*watchlist.Static, func(), error) {
	if cfg.Path == "" {
		if len(cfg.Symbols) == 0 {
			return nil, nil, fmt.Errorf("watchlist requires a file path or inline symbols")
		}
		for _, s := range cfg.Symbols {
			if !symbol.IsValid(s) {
				return nil, nil, fmt.Errorf("watchlist symbol %q is not a recognized pair", s)
			}
		}
		return watchlist.NewStatic(cfg.Symbols), nil, nil
	}
	wl, err := watchlist.LoadFile(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("watchlist load failed: %w", err)
	}
	if !cfg.Watch {
		return wl, nil, nil
	}
	stop, err := watchlist.Watch(cfg.Path, wl)
	if err != nil {
		return nil, nil, fmt.Errorf("watchlist watcher failed: %w", err)
	}
	return wl, stop, nil
}

func (b *AppBuilder) buildNotifier(cfg config.NotifyConfig) notifier.TextNotifier {
	if b.notifierOverride != nil {
		return b.notifierOverride
	}
	if cfg.Telegram.Enabled {
		return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	return notifier.Nop{}
}
