package config

// Config is the top-level configuration for the keel daemon.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Daemon    DaemonConfig    `mapstructure:"daemon"`
	Cooldown  CooldownConfig  `mapstructure:"order_cooldown"`
	Positions PositionConfig  `mapstructure:"position_management"`
	Cash      CashConfig      `mapstructure:"cash_management"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Market    MarketConfig    `mapstructure:"market"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Control   ControlConfig   `mapstructure:"control"`
	Store     StoreConfig     `mapstructure:"store"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// DaemonConfig drives the control loop. Validated once at startup and
// immutable afterwards.
type DaemonConfig struct {
	Timeframes                []string           `mapstructure:"timeframes"`
	CheckIntervalSeconds      int                `mapstructure:"check_interval"`
	PositionSizes             map[string]float64 `mapstructure:"position_sizes"`
	MinCheckIntervals         map[string]int     `mapstructure:"min_check_intervals"`
	MinTradeValue             float64            `mapstructure:"min_trade_value"`
	StatusReportIntervalHours int                `mapstructure:"status_report_interval"`
}

// CooldownConfig holds the order-cooldown admission parameters.
type CooldownConfig struct {
	Enabled                 bool           `mapstructure:"enabled"`
	MinPriceGapPercent      float64        `mapstructure:"min_price_gap_percent"`
	CooldownPeriods         map[string]int `mapstructure:"cooldown_periods"`
	MaxDailyOrdersPerSymbol int            `mapstructure:"max_daily_orders_per_symbol"`
	StopLossCooldownHours   int            `mapstructure:"stop_loss_cooldown"`
}

// PositionConfig holds exposure-side admission parameters.
type PositionConfig struct {
	MaxConcurrentPositions int                `mapstructure:"max_concurrent_positions"`
	MaxAssetExposure       float64            `mapstructure:"max_asset_exposure"`
	MinTradeValue          float64            `mapstructure:"min_trade_value"`
	PositionSizes          map[string]float64 `mapstructure:"position_sizes"`
	DCA                    DCAConfig          `mapstructure:"dca"`
}

type DCAConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CashConfig holds the cash-reserve admission parameters.
type CashConfig struct {
	MinCashReserve float64                  `mapstructure:"min_cash_reserve"`
	Progressive    ProgressiveReserveConfig `mapstructure:"progressive_reserve"`
}

// ProgressiveReserveConfig raises the required cash reserve as drawdown grows.
type ProgressiveReserveConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	DrawdownThresholds []ReserveStep `mapstructure:"drawdown_thresholds"`
}

// ReserveStep maps a drawdown level to the reserve fraction required at or
// above it.
type ReserveStep struct {
	Drawdown float64 `mapstructure:"drawdown"`
	Reserve  float64 `mapstructure:"reserve"`
}

type WatchlistConfig struct {
	Path    string   `mapstructure:"path"`
	Symbols []string `mapstructure:"symbols"`
	Watch   bool     `mapstructure:"watch"`
}

type MarketConfig struct {
	RESTBaseURL    string `mapstructure:"rest_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	QuoteCurrency  string `mapstructure:"quote_currency"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type ControlConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type StoreConfig struct {
	Path         string `mapstructure:"path"`
	EventLogPath string `mapstructure:"event_log_path"`
	Account      string `mapstructure:"account"`
}
