package config

// applyDefaults fills fields the config file left unset. Rate-limit and
// cooldown windows scale with the timeframe: slower frames re-check and
// re-enter less often.
func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if len(c.Daemon.Timeframes) == 0 {
		c.Daemon.Timeframes = []string{"1h", "4h", "1d"}
	}
	if c.Daemon.CheckIntervalSeconds <= 0 {
		c.Daemon.CheckIntervalSeconds = 30
	}
	if len(c.Daemon.PositionSizes) == 0 {
		c.Daemon.PositionSizes = map[string]float64{"1h": 0.10, "4h": 0.20, "1d": 0.30}
	}
	if len(c.Daemon.MinCheckIntervals) == 0 {
		c.Daemon.MinCheckIntervals = map[string]int{"1h": 300, "4h": 1200, "1d": 3600}
	}
	if c.Daemon.MinTradeValue <= 0 {
		c.Daemon.MinTradeValue = 10
	}
	if c.Daemon.StatusReportIntervalHours <= 0 {
		c.Daemon.StatusReportIntervalHours = 6
	}

	if c.Cooldown.MinPriceGapPercent <= 0 {
		c.Cooldown.MinPriceGapPercent = 1.0
	}
	if len(c.Cooldown.CooldownPeriods) == 0 {
		c.Cooldown.CooldownPeriods = map[string]int{"1h": 3600, "4h": 14400, "1d": 86400}
	}
	if c.Cooldown.MaxDailyOrdersPerSymbol <= 0 {
		c.Cooldown.MaxDailyOrdersPerSymbol = 3
	}
	if c.Cooldown.StopLossCooldownHours <= 0 {
		c.Cooldown.StopLossCooldownHours = 24
	}

	if c.Positions.MaxConcurrentPositions <= 0 {
		c.Positions.MaxConcurrentPositions = 5
	}
	if c.Positions.MaxAssetExposure <= 0 {
		c.Positions.MaxAssetExposure = 0.25
	}
	if c.Positions.MinTradeValue <= 0 {
		c.Positions.MinTradeValue = c.Daemon.MinTradeValue
	}
	if len(c.Positions.PositionSizes) == 0 {
		c.Positions.PositionSizes = c.Daemon.PositionSizes
	}

	if c.Cash.MinCashReserve <= 0 {
		c.Cash.MinCashReserve = 0.10
	}
	if c.Cash.Progressive.Enabled && len(c.Cash.Progressive.DrawdownThresholds) == 0 {
		c.Cash.Progressive.DrawdownThresholds = []ReserveStep{
			{Drawdown: 0.10, Reserve: 0.20},
			{Drawdown: 0.15, Reserve: 0.30},
		}
	}

	if c.Market.RESTBaseURL == "" {
		c.Market.RESTBaseURL = "https://api.binance.com"
	}
	if c.Market.TimeoutSeconds <= 0 {
		c.Market.TimeoutSeconds = 10
	}
	if c.Market.QuoteCurrency == "" {
		c.Market.QuoteCurrency = "USDT"
	}

	if c.Control.HTTPAddr == "" {
		c.Control.HTTPAddr = ":9971"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/keel.db"
	}
	if c.Store.EventLogPath == "" {
		c.Store.EventLogPath = "data/events.db"
	}
	if c.Store.Account == "" {
		c.Store.Account = "default"
	}
}
