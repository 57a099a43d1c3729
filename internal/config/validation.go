package config

import (
	"fmt"
	"sort"
	"strings"
)

// validate rejects configs the daemon cannot run safely on.
func validate(c *Config) error {
	if err := c.Daemon.validate(); err != nil {
		return err
	}
	if err := c.Cooldown.validate(c.Daemon.Timeframes); err != nil {
		return err
	}
	if err := c.Positions.validate(); err != nil {
		return err
	}
	if err := c.Cash.validate(); err != nil {
		return err
	}
	if c.Notify.Telegram.Enabled {
		if strings.TrimSpace(c.Notify.Telegram.BotToken) == "" || strings.TrimSpace(c.Notify.Telegram.ChatID) == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	return nil
}

func (d *DaemonConfig) validate() error {
	if len(d.Timeframes) == 0 {
		return fmt.Errorf("daemon.timeframes requires at least one timeframe")
	}
	var sum float64
	for _, tf := range d.Timeframes {
		size, ok := d.PositionSizes[tf]
		if !ok {
			return fmt.Errorf("daemon.position_sizes missing entry for timeframe %s", tf)
		}
		if size <= 0 || size > 1 {
			return fmt.Errorf("daemon.position_sizes.%s must be in (0,1], got %v", tf, size)
		}
		sum += size
	}
	if sum > 1.0 {
		return fmt.Errorf("daemon.position_sizes sum %.2f exceeds 100%% of capital", sum)
	}
	if d.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("daemon.check_interval must be > 0")
	}
	for tf, secs := range d.MinCheckIntervals {
		if secs < 0 {
			return fmt.Errorf("daemon.min_check_intervals.%s must be >= 0", tf)
		}
	}
	return nil
}

func (c *CooldownConfig) validate(timeframes []string) error {
	if !c.Enabled {
		return nil
	}
	if c.MinPriceGapPercent < 0 {
		return fmt.Errorf("order_cooldown.min_price_gap_percent must be >= 0")
	}
	for _, tf := range timeframes {
		if _, ok := c.CooldownPeriods[tf]; !ok {
			return fmt.Errorf("order_cooldown.cooldown_periods missing entry for timeframe %s", tf)
		}
	}
	return nil
}

func (p *PositionConfig) validate() error {
	if p.MaxAssetExposure <= 0 || p.MaxAssetExposure > 1 {
		return fmt.Errorf("position_management.max_asset_exposure must be in (0,1], got %v", p.MaxAssetExposure)
	}
	if p.MinTradeValue < 0 {
		return fmt.Errorf("position_management.min_trade_value must be >= 0")
	}
	for tf, size := range p.PositionSizes {
		if size <= 0 || size > 1 {
			return fmt.Errorf("position_management.position_sizes.%s must be in (0,1], got %v", tf, size)
		}
	}
	return nil
}

func (c *CashConfig) validate() error {
	if c.MinCashReserve < 0 || c.MinCashReserve >= 1 {
		return fmt.Errorf("cash_management.min_cash_reserve must be in [0,1), got %v", c.MinCashReserve)
	}
	if !c.Progressive.Enabled {
		return nil
	}
	steps := c.Progressive.DrawdownThresholds
	for _, s := range steps {
		if s.Drawdown <= 0 || s.Drawdown >= 1 {
			return fmt.Errorf("progressive_reserve drawdown threshold %v out of range", s.Drawdown)
		}
		if s.Reserve <= 0 || s.Reserve >= 1 {
			return fmt.Errorf("progressive_reserve reserve %v out of range", s.Reserve)
		}
	}
	if !sort.SliceIsSorted(steps, func(i, j int) bool { return steps[i].Drawdown < steps[j].Drawdown }) {
		return fmt.Errorf("progressive_reserve.drawdown_thresholds must be sorted by drawdown")
	}
	return nil
}
