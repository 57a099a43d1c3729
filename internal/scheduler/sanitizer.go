package scheduler

import (
	"time"

	"keel/internal/market"
)

const defaultKlineGrace = 10 * time.Second

// DropUnclosedKline drops the last candle if it is still in progress.
// Exchange kline endpoints return the current, not-yet-closed candle as
// the final element; strategies must only see closed bars.
//
// Candle open times are milliseconds since epoch.
func DropUnclosedKline(klines []market.Candle, interval time.Duration) []market.Candle {
	return dropUnclosedKlineAt(klines, interval, time.Now().UTC(), defaultKlineGrace)
}

func dropUnclosedKlineAt(klines []market.Candle, interval time.Duration, now time.Time, grace time.Duration) []market.Candle {
	if len(klines) == 0 || interval <= 0 {
		return klines
	}
	if grace < 0 {
		grace = 0
	}
	last := klines[len(klines)-1]
	if last.OpenTime <= 0 {
		return klines
	}
	closeTimeMs := last.OpenTime + interval.Milliseconds()
	if now.UnixMilli() < closeTimeMs+grace.Milliseconds() {
		return klines[:len(klines)-1]
	}
	return klines
}
