package scheduler

import (
	"context"
	"time"

	"keel/internal/logger"
)

// TickLoop drives a recurring task on a fixed interval. When the task
// returns an error the loop waits ErrorBackoff before the next attempt
// instead of the regular interval, so a broken upstream is not hammered.
type TickLoop struct {
	Name         string
	Interval     time.Duration
	ErrorBackoff time.Duration

	ctx   context.Context
	nowFn func() time.Time
}

func NewTickLoop(ctx context.Context, name string, interval, backoff time.Duration) *TickLoop {
	if ctx == nil {
		ctx = context.Background()
	}
	return &TickLoop{
		Name:         name,
		Interval:     interval,
		ErrorBackoff: backoff,
		ctx:          ctx,
		nowFn:        time.Now,
	}
}

// Start runs task until the context is cancelled. It blocks.
func (l *TickLoop) Start(task func(ctx context.Context) error) {
	if l == nil || task == nil {
		return
	}
	if l.Interval <= 0 {
		logger.Warnf("TickLoop[%s]: invalid interval=%s, exit", l.Name, l.Interval)
		return
	}
	if l.ErrorBackoff <= 0 {
		l.ErrorBackoff = l.Interval
	}
	if l.nowFn == nil {
		l.nowFn = time.Now
	}

	logger.Infof("TickLoop[%s]: started interval=%s error_backoff=%s",
		l.Name, l.Interval, l.ErrorBackoff)

	for {
		wait := l.Interval
		if err := task(l.ctx); err != nil {
			logger.Errorf("TickLoop[%s]: task error: %v, backing off %s", l.Name, err, l.ErrorBackoff)
			wait = l.ErrorBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-l.ctx.Done():
			timer.Stop()
			logger.Infof("TickLoop[%s]: ctx done, exit", l.Name)
			return
		case <-timer.C:
		}
	}
}
