package daemon

import (
	"testing"

	"keel/internal/health"
	"keel/internal/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	sent []string
}

func (r *recordingNotifier) SendText(text string) error {
	r.sent = append(r.sent, text)
	return nil
}

func newTestDaemon(n notifier.TextNotifier) *Daemon {
	return New(Deps{Dispatcher: notifier.NewDispatcher(n)})
}

func TestPauseResumeLifecycle(t *testing.T) {
	rec := &recordingNotifier{}
	d := newTestDaemon(rec)

	paused, reason := d.Paused()
	assert.False(t, paused)
	assert.Empty(t, reason)

	d.Pause("manual operator pause")
	paused, reason = d.Paused()
	assert.True(t, paused)
	assert.Equal(t, "manual operator pause", reason)
	require.Len(t, rec.sent, 1)

	// Pausing again is a no-op and must not re-notify.
	d.Pause("another reason")
	assert.Len(t, rec.sent, 1)

	d.Resume()
	paused, reason = d.Paused()
	assert.False(t, paused)
	assert.Empty(t, reason)
	require.Len(t, rec.sent, 2)

	// Resuming when not paused is silent.
	d.Resume()
	assert.Len(t, rec.sent, 2)
}

func TestStopWhenNotRunningIsSilent(t *testing.T) {
	rec := &recordingNotifier{}
	d := newTestDaemon(rec)

	d.Stop("shutdown")
	assert.False(t, d.Running())
	assert.Empty(t, rec.sent)
}

func TestApplyVerdictPausesOnShouldPause(t *testing.T) {
	rec := &recordingNotifier{}
	d := newTestDaemon(rec)

	report := health.HealthReport{
		Status:    health.StatusUnhealthy,
		RiskScore: 75,
		Risk:      health.RiskVerdict{Score: 75, ShouldPause: true},
	}
	assert.True(t, d.applyVerdict(report))

	paused, reason := d.Paused()
	assert.True(t, paused)
	assert.Contains(t, reason, "75")
}

func TestApplyVerdictNominalReportChangesNothing(t *testing.T) {
	d := newTestDaemon(notifier.Nop{})

	report := health.HealthReport{Status: health.StatusHealthy}
	assert.False(t, d.applyVerdict(report))

	paused, _ := d.Paused()
	assert.False(t, paused)
	assert.False(t, d.Running())
}

func TestInfoReportsPID(t *testing.T) {
	d := newTestDaemon(notifier.Nop{})
	info := d.Info()
	assert.NotZero(t, info.PID)
	assert.False(t, info.Running)
	assert.Zero(t, info.UptimeSeconds)
}
