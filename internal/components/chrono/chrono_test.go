package chrono

import (
	"context"
	"fmt"
	"scrapesync-backend/internal/components/telemetry"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardImpl(t *testing.T) {
	clock := NewStandardImpl(nil)
	require.Equal(t, time.UTC, clock.Location())
	require.Equal(t, time.UTC, clock.Now().Location())

	fixed := FixedImpl{At: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	require.Equal(t, 2024, fixed.Now().Year())
	require.Equal(t, time.UTC, fixed.Location())
}

func TestStandardCron(t *testing.T) {
	rec := &telemetry.Recorder{}
	cronner := NewStandardCron(NewStandardImpl(time.UTC), rec)

	require.NoError(t, cronner.Cron("@every 30m", func() {}))
	require.NoError(t, cronner.Cron("0 */2 * * *", func() {}))
	require.Error(t, cronner.Cron("not a spec", func() {}))
	require.Equal(t, 2, cronner.Entries())

	cronner.Start()
	require.NoError(t, cronner.Stop(context.Background()))
}

func TestStandardCronStopWaitsForJobs(t *testing.T) {
	cronner := NewStandardCron(NewStandardImpl(time.UTC), &telemetry.Recorder{})

	started := make(chan struct{}, 1)
	var done atomic.Bool
	require.NoError(t, cronner.Cron("@every 1s", func() {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(200 * time.Millisecond)
		done.Store(true)
	}))
	cronner.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
	require.NoError(t, cronner.Stop(context.Background()))
	require.True(t, done.Load())
}

func TestStandardCronStopTimeout(t *testing.T) {
	cronner := NewStandardCron(NewStandardImpl(time.UTC), &telemetry.Recorder{})

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	require.NoError(t, cronner.Cron("@every 1s", func() {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}))
	cronner.Start()
	t.Cleanup(func() { close(release) })

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, cronner.Stop(ctx), context.DeadlineExceeded)
}

func TestCronLogger(t *testing.T) {
	rec := &telemetry.Recorder{}
	logger := cronLogger{tel: rec}

	logger.Info("schedule", "entry", 1, "next", "soon")
	logger.Error(fmt.Errorf("panic"), "job failed", "entry", 2)

	debug := rec.Reports(telemetry.REPORT_DEBUG)
	require.Len(t, debug, 1)
	require.Equal(t, "cron: schedule", debug[0].ID)
	require.Equal(t, []any{"entry: 1", "next: soon"}, debug[0].Params)

	broken := rec.Reports(telemetry.REPORT_BROKEN)
	require.Len(t, broken, 1)
	require.Equal(t, "cron", broken[0].ID)
	require.EqualError(t, broken[0].Params[0].(error), "job failed: panic")
	require.Equal(t, "entry: 2", broken[0].Params[1])
}
