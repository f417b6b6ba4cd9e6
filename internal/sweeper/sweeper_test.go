package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaintainer struct {
	mu        sync.Mutex
	staleArgs []time.Duration
	purgeArgs []time.Duration
	expireErr error
	purgeErr  error
	sweeps    atomic.Int32
	panicOnce atomic.Bool
}

func (f *fakeMaintainer) ExpireStale(_ context.Context, olderThan time.Duration) (int, error) {
	if f.panicOnce.CompareAndSwap(true, false) {
		panic("store exploded")
	}
	f.mu.Lock()
	f.staleArgs = append(f.staleArgs, olderThan)
	f.mu.Unlock()
	f.sweeps.Add(1)
	return 2, f.expireErr
}

func (f *fakeMaintainer) PurgeFinished(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	f.purgeArgs = append(f.purgeArgs, retention)
	f.mu.Unlock()
	return 3, f.purgeErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_RejectsSubSecondInterval(t *testing.T) {
	_, err := New(&fakeMaintainer{}, Config{Interval: 100 * time.Millisecond}, discardLogger())
	assert.Error(t, err)
}

func TestSweep_PassesThresholds(t *testing.T) {
	f := &fakeMaintainer{}
	s, err := New(f, Config{Interval: time.Minute, StaleAfter: 10 * time.Minute, Retention: 24 * time.Hour}, discardLogger())
	require.NoError(t, err)

	s.Sweep(context.Background())

	assert.Equal(t, []time.Duration{10 * time.Minute}, f.staleArgs)
	assert.Equal(t, []time.Duration{24 * time.Hour}, f.purgeArgs)
}

func TestSweep_ExpireErrorStillPurges(t *testing.T) {
	f := &fakeMaintainer{expireErr: errors.New("db down")}
	s, err := New(f, Config{Interval: time.Minute, StaleAfter: time.Minute, Retention: time.Hour}, discardLogger())
	require.NoError(t, err)

	s.Sweep(context.Background())

	assert.Len(t, f.purgeArgs, 1)
}

func TestSweep_ZeroRetentionSkipsPurge(t *testing.T) {
	f := &fakeMaintainer{}
	s, err := New(f, Config{Interval: time.Minute, StaleAfter: time.Minute}, discardLogger())
	require.NoError(t, err)

	s.Sweep(context.Background())

	assert.Len(t, f.staleArgs, 1)
	assert.Empty(t, f.purgeArgs)
}

func TestSweeper_RunsOnSchedule(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping scheduled sweep test")
	}
	f := &fakeMaintainer{}
	f.panicOnce.Store(true)
	s, err := New(f, Config{Interval: time.Second, StaleAfter: time.Minute}, discardLogger())
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())

	// The first tick panics and is recovered; later ticks still run.
	require.Eventually(t, func() bool { return f.sweeps.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
}

func TestSweeper_StopHonoursContext(t *testing.T) {
	f := &fakeMaintainer{}
	s, err := New(f, Config{Interval: time.Second}, discardLogger())
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
