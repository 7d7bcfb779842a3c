package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-admin/internal/logging"
)

type countingRunner struct {
	calls   atomic.Int32
	skipped bool
	err     error
}

func (r *countingRunner) Run(ctx context.Context) (*Summary, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &Summary{RunID: "run", Skipped: r.skipped}, nil
}

func TestScheduler(t *testing.T) {
	tests := []struct {
		name   string
		runner *countingRunner
	}{
		{name: "should run on start and on every tick", runner: &countingRunner{}},
		{name: "should keep ticking after skipped runs", runner: &countingRunner{skipped: true}},
		{name: "should keep ticking after failed runs", runner: &countingRunner{err: errors.New("guard down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(tt.runner, 5*time.Millisecond, logging.Discard())
			s.Start(context.Background())
			s.Start(context.Background())

			require.Eventually(t, func() bool { return tt.runner.calls.Load() >= 3 }, time.Second, time.Millisecond)
			s.Stop()
			s.Stop()

			stopped := tt.runner.calls.Load()
			time.Sleep(20 * time.Millisecond)
			assert.Equal(t, stopped, tt.runner.calls.Load(), "no runs after stop")
		})
	}
}

func TestScheduler_StopsWithContext(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	s.Stop()
	assert.Equal(t, int32(1), runner.calls.Load())
}
