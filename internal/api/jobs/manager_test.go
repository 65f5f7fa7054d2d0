package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyaseru/brain/internal/brain"
	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/logger"
)

// gatedRunner reports progress per code, blocking before each until released
type gatedRunner struct {
	gate      chan struct{}
	err       error
	fromCache bool
}

func (g *gatedRunner) Run(ctx context.Context, codes []string, progress brain.ProgressFunc) (*contracts.Bundle, bool, error) {
	b := &contracts.Bundle{Codes: codes, Results: map[string]contracts.TickerResult{}}
	for i, code := range codes {
		if g.gate != nil {
			select {
			case <-g.gate:
			case <-ctx.Done():
				return b, false, ctx.Err()
			}
		}
		r := contracts.TickerResult{Code: code, Status: contracts.StatusOK}
		b.Results[code] = r
		if progress != nil {
			progress(i+1, len(codes), r)
		}
	}
	return b, g.fromCache, g.err
}

func waitFinished(t *testing.T, m *Manager, id string) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		s, err := m.Get(id)
		return err == nil && s.State.Finished()
	}, time.Second, 5*time.Millisecond)

	snap, err := m.Get(id)
	require.NoError(t, err)
	return snap
}

func TestSubmitRunsToCompletion(t *testing.T) {
	m := NewManager(&gatedRunner{}, 3*time.Second, time.Hour, logger.NewNop())

	snap := m.Submit(context.Background(), []string{"7203", "6758"})
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 6*time.Second, snap.ETA)
	assert.Equal(t, 2, snap.Total)

	done := waitFinished(t, m, snap.ID)
	assert.Equal(t, StateDone, done.State)
	assert.Equal(t, 2, done.Done)
	require.NotNil(t, done.Bundle)
	assert.Len(t, done.Bundle.Results, 2)
	assert.NotNil(t, done.FinishedAt)
}

func TestSubmitFailure(t *testing.T) {
	m := NewManager(&gatedRunner{err: errors.New("boom")}, time.Second, time.Hour, logger.NewNop())

	snap := m.Submit(context.Background(), []string{"7203"})
	done := waitFinished(t, m, snap.ID)
	assert.Equal(t, StateFailed, done.State)
	assert.Equal(t, "boom", done.Error)
}

func TestSubmitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(&gatedRunner{gate: make(chan struct{})}, time.Second, time.Hour, logger.NewNop())

	snap := m.Submit(ctx, []string{"7203"})
	cancel()

	done := waitFinished(t, m, snap.ID)
	assert.Equal(t, StateCancelled, done.State)
}

func TestSubscribeStreamsProgress(t *testing.T) {
	runner := &gatedRunner{gate: make(chan struct{})}
	m := NewManager(runner, time.Second, time.Hour, logger.NewNop())

	snap := m.Submit(context.Background(), []string{"7203", "6758"})
	events, cancel, err := m.Subscribe(snap.ID)
	require.NoError(t, err)
	defer cancel()

	first := <-events
	assert.Equal(t, snap.ID, first.JobID)

	runner.gate <- struct{}{}
	runner.gate <- struct{}{}

	var last Event
	for ev := range events {
		last = ev
	}
	assert.Equal(t, StateDone, last.State)
	assert.Equal(t, 2, last.Done)
}

func TestSubscribeFinishedJob(t *testing.T) {
	m := NewManager(&gatedRunner{}, time.Second, time.Hour, logger.NewNop())
	snap := m.Submit(context.Background(), []string{"7203"})
	waitFinished(t, m, snap.ID)

	events, cancel, err := m.Subscribe(snap.ID)
	require.NoError(t, err)
	defer cancel()

	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, StateDone, ev.State)
	_, ok = <-events
	assert.False(t, ok)
}

func TestUnknownJob(t *testing.T) {
	m := NewManager(&gatedRunner{}, time.Second, time.Hour, logger.NewNop())

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = m.Subscribe("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunSyncWaitsForLane(t *testing.T) {
	runner := &gatedRunner{gate: make(chan struct{})}
	m := NewManager(runner, time.Second, time.Hour, logger.NewNop())

	snap := m.Submit(context.Background(), []string{"7203"})
	require.Eventually(t, func() bool {
		s, _ := m.Get(snap.ID)
		return s.State == StateRunning
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := m.RunSync(ctx, []string{"6758"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(runner.gate)
	m.Wait()

	b, _, err := m.RunSync(context.Background(), []string{"6758"})
	require.NoError(t, err)
	assert.Len(t, b.Results, 1)
}

func TestPruneDropsOldJobs(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	m := NewManager(&gatedRunner{}, time.Second, time.Hour, logger.NewNop())
	m.now = func() time.Time { return now }

	old := m.Submit(context.Background(), []string{"7203"})
	m.Wait()

	now = now.Add(2 * time.Hour)
	m.Submit(context.Background(), []string{"6758"})
	m.Wait()

	_, err := m.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlowSubscriberStillGetsFinalEvent(t *testing.T) {
	gate := make(chan struct{})
	m := NewManager(&gatedRunner{gate: gate}, time.Millisecond, time.Hour, logger.NewNop())

	codes := make([]string, 100)
	for i := range codes {
		codes[i] = fmt.Sprintf("%04d", 1000+i)
	}
	snap := m.Submit(context.Background(), codes)

	events, cancel, err := m.Subscribe(snap.ID)
	require.NoError(t, err)
	defer cancel()

	// nobody reads while 100 progress events overflow the buffer
	close(gate)
	waitFinished(t, m, snap.ID)

	var last Event
	for ev := range events {
		last = ev
	}
	assert.Equal(t, StateDone, last.State)
	assert.Equal(t, 100, last.Done)
	assert.Equal(t, 100, last.Total)
}
