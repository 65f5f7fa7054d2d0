package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fuyaseru/brain/internal/brain"
	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/logger"
)

// State is the lifecycle of a screening job
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateDone      State = "done"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Finished reports whether the job will not change any more
func (s State) Finished() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// ErrNotFound is returned for an unknown or pruned job id
var ErrNotFound = errors.New("job not found")

// BundleRunner runs a batch. *brain.BundleOrchestrator satisfies it.
type BundleRunner interface {
	Run(ctx context.Context, codes []string, progress brain.ProgressFunc) (*contracts.Bundle, bool, error)
}

// Event is one progress notification pushed to subscribers
type Event struct {
	JobID  string           `json:"job_id"`
	State  State            `json:"state"`
	Done   int              `json:"done"`
	Total  int              `json:"total"`
	Code   string           `json:"code,omitempty"`
	Status contracts.Status `json:"status,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Snapshot is a read-only copy of a job
type Snapshot struct {
	ID         string            `json:"id"`
	Codes      []string          `json:"codes"`
	State      State             `json:"state"`
	Done       int               `json:"done"`
	Total      int               `json:"total"`
	ETA        time.Duration     `json:"eta"`
	FromCache  bool              `json:"from_cache"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Bundle     *contracts.Bundle `json:"-"`
}

type job struct {
	snap        Snapshot
	subscribers map[chan Event]struct{}
}

// Manager runs screening batches one at a time and tracks async jobs.
// Synchronous runs share the same lane so provider pacing holds across requests.
// ⭐ SSOT: バッチの直列実行はここだけ
type Manager struct {
	runner       BundleRunner
	etaPerTicker time.Duration
	retention    time.Duration
	logger       *logger.Logger
	now          func() time.Time

	lane chan struct{}

	mu   sync.RWMutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewManager creates a manager; finished jobs are kept for retention
func NewManager(runner BundleRunner, etaPerTicker, retention time.Duration, log *logger.Logger) *Manager {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Manager{
		runner:       runner,
		etaPerTicker: etaPerTicker,
		retention:    retention,
		logger:       log.WithField("module", "jobs"),
		now:          time.Now,
		lane:         make(chan struct{}, 1),
		jobs:         make(map[string]*job),
	}
}

// RunSync runs codes in the caller's goroutine once the lane is free
func (m *Manager) RunSync(ctx context.Context, codes []string) (*contracts.Bundle, bool, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, false, err
	}
	defer m.release()
	return m.runner.Run(ctx, codes, nil)
}

// Submit queues codes and returns immediately. The job runs under ctx, which
// should outlive the request that created it.
func (m *Manager) Submit(ctx context.Context, codes []string) Snapshot {
	m.prune()

	j := &job{
		snap: Snapshot{
			ID:        uuid.NewString(),
			Codes:     codes,
			State:     StateQueued,
			Total:     len(codes),
			ETA:       time.Duration(len(codes)) * m.etaPerTicker,
			CreatedAt: m.now(),
		},
		subscribers: make(map[chan Event]struct{}),
	}

	m.mu.Lock()
	m.jobs[j.snap.ID] = j
	snap := j.snap
	m.mu.Unlock()

	m.wg.Add(1)
	go m.execute(ctx, j)

	m.logger.WithFields(map[string]interface{}{
		"job_id": snap.ID,
		"count":  snap.Total,
	}).Info("Screening job submitted")

	return snap
}

func (m *Manager) execute(ctx context.Context, j *job) {
	defer m.wg.Done()

	if err := m.acquire(ctx); err != nil {
		m.finish(j, nil, false, err)
		return
	}
	defer m.release()

	m.update(j, func(s *Snapshot) { s.State = StateRunning }, Event{})

	bundle, fromCache, err := m.runner.Run(ctx, j.snap.Codes, func(done, total int, last contracts.TickerResult) {
		m.update(j, func(s *Snapshot) {
			s.Done = done
			s.Total = total
		}, Event{Code: last.Code, Status: last.Status})
	})
	m.finish(j, bundle, fromCache, err)
}

func (m *Manager) finish(j *job, bundle *contracts.Bundle, fromCache bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := &j.snap
	s.Bundle = bundle
	s.FromCache = fromCache
	s.FinishedAt = &now
	switch {
	case err == nil:
		s.State = StateDone
		s.Done = s.Total
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.State = StateCancelled
		s.Error = err.Error()
	default:
		s.State = StateFailed
		s.Error = err.Error()
	}

	final := m.eventLocked(j, Event{})
	for ch := range j.subscribers {
		select {
		case ch <- final:
		default:
			// buffer full: drop the oldest progress event to make room.
			// Only the manager sends, under m.mu, so the retry cannot block.
			select {
			case <-ch:
			default:
			}
			ch <- final
		}
		close(ch)
	}
	j.subscribers = nil

	m.logger.WithFields(map[string]interface{}{
		"job_id":     s.ID,
		"state":      s.State,
		"from_cache": fromCache,
	}).Info("Screening job finished")
}

func (m *Manager) update(j *job, apply func(*Snapshot), ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	apply(&j.snap)
	e := m.eventLocked(j, ev)
	for ch := range j.subscribers {
		select {
		case ch <- e:
		default:
			// slow subscriber misses this one; finish makes room for the final event
		}
	}
}

func (m *Manager) eventLocked(j *job, ev Event) Event {
	ev.JobID = j.snap.ID
	ev.State = j.snap.State
	ev.Done = j.snap.Done
	ev.Total = j.snap.Total
	ev.Error = j.snap.Error
	return ev
}

// Get returns a copy of the job
func (m *Manager) Get(id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return j.snap, nil
}

// Subscribe streams progress events until the job finishes. The channel is
// closed after the final event; cancel stops the stream early.
func (m *Manager) Subscribe(id string) (<-chan Event, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, nil, ErrNotFound
	}

	ch := make(chan Event, 64)
	ch <- m.eventLocked(j, Event{})
	if j.snap.State.Finished() {
		close(ch)
		return ch, func() {}, nil
	}

	j.subscribers[ch] = struct{}{}
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := j.subscribers[ch]; ok {
			delete(j.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Wait blocks until every submitted job has returned
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) prune() {
	cutoff := m.now().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, j := range m.jobs {
		if j.snap.FinishedAt != nil && j.snap.FinishedAt.Before(cutoff) {
			delete(m.jobs, id)
		}
	}
}

func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.lane <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.lane
}
