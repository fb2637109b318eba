package jobs

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
)

// Job statuses.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Job kinds.
const (
	KindBuild    = "build"
	KindDeploy   = "deploy"
	KindGenerate = "generate"
)

// Job is the in-memory record of one background operation.
type Job struct {
	ID         string
	Kind       string
	SiteID     int64
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Manager runs operations in the background and tracks their outcomes. It
// keeps state in memory only; the durable state lives in the site rows.
type Manager struct {
	runner *Runner
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

// NewManager creates a manager around an existing runner.
func NewManager(r *Runner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{runner: r, logger: logger, jobs: make(map[string]*Job)}
}

// Submit queues fn as a background job and returns its ID immediately.
func (m *Manager) Submit(ctx context.Context, kind string, siteID int64, fn func(context.Context) error) string {
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		SiteID:    siteID,
		Status:    JobQueued,
		StartedAt: time.Now(),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.setStatus(job.ID, JobRunning, "")
		start := time.Now()
		err := fn(ctx)
		if err != nil {
			m.setStatus(job.ID, JobFailed, err.Error())
			m.logger.Error("job failed",
				logfields.JobID(job.ID), logfields.JobKind(kind),
				logfields.SiteID(siteID), logfields.Error(err))
			return
		}
		m.setStatus(job.ID, JobSucceeded, "")
		m.logger.Info("job finished",
			logfields.JobID(job.ID), logfields.JobKind(kind),
			logfields.SiteID(siteID),
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}()
	return job.ID
}

// SubmitBuild queues a build for the site.
func (m *Manager) SubmitBuild(ctx context.Context, siteID int64) string {
	return m.Submit(ctx, KindBuild, siteID, func(ctx context.Context) error {
		_, err := m.runner.Build(ctx, siteID)
		return err
	})
}

// SubmitDeploy queues a deploy for the site.
func (m *Manager) SubmitDeploy(ctx context.Context, siteID int64) string {
	return m.Submit(ctx, KindDeploy, siteID, func(ctx context.Context) error {
		_, err := m.runner.Deploy(ctx, siteID)
		return err
	})
}

// SubmitGenerate queues a content batch for the site.
func (m *Manager) SubmitGenerate(ctx context.Context, siteID int64, onlyNew bool) string {
	return m.Submit(ctx, KindGenerate, siteID, func(ctx context.Context) error {
		_, err := m.runner.Generate(ctx, siteID, onlyNew)
		return err
	})
}

// Get returns a snapshot of the job, or a NotFound error.
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, apperr.New(apperr.CategoryValidation, apperr.SeverityWarning, "job not found").WithContext("job_id", id)
	}
	snapshot := *job
	return &snapshot, nil
}

// List returns snapshots of all jobs, newest first.
func (m *Manager) List() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		snapshot := *job
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Wait blocks until all submitted jobs have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) setStatus(id, status, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	job.Status = status
	job.Error = errMsg
	if status == JobSucceeded || status == JobFailed {
		job.FinishedAt = time.Now()
	}
}
