package repository

import (
	"sort"
	"sync"
	"time"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

// MemoryJobRepository is an in-memory job store with the same claim
// semantics as the Postgres one. Used in tests and for single-process
// development without a database.
type MemoryJobRepository struct {
	mu   sync.Mutex
	jobs map[string]*model.CampaignJob
}

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*model.CampaignJob)}
}

func (m *MemoryJobRepository) Create(job *model.CampaignJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *job
	m.jobs[job.ID] = &stored
	return nil
}

func (m *MemoryJobRepository) GetByID(id string) (*model.CampaignJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, appErrors.NewJobNotFound(id)
	}
	out := *job
	return &out, nil
}

func (m *MemoryJobRepository) ListPendingAndRetrying() ([]*model.CampaignJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.CampaignJob{}
	for _, job := range m.jobs {
		if job.Status == model.StatusPending || job.Status == model.StatusRetrying {
			j := *job
			out = append(out, &j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryJobRepository) ListStuck(olderThan time.Time) ([]*model.CampaignJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.CampaignJob{}
	for _, job := range m.jobs {
		if job.Status == model.StatusProcessing && job.StartedAt != nil && job.StartedAt.Before(olderThan) {
			j := *job
			out = append(out, &j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(*out[j].StartedAt) })
	return out, nil
}

// Claim is the compare-and-swap the processor relies on: the status
// check and the transition happen under one lock.
func (m *MemoryJobRepository) Claim(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return false, appErrors.NewJobNotFound(id)
	}
	if job.Status != model.StatusPending && job.Status != model.StatusRetrying {
		return false, nil
	}
	now := time.Now()
	job.Status = model.StatusProcessing
	job.StartedAt = &now
	job.Retry.LastAttemptAt = &now
	job.UpdatedAt = now
	return true, nil
}

func (m *MemoryJobRepository) UpdateStatus(id string, status model.JobStatus, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return appErrors.NewJobNotFound(id)
	}
	now := time.Now()
	job.Status = status
	job.UpdatedAt = now
	if lastError != "" {
		job.Error = lastError
	}
	if status == model.StatusProcessing && job.StartedAt == nil {
		job.StartedAt = &now
	}
	if (status == model.StatusCompleted || status == model.StatusFailed) && job.CompletedAt == nil {
		job.CompletedAt = &now
	}
	return nil
}

func (m *MemoryJobRepository) UpdateProgress(id string, p model.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return appErrors.NewJobNotFound(id)
	}
	job.Progress.Sent = p.Sent
	job.Progress.Failed = p.Failed
	job.Progress.CurrentBatch = p.CurrentBatch
	job.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryJobRepository) IncrementRetry(id string, maxBackoffMs int64, now time.Time, lastError string) (*RetryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, appErrors.NewJobNotFound(id)
	}

	job.Retry.Attempts++
	job.Error = lastError
	job.UpdatedAt = now
	if job.Retry.Attempts >= job.Retry.MaxAttempts {
		job.Status = model.StatusFailed
		if job.CompletedAt == nil {
			completed := now
			job.CompletedAt = &completed
		}
	} else {
		backoffMs := job.Retry.BackoffMs * 2
		if backoffMs > maxBackoffMs {
			backoffMs = maxBackoffMs
		}
		next := now.Add(time.Duration(backoffMs) * time.Millisecond)
		job.Retry.BackoffMs = backoffMs
		job.Retry.NextRetryAt = &next
		job.Status = model.StatusRetrying
		job.StartedAt = nil
	}

	result := &RetryResult{
		Attempts:    job.Retry.Attempts,
		Status:      job.Status,
		BackoffMs:   job.Retry.BackoffMs,
		NextRetryAt: job.Retry.NextRetryAt,
	}
	return result, nil
}

func (m *MemoryJobRepository) AppendFailedRecipients(id string, failed []model.FailedRecipient) error {
	if len(failed) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return appErrors.NewJobNotFound(id)
	}
	job.FailedRecipients = append(job.FailedRecipients, failed...)
	job.UpdatedAt = time.Now()
	return nil
}

var _ JobRepositoryInterface = (*MemoryJobRepository)(nil)
