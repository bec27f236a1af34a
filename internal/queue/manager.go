// Package queue implements the campaign job queue manager: job creation,
// the exponential-backoff retry state machine, and retry eligibility.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/repository"
)

// Manager owns all writes to campaign jobs outside the processor's claim.
type Manager struct {
	Jobs           repository.JobRepositoryInterface
	BatchSize      int
	MaxAttempts    int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	Log            zerolog.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

func NewManager(jobs repository.JobRepositoryInterface, batchSize, maxAttempts int, backoffInitial, backoffMax time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		Jobs:           jobs,
		BatchSize:      batchSize,
		MaxAttempts:    maxAttempts,
		BackoffInitial: backoffInitial,
		BackoffMax:     backoffMax,
		Log:            log.With().Str("component", "queue").Logger(),
		Now:            time.Now,
	}
}

// CreateJob persists a new pending campaign job with zeroed progress and
// initial retry state.
func (m *Manager) CreateJob(tenantID, createdBy string, jobType model.JobType, channelData model.ChannelData, recipients []model.Recipient) (*model.CampaignJob, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("campaign job needs at least one recipient")
	}

	totalBatches := (len(recipients) + m.BatchSize - 1) / m.BatchSize
	now := m.Now()

	job := &model.CampaignJob{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		CreatedBy:   createdBy,
		JobType:     jobType,
		ChannelData: channelData,
		Recipients:  recipients,
		Status:      model.StatusPending,
		Progress: model.Progress{
			Total:        len(recipients),
			TotalBatches: totalBatches,
		},
		Retry: model.RetryState{
			MaxAttempts: m.MaxAttempts,
			BackoffMs:   m.BackoffInitial.Milliseconds(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.Jobs.Create(job); err != nil {
		return nil, err
	}
	m.Log.Info().Str("job_id", job.ID).Str("tenant_id", tenantID).
		Str("job_type", string(jobType)).Int("recipients", len(recipients)).
		Int("total_batches", totalBatches).Msg("campaign job created")
	return job, nil
}

// CreateEmailCampaignJob is a thin wrapper fixing the email channel.
func (m *Manager) CreateEmailCampaignJob(tenantID, createdBy string, data model.EmailData, recipients []model.Recipient) (*model.CampaignJob, error) {
	return m.CreateJob(tenantID, createdBy, model.JobTypeEmail, model.ChannelData{Email: &data}, recipients)
}

// CreateSMSCampaignJob is a thin wrapper fixing the SMS channel.
func (m *Manager) CreateSMSCampaignJob(tenantID, createdBy string, data model.SMSData, recipients []model.Recipient) (*model.CampaignJob, error) {
	return m.CreateJob(tenantID, createdBy, model.JobTypeSMS, model.ChannelData{SMS: &data}, recipients)
}

// CreateWhatsAppCampaignJob is a thin wrapper fixing the WhatsApp channel.
func (m *Manager) CreateWhatsAppCampaignJob(tenantID, createdBy string, data model.WhatsAppData, recipients []model.Recipient) (*model.CampaignJob, error) {
	return m.CreateJob(tenantID, createdBy, model.JobTypeWhatsApp, model.ChannelData{WhatsApp: &data}, recipients)
}

func (m *Manager) GetJob(id string) (*model.CampaignJob, error) {
	return m.Jobs.GetByID(id)
}

func (m *Manager) ListPendingAndRetrying() ([]*model.CampaignJob, error) {
	return m.Jobs.ListPendingAndRetrying()
}

func (m *Manager) UpdateStatus(id string, status model.JobStatus, lastError string) error {
	return m.Jobs.UpdateStatus(id, status, lastError)
}

func (m *Manager) UpdateProgress(id string, p model.Progress) error {
	return m.Jobs.UpdateProgress(id, p)
}

// ScheduleRetry moves a job into retrying with a doubled, capped backoff.
// When attempts are exhausted it fails the job terminally and returns
// false. The increment is a single conditional write in the store, so
// concurrent schedulers (two workers sweeping the same stuck job) each
// consume exactly one attempt.
func (m *Manager) ScheduleRetry(jobID, errorMessage string) (bool, error) {
	result, err := m.Jobs.IncrementRetry(jobID, m.BackoffMax.Milliseconds(), m.Now(), errorMessage)
	if err != nil {
		return false, err
	}

	if result.Status == model.StatusFailed {
		terminal := fmt.Sprintf("job failed after %d attempts: %s", result.Attempts, errorMessage)
		if err := m.Jobs.UpdateStatus(jobID, model.StatusFailed, terminal); err != nil {
			return false, err
		}
		m.Log.Warn().Str("job_id", jobID).Int("attempts", result.Attempts).Msg("retries exhausted, job failed")
		return false, nil
	}

	m.Log.Info().Str("job_id", jobID).Int("attempt", result.Attempts).
		Int64("backoff_ms", result.BackoffMs).Str("error", errorMessage).
		Msg("retry scheduled")
	return true, nil
}

// IsReadyForRetry reports whether a retrying job's backoff has elapsed.
func (m *Manager) IsReadyForRetry(job *model.CampaignJob) bool {
	if job.Status != model.StatusRetrying {
		return false
	}
	if job.Retry.NextRetryAt == nil {
		return true
	}
	return !job.Retry.NextRetryAt.After(m.Now())
}
