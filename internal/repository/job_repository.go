package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

type JobRepositoryInterface interface {
	Create(job *model.CampaignJob) error
	GetByID(id string) (*model.CampaignJob, error)
	ListPendingAndRetrying() ([]*model.CampaignJob, error)
	ListStuck(olderThan time.Time) ([]*model.CampaignJob, error)
	Claim(id string) (bool, error)
	UpdateStatus(id string, status model.JobStatus, lastError string) error
	UpdateProgress(id string, p model.Progress) error
	IncrementRetry(id string, maxBackoffMs int64, now time.Time, lastError string) (*RetryResult, error)
	AppendFailedRecipients(id string, failed []model.FailedRecipient) error
}

// RetryResult is the state a job landed in after an atomic retry
// increment.
type RetryResult struct {
	Attempts    int
	Status      model.JobStatus
	BackoffMs   int64
	NextRetryAt *time.Time
}

type JobRepository struct {
	DB *sql.DB
}

const jobFields = `id, tenant_id, created_by, job_type, channel_data, recipients, status,
	total, sent, failed, current_batch, total_batches,
	attempts, max_attempts, backoff_ms, last_attempt_at, next_retry_at,
	failed_recipients, last_error, created_at, updated_at, started_at, completed_at`

func (r *JobRepository) Create(job *model.CampaignJob) error {
	channelData, err := json.Marshal(job.ChannelData)
	if err != nil {
		return fmt.Errorf("marshal channel data: %w", err)
	}
	recipients, err := json.Marshal(job.Recipients)
	if err != nil {
		return fmt.Errorf("marshal recipients: %w", err)
	}

	query := `
        INSERT INTO campaign_jobs
        (id, tenant_id, created_by, job_type, channel_data, recipients, status,
         total, sent, failed, current_batch, total_batches,
         attempts, max_attempts, backoff_ms, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, 0, $9, 0, $10, $11, $12, $12)
    `
	_, err = r.DB.Exec(query,
		job.ID, job.TenantID, job.CreatedBy, string(job.JobType), channelData, recipients,
		string(job.Status), job.Progress.Total, job.Progress.TotalBatches,
		job.Retry.MaxAttempts, job.Retry.BackoffMs, job.CreatedAt,
	)
	return err
}

func (r *JobRepository) GetByID(id string) (*model.CampaignJob, error) {
	query := `SELECT ` + jobFields + ` FROM campaign_jobs WHERE id=$1`
	job, err := scanJob(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewJobNotFound(id)
		}
		return nil, err
	}
	return job, nil
}

// ListPendingAndRetrying returns candidate jobs in creation order. It
// does not filter on retry readiness; the processor does that.
func (r *JobRepository) ListPendingAndRetrying() ([]*model.CampaignJob, error) {
	query := `SELECT ` + jobFields + `
        FROM campaign_jobs
        WHERE status IN ('pending', 'retrying')
        ORDER BY created_at ASC`
	return r.queryJobs(query)
}

// ListStuck returns processing jobs whose started_at is older than the
// cutoff, meaning the claiming worker likely died mid-batch.
func (r *JobRepository) ListStuck(olderThan time.Time) ([]*model.CampaignJob, error) {
	query := `SELECT ` + jobFields + `
        FROM campaign_jobs
        WHERE status = 'processing' AND started_at IS NOT NULL AND started_at < $1
        ORDER BY started_at ASC`
	return r.queryJobs(query, olderThan)
}

// Claim atomically moves a job into processing. The status predicate and
// the write happen in one statement, so two racing workers cannot both
// win; the loser sees zero rows affected.
func (r *JobRepository) Claim(id string) (bool, error) {
	query := `
        UPDATE campaign_jobs
        SET status='processing', started_at=NOW(), last_attempt_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status IN ('pending', 'retrying')
    `
	res, err := r.DB.Exec(query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *JobRepository) UpdateStatus(id string, status model.JobStatus, lastError string) error {
	query := `
        UPDATE campaign_jobs
        SET status=$2,
            last_error=CASE WHEN $3 <> '' THEN $3 ELSE last_error END,
            started_at=CASE WHEN $2 = 'processing' AND started_at IS NULL THEN NOW() ELSE started_at END,
            completed_at=CASE WHEN $2 IN ('completed', 'failed') AND completed_at IS NULL THEN NOW() ELSE completed_at END,
            updated_at=NOW()
        WHERE id=$1
    `
	_, err := r.DB.Exec(query, id, string(status), lastError)
	return err
}

func (r *JobRepository) UpdateProgress(id string, p model.Progress) error {
	query := `
        UPDATE campaign_jobs
        SET sent=$2, failed=$3, current_batch=$4, updated_at=NOW()
        WHERE id=$1
    `
	_, err := r.DB.Exec(query, id, p.Sent, p.Failed, p.CurrentBatch)
	return err
}

// IncrementRetry advances the retry state in one statement, like Claim:
// the attempt counter, the doubled-and-capped backoff, and the terminal
// transition are all computed against the stored row, so two workers
// retrying the same job cannot lose an increment. started_at is cleared
// on non-terminal retries so the next attempt gets a fresh timeout
// window.
func (r *JobRepository) IncrementRetry(id string, maxBackoffMs int64, now time.Time, lastError string) (*RetryResult, error) {
	query := `
        UPDATE campaign_jobs
        SET attempts      = attempts + 1,
            status        = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'retrying' END,
            backoff_ms    = CASE WHEN attempts + 1 >= max_attempts THEN backoff_ms ELSE LEAST(backoff_ms * 2, $2) END,
            next_retry_at = CASE WHEN attempts + 1 >= max_attempts THEN next_retry_at ELSE $3 + LEAST(backoff_ms * 2, $2) * interval '1 millisecond' END,
            last_error    = $4,
            started_at    = CASE WHEN attempts + 1 >= max_attempts THEN started_at ELSE NULL END,
            completed_at  = CASE WHEN attempts + 1 >= max_attempts AND completed_at IS NULL THEN $3 ELSE completed_at END,
            updated_at    = $3
        WHERE id=$1
        RETURNING attempts, status, backoff_ms, next_retry_at
    `
	var out RetryResult
	var status string
	err := r.DB.QueryRow(query, id, maxBackoffMs, now, lastError).
		Scan(&out.Attempts, &status, &out.BackoffMs, &out.NextRetryAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewJobNotFound(id)
		}
		return nil, err
	}
	out.Status = model.JobStatus(status)
	return &out, nil
}

func (r *JobRepository) AppendFailedRecipients(id string, failed []model.FailedRecipient) error {
	if len(failed) == 0 {
		return nil
	}
	blob, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("marshal failed recipients: %w", err)
	}
	query := `
        UPDATE campaign_jobs
        SET failed_recipients = failed_recipients || $2::jsonb, updated_at=NOW()
        WHERE id=$1
    `
	_, err = r.DB.Exec(query, id, blob)
	return err
}

func (r *JobRepository) queryJobs(query string, args ...any) ([]*model.CampaignJob, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*model.CampaignJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.CampaignJob, error) {
	var job model.CampaignJob
	var jobType, status string
	var channelData, recipients, failedRecipients []byte

	err := row.Scan(
		&job.ID, &job.TenantID, &job.CreatedBy, &jobType, &channelData, &recipients, &status,
		&job.Progress.Total, &job.Progress.Sent, &job.Progress.Failed,
		&job.Progress.CurrentBatch, &job.Progress.TotalBatches,
		&job.Retry.Attempts, &job.Retry.MaxAttempts, &job.Retry.BackoffMs,
		&job.Retry.LastAttemptAt, &job.Retry.NextRetryAt,
		&failedRecipients, &job.Error, &job.CreatedAt, &job.UpdatedAt,
		&job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	job.JobType = model.JobType(jobType)
	job.Status = model.JobStatus(status)
	if err := json.Unmarshal(channelData, &job.ChannelData); err != nil {
		return nil, fmt.Errorf("unmarshal channel data: %w", err)
	}
	if err := json.Unmarshal(recipients, &job.Recipients); err != nil {
		return nil, fmt.Errorf("unmarshal recipients: %w", err)
	}
	if err := json.Unmarshal(failedRecipients, &job.FailedRecipients); err != nil {
		return nil, fmt.Errorf("unmarshal failed recipients: %w", err)
	}
	return &job, nil
}

var _ JobRepositoryInterface = (*JobRepository)(nil)
