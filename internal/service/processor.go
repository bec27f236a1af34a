// Package service implements the campaign job processor: the scheduler-
// driven loop that claims jobs, dispatches channel batch handlers, and
// keeps progress and retry state durable between cycles.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/queue"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/repository"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/telemetry"
)

// BatchResult is what a channel handler reports for one processing
// cycle. Sent+Failed recipients were covered this cycle.
type BatchResult struct {
	Sent             int
	Failed           int
	FailedRecipients []model.FailedRecipient
}

func (b *BatchResult) merge(r *provider.SendResult) {
	b.Sent += r.Sent
	b.Failed += r.Failed
	for _, res := range r.Results {
		if !res.Success {
			b.FailedRecipients = append(b.FailedRecipients, model.FailedRecipient{
				Recipient: res.Recipient,
				Error:     res.Error,
			})
		}
	}
}

func batchResultFrom(r *provider.SendResult) *BatchResult {
	out := &BatchResult{}
	out.merge(r)
	return out
}

// ChannelHandler processes at most one batch of a claimed job.
type ChannelHandler interface {
	ProcessBatch(ctx context.Context, job *model.CampaignJob, tenant *model.Tenant) (*BatchResult, error)
}

// RunDetail is the per-job outcome of one processor invocation.
type RunDetail struct {
	JobID   string          `json:"job_id"`
	JobType model.JobType   `json:"job_type"`
	Status  model.JobStatus `json:"status"`
	Sent    int             `json:"sent"`
	Failed  int             `json:"failed"`
	Error   string          `json:"error,omitempty"`
}

// RunResult summarizes one processor invocation.
type RunResult struct {
	JobsProcessed int         `json:"jobs_processed"`
	JobsFailed    int         `json:"jobs_failed"`
	Details       []RunDetail `json:"details"`
}

// Processor is safe to invoke concurrently from multiple instances; the
// job store's atomic claim is the only coordination between them.
type Processor struct {
	Queue      *queue.Manager
	Tenants    repository.TenantRepositoryInterface
	Handlers   map[model.JobType]ChannelHandler
	JobTimeout time.Duration
	Log        zerolog.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

func NewProcessor(q *queue.Manager, tenants repository.TenantRepositoryInterface, handlers map[model.JobType]ChannelHandler, jobTimeout time.Duration, log zerolog.Logger) *Processor {
	return &Processor{
		Queue:      q,
		Tenants:    tenants,
		Handlers:   handlers,
		JobTimeout: jobTimeout,
		Log:        log.With().Str("component", "processor").Logger(),
		Now:        time.Now,
	}
}

// RunAllCampaignJobs is the processor entry point, invoked on a fixed
// interval by an external scheduler. It is idempotent-safe: overlapping
// invocations race only on the atomic claim.
func (p *Processor) RunAllCampaignJobs(ctx context.Context) (*RunResult, error) {
	result := &RunResult{Details: []RunDetail{}}

	p.rescheduleStuckJobs()

	jobs, err := p.Queue.ListPendingAndRetrying()
	if err != nil {
		return nil, fmt.Errorf("list candidate jobs: %w", err)
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if job.Status == model.StatusRetrying && !p.Queue.IsReadyForRetry(job) {
			continue
		}

		claimed, err := p.Queue.Jobs.Claim(job.ID)
		if err != nil {
			p.Log.Error().Str("job_id", job.ID).Err(err).Msg("claim attempt errored")
			continue
		}
		if !claimed {
			// Another worker won the race or the job turned terminal.
			// Expected outcome, not an error.
			telemetry.ClaimsLost.Inc()
			continue
		}

		detail := p.processClaimed(ctx, job)
		result.Details = append(result.Details, detail)
		result.JobsProcessed++
		if detail.Status == model.StatusFailed {
			result.JobsFailed++
		}
	}

	return result, nil
}

// rescheduleStuckJobs frees jobs whose worker died mid-batch: claimed
// longer ago than JobTimeout and still processing. They go through the
// normal retry path with a timeout error.
func (p *Processor) rescheduleStuckJobs() {
	stuck, err := p.Queue.Jobs.ListStuck(p.Now().Add(-p.JobTimeout))
	if err != nil {
		p.Log.Error().Err(err).Msg("stuck job sweep failed")
		return
	}
	for _, job := range stuck {
		telemetry.JobsTimedOut.Inc()
		p.Log.Warn().Str("job_id", job.ID).Time("started_at", *job.StartedAt).Msg("job stuck in processing, scheduling retry")
		if _, err := p.Queue.ScheduleRetry(job.ID, fmt.Sprintf("processing timed out after %s", p.JobTimeout)); err != nil {
			p.Log.Error().Str("job_id", job.ID).Err(err).Msg("could not reschedule stuck job")
		}
	}
}

// processClaimed runs one cycle for a job this worker owns. Nothing may
// escape it: any error or panic must either complete, fail, or
// reschedule the job, or the job would sit in processing forever.
func (p *Processor) processClaimed(ctx context.Context, job *model.CampaignJob) (detail RunDetail) {
	detail = RunDetail{JobID: job.ID, JobType: job.JobType}

	defer func() {
		if r := recover(); r != nil {
			p.Log.Error().Str("job_id", job.ID).Interface("panic", r).Msg("handler panicked")
			detail = p.retryJob(job, fmt.Sprintf("unexpected error: %v", r), detail)
		}
	}()

	// The candidate snapshot predates the claim. Another invocation may
	// have processed a batch and returned the job to pending in between,
	// so dispatch the row as claimed, never the listed one, or the same
	// batch window would be sent twice.
	fresh, err := p.Queue.GetJob(job.ID)
	if err != nil {
		return p.retryJob(job, fmt.Sprintf("reload after claim: %v", err), detail)
	}
	job = fresh

	tenant, err := p.Tenants.GetByID(job.TenantID)
	if err != nil {
		var notFound *appErrors.ErrTenantNotFound
		if errors.As(err, &notFound) {
			return p.failJob(job, err.Error(), detail)
		}
		return p.retryJob(job, fmt.Sprintf("tenant lookup: %v", err), detail)
	}
	if tenant.Status != model.TenantActive {
		// Configuration problems do not improve by retrying.
		return p.failJob(job, fmt.Sprintf("tenant %s is %s", tenant.ID, tenant.Status), detail)
	}

	handler, ok := p.Handlers[job.JobType]
	if !ok {
		return p.failJob(job, fmt.Sprintf("no handler for job type %q", job.JobType), detail)
	}

	batch, err := handler.ProcessBatch(ctx, job, tenant)
	if err != nil {
		if appErrors.IsConfig(err) {
			return p.failJob(job, err.Error(), detail)
		}
		return p.retryJob(job, err.Error(), detail)
	}

	return p.recordBatch(job, batch, detail)
}

// recordBatch folds a handler's batch outcome into durable progress and
// decides whether the job is complete or continues next cycle.
func (p *Processor) recordBatch(job *model.CampaignJob, batch *BatchResult, detail RunDetail) RunDetail {
	if err := p.Queue.Jobs.AppendFailedRecipients(job.ID, batch.FailedRecipients); err != nil {
		p.Log.Error().Str("job_id", job.ID).Err(err).Msg("could not record failed recipients")
	}

	progress := job.Progress
	progress.Sent += batch.Sent
	progress.Failed += batch.Failed
	progress.CurrentBatch = (progress.Done() + p.Queue.BatchSize - 1) / p.Queue.BatchSize
	if err := p.Queue.UpdateProgress(job.ID, progress); err != nil {
		p.Log.Error().Str("job_id", job.ID).Err(err).Msg("could not update progress")
		return p.retryJob(job, fmt.Sprintf("update progress: %v", err), detail)
	}

	telemetry.RecipientsSent.Add(float64(batch.Sent))
	telemetry.RecipientsFailed.Add(float64(batch.Failed))
	detail.Sent = batch.Sent
	detail.Failed = batch.Failed

	if progress.Done() >= progress.Total {
		if err := p.Queue.UpdateStatus(job.ID, model.StatusCompleted, ""); err != nil {
			p.Log.Error().Str("job_id", job.ID).Err(err).Msg("could not mark job completed")
		}
		telemetry.JobsCompleted.Inc()
		detail.Status = model.StatusCompleted
		p.Log.Info().Str("job_id", job.ID).Int("sent", progress.Sent).
			Int("failed", progress.Failed).Msg("campaign job completed")
		return detail
	}

	// More batches remain; hand the job back for the next invocation.
	if err := p.Queue.UpdateStatus(job.ID, model.StatusPending, ""); err != nil {
		p.Log.Error().Str("job_id", job.ID).Err(err).Msg("could not requeue job for next batch")
	}
	detail.Status = model.StatusPending
	return detail
}

func (p *Processor) failJob(job *model.CampaignJob, reason string, detail RunDetail) RunDetail {
	if err := p.Queue.UpdateStatus(job.ID, model.StatusFailed, reason); err != nil {
		p.Log.Error().Str("job_id", job.ID).Err(err).Msg("could not mark job failed")
	}
	telemetry.JobsFailed.Inc()
	p.Log.Warn().Str("job_id", job.ID).Str("reason", reason).Msg("campaign job failed")
	detail.Status = model.StatusFailed
	detail.Error = reason
	return detail
}

func (p *Processor) retryJob(job *model.CampaignJob, reason string, detail RunDetail) RunDetail {
	retrying, err := p.Queue.ScheduleRetry(job.ID, reason)
	if err != nil {
		p.Log.Error().Str("job_id", job.ID).Err(err).Msg("could not schedule retry")
		detail.Status = model.StatusProcessing
		detail.Error = reason
		return detail
	}
	if !retrying {
		telemetry.JobsFailed.Inc()
		detail.Status = model.StatusFailed
		detail.Error = reason
		return detail
	}
	telemetry.JobsRetried.Inc()
	detail.Status = model.StatusRetrying
	detail.Error = reason
	return detail
}
