// internal/model/job.go
package model

import "time"

// JobType selects the channel a campaign job sends on.
type JobType string

const (
	JobTypeEmail    JobType = "email"
	JobTypeSMS      JobType = "sms"
	JobTypeWhatsApp JobType = "whatsapp"
)

// JobStatus is the lifecycle state of a campaign job.
// pending -> processing -> {completed | retrying | failed}, retrying -> processing.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusRetrying   JobStatus = "retrying"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status admits no further processing.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Recipient is one entry of a job's recipient list. Index order in the
// list defines batch slicing order.
type Recipient struct {
	Phone        string            `json:"phone,omitempty"`
	Email        string            `json:"email,omitempty"`
	Name         string            `json:"name,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// EmailData is the channel payload for email jobs.
type EmailData struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	FromName  string `json:"from_name"`
	FromEmail string `json:"from_email"`
	Provider  string `json:"provider,omitempty"`
}

// SMSData is the channel payload for SMS jobs. Route picks the
// provider-side compliance route (template vs free-text).
type SMSData struct {
	Message    string `json:"message"`
	Route      string `json:"route,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// WhatsAppData is the channel payload for WhatsApp jobs. Provider is the
// preferred provider; the failover order comes from the tenant config.
type WhatsAppData struct {
	TemplateName  string            `json:"template_name"`
	BroadcastName string            `json:"broadcast_name,omitempty"`
	Provider      string            `json:"provider,omitempty"`
	Parameters    map[string]string `json:"parameters,omitempty"`
}

// ChannelData is a tagged payload; exactly one member is set, matching
// the job's JobType.
type ChannelData struct {
	Email    *EmailData    `json:"email,omitempty"`
	SMS      *SMSData      `json:"sms,omitempty"`
	WhatsApp *WhatsAppData `json:"whatsapp,omitempty"`
}

// Progress tracks per-recipient completion. Sent+Failed never decreases
// and never exceeds Total.
type Progress struct {
	Total        int `json:"total"`
	Sent         int `json:"sent"`
	Failed       int `json:"failed"`
	CurrentBatch int `json:"current_batch"`
	TotalBatches int `json:"total_batches"`
}

// Done reports how many recipients have a final outcome.
func (p Progress) Done() int { return p.Sent + p.Failed }

// RetryState holds the exponential-backoff bookkeeping for a job.
type RetryState struct {
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	BackoffMs     int64      `json:"backoff_ms"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
}

// FailedRecipient records one recipient-level failure for audit.
type FailedRecipient struct {
	Recipient Recipient `json:"recipient"`
	Error     string    `json:"error"`
}

// CampaignJob is one bulk-send request. Mutated only by the queue manager
// and the processor; never deleted (audit trail).
type CampaignJob struct {
	ID               string            `json:"id"`
	TenantID         string            `json:"tenant_id"`
	CreatedBy        string            `json:"created_by"`
	JobType          JobType           `json:"job_type"`
	ChannelData      ChannelData       `json:"channel_data"`
	Recipients       []Recipient       `json:"recipients"`
	Status           JobStatus         `json:"status"`
	Progress         Progress          `json:"progress"`
	Retry            RetryState        `json:"retry"`
	FailedRecipients []FailedRecipient `json:"failed_recipients,omitempty"`
	Error            string            `json:"error,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// NextBatch returns the slice of recipients for the next processing
// cycle, bounded by batchSize. Empty when the job is done.
func (j *CampaignJob) NextBatch(batchSize int) []Recipient {
	start := j.Progress.Done()
	if start >= len(j.Recipients) {
		return nil
	}
	end := start + batchSize
	if end > len(j.Recipients) {
		end = len(j.Recipients)
	}
	return j.Recipients[start:end]
}
