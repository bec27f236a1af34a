// internal/handler/job_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/events"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/queue"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/service"
)

// JobHandler holds the dependencies for campaign-job HTTP handlers
type JobHandler struct {
	Queue     *queue.Manager
	Processor *service.Processor
	Publisher *events.Publisher // optional; nil disables wake-up events
	Log       zerolog.Logger
}

type createJobRequest struct {
	TenantID   string              `json:"tenant_id"`
	CreatedBy  string              `json:"created_by"`
	Recipients []model.Recipient   `json:"recipients"`
	Email      *model.EmailData    `json:"email,omitempty"`
	SMS        *model.SMSData      `json:"sms,omitempty"`
	WhatsApp   *model.WhatsAppData `json:"whatsapp,omitempty"`
}

// CreateEmailJobHandler creates a pending email campaign job.
func (h *JobHandler) CreateEmailJobHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	if req.Email == nil {
		http.Error(w, "missing email payload", http.StatusBadRequest)
		return
	}
	job, err := h.Queue.CreateEmailCampaignJob(req.TenantID, req.CreatedBy, *req.Email, req.Recipients)
	h.respondCreated(w, job, err)
}

// CreateSMSJobHandler creates a pending SMS campaign job.
func (h *JobHandler) CreateSMSJobHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	if req.SMS == nil {
		http.Error(w, "missing sms payload", http.StatusBadRequest)
		return
	}
	job, err := h.Queue.CreateSMSCampaignJob(req.TenantID, req.CreatedBy, *req.SMS, req.Recipients)
	h.respondCreated(w, job, err)
}

// CreateWhatsAppJobHandler creates a pending WhatsApp campaign job.
func (h *JobHandler) CreateWhatsAppJobHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	if req.WhatsApp == nil {
		http.Error(w, "missing whatsapp payload", http.StatusBadRequest)
		return
	}
	job, err := h.Queue.CreateWhatsAppCampaignJob(req.TenantID, req.CreatedBy, *req.WhatsApp, req.Recipients)
	h.respondCreated(w, job, err)
}

// GetJobHandler returns one campaign job with progress and failed
// recipients.
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := h.Queue.GetJob(id)
	if err != nil {
		var notFound *appErrors.ErrJobNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch job: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, job)
}

// ListJobsHandler returns jobs still waiting for processing.
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Queue.ListPendingAndRetrying()
	if err != nil {
		http.Error(w, "failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"data": jobs, "count": len(jobs)})
}

// RunJobsHandler triggers one processor invocation. Safe to call while
// the cron-driven worker is running; they race only on claims.
func (h *JobHandler) RunJobsHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.Processor.RunAllCampaignJobs(r.Context())
	if err != nil {
		http.Error(w, "processor run failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *JobHandler) decodeCreate(w http.ResponseWriter, r *http.Request) (*createJobRequest, bool) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if req.TenantID == "" {
		http.Error(w, "tenant_id is required", http.StatusBadRequest)
		return nil, false
	}
	if len(req.Recipients) == 0 {
		http.Error(w, "at least one recipient is required", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (h *JobHandler) respondCreated(w http.ResponseWriter, job *model.CampaignJob, err error) {
	if err != nil {
		http.Error(w, "failed to create job: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if h.Publisher != nil {
		if err := h.Publisher.JobCreated(job.ID); err != nil {
			h.Log.Warn().Str("job_id", job.ID).Err(err).Msg("could not publish job created event")
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
