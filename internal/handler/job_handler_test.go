package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/handler"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/queue"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/repository"
)

func newTestRouter(t *testing.T) (*chi.Mux, *queue.Manager) {
	t.Helper()
	repo := repository.NewMemoryJobRepository()
	manager := queue.NewManager(repo, 100, 3, time.Minute, 30*time.Minute, zerolog.Nop())
	h := &handler.JobHandler{Queue: manager, Log: zerolog.Nop()}

	r := chi.NewRouter()
	r.Post("/api/jobs/email", h.CreateEmailJobHandler)
	r.Post("/api/jobs/sms", h.CreateSMSJobHandler)
	r.Post("/api/jobs/whatsapp", h.CreateWhatsAppJobHandler)
	r.Get("/api/jobs", h.ListJobsHandler)
	r.Get("/api/jobs/{id}", h.GetJobHandler)
	return r, manager
}

func recipientsJSON(n int) []map[string]string {
	out := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]string{
			"phone": fmt.Sprintf("+1555%04d", i),
			"email": fmt.Sprintf("user%d@example.com", i),
			"name":  fmt.Sprintf("User %d", i),
		})
	}
	return out
}

func postJSONRequest(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateWhatsAppJob(t *testing.T) {
	r, manager := newTestRouter(t)

	rec := postJSONRequest(t, r, "/api/jobs/whatsapp", map[string]any{
		"tenant_id":  "tenant-1",
		"created_by": "user-1",
		"recipients": recipientsJSON(250),
		"whatsapp":   map[string]any{"template_name": "welcome"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var created model.CampaignJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, model.JobTypeWhatsApp, created.JobType)
	assert.Equal(t, 250, created.Progress.Total)
	assert.Equal(t, 3, created.Progress.TotalBatches)

	stored, err := manager.GetJob(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestCreateJobValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	// missing tenant
	rec := postJSONRequest(t, r, "/api/jobs/sms", map[string]any{
		"created_by": "user-1",
		"recipients": recipientsJSON(1),
		"sms":        map[string]any{"message": "hi"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_id")

	// no recipients
	rec = postJSONRequest(t, r, "/api/jobs/sms", map[string]any{
		"tenant_id":  "tenant-1",
		"created_by": "user-1",
		"recipients": []any{},
		"sms":        map[string]any{"message": "hi"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipient")

	// wrong payload for the endpoint
	rec = postJSONRequest(t, r, "/api/jobs/email", map[string]any{
		"tenant_id":  "tenant-1",
		"created_by": "user-1",
		"recipients": recipientsJSON(1),
		"sms":        map[string]any{"message": "hi"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email payload")
}

func TestGetJobNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobs(t *testing.T) {
	r, manager := newTestRouter(t)
	_, err := manager.CreateSMSCampaignJob("tenant-1", "user-1",
		model.SMSData{Message: "hi"}, []model.Recipient{{Phone: "+1"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int                 `json:"count"`
		Data  []model.CampaignJob `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Data, 1)
	assert.Equal(t, model.JobTypeSMS, body.Data[0].JobType)
}
