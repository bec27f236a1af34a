package service

import (
	"context"

	"github.com/rs/zerolog"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
)

// WhatsAppHandler sends one bounded batch per cycle through the failover
// orchestrator, since WhatsApp is the channel with multiple
// interchangeable providers per tenant.
type WhatsAppHandler struct {
	Failover  *FailoverOrchestrator
	BatchSize int
	Log       zerolog.Logger
}

func (h *WhatsAppHandler) ProcessBatch(ctx context.Context, job *model.CampaignJob, tenant *model.Tenant) (*BatchResult, error) {
	data := job.ChannelData.WhatsApp
	if data == nil {
		return nil, appErrors.NewConfigError("job %s has no whatsapp payload", job.ID)
	}

	batch := job.NextBatch(h.BatchSize)
	if len(batch) == 0 {
		return &BatchResult{}, nil
	}

	broadcast := data.BroadcastName
	if broadcast == "" {
		broadcast = data.TemplateName + "-" + job.ID
	}
	msg := provider.Message{
		TemplateName:  data.TemplateName,
		BroadcastName: broadcast,
		Parameters:    data.Parameters,
	}

	result, winner, attempts, err := h.Failover.Send(ctx, tenant, data.Provider, batch, msg)
	if err != nil {
		return nil, err
	}
	if len(attempts) > 0 {
		h.Log.Info().Str("job_id", job.ID).Str("provider", winner).
			Int("failed_providers", len(attempts)).Msg("batch delivered after failover")
	}

	out := &BatchResult{}
	out.merge(result)
	return out, nil
}
