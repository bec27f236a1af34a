package service

import (
	"context"

	"github.com/rs/zerolog"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
)

// SMSHandler sends one bounded batch per cycle. Route selection (pre-
// approved template vs free text) is carried in the channel payload and
// interpreted by the provider client; per-recipient outcomes are
// recorded when the provider exposes them, otherwise the batch is one
// outcome.
type SMSHandler struct {
	Registry  *provider.Registry
	BatchSize int
	Log       zerolog.Logger
}

func (h *SMSHandler) ProcessBatch(ctx context.Context, job *model.CampaignJob, tenant *model.Tenant) (*BatchResult, error) {
	data := job.ChannelData.SMS
	if data == nil {
		return nil, appErrors.NewConfigError("job %s has no sms payload", job.ID)
	}

	cred, err := pickCredential(tenant, model.JobTypeSMS, data.Provider)
	if err != nil {
		return nil, err
	}
	client, ok := h.Registry.Get(cred.Provider)
	if !ok {
		return nil, appErrors.NewConfigError("unknown sms provider %q", cred.Provider)
	}

	batch := job.NextBatch(h.BatchSize)
	if len(batch) == 0 {
		return &BatchResult{}, nil
	}

	msg := provider.Message{
		Body:       data.Message,
		Route:      data.Route,
		TemplateID: data.TemplateID,
	}
	h.Log.Info().Str("job_id", job.ID).Str("provider", cred.Provider).
		Str("route", data.Route).Int("batch_size", len(batch)).Msg("sending sms batch")

	result, err := client.SendBulk(ctx, cred.Credentials, batch, msg)
	if err != nil {
		return nil, err
	}
	out := &BatchResult{}
	out.merge(result)
	return out, nil
}
