package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
)

// EmailHandler sends email campaigns. Providers with a native campaign
// concept get the entire recipient set in one pass (their bulk import
// and send APIs are built for volume, and a half-created remote campaign
// cannot be resumed for batch two). Plain relay providers get one batch
// per cycle, recipient by recipient.
type EmailHandler struct {
	Registry  *provider.Registry
	BatchSize int
	SendDelay time.Duration
	Log       zerolog.Logger
}

func (h *EmailHandler) ProcessBatch(ctx context.Context, job *model.CampaignJob, tenant *model.Tenant) (*BatchResult, error) {
	data := job.ChannelData.Email
	if data == nil {
		return nil, appErrors.NewConfigError("job %s has no email payload", job.ID)
	}

	cred, err := pickCredential(tenant, model.JobTypeEmail, data.Provider)
	if err != nil {
		return nil, err
	}
	client, ok := h.Registry.Get(cred.Provider)
	if !ok {
		return nil, appErrors.NewConfigError("unknown email provider %q", cred.Provider)
	}

	msg := provider.Message{
		Subject:   data.Subject,
		Body:      data.Body,
		FromName:  data.FromName,
		FromEmail: data.FromEmail,
	}

	if cs, ok := client.(provider.CampaignSender); ok {
		return h.sendAsCampaign(ctx, cs, cred, job, msg)
	}
	return h.sendBatch(ctx, client, cred, job, msg)
}

// sendAsCampaign covers every remaining recipient in a single provider
// campaign. Personalization happens provider-side, so local placeholders
// are mapped to the provider's contact-attribute syntax.
func (h *EmailHandler) sendAsCampaign(ctx context.Context, cs provider.CampaignSender, cred *model.ProviderCredential, job *model.CampaignJob, msg provider.Message) (*BatchResult, error) {
	remaining := job.Recipients[job.Progress.Done():]
	if len(remaining) == 0 {
		return &BatchResult{}, nil
	}

	msg.Subject = strings.ReplaceAll(msg.Subject, "{name}", "{{contact.FIRSTNAME}}")
	msg.Body = strings.ReplaceAll(msg.Body, "{name}", "{{contact.FIRSTNAME}}")

	h.Log.Info().Str("job_id", job.ID).Str("provider", cred.Provider).
		Int("recipients", len(remaining)).Msg("sending campaign-style email in one pass")

	result, err := cs.SendCampaign(ctx, cred.Credentials, remaining, msg)
	if err != nil {
		return nil, err
	}
	return batchResultFrom(result), nil
}

// sendBatch delivers one bounded batch through a transactional relay,
// rendering per recipient and pacing sends to respect upstream rate
// limits.
func (h *EmailHandler) sendBatch(ctx context.Context, client provider.Client, cred *model.ProviderCredential, job *model.CampaignJob, msg provider.Message) (*BatchResult, error) {
	batch := job.NextBatch(h.BatchSize)
	out := &BatchResult{}
	for i, rec := range batch {
		rendered := msg
		rendered.Subject = RenderForRecipient(msg.Subject, rec)
		rendered.Body = RenderForRecipient(msg.Body, rec)

		result, err := client.SendBulk(ctx, cred.Credentials, []model.Recipient{rec}, rendered)
		if err != nil {
			return nil, err
		}
		out.merge(result)

		if h.SendDelay > 0 && i < len(batch)-1 {
			select {
			case <-ctx.Done():
				return out, nil
			case <-time.After(h.SendDelay):
			}
		}
	}
	return out, nil
}

// pickCredential resolves the tenant credential for a channel, honoring
// an explicit provider choice from the job payload.
func pickCredential(tenant *model.Tenant, channel model.JobType, preferred string) (*model.ProviderCredential, error) {
	if preferred != "" {
		cred := tenant.CredentialFor(channel, preferred)
		if cred == nil {
			return nil, appErrors.NewConfigError("tenant %s has no %s credentials for provider %q", tenant.ID, channel, preferred)
		}
		return cred, nil
	}
	creds := tenant.CredentialsFor(channel)
	if len(creds) == 0 {
		return nil, appErrors.NewConfigError("tenant %s has no %s provider configured", tenant.ID, channel)
	}
	return &creds[0], nil
}
