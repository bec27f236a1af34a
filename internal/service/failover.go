package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/telemetry"
)

// ProviderAttempt records one provider that produced zero successes
// before the orchestrator moved on.
type ProviderAttempt struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// FailoverOrchestrator tries a tenant's WhatsApp providers in priority
// order. It only falls through on zero successful sends: a provider that
// delivered to anyone is the winner even if some recipients failed,
// since moving on would double-send to the ones that succeeded.
type FailoverOrchestrator struct {
	Registry *provider.Registry
	Log      zerolog.Logger
}

func NewFailoverOrchestrator(registry *provider.Registry, log zerolog.Logger) *FailoverOrchestrator {
	return &FailoverOrchestrator{
		Registry: registry,
		Log:      log.With().Str("component", "failover").Logger(),
	}
}

// Send attempts the batch against each configured provider until one
// reports at least one success. preferred, when set, is tried first.
func (f *FailoverOrchestrator) Send(ctx context.Context, tenant *model.Tenant, preferred string, recipients []model.Recipient, msg provider.Message) (*provider.SendResult, string, []ProviderAttempt, error) {
	creds := tenant.CredentialsFor(model.JobTypeWhatsApp)
	if preferred != "" {
		for i := range creds {
			if creds[i].Provider == preferred && i > 0 {
				preferredCred := creds[i]
				creds = append(creds[:i], creds[i+1:]...)
				creds = append([]model.ProviderCredential{preferredCred}, creds...)
				break
			}
		}
	}
	if len(creds) == 0 {
		return nil, "", nil, appErrors.NewConfigError("no whatsapp provider configured for tenant %s", tenant.ID)
	}

	attempts := []ProviderAttempt{}
	for _, cred := range creds {
		client, ok := f.Registry.Get(cred.Provider)
		if !ok {
			attempts = append(attempts, ProviderAttempt{Provider: cred.Provider, Error: "unknown provider"})
			telemetry.FailoverAttempts.Inc()
			continue
		}

		result, err := client.SendBulk(ctx, cred.Credentials, recipients, msg)
		if err != nil {
			f.Log.Warn().Str("tenant_id", tenant.ID).Str("provider", cred.Provider).
				Err(err).Msg("provider send failed, trying next")
			attempts = append(attempts, ProviderAttempt{Provider: cred.Provider, Error: err.Error()})
			telemetry.FailoverAttempts.Inc()
			continue
		}
		if result.Sent > 0 {
			return result, cred.Provider, attempts, nil
		}

		reason := "zero successful sends"
		for _, r := range result.Results {
			if r.Error != "" {
				reason = fmt.Sprintf("zero successful sends (first error: %s)", r.Error)
				break
			}
		}
		f.Log.Warn().Str("tenant_id", tenant.ID).Str("provider", cred.Provider).
			Str("reason", reason).Msg("provider produced no successes, trying next")
		attempts = append(attempts, ProviderAttempt{Provider: cred.Provider, Error: reason})
		telemetry.FailoverAttempts.Inc()
	}

	reasons := make([]string, 0, len(attempts))
	for _, a := range attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %s", a.Provider, a.Error))
	}
	return nil, "", attempts, fmt.Errorf("all whatsapp providers failed: %s", strings.Join(reasons, "; "))
}
