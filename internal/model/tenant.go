// internal/model/tenant.go
package model

import "time"

// TenantStatus gates whether a tenant's jobs may be processed.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantInactive  TenantStatus = "inactive"
	TenantSuspended TenantStatus = "suspended"
)

// ProviderCredential is one configured channel/provider pair for a
// tenant. Credentials arrive pre-decrypted and are passed through to the
// provider client as an opaque blob. Priority orders WhatsApp failover
// (lower value tried first).
type ProviderCredential struct {
	Channel     JobType           `json:"channel"`
	Provider    string            `json:"provider"`
	Priority    int               `json:"priority"`
	Credentials map[string]string `json:"credentials"`
}

// Tenant is the owner of campaign jobs.
type Tenant struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Status      TenantStatus         `json:"status"`
	Credentials []ProviderCredential `json:"credentials"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   *time.Time           `json:"updated_at,omitempty"`
}

// CredentialsFor returns the tenant's configured credentials for a
// channel, ordered by priority.
func (t *Tenant) CredentialsFor(channel JobType) []ProviderCredential {
	out := []ProviderCredential{}
	for _, c := range t.Credentials {
		if c.Channel == channel {
			out = append(out, c)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority < out[j-1].Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// CredentialFor returns the credential for a specific provider on a
// channel, or nil when not configured.
func (t *Tenant) CredentialFor(channel JobType, provider string) *ProviderCredential {
	for i := range t.Credentials {
		c := &t.Credentials[i]
		if c.Channel == channel && c.Provider == provider {
			return c
		}
	}
	return nil
}
