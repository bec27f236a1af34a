// Package provider defines the normalized delivery-provider contract and
// the client implementations behind it. The processor and channel
// handlers never look past SendResult; provider-specific response shapes
// stay inside each client.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

// Provider names used in tenant credentials and channel payloads.
const (
	NameBrevo    = "brevo"
	NameSMTP     = "smtp"
	NameFast2SMS = "fast2sms"
	NameTwilio   = "twilio"
	NameWati     = "wati"
	NameAiSensy  = "aisensy"
	NameInterakt = "interakt"
)

// Message is the channel-agnostic payload handed to a client. Only the
// fields relevant to the client's channel are set.
type Message struct {
	Subject       string
	Body          string
	FromName      string
	FromEmail     string
	Route         string
	TemplateID    string
	TemplateName  string
	BroadcastName string
	Parameters    map[string]string
}

// RecipientResult is the per-recipient outcome of a bulk send.
type RecipientResult struct {
	Recipient model.Recipient
	Success   bool
	MessageID string
	Error     string
}

// SendResult aggregates a bulk send. Sent+Failed equals the number of
// recipients handed to the client.
type SendResult struct {
	Sent    int
	Failed  int
	Results []RecipientResult
}

func (r *SendResult) add(rec model.Recipient, messageID string, err error) {
	res := RecipientResult{Recipient: rec, MessageID: messageID, Success: err == nil}
	if err != nil {
		res.Error = err.Error()
		r.Failed++
	} else {
		r.Sent++
	}
	r.Results = append(r.Results, res)
}

// allSent marks the whole recipient set as delivered, for providers
// whose API only reports a batch-level outcome.
func allSent(recipients []model.Recipient) *SendResult {
	res := &SendResult{Sent: len(recipients)}
	for _, rec := range recipients {
		res.Results = append(res.Results, RecipientResult{Recipient: rec, Success: true})
	}
	return res
}

// Client is implemented once per channel/provider pair. Credentials
// arrive pre-decrypted as an opaque map.
type Client interface {
	Name() string
	Channel() model.JobType
	SendBulk(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg Message) (*SendResult, error)
}

// CampaignSender is an optional capability for email providers with a
// native campaign concept (list import + campaign send). It covers the
// entire recipient set in one pass and is not resumable mid-way.
type CampaignSender interface {
	SendCampaign(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg Message) (*SendResult, error)
}

// Registry resolves clients by provider name.
type Registry struct {
	clients map[string]Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[string]Client)}
	for _, c := range clients {
		r.clients[c.Name()] = c
	}
	return r
}

func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Default builds a registry with every built-in client sharing one HTTP
// client.
func Default() *Registry {
	hc := &http.Client{Timeout: 30 * time.Second}
	return NewRegistry(
		&Brevo{HTTP: hc},
		&SMTPRelay{},
		&Fast2SMS{HTTP: hc},
		&Twilio{HTTP: hc},
		&Wati{HTTP: hc},
		&AiSensy{HTTP: hc},
		&Interakt{HTTP: hc},
	)
}
