package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/service"
)

// recordedSend captures the arguments of one provider call.
type recordedSend struct {
	recipients []model.Recipient
	msg        provider.Message
}

// recordingClient answers every call with success and keeps the
// arguments for assertions.
type recordingClient struct {
	name    string
	channel model.JobType
	sends   []recordedSend
}

func (c *recordingClient) Name() string           { return c.name }
func (c *recordingClient) Channel() model.JobType { return c.channel }

func (c *recordingClient) SendBulk(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg provider.Message) (*provider.SendResult, error) {
	c.sends = append(c.sends, recordedSend{recipients: recipients, msg: msg})
	return successResult(recipients), nil
}

// recordingCampaignClient is a recordingClient whose campaign path is
// the one exercised.
type recordingCampaignClient struct {
	recordingClient
	campaigns []recordedSend
}

func (c *recordingCampaignClient) SendCampaign(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg provider.Message) (*provider.SendResult, error) {
	c.campaigns = append(c.campaigns, recordedSend{recipients: recipients, msg: msg})
	return successResult(recipients), nil
}

var _ provider.CampaignSender = (*recordingCampaignClient)(nil)

func channelTenant(channel model.JobType, providers ...string) *model.Tenant {
	tenant := &model.Tenant{ID: "tenant-1", Status: model.TenantActive}
	for i, p := range providers {
		tenant.Credentials = append(tenant.Credentials, model.ProviderCredential{
			Channel:     channel,
			Provider:    p,
			Priority:    i + 1,
			Credentials: map[string]string{"api_key": "k"},
		})
	}
	return tenant
}

func emailJob(recipients []model.Recipient, data model.EmailData) *model.CampaignJob {
	return &model.CampaignJob{
		ID:          "job-1",
		TenantID:    "tenant-1",
		JobType:     model.JobTypeEmail,
		ChannelData: model.ChannelData{Email: &data},
		Recipients:  recipients,
		Progress:    model.Progress{Total: len(recipients)},
		Status:      model.StatusProcessing,
	}
}

func smsJob(recipients []model.Recipient, data model.SMSData) *model.CampaignJob {
	return &model.CampaignJob{
		ID:          "job-1",
		TenantID:    "tenant-1",
		JobType:     model.JobTypeSMS,
		ChannelData: model.ChannelData{SMS: &data},
		Recipients:  recipients,
		Progress:    model.Progress{Total: len(recipients)},
		Status:      model.StatusProcessing,
	}
}

func TestEmailRelayRendersPerRecipientWithinBatch(t *testing.T) {
	client := &recordingClient{name: "smtp", channel: model.JobTypeEmail}
	handler := &service.EmailHandler{
		Registry:  provider.NewRegistry(client),
		BatchSize: 3,
		Log:       zerolog.Nop(),
	}
	recipients := makeRecipients(5)
	job := emailJob(recipients, model.EmailData{
		Subject: "Hi {name}",
		Body:    "Hello {name}, this is for {email}",
	})

	out, err := handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeEmail, "smtp"))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Sent, "relay sends are bounded by the batch size")
	require.Len(t, client.sends, 3)

	first := client.sends[0]
	require.Len(t, first.recipients, 1)
	assert.Equal(t, "Hi User 0", first.msg.Subject)
	assert.Equal(t, "Hello User 0, this is for user0@example.com", first.msg.Body)
	assert.Equal(t, "Hi User 2", client.sends[2].msg.Subject)
}

func TestEmailRelayResumesFromProgress(t *testing.T) {
	client := &recordingClient{name: "smtp", channel: model.JobTypeEmail}
	handler := &service.EmailHandler{
		Registry:  provider.NewRegistry(client),
		BatchSize: 2,
		Log:       zerolog.Nop(),
	}
	job := emailJob(makeRecipients(5), model.EmailData{Subject: "s", Body: "b"})
	job.Progress.Sent = 3
	job.Progress.CurrentBatch = 2

	out, err := handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeEmail, "smtp"))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Sent)
	require.Len(t, client.sends, 2)
	assert.Equal(t, "user3@example.com", client.sends[0].recipients[0].Email)
	assert.Equal(t, "user4@example.com", client.sends[1].recipients[0].Email)
}

func TestEmailCampaignProviderCoversAllRemainingInOnePass(t *testing.T) {
	client := &recordingCampaignClient{recordingClient: recordingClient{name: "brevo", channel: model.JobTypeEmail}}
	handler := &service.EmailHandler{
		Registry:  provider.NewRegistry(client),
		BatchSize: 100,
		Log:       zerolog.Nop(),
	}
	job := emailJob(makeRecipients(250), model.EmailData{
		Subject: "Welcome {name}",
		Body:    "Hello {name}",
	})

	out, err := handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeEmail, "brevo"))
	require.NoError(t, err)
	assert.Equal(t, 250, out.Sent, "campaign providers ignore the batch bound")
	assert.Empty(t, client.sends, "the per-recipient relay path must not run")
	require.Len(t, client.campaigns, 1)
	assert.Len(t, client.campaigns[0].recipients, 250)
	assert.Equal(t, "Welcome {{contact.FIRSTNAME}}", client.campaigns[0].msg.Subject)
	assert.Equal(t, "Hello {{contact.FIRSTNAME}}", client.campaigns[0].msg.Body)
}

func TestEmailMissingCredentialsIsConfigError(t *testing.T) {
	handler := &service.EmailHandler{
		Registry:  provider.NewRegistry(),
		BatchSize: 100,
		Log:       zerolog.Nop(),
	}
	job := emailJob(makeRecipients(2), model.EmailData{Subject: "s", Body: "b"})

	// No email credentials at all.
	_, err := handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeEmail))
	require.Error(t, err)
	assert.True(t, appErrors.IsConfig(err))

	// Credentials exist, but not for the provider the job asks for.
	job.ChannelData.Email.Provider = provider.NameBrevo
	_, err = handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeEmail, "smtp"))
	require.Error(t, err)
	assert.True(t, appErrors.IsConfig(err))
}

func TestSMSBatchUsesProgressWindow(t *testing.T) {
	client := &recordingClient{name: "fast2sms", channel: model.JobTypeSMS}
	handler := &service.SMSHandler{
		Registry:  provider.NewRegistry(client),
		BatchSize: 100,
		Log:       zerolog.Nop(),
	}
	job := smsJob(makeRecipients(250), model.SMSData{
		Message:    "Your code is ready",
		Route:      "dlt",
		TemplateID: "tmpl-7",
	})
	job.Progress.Sent = 100
	job.Progress.CurrentBatch = 1

	out, err := handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeSMS, "fast2sms"))
	require.NoError(t, err)
	assert.Equal(t, 100, out.Sent)
	require.Len(t, client.sends, 1, "sms providers take the whole batch in one call")

	sent := client.sends[0]
	assert.Len(t, sent.recipients, 100)
	assert.Equal(t, "user100@example.com", sent.recipients[0].Email)
	assert.Equal(t, "user199@example.com", sent.recipients[99].Email)
	assert.Equal(t, "dlt", sent.msg.Route)
	assert.Equal(t, "tmpl-7", sent.msg.TemplateID)
	assert.Equal(t, "Your code is ready", sent.msg.Body)
}

func TestSMSPartialFailuresLandInBatchResult(t *testing.T) {
	recipients := makeRecipients(3)
	client := &fakeClient{name: "twilio", channel: model.JobTypeSMS, result: &provider.SendResult{
		Sent:   2,
		Failed: 1,
		Results: []provider.RecipientResult{
			{Recipient: recipients[0], Success: true},
			{Recipient: recipients[1], Success: false, Error: "invalid number"},
			{Recipient: recipients[2], Success: true},
		},
	}}
	handler := &service.SMSHandler{
		Registry:  provider.NewRegistry(client),
		BatchSize: 100,
		Log:       zerolog.Nop(),
	}
	job := smsJob(recipients, model.SMSData{Message: "hi", Route: "q"})

	out, err := handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeSMS, "twilio"))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Sent)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.FailedRecipients, 1)
	assert.Equal(t, recipients[1].Phone, out.FailedRecipients[0].Recipient.Phone)
	assert.Equal(t, "invalid number", out.FailedRecipients[0].Error)
}
