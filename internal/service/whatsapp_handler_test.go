package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/service"
)

func whatsappJob(recipients []model.Recipient, data model.WhatsAppData) *model.CampaignJob {
	return &model.CampaignJob{
		ID:          "job-wa",
		TenantID:    "tenant-1",
		JobType:     model.JobTypeWhatsApp,
		ChannelData: model.ChannelData{WhatsApp: &data},
		Recipients:  recipients,
		Progress:    model.Progress{Total: len(recipients)},
		Status:      model.StatusProcessing,
	}
}

func TestWhatsAppBatchGoesThroughFailover(t *testing.T) {
	recipients := makeRecipients(250)
	client := &recordingClient{name: "wati", channel: model.JobTypeWhatsApp}
	failover := service.NewFailoverOrchestrator(provider.NewRegistry(client), zerolog.Nop())
	handler := &service.WhatsAppHandler{Failover: failover, BatchSize: 100, Log: zerolog.Nop()}

	job := whatsappJob(recipients, model.WhatsAppData{
		TemplateName: "welcome",
		Parameters:   map[string]string{"1": "hello"},
	})
	job.Progress.Sent = 100
	job.Progress.CurrentBatch = 1

	out, err := handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeWhatsApp, "wati"))
	require.NoError(t, err)
	assert.Equal(t, 100, out.Sent)
	require.Len(t, client.sends, 1)

	sent := client.sends[0]
	assert.Len(t, sent.recipients, 100)
	assert.Equal(t, "welcome", sent.msg.TemplateName)
	assert.Equal(t, "welcome-job-wa", sent.msg.BroadcastName, "broadcast name defaults to template plus job id")
	assert.Equal(t, map[string]string{"1": "hello"}, sent.msg.Parameters)
}

func TestWhatsAppExplicitBroadcastNameKept(t *testing.T) {
	client := &recordingClient{name: "wati", channel: model.JobTypeWhatsApp}
	failover := service.NewFailoverOrchestrator(provider.NewRegistry(client), zerolog.Nop())
	handler := &service.WhatsAppHandler{Failover: failover, BatchSize: 100, Log: zerolog.Nop()}

	job := whatsappJob(makeRecipients(2), model.WhatsAppData{
		TemplateName:  "welcome",
		BroadcastName: "sept-blast",
	})

	_, err := handler.ProcessBatch(context.Background(), job, channelTenant(model.JobTypeWhatsApp, "wati"))
	require.NoError(t, err)
	require.Len(t, client.sends, 1)
	assert.Equal(t, "sept-blast", client.sends[0].msg.BroadcastName)
}
