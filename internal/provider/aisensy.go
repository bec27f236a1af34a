package provider

import (
	"context"
	"net/http"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

const aisensyURL = "https://backend.aisensy.com/campaign/t1/api/v2"

// AiSensy has no bulk endpoint; sends go out one recipient at a time.
type AiSensy struct {
	HTTP *http.Client
}

func (a *AiSensy) Name() string           { return NameAiSensy }
func (a *AiSensy) Channel() model.JobType { return model.JobTypeWhatsApp }

func (a *AiSensy) SendBulk(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg Message) (*SendResult, error) {
	if err := requireCreds(NameAiSensy, creds, "api_key"); err != nil {
		return nil, err
	}

	templateParams := orderedValues(msg.Parameters)

	result := &SendResult{}
	for _, rec := range recipients {
		body := map[string]any{
			"apiKey":         creds["api_key"],
			"campaignName":   msg.TemplateName,
			"destination":    rec.Phone,
			"userName":       rec.Name,
			"templateParams": templateParams,
		}
		err := postJSON(ctx, a.HTTP, aisensyURL, nil, body, nil)
		result.add(rec, "", err)
	}
	return result, nil
}
