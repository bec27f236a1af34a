package provider

import (
	"context"
	"net/http"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

const interaktURL = "https://api.interakt.ai/v1/public/message/"

// Interakt sends WhatsApp template messages one recipient at a time.
type Interakt struct {
	HTTP *http.Client
}

func (i *Interakt) Name() string           { return NameInterakt }
func (i *Interakt) Channel() model.JobType { return model.JobTypeWhatsApp }

func (i *Interakt) SendBulk(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg Message) (*SendResult, error) {
	if err := requireCreds(NameInterakt, creds, "api_key"); err != nil {
		return nil, err
	}
	headers := map[string]string{"Authorization": "Basic " + creds["api_key"]}

	bodyValues := orderedValues(msg.Parameters)

	result := &SendResult{}
	for _, rec := range recipients {
		body := map[string]any{
			"fullPhoneNumber": rec.Phone,
			"type":            "Template",
			"template": map[string]any{
				"name":         msg.TemplateName,
				"languageCode": "en",
				"bodyValues":   bodyValues,
			},
		}
		var resp struct {
			ID string `json:"id"`
		}
		err := postJSON(ctx, i.HTTP, interaktURL, headers, body, &resp)
		result.add(rec, resp.ID, err)
	}
	return result, nil
}
