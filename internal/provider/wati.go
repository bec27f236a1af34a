package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

// Wati sends WhatsApp template broadcasts through a tenant-specific API
// endpoint.
type Wati struct {
	HTTP *http.Client
}

func (w *Wati) Name() string           { return NameWati }
func (w *Wati) Channel() model.JobType { return model.JobTypeWhatsApp }

func (w *Wati) SendBulk(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg Message) (*SendResult, error) {
	if err := requireCreds(NameWati, creds, "api_key", "endpoint"); err != nil {
		return nil, err
	}

	receivers := make([]map[string]any, 0, len(recipients))
	for _, rec := range recipients {
		params := []map[string]string{{"name": "name", "value": rec.Name}}
		for k, v := range msg.Parameters {
			params = append(params, map[string]string{"name": k, "value": v})
		}
		receivers = append(receivers, map[string]any{
			"whatsappNumber": rec.Phone,
			"customParams":   params,
		})
	}

	body := map[string]any{
		"template_name":  msg.TemplateName,
		"broadcast_name": msg.BroadcastName,
		"receivers":      receivers,
	}
	endpoint := strings.TrimRight(creds["endpoint"], "/") + "/api/v1/sendTemplateMessages"
	headers := map[string]string{"Authorization": "Bearer " + creds["api_key"]}

	var resp struct {
		Result bool   `json:"result"`
		Info   string `json:"info"`
	}
	if err := postJSON(ctx, w.HTTP, endpoint, headers, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Result {
		return nil, fmt.Errorf("wati rejected broadcast: %s", resp.Info)
	}
	return allSent(recipients), nil
}
