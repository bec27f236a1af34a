package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

const fast2smsURL = "https://www.fast2sms.com/dev/bulkV2"

// Fast2SMS sends a whole batch in one call. Its API reports only a
// batch-level outcome, so per-recipient bookkeeping is all-or-nothing.
type Fast2SMS struct {
	HTTP *http.Client
}

func (f *Fast2SMS) Name() string           { return NameFast2SMS }
func (f *Fast2SMS) Channel() model.JobType { return model.JobTypeSMS }

func (f *Fast2SMS) SendBulk(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg Message) (*SendResult, error) {
	if err := requireCreds(NameFast2SMS, creds, "api_key"); err != nil {
		return nil, err
	}

	numbers := make([]string, 0, len(recipients))
	for _, rec := range recipients {
		numbers = append(numbers, rec.Phone)
	}

	// DLT route requires a pre-approved template; everything else goes
	// through the quick free-text route.
	body := map[string]any{"numbers": strings.Join(numbers, ",")}
	if msg.Route == "dlt" && msg.TemplateID != "" {
		body["route"] = "dlt"
		body["sender_id"] = creds["sender_id"]
		body["message"] = msg.TemplateID
		body["variables_values"] = msg.Body
	} else {
		body["route"] = "q"
		body["message"] = msg.Body
	}

	var resp struct {
		Return  bool   `json:"return"`
		Message any    `json:"message"`
		Request string `json:"request_id"`
	}
	err := postJSON(ctx, f.HTTP, fast2smsURL, map[string]string{"authorization": creds["api_key"]}, body, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Return {
		return nil, fmt.Errorf("fast2sms rejected batch: %v", resp.Message)
	}

	result := allSent(recipients)
	for i := range result.Results {
		result.Results[i].MessageID = resp.Request
	}
	return result, nil
}
