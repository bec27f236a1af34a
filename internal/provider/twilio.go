package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

// Twilio sends one API call per recipient and therefore yields true
// per-recipient results.
type Twilio struct {
	HTTP *http.Client
}

func (t *Twilio) Name() string           { return NameTwilio }
func (t *Twilio) Channel() model.JobType { return model.JobTypeSMS }

func (t *Twilio) SendBulk(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg Message) (*SendResult, error) {
	if err := requireCreds(NameTwilio, creds, "account_sid", "auth_token", "from_number"); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", creds["account_sid"])

	result := &SendResult{}
	for _, rec := range recipients {
		form := url.Values{}
		form.Set("To", rec.Phone)
		form.Set("From", creds["from_number"])
		form.Set("Body", msg.Body)

		var resp struct {
			Sid          string `json:"sid"`
			ErrorMessage string `json:"error_message"`
		}
		err := postForm(ctx, t.HTTP, endpoint, creds["account_sid"], creds["auth_token"], form, &resp)
		if err == nil && resp.ErrorMessage != "" {
			err = fmt.Errorf("twilio: %s", resp.ErrorMessage)
		}
		result.add(rec, resp.Sid, err)
	}
	return result, nil
}
