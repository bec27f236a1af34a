package provider

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

// SMTPRelay is the direct transactional email provider: no campaign
// concept, one SMTP conversation per recipient.
type SMTPRelay struct{}

func (s *SMTPRelay) Name() string           { return NameSMTP }
func (s *SMTPRelay) Channel() model.JobType { return model.JobTypeEmail }

func (s *SMTPRelay) SendBulk(ctx context.Context, creds map[string]string, recipients []model.Recipient, msg Message) (*SendResult, error) {
	if err := requireCreds(NameSMTP, creds, "host", "port", "username", "password"); err != nil {
		return nil, err
	}
	addr := creds["host"] + ":" + creds["port"]
	auth := smtp.PlainAuth("", creds["username"], creds["password"], creds["host"])
	from := msg.FromEmail
	if from == "" {
		from = creds["username"]
	}

	result := &SendResult{}
	for _, rec := range recipients {
		if err := ctx.Err(); err != nil {
			result.add(rec, "", err)
			continue
		}
		body := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
			msg.FromName, from, rec.Email, msg.Subject, msg.Body)
		err := smtp.SendMail(addr, auth, from, []string{rec.Email}, []byte(body))
		result.add(rec, "", err)
	}
	return result, nil
}
