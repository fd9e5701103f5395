package mailer

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun sends mail through the Mailgun HTTP API.
type Mailgun struct {
	Sender string
	client *mg.MailgunImpl
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Sender: sender, client: mg.NewMailgun(domain, apiKey)}
}

// WithAPIBase points the client at another region, e.g. mg.APIBaseEU.
func (m *Mailgun) WithAPIBase(url string) *Mailgun {
	if url != "" {
		m.client.SetAPIBase(url)
	}
	return m
}

// Send sends one message. html is optional. Tracking is off so the passcode
// mail is delivered as rendered.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	msg.SetTracking(false)

	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, _, err := m.client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
