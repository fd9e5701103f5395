package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-service/pkg/helpers"
)

// Message is a rendered email. At least one of Text or HTML is set.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers a message out of band.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// QueueNotifier hands messages to the email worker through RabbitMQ.
type QueueNotifier struct {
	Pub *helpers.RabbitPublisher
}

func NewQueueNotifier(pub *helpers.RabbitPublisher) *QueueNotifier {
	return &QueueNotifier{Pub: pub}
}

func (n *QueueNotifier) Send(ctx context.Context, msg Message) error {
	job := EmailJob{To: msg.To, Subject: msg.Subject, Text: msg.Text, HTML: msg.HTML}
	if err := job.Validate(); err != nil {
		return err
	}
	return n.Pub.PublishJSON(ctx, job)
}

// SendMessage delivers a message straight through Mailgun.
func (m *Mailgun) SendMessage(ctx context.Context, msg Message) error {
	return m.Send(ctx, msg.To, msg.Subject, msg.Text, msg.HTML)
}

// MailgunNotifier adapts Mailgun to Notifier.
type MailgunNotifier struct {
	MG *Mailgun
}

func (n MailgunNotifier) Send(ctx context.Context, msg Message) error {
	return n.MG.SendMessage(ctx, msg)
}

// LogNotifier only records that a message would have been sent. The body is
// never logged because it carries a passcode.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n LogNotifier) Send(_ context.Context, msg Message) error {
	if n.Logger != nil {
		n.Logger.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("mail delivery disabled; message dropped")
	}
	return nil
}
