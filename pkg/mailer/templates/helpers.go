package templates

import (
	"fmt"
	"time"

	"github.com/oksasatya/go-credential-service/config"
	"github.com/oksasatya/go-credential-service/pkg/mailer"
)

// Option sets optional EmailData fields.
type Option func(*EmailData)

func WithCode(code string) Option { return func(d *EmailData) { d.Code = code } }

// WithExpiresIn sets both the absolute expiry and its "N minutes" wording.
func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		d.ExpiresAt = time.Now().Add(dur).UTC()
		d.ExpiresInText = humanMinutes(dur)
	}
}

func humanMinutes(dur time.Duration) string {
	m := int(dur.Round(time.Minute) / time.Minute)
	if m <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

// NewEmailData fills common fields from config, then applies options.
func NewEmailData(cfg *config.Config, name, email string, opts ...Option) EmailData {
	d := EmailData{Name: name, Email: email}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.CompanyAddress = cfg.CompanyAddress
		d.AppName = cfg.AppName
		d.SupportURL = cfg.SupportURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(cfg *config.Config, name, email, code string, opts ...Option) EmailData {
	return NewEmailData(cfg, name, email, append([]Option{WithCode(code)}, opts...)...)
}

func NewResetPasswordData(cfg *config.Config, name, email, code string, opts ...Option) EmailData {
	return NewEmailData(cfg, name, email, append([]Option{WithCode(code)}, opts...)...)
}

// Composer builds the account emails that carry passcodes.
type Composer struct {
	Cfg *config.Config
}

func NewComposer(cfg *config.Config) *Composer { return &Composer{Cfg: cfg} }

// VerifyEmail renders the HTML verification message.
func (c *Composer) VerifyEmail(name, email, code string, ttl time.Duration) (mailer.Message, error) {
	data := NewVerifyEmailData(c.Cfg, name, email, code, WithExpiresIn(ttl))
	subject, text, html, err := Render(VerifyEmail, data)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{To: email, Subject: subject, Text: text, HTML: html}, nil
}

// ResetPassword renders the plain-text reset message.
func (c *Composer) ResetPassword(name, email, code string, ttl time.Duration) (mailer.Message, error) {
	data := NewResetPasswordData(c.Cfg, name, email, code, WithExpiresIn(ttl))
	subject, text, _, err := Render(ResetPassword, data)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{To: email, Subject: subject, Text: text}, nil
}
