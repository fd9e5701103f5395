package mailer

import (
	"fmt"
	"strings"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Html is optional; Text is recommended as fallback.
// You can also use a template by specifying Template and Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "verify_email" or "reset_password"
	Data     map[string]any `json:"data,omitempty"`
}

// Validate reports whether the job carries enough to be delivered.
func (j *EmailJob) Validate() error {
	if strings.TrimSpace(j.To) == "" {
		return fmt.Errorf("email job: missing recipient")
	}
	if j.Template == "" && (j.Subject == "" || (j.Text == "" && j.HTML == "")) {
		return fmt.Errorf("email job: either template or subject with text/html is required")
	}
	return nil
}

// EnsureRecipient fills template data with the recipient address when absent.
func (j *EmailJob) EnsureRecipient() {
	if j.Template == "" {
		return
	}
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if v, ok := j.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["Email"] = j.To
	}
}
