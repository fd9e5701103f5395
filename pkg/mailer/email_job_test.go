package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailJob_Validate(t *testing.T) {
	assert.Error(t, (&EmailJob{Subject: "s", Text: "t"}).Validate())
	assert.Error(t, (&EmailJob{To: "a@x.com", Subject: "s"}).Validate())
	assert.Error(t, (&EmailJob{To: "a@x.com", Text: "t"}).Validate())
	assert.NoError(t, (&EmailJob{To: "a@x.com", Subject: "s", HTML: "<p>h</p>"}).Validate())
	assert.NoError(t, (&EmailJob{To: "a@x.com", Template: "verify_email"}).Validate())
}

func TestEmailJob_EnsureRecipient(t *testing.T) {
	job := EmailJob{To: "a@x.com", Template: "verify_email"}
	job.EnsureRecipient()
	assert.Equal(t, "a@x.com", job.Data["Email"])

	raw := EmailJob{To: "a@x.com", Subject: "s", Text: "t"}
	raw.EnsureRecipient()
	assert.Nil(t, raw.Data)
}
