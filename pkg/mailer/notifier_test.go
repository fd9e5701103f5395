package mailer

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier_NeverLogsBody(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := LogNotifier{Logger: logger}

	err := n.Send(context.Background(), Message{To: "a@x.com", Subject: "Verify your email", Text: "code 123456", HTML: "<b>123456</b>"})
	require.NoError(t, err)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, "a@x.com", entry.Data["to"])
	assert.NotContains(t, entry.Message, "123456")
	for _, v := range entry.Data {
		assert.NotContains(t, fmt.Sprint(v), "123456")
	}
}

func TestQueueNotifier_RejectsEmptyMessage(t *testing.T) {
	n := NewQueueNotifier(nil)
	err := n.Send(context.Background(), Message{To: "a@x.com"})
	assert.Error(t, err)
}
