package digest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmerhq/simmer/queue"
)

type stubMailer struct {
	enabled bool
	sent    []queue.Task
	err     error
}

func (m *stubMailer) Enabled() bool { return m.enabled }

func (m *stubMailer) Send(subject, body string, recipients []string) error {
	m.sent = append(m.sent, queue.Task{Subject: subject, Body: body, Recipients: recipients})
	return m.err
}

func TestDeliveryHandler_SendsTask(t *testing.T) {
	mailer := &stubMailer{enabled: true}
	handler := NewDeliveryHandler(mailer)

	handler(context.Background(), queue.Task{
		ID:         "t1",
		Subject:    "Daily Likes Notification",
		Body:       "<html>3 likes</html>",
		Recipients: []string{"alice@example.com"},
	})

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"alice@example.com"}, mailer.sent[0].Recipients)
	assert.Equal(t, "Daily Likes Notification", mailer.sent[0].Subject)
}

func TestDeliveryHandler_SwallowsTransportErrors(t *testing.T) {
	mailer := &stubMailer{enabled: true, err: errors.New("connection refused")}
	handler := NewDeliveryHandler(mailer)

	// a failed delivery is a single attempt, no retry and no panic
	handler(context.Background(), queue.Task{ID: "t1", Recipients: []string{"a@example.com"}})
	handler(context.Background(), queue.Task{ID: "t2", Recipients: []string{"b@example.com"}})

	assert.Len(t, mailer.sent, 2)
}

func TestDeliveryHandler_DisabledMailDropsTask(t *testing.T) {
	mailer := &stubMailer{enabled: false}
	handler := NewDeliveryHandler(mailer)

	// nothing is handed to the transport when email is off
	handler(context.Background(), queue.Task{ID: "t1", Recipients: []string{"a@example.com"}})

	assert.Empty(t, mailer.sent)
}
