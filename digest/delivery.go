package digest

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/simmerhq/simmer/queue"
)

// Mailer is the mail transport consumed by delivery tasks.
type Mailer interface {
	Enabled() bool
	Send(subject, body string, recipients []string) error
}

// NewDeliveryHandler returns the queue handler that executes email delivery
// tasks. A task is a single attempt: transport errors are caught and logged
// with the recipient and error detail, and never surface past the task
// boundary, so one failed delivery cannot abort sibling tasks or the
// aggregation job that enqueued it. Tasks are dropped, not "delivered", when
// email is disabled.
func NewDeliveryHandler(mailer Mailer) queue.Handler {
	return func(_ context.Context, task queue.Task) {
		if !mailer.Enabled() {
			log.Debug("Email notifications are disabled, dropping digest delivery", "task", task.ID, "recipients", task.Recipients)
			return
		}
		if err := mailer.Send(task.Subject, task.Body, task.Recipients); err != nil {
			log.Error("Digest delivery failed", "task", task.ID, "recipients", task.Recipients, "error", err)
			return
		}
		log.Info("Digest delivered", "task", task.ID, "recipients", task.Recipients)
	}
}
