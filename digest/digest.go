// Package digest implements the periodic like digest: a scheduled job that
// counts likes received by every author over a trailing window and dispatches
// one notification per author with new engagement.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
	"github.com/simmerhq/simmer/notify/email"
	"github.com/simmerhq/simmer/notify/webpush"
	"github.com/simmerhq/simmer/queue"
	"github.com/simmerhq/simmer/scheduler"
)

// Store is the subset of the database the digest engine uses.
type Store interface {
	ForEachUserBatch(ctx context.Context, batchSize int, fn func(users []database.User) error) error
	CountLikesReceivedSince(ctx context.Context, authorID uint, since time.Time) (int64, error)
	ReconcileSchedule(ctx context.Context, target *database.Schedule) (*database.Schedule, error)
}

// TaskQueue accepts delivery tasks for asynchronous execution.
type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

// Renderer renders the digest email body.
type Renderer interface {
	RenderDigest(data email.DigestData) (string, error)
}

// Pusher sends web push notifications.
type Pusher interface {
	Enabled() bool
	SendToUser(ctx context.Context, userID uint, payload webpush.Payload) error
}

// Engine runs the like digest job.
type Engine struct {
	cfg       *config.DigestConfig
	serverURL string
	store     Store
	queue     TaskQueue
	mail      Renderer
	push      Pusher
	scheduler *scheduler.Scheduler
}

// New creates a new digest engine. push may be nil when webpush is not
// configured.
func New(cfg *config.Config, store Store, q TaskQueue, mail Renderer, push Pusher, sched *scheduler.Scheduler) *Engine {
	return &Engine{
		cfg:       cfg.Digest,
		serverURL: cfg.ServerURL,
		store:     store,
		queue:     q,
		mail:      mail,
		push:      push,
		scheduler: sched,
	}
}

// RegisterSchedule reconciles the persisted schedule for the digest job
// against the configured target and registers the job with the scheduler.
// It runs once at startup; a failure here is fatal to the caller because a
// missing schedule would silently disable all future digests.
func (e *Engine) RegisterSchedule(ctx context.Context) error {
	stored, err := e.store.ReconcileSchedule(ctx, ScheduleFromConfig(e.cfg))
	if err != nil {
		return fmt.Errorf("failed to reconcile digest schedule: %w", err)
	}

	jobDef, definition := jobDefinition(stored)
	if err := e.scheduler.AddSingletonJob(e.cfg.JobName, "Like Digest", definition, jobDef, e.Run); err != nil {
		return fmt.Errorf("failed to schedule digest job: %w", err)
	}
	return nil
}

// ScheduleFromConfig builds the target schedule record from configuration.
func ScheduleFromConfig(cfg *config.DigestConfig) *database.Schedule {
	s := &database.Schedule{
		JobName: cfg.JobName,
		Kind:    database.ScheduleKind(cfg.Schedule.Kind),
	}
	switch s.Kind {
	case database.ScheduleKindCron:
		s.Minute = cfg.Schedule.Minute
		s.Hour = cfg.Schedule.Hour
		s.DayOfWeek = cfg.Schedule.DayOfWeek
		s.DayOfMonth = cfg.Schedule.DayOfMonth
		s.MonthOfYear = cfg.Schedule.MonthOfYear
		s.Timezone = cfg.Schedule.Timezone
	case database.ScheduleKindInterval:
		s.Every = cfg.Schedule.Every
		s.Period = database.SchedulePeriod(cfg.Schedule.Period)
	}
	return s
}

// jobDefinition translates a stored schedule into a gocron job definition and
// a human readable description of it.
func jobDefinition(s *database.Schedule) (gocron.JobDefinition, string) {
	if s.Kind == database.ScheduleKindInterval {
		return gocron.DurationJob(s.Interval()), fmt.Sprintf("every %d %s", s.Every, s.Period)
	}
	expr := s.CronExpression()
	if s.Timezone != "" && s.Timezone != "UTC" {
		expr = fmt.Sprintf("CRON_TZ=%s %s", s.Timezone, expr)
	}
	return gocron.CronJob(expr, false), expr
}

// Run executes one digest aggregation pass. For every user with likes
// received inside the trailing window it enqueues one independent delivery
// task. Per-user errors are logged and skipped; the run always finishes and
// logs a completion line.
func (e *Engine) Run(ctx context.Context) error {
	start := time.Now()
	since := start.Add(-time.Duration(e.cfg.WindowHours) * time.Hour)

	var users, notified, failures int

	err := e.store.ForEachUserBatch(ctx, e.cfg.BatchSize, func(batch []database.User) error {
		for i := range batch {
			user := &batch[i]
			users++

			count, err := e.store.CountLikesReceivedSince(ctx, user.ID, since)
			if err != nil {
				// one bad record must not abort the whole run
				log.Error("Failed to count likes for user", "user", user.ID, "email", user.Email, "error", err)
				failures++
				continue
			}
			if count == 0 {
				continue
			}

			if err := e.dispatch(ctx, user, count); err != nil {
				log.Error("Failed to dispatch digest", "user", user.ID, "email", user.Email, "error", err)
				failures++
				continue
			}
			notified++
		}
		return nil
	})

	log.Info("Like digest run completed",
		"users", users,
		"notified", notified,
		"failures", failures,
		"window_hours", e.cfg.WindowHours,
		"duration", time.Since(start))

	if err != nil {
		return fmt.Errorf("failed to enumerate users: %w", err)
	}
	return nil
}

// dispatch enqueues the email delivery task for one user and, when webpush is
// configured, pushes the same summary to the user's browsers. Push failures
// are logged only, the email task is already on its way.
func (e *Engine) dispatch(ctx context.Context, user *database.User, count int64) error {
	message := e.message(count)

	body, err := e.mail.RenderDigest(email.DigestData{
		Username:  user.Username,
		Likes:     count,
		Window:    e.windowLabel(),
		ServerURL: e.serverURL,
	})
	if err != nil {
		return fmt.Errorf("failed to render digest body: %w", err)
	}

	if err := e.queue.Enqueue(ctx, queue.Task{
		ID:         uuid.NewString(),
		Subject:    e.cfg.Subject,
		Body:       body,
		Recipients: []string{user.Email},
	}); err != nil {
		return fmt.Errorf("failed to enqueue delivery task: %w", err)
	}
	log.Debug("Enqueued digest delivery", "user", user.ID, "likes", count)

	if e.push != nil && e.push.Enabled() {
		if err := e.push.SendToUser(ctx, user.ID, webpush.Payload{
			Title: e.cfg.Subject,
			Body:  message,
			Data:  map[string]any{"url": e.serverURL},
		}); err != nil {
			log.Warn("Failed to push digest notification", "user", user.ID, "error", err)
		}
	}

	return nil
}

func (e *Engine) message(count int64) string {
	likes := "likes"
	if count == 1 {
		likes = "like"
	}
	return fmt.Sprintf("You received %d new %s on your recipes in the last %s.", count, likes, e.windowLabel())
}

func (e *Engine) windowLabel() string {
	if e.cfg.WindowHours == 24 {
		return "24 hours"
	}
	if e.cfg.WindowHours%24 == 0 {
		return fmt.Sprintf("%d days", e.cfg.WindowHours/24)
	}
	return fmt.Sprintf("%d hours", e.cfg.WindowHours)
}
