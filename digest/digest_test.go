package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
	"github.com/simmerhq/simmer/notify/email"
	"github.com/simmerhq/simmer/notify/webpush"
	"github.com/simmerhq/simmer/queue"
	"github.com/simmerhq/simmer/scheduler"
)

type mockStore struct {
	users      []database.User
	counts     map[uint]int64
	countErrs  map[uint]error
	batchErr   error
	reconciled *database.Schedule
	lastSince  time.Time
}

func (m *mockStore) ForEachUserBatch(_ context.Context, batchSize int, fn func(users []database.User) error) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	for start := 0; start < len(m.users); start += batchSize {
		end := start + batchSize
		if end > len(m.users) {
			end = len(m.users)
		}
		if err := fn(m.users[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) CountLikesReceivedSince(_ context.Context, authorID uint, since time.Time) (int64, error) {
	m.lastSince = since
	if err := m.countErrs[authorID]; err != nil {
		return 0, err
	}
	return m.counts[authorID], nil
}

func (m *mockStore) ReconcileSchedule(_ context.Context, target *database.Schedule) (*database.Schedule, error) {
	m.reconciled = target
	return target, nil
}

type mockQueue struct {
	tasks []queue.Task
	err   error
}

func (m *mockQueue) Enqueue(_ context.Context, task queue.Task) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

type mockPusher struct {
	pushed []uint
}

func (m *mockPusher) Enabled() bool { return true }

func (m *mockPusher) SendToUser(_ context.Context, userID uint, _ webpush.Payload) error {
	m.pushed = append(m.pushed, userID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ServerURL: "http://localhost:3002",
		Digest: &config.DigestConfig{
			JobName:     "daily-like-digest",
			Subject:     "Daily Likes Notification",
			WindowHours: 24,
			BatchSize:   2,
			Schedule: &config.ScheduleConfig{
				Kind:        "cron",
				Minute:      "0",
				Hour:        "8",
				DayOfWeek:   "*",
				DayOfMonth:  "*",
				MonthOfYear: "*",
				Timezone:    "UTC",
			},
		},
	}
}

func testUser(id uint, name string) database.User {
	user := database.User{
		Email:    name + "@example.com",
		Username: name,
	}
	user.ID = id
	return user
}

func TestRun_NoEngagementEnqueuesNothing(t *testing.T) {
	store := &mockStore{
		users:  []database.User{testUser(1, "alice")},
		counts: map[uint]int64{},
	}
	q := &mockQueue{}
	e := New(testConfig(), store, q, email.New(&config.EmailConfig{}), nil, nil)

	require.NoError(t, e.Run(context.Background()))
	assert.Empty(t, q.tasks)
}

func TestRun_OneTaskPerUserWithEngagement(t *testing.T) {
	store := &mockStore{
		users: []database.User{
			testUser(1, "alice"),
			testUser(2, "bob"),
			testUser(3, "carol"),
		},
		counts: map[uint]int64{1: 3, 2: 1},
	}
	q := &mockQueue{}
	push := &mockPusher{}
	e := New(testConfig(), store, q, email.New(&config.EmailConfig{}), push, nil)

	require.NoError(t, e.Run(context.Background()))

	require.Len(t, q.tasks, 2)
	assert.Equal(t, []string{"alice@example.com"}, q.tasks[0].Recipients)
	assert.Equal(t, []string{"bob@example.com"}, q.tasks[1].Recipients)
	for _, task := range q.tasks {
		assert.Equal(t, "Daily Likes Notification", task.Subject)
		assert.NotEmpty(t, task.ID)
	}
	assert.Contains(t, q.tasks[0].Body, "3")
	assert.Contains(t, q.tasks[0].Body, "24 hours")
	assert.Contains(t, q.tasks[0].Body, "alice")

	// push follows the same per-user dispatch
	assert.Equal(t, []uint{1, 2}, push.pushed)
}

func TestRun_WindowBoundary(t *testing.T) {
	store := &mockStore{
		users:  []database.User{testUser(1, "alice")},
		counts: map[uint]int64{},
	}
	e := New(testConfig(), store, &mockQueue{}, email.New(&config.EmailConfig{}), nil, nil)

	require.NoError(t, e.Run(context.Background()))
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), store.lastSince, 5*time.Second)
}

func TestRun_PerUserErrorIsSkipped(t *testing.T) {
	store := &mockStore{
		users: []database.User{
			testUser(1, "alice"),
			testUser(2, "bob"),
		},
		counts:    map[uint]int64{2: 5},
		countErrs: map[uint]error{1: errors.New("malformed record")},
	}
	q := &mockQueue{}
	e := New(testConfig(), store, q, email.New(&config.EmailConfig{}), nil, nil)

	// one bad user must not abort the run
	require.NoError(t, e.Run(context.Background()))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, []string{"bob@example.com"}, q.tasks[0].Recipients)
}

func TestRun_EnqueueErrorIsSkipped(t *testing.T) {
	store := &mockStore{
		users:  []database.User{testUser(1, "alice")},
		counts: map[uint]int64{1: 2},
	}
	q := &mockQueue{err: errors.New("queue closed")}
	e := New(testConfig(), store, q, email.New(&config.EmailConfig{}), nil, nil)

	require.NoError(t, e.Run(context.Background()))
}

func TestRun_EnumerationErrorIsReturned(t *testing.T) {
	store := &mockStore{batchErr: errors.New("store unavailable")}
	e := New(testConfig(), store, &mockQueue{}, email.New(&config.EmailConfig{}), nil, nil)

	assert.Error(t, e.Run(context.Background()))
}

func TestRegisterSchedule(t *testing.T) {
	store := &mockStore{}
	sched, err := scheduler.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sched.Stop()
	})

	e := New(testConfig(), store, &mockQueue{}, email.New(&config.EmailConfig{}), nil, sched)
	require.NoError(t, e.RegisterSchedule(context.Background()))

	require.NotNil(t, store.reconciled)
	assert.Equal(t, "daily-like-digest", store.reconciled.JobName)
	assert.Equal(t, database.ScheduleKindCron, store.reconciled.Kind)
	assert.Equal(t, "0 8 * * *", store.reconciled.CronExpression())

	jobs := sched.GetJobs()
	require.Contains(t, jobs, "daily-like-digest")
	assert.Equal(t, "Like Digest", jobs["daily-like-digest"].Name)
}

func TestScheduleFromConfig_Interval(t *testing.T) {
	cfg := testConfig()
	cfg.Digest.Schedule = &config.ScheduleConfig{
		Kind:   "interval",
		Every:  12,
		Period: "hours",
	}

	s := ScheduleFromConfig(cfg.Digest)
	assert.Equal(t, database.ScheduleKindInterval, s.Kind)
	assert.Equal(t, 12, s.Every)
	assert.Equal(t, 12.0, s.Interval().Hours())
}

func TestMessageWording(t *testing.T) {
	e := New(testConfig(), &mockStore{}, &mockQueue{}, email.New(&config.EmailConfig{}), nil, nil)

	assert.Equal(t, "You received 1 new like on your recipes in the last 24 hours.", e.message(1))
	assert.Equal(t, "You received 4 new likes on your recipes in the last 24 hours.", e.message(4))

	e.cfg.WindowHours = 48
	assert.Contains(t, e.message(2), "2 days")

	e.cfg.WindowHours = 6
	assert.Contains(t, e.message(2), "6 hours")
}
