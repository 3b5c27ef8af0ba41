package database

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// ScheduleKind selects the shape of a schedule definition.
type ScheduleKind string

const (
	ScheduleKindCron     ScheduleKind = "cron"
	ScheduleKindInterval ScheduleKind = "interval"
)

// SchedulePeriod is the unit of an interval-style schedule.
type SchedulePeriod string

const (
	SchedulePeriodHours SchedulePeriod = "hours"
	SchedulePeriodDays  SchedulePeriod = "days"
)

// Schedule is a persisted recurring-trigger definition bound to one job name.
// At most one schedule exists per job name; registration reconciles the
// stored row against the desired definition instead of creating duplicates.
type Schedule struct {
	gorm.Model
	JobName     string       `gorm:"uniqueIndex;not null"`
	Kind        ScheduleKind `gorm:"not null"`
	Minute      string
	Hour        string
	DayOfWeek   string
	DayOfMonth  string
	MonthOfYear string
	Timezone    string
	Every       int
	Period      SchedulePeriod
}

// CronExpression renders the cron-style fields as a five-field expression.
func (s *Schedule) CronExpression() string {
	return fmt.Sprintf("%s %s %s %s %s", s.Minute, s.Hour, s.DayOfMonth, s.MonthOfYear, s.DayOfWeek)
}

// Interval returns the duration of an interval-style schedule.
func (s *Schedule) Interval() time.Duration {
	d := time.Duration(s.Every) * time.Hour
	if s.Period == SchedulePeriodDays {
		d *= 24
	}
	return d
}

// DefinitionEquals reports whether two schedules describe the same trigger,
// ignoring record identity and timestamps.
func (s *Schedule) DefinitionEquals(other *Schedule) bool {
	if s.Kind != other.Kind {
		return false
	}
	switch s.Kind {
	case ScheduleKindCron:
		return s.Minute == other.Minute &&
			s.Hour == other.Hour &&
			s.DayOfWeek == other.DayOfWeek &&
			s.DayOfMonth == other.DayOfMonth &&
			s.MonthOfYear == other.MonthOfYear &&
			s.Timezone == other.Timezone
	case ScheduleKindInterval:
		return s.Every == other.Every && s.Period == other.Period
	}
	return false
}

// GetScheduleByJobName returns the schedule bound to the given job name.
func (c *Client) GetScheduleByJobName(ctx context.Context, jobName string) (*Schedule, error) {
	var schedule Schedule
	if err := c.db.WithContext(ctx).Where("job_name = ?", jobName).First(&schedule).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get schedule", "job", jobName, "error", err)
		}
		return nil, err
	}
	return &schedule, nil
}

// ReconcileSchedule ensures exactly one schedule row exists for the target's
// job name and matches the target definition. Missing rows are created,
// diverging rows are updated in place, matching rows are left untouched.
// The call is idempotent and returns the stored schedule.
func (c *Client) ReconcileSchedule(ctx context.Context, target *Schedule) (*Schedule, error) {
	existing, err := c.GetScheduleByJobName(ctx, target.JobName)
	if err == gorm.ErrRecordNotFound {
		if err := c.db.WithContext(ctx).Create(target).Error; err != nil {
			log.Error("failed to create schedule", "job", target.JobName, "error", err)
			return nil, err
		}
		log.Info("registered digest schedule", "job", target.JobName, "kind", target.Kind)
		return target, nil
	}
	if err != nil {
		return nil, err
	}

	if existing.DefinitionEquals(target) {
		return existing, nil
	}

	existing.Kind = target.Kind
	existing.Minute = target.Minute
	existing.Hour = target.Hour
	existing.DayOfWeek = target.DayOfWeek
	existing.DayOfMonth = target.DayOfMonth
	existing.MonthOfYear = target.MonthOfYear
	existing.Timezone = target.Timezone
	existing.Every = target.Every
	existing.Period = target.Period
	if err := c.db.WithContext(ctx).Save(existing).Error; err != nil {
		log.Error("failed to update schedule", "job", target.JobName, "error", err)
		return nil, err
	}
	log.Info("updated digest schedule", "job", target.JobName, "kind", target.Kind)
	return existing, nil
}
