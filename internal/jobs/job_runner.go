package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/config"
	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/lease"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/mailer"
	"tourbooking-backend/internal/metrics"
	"tourbooking-backend/internal/queue"
	"tourbooking-backend/internal/repository"
	"tourbooking-backend/internal/service"
	"tourbooking-backend/internal/weather"
)

// Job names double as lease keys, metric labels and -run-once arguments.
const (
	JobAdvanceTourStatuses   = "advance-tour-statuses"
	JobRefreshWeather        = "refresh-weather"
	JobSendTourReminders     = "send-tour-reminders"
	JobDispatchNotifications = "dispatch-notifications"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	repos    Repositories
	services *Services
	weather  weather.Provider
	mail     mailer.Transport
	renderer *mailer.Renderer
	events   queue.Publisher
	locker   lease.Locker
	clock    clock.Clock
	config   *config.Config
	tasks    map[string]TaskHandler
}

// Repositories holds the stores the sweeps read and write directly
type Repositories struct {
	Users     repository.UserRepository
	Tours     repository.TourRepository
	Bookings  repository.BookingRepository
	Snapshots repository.WeatherSnapshotRepository
	Outbox    repository.OutboxRepository
	EmailLogs repository.EmailLogRepository
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Notifications service.NotificationService
	Completion    service.CompletionService
}

// Integrations holds the outbound adapters
type Integrations struct {
	Weather  weather.Provider
	Mail     mailer.Transport
	Renderer *mailer.Renderer
	Events   queue.Publisher
}

// TaskHandler runs one outbox task row.
type TaskHandler func(ctx context.Context, payload map[string]any) error

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(
	repos Repositories,
	services *Services,
	integrations Integrations,
	locker lease.Locker,
	clk clock.Clock,
	cfg *config.Config,
) *JobRunner {
	events := integrations.Events
	if events == nil {
		events = queue.Noop{}
	}
	jr := &JobRunner{
		repos:    repos,
		services: services,
		weather:  integrations.Weather,
		mail:     integrations.Mail,
		renderer: integrations.Renderer,
		events:   events,
		locker:   locker,
		clock:    clk,
		config:   cfg,
		tasks:    make(map[string]TaskHandler),
	}
	jr.RegisterTask(domain.TaskTourCompletion, jr.handleTourCompletion)
	return jr
}

// Config exposes the configuration the scheduler reads cron specs from.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// RegisterTask binds an outbox task name to its handler.
func (jr *JobRunner) RegisterTask(name string, handler TaskHandler) {
	jr.tasks[name] = handler
}

func (jr *JobRunner) sweeps() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		JobAdvanceTourStatuses: func(ctx context.Context) error {
			_, err := jr.AdvanceTourStatuses(ctx)
			return err
		},
		JobRefreshWeather: func(ctx context.Context) error {
			_, err := jr.RefreshWeatherSnapshots(ctx)
			return err
		},
		JobSendTourReminders: func(ctx context.Context) error {
			_, err := jr.SendTourReminders(ctx)
			return err
		},
		JobDispatchNotifications: func(ctx context.Context) error {
			_, err := jr.DispatchNotifications(ctx)
			return err
		},
	}
}

// JobNames lists the runnable jobs in a stable order.
func (jr *JobRunner) JobNames() []string {
	names := make([]string, 0, 4)
	for name := range jr.sweeps() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one job under its lease. A run that finds the lease held by
// an overlapping run is skipped and reported as success.
func (jr *JobRunner) Run(ctx context.Context, name string) error {
	sweep, ok := jr.sweeps()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	started := time.Now()
	held, err := jr.locker.Acquire(ctx, name, jr.config.Scheduler.LeaseTTL)
	if errors.Is(err, lease.ErrHeld) {
		logger.Warn("Skipping job, previous run still active", "job", name)
		metrics.ObserveJob(name, "skipped", started)
		return nil
	}
	if err != nil {
		logger.Error("Failed to acquire job lease", "job", name, "error", err)
		metrics.ObserveJob(name, "error", started)
		return err
	}
	defer func() {
		if err := held.Release(context.Background()); err != nil {
			logger.Warn("Failed to release job lease", "job", name, "error", err)
		}
	}()

	outcome := "ok"
	err = jr.runWithRecovery(name, func() error { return sweep(ctx) })
	var p *panicError
	switch {
	case errors.As(err, &p):
		outcome = "panic"
	case err != nil:
		outcome = "error"
	}
	metrics.ObserveJob(name, outcome, started)
	return err
}

// RunAll runs every job once in order, continuing past failures.
func (jr *JobRunner) RunAll(ctx context.Context) error {
	var errs []error
	for _, name := range []string{
		JobAdvanceTourStatuses,
		JobRefreshWeather,
		JobSendTourReminders,
		JobDispatchNotifications,
	} {
		if err := jr.Run(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Cron entry points.

func (jr *JobRunner) RunAdvanceTourStatuses()   { _ = jr.Run(context.Background(), JobAdvanceTourStatuses) }
func (jr *JobRunner) RunRefreshWeather()        { _ = jr.Run(context.Background(), JobRefreshWeather) }
func (jr *JobRunner) RunSendTourReminders()     { _ = jr.Run(context.Background(), JobSendTourReminders) }
func (jr *JobRunner) RunDispatchNotifications() { _ = jr.Run(context.Background(), JobDispatchNotifications) }

type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
			err = &panicError{value: r}
		}
	}()

	log.Info("Starting job")
	if err = jobFunc(); err != nil {
		log.Error("Job failed", "error", err)
		return err
	}
	log.Info("Job completed")
	return nil
}
