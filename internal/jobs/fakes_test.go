package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/config"
	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/lease"
	"tourbooking-backend/internal/mailer"
	"tourbooking-backend/internal/queue"
	"tourbooking-backend/internal/service"
)

var testNow = time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Weather: config.WeatherConfig{Timeout: 5 * time.Second},
		Dispatch: config.DispatchConfig{
			BatchSize:         10,
			Workers:           2,
			MaxAttempts:       5,
			VisibilityTimeout: 5 * time.Minute,
		},
		Scheduler: config.SchedulerConfig{LeaseTTL: time.Minute},
	}
}

type harness struct {
	clock     *clock.Mock
	tours     *fakeTours
	bookings  *fakeBookings
	snapshots *fakeSnapshots
	outbox    *memOutbox
	emailLogs *fakeEmailLogs
	users     *fakeUsers
	provider  *fakeProvider
	transport *fakeTransport
	complete  *fakeCompletion
	events    *recordingPublisher
	locker    lease.Locker
	runner    *JobRunner
}

func newHarness() *harness {
	h := &harness{
		clock:     clock.NewMock(testNow),
		tours:     &fakeTours{tours: map[int64]*domain.Tour{}},
		bookings:  &fakeBookings{},
		snapshots: &fakeSnapshots{rows: map[string]*domain.WeatherSnapshot{}},
		outbox:    &memOutbox{},
		emailLogs: &fakeEmailLogs{},
		users: &fakeUsers{users: map[int64]*domain.User{
			7: {ID: 7, Email: "guide@example.com", Name: "Gina", Role: domain.UserRoleGuide},
		}},
		provider:  &fakeProvider{},
		transport: &fakeTransport{},
		complete:  &fakeCompletion{},
		events:    &recordingPublisher{},
		locker:    lease.NewLocalLocker(),
	}
	renderer, err := mailer.NewRenderer()
	if err != nil {
		panic(err)
	}
	h.runner = NewJobRunner(
		Repositories{
			Users:     h.users,
			Tours:     h.tours,
			Bookings:  h.bookings,
			Snapshots: h.snapshots,
			Outbox:    h.outbox,
			EmailLogs: h.emailLogs,
		},
		&Services{
			Notifications: service.NewNotificationService(h.outbox, h.clock),
			Completion:    h.complete,
		},
		Integrations{
			Weather:  h.provider,
			Mail:     h.transport,
			Renderer: renderer,
			Events:   h.events,
		},
		h.locker,
		h.clock,
		testConfig(),
	)
	return h
}

func floatPtr(v float64) *float64 { return &v }

// fakeTours applies the same predicates as the SQL sweeps.
type fakeTours struct {
	mu        sync.Mutex
	tours     map[int64]*domain.Tour
	finishErr error
	panicOn   bool
}

func (f *fakeTours) add(t *domain.Tour) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tours[t.ID] = t
}

func (f *fakeTours) status(id int64) domain.TourStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tours[id].Status
}

func (f *fakeTours) Create(context.Context, *domain.Tour) error { return nil }

func (f *fakeTours) GetByID(_ context.Context, id int64) (*domain.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tours[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTours) Update(context.Context, *domain.Tour) error { return nil }

func (f *fakeTours) Cancel(context.Context, int64, time.Time) (bool, error) { return false, nil }

func (f *fakeTours) StartDue(_ context.Context, now time.Time) ([]int64, error) {
	if f.panicOn {
		panic("tour store exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, t := range f.tours {
		if t.Status == domain.TourStatusScheduled && !t.StartsAt.After(now) {
			t.Status = domain.TourStatusOngoing
			ids = append(ids, t.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeTours) FinishDue(_ context.Context, now time.Time) ([]int64, error) {
	if f.finishErr != nil {
		return nil, f.finishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, t := range f.tours {
		if t.Status == domain.TourStatusOngoing && t.EndsAt.Before(now) {
			t.Status = domain.TourStatusDone
			ids = append(ids, t.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeTours) ListForWeather(_ context.Context, horizon time.Time) ([]domain.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Tour
	for _, t := range f.tours {
		if t.Status.IsTerminal() || t.StartsAt.After(horizon) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeBookings struct {
	reminders []domain.BookingReminder
}

func (f *fakeBookings) CreateWithinCapacity(context.Context, *domain.Booking) error { return nil }
func (f *fakeBookings) GetByID(context.Context, int64) (*domain.Booking, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeBookings) Cancel(context.Context, int64, time.Time) (bool, error)  { return false, nil }
func (f *fakeBookings) Confirm(context.Context, int64, time.Time) (bool, error) { return false, nil }
func (f *fakeBookings) ListActiveByTour(context.Context, int64) ([]domain.Booking, error) {
	return nil, nil
}
func (f *fakeBookings) ListConfirmedByTour(context.Context, int64) ([]domain.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) ListConfirmedStartingBetween(_ context.Context, from, to time.Time) ([]domain.BookingReminder, error) {
	var out []domain.BookingReminder
	for _, r := range f.reminders {
		if !r.StartsAt.Before(from) && r.StartsAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSnapshots struct {
	mu   sync.Mutex
	rows map[string]*domain.WeatherSnapshot
	next int64
}

func snapshotKey(tourID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", tourID, date.Format("2006-01-02"))
}

func (f *fakeSnapshots) Get(_ context.Context, tourID int64, date time.Time) (*domain.WeatherSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[snapshotKey(tourID, date)]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSnapshots) Upsert(_ context.Context, s *domain.WeatherSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := snapshotKey(s.TourID, s.ForecastDate)
	if existing, ok := f.rows[key]; ok {
		s.ID = existing.ID
	} else {
		f.next++
		s.ID = f.next
	}
	cp := *s
	f.rows[key] = &cp
	return nil
}

func (f *fakeSnapshots) ListByTour(context.Context, int64) ([]domain.WeatherSnapshot, error) {
	return nil, nil
}

// memOutbox mimics the unique idempotency key and the claim visibility.
type memOutbox struct {
	mu         sync.Mutex
	messages   []*domain.OutboxMessage
	enqueueErr error
}

func (o *memOutbox) Enqueue(_ context.Context, msg *domain.OutboxMessage) (bool, error) {
	if o.enqueueErr != nil {
		return false, o.enqueueErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.messages {
		if m.IdempotencyKey == msg.IdempotencyKey {
			return false, nil
		}
	}
	cp := *msg
	cp.ID = int64(len(o.messages) + 1)
	cp.Status = domain.OutboxStatusPending
	o.messages = append(o.messages, &cp)
	msg.ID = cp.ID
	return true, nil
}

func (o *memOutbox) ClaimDue(_ context.Context, now time.Time, limit int, visibility time.Duration) ([]domain.OutboxMessage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []domain.OutboxMessage
	for _, m := range o.messages {
		if len(out) == limit {
			break
		}
		if m.Status != domain.OutboxStatusPending || m.AvailableAt.After(now) {
			continue
		}
		m.Status = domain.OutboxStatusProcessing
		m.AvailableAt = now.Add(visibility)
		out = append(out, *m)
	}
	return out, nil
}

func (o *memOutbox) MarkDelivered(_ context.Context, id int64, now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := o.messages[id-1]
	m.Status = domain.OutboxStatusDelivered
	m.DeliveredAt = &now
	return nil
}

func (o *memOutbox) MarkFailed(_ context.Context, id int64, attempts int, lastErr string, retryAt *time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := o.messages[id-1]
	m.Attempts = attempts
	m.LastError = lastErr
	if retryAt == nil {
		m.Status = domain.OutboxStatusFailed
		return nil
	}
	m.Status = domain.OutboxStatusPending
	m.AvailableAt = *retryAt
	return nil
}

func (o *memOutbox) byKey(key string) *domain.OutboxMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.messages {
		if m.IdempotencyKey == key {
			cp := *m
			return &cp
		}
	}
	return nil
}

func (o *memOutbox) count(template string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, m := range o.messages {
		if m.Template == template {
			n++
		}
	}
	return n
}

// put stores a message as-is, bypassing key dedup.
func (o *memOutbox) put(msg domain.OutboxMessage) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	msg.ID = int64(len(o.messages) + 1)
	o.messages = append(o.messages, &msg)
	return msg.ID
}

type fakeEmailLogs struct {
	mu      sync.Mutex
	entries []domain.EmailLog
}

func (f *fakeEmailLogs) Create(_ context.Context, entry *domain.EmailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeEmailLogs) ListByRecipient(context.Context, string, int) ([]domain.EmailLog, error) {
	return nil, nil
}

type fakeUsers struct {
	users map[int64]*domain.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// fakeProvider answers per tour latitude so tests can mix outcomes.
type fakeProvider struct {
	mu        sync.Mutex
	forecasts map[float64][]domain.DailyForecast
	errs      map[float64]error
	calls     int
}

func (p *fakeProvider) set(lat float64, forecasts ...domain.DailyForecast) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.forecasts == nil {
		p.forecasts = map[float64][]domain.DailyForecast{}
	}
	p.forecasts[lat] = forecasts
}

func (p *fakeProvider) fail(lat float64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errs == nil {
		p.errs = map[float64]error{}
	}
	p.errs[lat] = err
}

func (p *fakeProvider) DailyForecast(ctx context.Context, lat, _ float64) ([]domain.DailyForecast, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("forecast call without deadline")
	}
	if err := p.errs[lat]; err != nil {
		return nil, err
	}
	return p.forecasts[lat], nil
}

type fakeTransport struct {
	mu     sync.Mutex
	sent   []mailer.Message
	err    error
	panics bool
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Send(_ context.Context, msg mailer.Message) (domain.DeliveryStatus, error) {
	if t.panics {
		panic("transport exploded")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return domain.DeliveryStatusFailed, t.err
	}
	t.sent = append(t.sent, msg)
	return domain.DeliveryStatusSent, nil
}

type fakeCompletion struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (f *fakeCompletion) CompleteTour(_ context.Context, tourID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, tourID)
	return f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(eventType string) []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []queue.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
