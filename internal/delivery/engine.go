package delivery

import (
	"context"
	"fmt"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/robfig/cron/v3"

	"github.com/pathakanu/medMinder/internal/config"
	"github.com/pathakanu/medMinder/internal/model"
	"github.com/pathakanu/medMinder/internal/storage"
)

// Notifier sends one message to one recipient.
type Notifier interface {
	Send(ctx context.Context, recipient, text string) error
}

// Engine scans active reminders on a fixed interval and sends the ones due
// right now in each owner's local timezone. Matching is by wall-clock minute,
// so the scan interval must not exceed one minute or due reminders are
// skipped over.
type Engine struct {
	store    *storage.Store
	notifier Notifier
	logger   *log.Logger

	interval  time.Duration
	window    time.Duration
	timeout   time.Duration
	defaultTZ string
	localTZ   *time.Location

	cron  *cron.Cron
	zones *lru.Cache[string, *time.Location]

	// now is swappable in tests.
	now func() time.Time
}

func New(cfg *config.Config, store *storage.Store, notifier Notifier, logger *log.Logger) *Engine {
	zones, _ := lru.New[string, *time.Location](64)
	return &Engine{
		store:     store,
		notifier:  notifier,
		logger:    logger,
		interval:  cfg.TickInterval,
		window:    cfg.DedupWindow,
		timeout:   cfg.NotifyTimeout,
		defaultTZ: cfg.DefaultTimezone,
		localTZ:   cfg.LocalTimezone,
		zones:     zones,
		now:       time.Now,
	}
}

// Start schedules the periodic scan. A pass that overruns the interval is
// skipped rather than run concurrently.
func (e *Engine) Start() error {
	loc := e.localTZ
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(e.logger))),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", e.interval), func() {
		e.Tick(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule reminder scan: %w", err)
	}
	c.Start()
	e.cron = c
	e.logger.Printf("delivery: scanning every %s, dedup window %s", e.interval, e.window)
	return nil
}

// Stop halts the scheduler and waits for an in-flight pass to finish.
func (e *Engine) Stop() {
	if e.cron == nil {
		return
	}
	<-e.cron.Stop().Done()
	e.logger.Printf("delivery: scheduler stopped")
}

// Tick runs one scan over all active reminders. Failures are per-reminder:
// one bad timezone or refused send never blocks the rest of the pass.
func (e *Engine) Tick(ctx context.Context) {
	ref := e.now()
	for _, r := range e.store.ActiveReminders() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		e.process(ctx, ref, r)
	}
}

func (e *Engine) process(ctx context.Context, ref time.Time, r model.ActiveReminder) {
	zone := r.Timezone
	if zone == "" {
		// Rows predating the timezone column.
		zone = e.defaultTZ
	}
	loc, err := e.location(zone)
	if err != nil {
		e.logger.Printf("delivery: reminder %d: unresolvable timezone %q: %v", r.ReminderID, zone, err)
		return
	}
	if ref.In(loc).Format("15:04") != r.TimeOfDay {
		return
	}
	// Deliveries inside the dedup window mean this minute was already
	// handled by an earlier pass.
	if len(e.store.RecentDeliveries(r.ReminderID, e.window)) > 0 {
		return
	}

	text := fmt.Sprintf("%s - time to take %s (%s)", r.TimeOfDay, r.MedicineName, r.Dosage)
	sendCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.notifier.Send(sendCtx, r.UserID, text); err != nil {
		e.logger.Printf("delivery: reminder %d to %s: %v", r.ReminderID, r.UserID, err)
		return
	}
	if !e.store.RecordDelivery(r.ReminderID) {
		e.logger.Printf("delivery: reminder %d sent but not recorded, may repeat next pass", r.ReminderID)
		return
	}
	e.logger.Printf("delivery: reminder %d sent to %s (%s %s)", r.ReminderID, r.UserID, r.TimeOfDay, r.MedicineName)
}

// location resolves an IANA zone with a small cache in front of the tzdata
// lookup, since every pass re-reads the same handful of zones.
func (e *Engine) location(name string) (*time.Location, error) {
	if loc, ok := e.zones.Get(name); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	e.zones.Add(name, loc)
	return loc, nil
}
