package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pathakanu/medMinder/internal/config"
	"github.com/pathakanu/medMinder/internal/model"
	"github.com/pathakanu/medMinder/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sentMessage struct {
	recipient string
	text      string
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentMessage
}

func (f *fakeNotifier) Send(ctx context.Context, recipient, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{recipient: recipient, text: text})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func newTestEngine(t *testing.T) (*Engine, *storage.Store, *fakeNotifier) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Medicine{}, &model.Reminder{}, &model.DeliveryLog{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	store := storage.New(db, logger)
	notifier := &fakeNotifier{}
	cfg := &config.Config{
		TickInterval:    time.Minute,
		DedupWindow:     2 * time.Minute,
		NotifyTimeout:   5 * time.Second,
		DefaultTimezone: "Europe/Kyiv",
		LocalTimezone:   time.UTC,
	}
	return New(cfg, store, notifier, logger), store, notifier
}

func seedReminder(t *testing.T, store *storage.Store, userID, tz, name, at, dosage string) {
	t.Helper()
	if !store.UpsertUser(userID, "tester", tz) {
		t.Fatalf("seed user %s", userID)
	}
	if _, ok := store.AddMedicineWithReminder(userID, name, at, dosage); !ok {
		t.Fatalf("seed medicine %s", name)
	}
}

// kyivMorning is 08:30 in Kyiv: 06:30 UTC during winter time.
var kyivMorning = time.Date(2025, time.January, 15, 6, 30, 0, 0, time.UTC)

func TestTickDeliversDueReminderOnce(t *testing.T) {
	t.Parallel()
	e, store, notifier := newTestEngine(t)
	seedReminder(t, store, "380501112233", "Europe/Kyiv", "Aspirin", "08:30", "1 таблетка")

	e.now = func() time.Time { return kyivMorning }
	e.Tick(context.Background())

	if notifier.count() != 1 {
		t.Fatalf("expected one delivery, got %d", notifier.count())
	}
	msg := notifier.last()
	if msg.recipient != "380501112233" {
		t.Fatalf("delivered to %s", msg.recipient)
	}
	if want := "08:30 - time to take Aspirin (1 таблетка)"; msg.text != want {
		t.Fatalf("message = %q, want %q", msg.text, want)
	}
	reminderID := store.ActiveReminders()[0].ReminderID
	if got := len(store.RecentDeliveries(reminderID, 2*time.Minute)); got != 1 {
		t.Fatalf("expected one delivery log, got %d", got)
	}

	// A scan 30 seconds later hits the same minute; the dedup window must
	// swallow it.
	e.now = func() time.Time { return kyivMorning.Add(30 * time.Second) }
	e.Tick(context.Background())
	if notifier.count() != 1 {
		t.Fatalf("duplicate delivery within the same minute: %d", notifier.count())
	}

	// Three minutes later the wall clock no longer matches at all.
	e.now = func() time.Time { return kyivMorning.Add(3 * time.Minute) }
	e.Tick(context.Background())
	if notifier.count() != 1 {
		t.Fatalf("delivery outside the matching minute: %d", notifier.count())
	}
}

func TestTickIgnoresOtherMinutes(t *testing.T) {
	t.Parallel()
	e, store, notifier := newTestEngine(t)
	seedReminder(t, store, "380501112233", "Europe/Kyiv", "Aspirin", "08:30", "1 tablet")

	e.now = func() time.Time { return kyivMorning.Add(-time.Minute) }
	e.Tick(context.Background())
	if notifier.count() != 0 {
		t.Fatalf("delivered at 08:29: %d", notifier.count())
	}
}

func TestTickMatchesInOwnerTimezone(t *testing.T) {
	t.Parallel()
	e, store, notifier := newTestEngine(t)
	// 06:30 UTC is 08:30 in Kyiv but 22:30 of the previous day in Seattle.
	seedReminder(t, store, "kyiv-user", "Europe/Kyiv", "Aspirin", "08:30", "1 tablet")
	seedReminder(t, store, "seattle-user", "America/Los_Angeles", "Vitamin D", "08:30", "2 drops")

	e.now = func() time.Time { return kyivMorning }
	e.Tick(context.Background())

	if notifier.count() != 1 {
		t.Fatalf("expected only the Kyiv reminder, got %d deliveries", notifier.count())
	}
	if msg := notifier.last(); msg.recipient != "kyiv-user" {
		t.Fatalf("wrong recipient: %s", msg.recipient)
	}
}

func TestNotifierFailureLeavesNoRecord(t *testing.T) {
	t.Parallel()
	e, store, notifier := newTestEngine(t)
	seedReminder(t, store, "380501112233", "Europe/Kyiv", "Aspirin", "08:30", "1 tablet")

	notifier.err = errors.New("gateway unavailable")
	e.now = func() time.Time { return kyivMorning }
	e.Tick(context.Background())

	reminderID := store.ActiveReminders()[0].ReminderID
	if got := len(store.RecentDeliveries(reminderID, time.Hour)); got != 0 {
		t.Fatalf("failed send was recorded: %d logs", got)
	}

	// The next pass inside the same minute retries.
	notifier.err = nil
	e.Tick(context.Background())
	if notifier.count() != 1 {
		t.Fatalf("no retry after failure: %d deliveries", notifier.count())
	}
	if got := len(store.RecentDeliveries(reminderID, time.Hour)); got != 1 {
		t.Fatalf("retry not recorded: %d logs", got)
	}
}

func TestUnresolvableTimezoneSkipsOnlyThatReminder(t *testing.T) {
	t.Parallel()
	e, store, notifier := newTestEngine(t)
	seedReminder(t, store, "broken-user", "Mars/Olympus", "Aspirin", "08:30", "1 tablet")
	seedReminder(t, store, "kyiv-user", "Europe/Kyiv", "Vitamin D", "08:30", "2 drops")

	e.now = func() time.Time { return kyivMorning }
	e.Tick(context.Background())

	if notifier.count() != 1 {
		t.Fatalf("expected one delivery, got %d", notifier.count())
	}
	if msg := notifier.last(); msg.recipient != "kyiv-user" {
		t.Fatalf("wrong recipient survived the bad timezone: %s", msg.recipient)
	}
}

func TestEmptyTimezoneUsesDefault(t *testing.T) {
	t.Parallel()
	e, store, notifier := newTestEngine(t)
	seedReminder(t, store, "380501112233", "Europe/Kyiv", "Aspirin", "08:30", "1 tablet")

	r := store.ActiveReminders()[0]
	r.Timezone = ""
	e.process(context.Background(), kyivMorning, r)

	if notifier.count() != 1 {
		t.Fatalf("default timezone not applied: %d deliveries", notifier.count())
	}
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t)

	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Stop()
}
