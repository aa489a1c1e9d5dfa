package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bugboard/api/internal/config"
	"github.com/bugboard/api/internal/domain"
	"github.com/bugboard/api/internal/model"
	"github.com/bugboard/api/internal/notify"
	"github.com/bugboard/api/internal/store"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeNotifier captures enqueued jobs. accept=false simulates a saturated or
// failing dispatch queue.
type fakeNotifier struct {
	jobs   []notify.Job
	accept bool
}

func (f *fakeNotifier) Enqueue(job notify.Job) bool {
	f.jobs = append(f.jobs, job)
	return f.accept
}

func newTestService(t *testing.T, scope string) (*BugService, *store.BugStore, *fakeNotifier) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Bug{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	bugs := store.NewBugStore(db)
	notifier := &fakeNotifier{accept: true}
	svc := NewBugService(bugs, notifier, nil, scope)
	return svc, bugs, notifier
}

func submit(t *testing.T, svc *BugService, email, flair string) *model.Bug {
	t.Helper()
	bug, err := svc.Submit(context.Background(), store.CreateBugParams{
		ReporterUsername: "reporter",
		ReporterEmail:    email,
		Description:      "something broke",
		Flair:            flair,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return bug
}

func TestSetStatusMissingBugProducesNoDispatch(t *testing.T) {
	svc, _, notifier := newTestService(t, config.NotifyScopeGlobal)

	_, err := svc.SetStatus(context.Background(), 42, model.StatusInProgress)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(notifier.jobs) != 0 {
		t.Errorf("got %d jobs, want 0", len(notifier.jobs))
	}
}

func TestSetStatusPersistsAndNotifiesGlobalScope(t *testing.T) {
	svc, bugs, notifier := newTestService(t, config.NotifyScopeGlobal)
	ctx := context.Background()

	target := submit(t, svc, "a@example.com", "UI")
	submit(t, svc, "B@Example.com", "Backend")
	submit(t, svc, "a@example.com", "Crash")

	updated, err := svc.SetStatus(ctx, target.ID, model.StatusInProgress)
	if err != nil {
		t.Fatalf("setStatus: %v", err)
	}
	if updated.Status != model.StatusInProgress {
		t.Errorf("status = %q, want %q", updated.Status, model.StatusInProgress)
	}

	got, err := bugs.Get(ctx, target.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusInProgress {
		t.Errorf("persisted status = %q", got.Status)
	}

	if len(notifier.jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(notifier.jobs))
	}
	job := notifier.jobs[0]
	if job.Event != model.EventStatusChanged {
		t.Errorf("event = %q, want %q", job.Event, model.EventStatusChanged)
	}
	if job.BugID != target.ID {
		t.Errorf("bugID = %d, want %d", job.BugID, target.ID)
	}

	// Global scope: distinct, normalized emails across the whole table
	want := []string{"a@example.com", "b@example.com"}
	if len(job.Recipients) != len(want) {
		t.Fatalf("recipients = %v, want %v", job.Recipients, want)
	}
	for i := range want {
		if job.Recipients[i] != want[i] {
			t.Errorf("recipients[%d] = %q, want %q", i, job.Recipients[i], want[i])
		}
	}
}

func TestSetStatusBugScope(t *testing.T) {
	svc, _, notifier := newTestService(t, config.NotifyScopeBug)
	ctx := context.Background()

	target := submit(t, svc, "a@example.com", "UI")
	submit(t, svc, "b@example.com", "Backend")

	if _, err := svc.SetStatus(ctx, target.ID, model.StatusInProgress); err != nil {
		t.Fatalf("setStatus: %v", err)
	}

	if len(notifier.jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(notifier.jobs))
	}
	job := notifier.jobs[0]
	if len(job.Recipients) != 1 || job.Recipients[0] != "a@example.com" {
		t.Errorf("recipients = %v, want [a@example.com]", job.Recipients)
	}
}

func TestSetStatusSucceedsWhenDispatchIsRejected(t *testing.T) {
	svc, bugs, notifier := newTestService(t, config.NotifyScopeGlobal)
	notifier.accept = false
	ctx := context.Background()

	target := submit(t, svc, "a@example.com", "")

	if _, err := svc.SetStatus(ctx, target.ID, "Blocked"); err != nil {
		t.Fatalf("setStatus: %v", err)
	}

	got, err := bugs.Get(ctx, target.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "Blocked" {
		t.Errorf("status = %q, want Blocked despite dispatch rejection", got.Status)
	}
}

func TestSetStatusValidationLeavesBugUntouched(t *testing.T) {
	svc, bugs, notifier := newTestService(t, config.NotifyScopeGlobal)
	ctx := context.Background()

	target := submit(t, svc, "a@example.com", "")

	if _, err := svc.SetStatus(ctx, target.ID, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(notifier.jobs) != 0 {
		t.Errorf("got %d jobs, want 0", len(notifier.jobs))
	}

	got, err := bugs.Get(ctx, target.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusOpen {
		t.Errorf("status = %q, want unchanged %q", got.Status, model.StatusOpen)
	}
}

func TestCloseDeletesAndNotifiesFromPreDeleteSnapshot(t *testing.T) {
	svc, bugs, notifier := newTestService(t, config.NotifyScopeGlobal)
	ctx := context.Background()

	target := submit(t, svc, "closer@example.com", "UI")
	submit(t, svc, "other@example.com", "UI")

	if err := svc.Close(ctx, target.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := bugs.Get(ctx, target.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after close err = %v, want ErrNotFound", err)
	}

	if len(notifier.jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(notifier.jobs))
	}
	job := notifier.jobs[0]
	if job.Event != model.EventBugClosed {
		t.Errorf("event = %q, want %q", job.Event, model.EventBugClosed)
	}

	// The snapshot was taken before the delete, so the closed bug's own
	// reporter is still in the recipient set.
	found := false
	for _, r := range job.Recipients {
		if r == "closer@example.com" {
			found = true
		}
	}
	if !found {
		t.Errorf("recipients %v do not include the closed bug's reporter", job.Recipients)
	}
}

func TestCloseMissingBug(t *testing.T) {
	svc, _, notifier := newTestService(t, config.NotifyScopeGlobal)

	if err := svc.Close(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(notifier.jobs) != 0 {
		t.Errorf("got %d jobs, want 0", len(notifier.jobs))
	}
}

func TestCategoryCountsWithoutCache(t *testing.T) {
	svc, _, _ := newTestService(t, config.NotifyScopeGlobal)
	ctx := context.Background()

	for _, flair := range []string{"A", "A", "B", ""} {
		submit(t, svc, "a@example.com", flair)
	}

	counts, err := svc.CategoryCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}

	want := map[string]int64{"A": 2, "B": 1, "": 1}
	for flair, n := range want {
		if counts[flair] != n {
			t.Errorf("counts[%q] = %d, want %d", flair, counts[flair], n)
		}
	}
}

// failingTransport simulates a mail host that rejects every delivery.
type failingTransport struct{}

func (failingTransport) Send(ctx context.Context, to, subject, body string) error {
	return errors.New("smtp down")
}

// syncNotifier runs the real dispatcher inline instead of queueing.
type syncNotifier struct {
	d *notify.Dispatcher
}

func (s syncNotifier) Enqueue(job notify.Job) bool {
	for _, o := range s.d.Dispatch(context.Background(), job) {
		if o.Delivered {
			return true
		}
	}
	return false
}

func TestSetStatusPersistsWhenEveryDeliveryFails(t *testing.T) {
	svc, bugs, _ := newTestService(t, config.NotifyScopeGlobal)
	svc.notifier = syncNotifier{d: notify.NewDispatcher(failingTransport{}, nil, time.Second)}
	ctx := context.Background()

	target := submit(t, svc, "a@example.com", "UI")

	if _, err := svc.SetStatus(ctx, target.ID, model.StatusInProgress); err != nil {
		t.Fatalf("setStatus: %v", err)
	}

	got, err := bugs.Get(ctx, target.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusInProgress {
		t.Errorf("status = %q, want %q despite total delivery failure", got.Status, model.StatusInProgress)
	}
}

func TestSubmitWithoutNotifier(t *testing.T) {
	svc, _, _ := newTestService(t, config.NotifyScopeGlobal)
	svc.notifier = nil

	bug := submit(t, svc, "a@example.com", "UI")

	// Transitions still work with no notifier wired
	if _, err := svc.SetStatus(context.Background(), bug.ID, model.StatusClosed); err != nil {
		t.Fatalf("setStatus: %v", err)
	}
}
