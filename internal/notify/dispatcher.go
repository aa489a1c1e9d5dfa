package notify

import (
	"context"
	"time"

	"github.com/bugboard/api/internal/middleware"
	"github.com/bugboard/api/internal/model"
	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Job is one notification fan-out request: a lifecycle event on a bug plus
// the recipient snapshot computed before the store was mutated.
type Job struct {
	BugID      int64
	Event      string
	Status     string
	Recipients []string
	Subject    string
	Body       string
}

// Dispatcher attempts delivery once per recipient. Each recipient is attempted
// independently: one failure never prevents attempts to the others, and no
// failure is ever propagated back to the lifecycle operation that triggered
// the job.
type Dispatcher struct {
	transport Transport
	db        *gorm.DB
	timeout   time.Duration
}

// NewDispatcher builds a dispatcher. db may be nil, in which case outcomes are
// logged but not recorded.
func NewDispatcher(transport Transport, db *gorm.DB, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{transport: transport, db: db, timeout: timeout}
}

// Dispatch runs the fan-out and returns the per-recipient outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) []model.DispatchOutcome {
	outcomes := make([]model.DispatchOutcome, 0, len(job.Recipients))

	for _, recipient := range job.Recipients {
		start := time.Now()

		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.transport.Send(sendCtx, recipient, job.Subject, job.Body)
		cancel()

		elapsed := time.Since(start)
		outcome := model.DispatchOutcome{
			Recipient: recipient,
			Delivered: err == nil,
			ElapsedMs: elapsed.Milliseconds(),
		}
		if err != nil {
			outcome.Error = err.Error()
			log.
				WithField("bug_id", job.BugID).
				WithField("event", job.Event).
				WithField("recipient", recipient).
				Errorf("notify: delivery failed: %v", err)
		}

		middleware.RecordNotification(err == nil, elapsed)
		outcomes = append(outcomes, outcome)
	}

	delivered := lo.CountBy(outcomes, func(o model.DispatchOutcome) bool { return o.Delivered })
	log.
		WithField("bug_id", job.BugID).
		WithField("event", job.Event).
		Infof("notify: dispatched to %d/%d recipients", delivered, len(outcomes))

	d.record(ctx, job, outcomes)
	return outcomes
}

// record persists the dispatch log entry. Best-effort like delivery itself: a
// failed insert is logged, never surfaced.
func (d *Dispatcher) record(ctx context.Context, job Job, outcomes []model.DispatchOutcome) {
	if d.db == nil {
		return
	}

	rec := model.DispatchRecord{
		ID:         uuid.NewString(),
		BugID:      job.BugID,
		Event:      job.Event,
		Status:     job.Status,
		Subject:    job.Subject,
		Recipients: model.Recipients(job.Recipients),
		Outcomes:   model.DispatchOutcomes(outcomes),
		CreatedAt:  time.Now(),
	}
	if err := d.db.WithContext(ctx).Create(&rec).Error; err != nil {
		log.WithField("bug_id", job.BugID).Errorf("notify: failed to record dispatch: %v", err)
	}
}
