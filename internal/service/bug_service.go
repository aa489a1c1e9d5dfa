package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bugboard/api/internal/cache"
	"github.com/bugboard/api/internal/config"
	"github.com/bugboard/api/internal/model"
	"github.com/bugboard/api/internal/notify"
	"github.com/bugboard/api/internal/store"
	set "github.com/deckarep/golang-set/v2"
	log "github.com/sirupsen/logrus"
)

// Notifier accepts a fan-out job for background delivery. Enqueue must not
// block; a false return means the job was dropped.
type Notifier interface {
	Enqueue(job notify.Job) bool
}

// BugService is the only component that mutates bug status or deletes a bug.
// It persists first and notifies after: delivery failure never rolls back or
// fails a state transition.
type BugService struct {
	bugs     *store.BugStore
	notifier Notifier
	cache    *cache.RedisCache
	scope    string
}

// NewBugService wires the lifecycle service. notifier and redisCache may be
// nil; both degrade to no-ops.
func NewBugService(bugs *store.BugStore, notifier Notifier, redisCache *cache.RedisCache, scope string) *BugService {
	if scope != config.NotifyScopeBug {
		scope = config.NotifyScopeGlobal
	}
	return &BugService{
		bugs:     bugs,
		notifier: notifier,
		cache:    redisCache,
		scope:    scope,
	}
}

func (s *BugService) Submit(ctx context.Context, p store.CreateBugParams) (*model.Bug, error) {
	bug, err := s.bugs.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	s.invalidateCounts(ctx)
	return bug, nil
}

func (s *BugService) Get(ctx context.Context, id int64) (*model.Bug, error) {
	return s.bugs.Get(ctx, id)
}

func (s *BugService) List(ctx context.Context) ([]model.Bug, error) {
	return s.bugs.List(ctx)
}

// SetStatus transitions a bug to a new status. The recipient snapshot is
// taken before the mutation; persistence happens before dispatch, so the
// status change survives any delivery outcome.
func (s *BugService) SetStatus(ctx context.Context, id int64, status string) (*model.Bug, error) {
	if _, err := s.bugs.Get(ctx, id); err != nil {
		return nil, err
	}

	recipients, err := s.recipients(ctx, id)
	if err != nil {
		return nil, err
	}

	bug, err := s.bugs.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.invalidateCounts(ctx)

	s.enqueue(notify.Job{
		BugID:      id,
		Event:      model.EventStatusChanged,
		Status:     bug.Status,
		Recipients: recipients,
		Subject:    fmt.Sprintf("Bug #%d status changed", id),
		Body:       fmt.Sprintf("Bug #%d has been moved to status %q.", id, bug.Status),
	})

	return bug, nil
}

// Close removes the bug. Order is snapshot, delete, notify: a crash in the
// middle can only lose a notification, never report a live bug as closed.
func (s *BugService) Close(ctx context.Context, id int64) error {
	if _, err := s.bugs.Get(ctx, id); err != nil {
		return err
	}

	recipients, err := s.recipients(ctx, id)
	if err != nil {
		return err
	}

	if err := s.bugs.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateCounts(ctx)

	s.enqueue(notify.Job{
		BugID:      id,
		Event:      model.EventBugClosed,
		Status:     model.StatusClosed,
		Recipients: recipients,
		Subject:    fmt.Sprintf("Bug #%d closed", id),
		Body:       fmt.Sprintf("Bug #%d has been closed.", id),
	})

	return nil
}

// CategoryCounts returns the per-flair report counts, served from the redis
// snapshot when present.
func (s *BugService) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cache.CategoryCountsKey); err == nil {
			var counts map[string]int64
			if json.Unmarshal(raw, &counts) == nil {
				return counts, nil
			}
		}
	}

	counts, err := s.bugs.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(counts); err == nil {
			if err := s.cache.Set(ctx, cache.CategoryCountsKey, raw); err != nil {
				log.Warnf("stats: failed to cache category counts: %v", err)
			}
		}
	}

	return counts, nil
}

// recipients computes the distinct reporter email snapshot for a lifecycle
// event on the given bug, normalized and sorted for deterministic fan-out.
func (s *BugService) recipients(ctx context.Context, bugID int64) ([]string, error) {
	scopeID := int64(0)
	if s.scope == config.NotifyScopeBug {
		scopeID = bugID
	}

	emails, err := s.bugs.DistinctReporterEmails(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	unique := set.NewSet[string]()
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			unique.Add(email)
		}
	}

	out := unique.ToSlice()
	sort.Strings(out)
	return out, nil
}

func (s *BugService) enqueue(job notify.Job) {
	if s.notifier == nil || len(job.Recipients) == 0 {
		return
	}
	s.notifier.Enqueue(job)
}

func (s *BugService) invalidateCounts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.CategoryCountsKey); err != nil {
		log.Warnf("stats: failed to invalidate category counts: %v", err)
	}
}
