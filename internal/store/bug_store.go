package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bugboard/api/internal/domain"
	"github.com/bugboard/api/internal/model"
	"gorm.io/gorm"
)

// BugStore is the persistence layer for bug reports. All status mutation and
// deletion goes through the lifecycle service; nothing else writes here.
type BugStore struct {
	db *gorm.DB
}

func NewBugStore(db *gorm.DB) *BugStore {
	return &BugStore{db: db}
}

type CreateBugParams struct {
	ReporterUsername string
	ReporterEmail    string
	Description      string
	Flair            string
}

// Create inserts a new report with status "Open" and the submission timestamp.
// Reporter fields are caller-supplied and deliberately not checked against the
// user table: the report carries a denormalized author record.
func (s *BugStore) Create(ctx context.Context, p CreateBugParams) (*model.Bug, error) {
	if strings.TrimSpace(p.ReporterUsername) == "" {
		return nil, domain.Validationf("reporter username is required")
	}
	if strings.TrimSpace(p.ReporterEmail) == "" {
		return nil, domain.Validationf("reporter email is required")
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return nil, domain.Validationf("description is required")
	}
	if len(desc) > model.MaxDescriptionLen {
		return nil, domain.Validationf("description exceeds %d characters", model.MaxDescriptionLen)
	}
	if len(p.Flair) > model.MaxFlairLen {
		return nil, domain.Validationf("flair exceeds %d characters", model.MaxFlairLen)
	}

	bug := model.Bug{
		ReporterUsername: p.ReporterUsername,
		ReporterEmail:    p.ReporterEmail,
		Description:      desc,
		Flair:            p.Flair,
		Status:           model.StatusOpen,
		SubmittedAt:      time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&bug).Error; err != nil {
		return nil, domain.Storagef("create bug", err)
	}

	return &bug, nil
}

func (s *BugStore) Get(ctx context.Context, id int64) (*model.Bug, error) {
	var bug model.Bug
	err := s.db.WithContext(ctx).First(&bug, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storagef("get bug", err)
	}
	return &bug, nil
}

// List returns all reports in insertion order.
func (s *BugStore) List(ctx context.Context) ([]model.Bug, error) {
	var bugs []model.Bug
	if err := s.db.WithContext(ctx).Order("id").Find(&bugs).Error; err != nil {
		return nil, domain.Storagef("list bugs", err)
	}
	return bugs, nil
}

// UpdateStatus mutates the status in place. Concurrent callers race
// last-write-wins on the single row; that is accepted for this tool.
func (s *BugStore) UpdateStatus(ctx context.Context, id int64, status string) (*model.Bug, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, domain.Validationf("status is required")
	}
	if len(status) > model.MaxStatusLen {
		return nil, domain.Validationf("status exceeds %d characters", model.MaxStatusLen)
	}

	result := s.db.WithContext(ctx).Model(&model.Bug{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return nil, domain.Storagef("update bug status", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return s.Get(ctx, id)
}

// Delete physically removes the row. Ids are never reused: the sequence only
// moves forward.
func (s *BugStore) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&model.Bug{}, "id = ?", id)
	if result.Error != nil {
		return domain.Storagef("delete bug", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DistinctReporterEmails returns the distinct reporter emails at call time.
// bugID == 0 means the whole table (the observed recipient scope of the
// original tool); a non-zero bugID scopes the query to that report's rows.
func (s *BugStore) DistinctReporterEmails(ctx context.Context, bugID int64) ([]string, error) {
	query := s.db.WithContext(ctx).Model(&model.Bug{}).Distinct()
	if bugID != 0 {
		query = query.Where("id = ?", bugID)
	}

	var emails []string
	if err := query.Pluck("reporter_email", &emails).Error; err != nil {
		return nil, domain.Storagef("distinct reporter emails", err)
	}
	return emails, nil
}

// CountByCategory groups all current reports by flair. The empty flair is its
// own group.
func (s *BugStore) CountByCategory(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Flair string
		Count int64
	}

	err := s.db.WithContext(ctx).Model(&model.Bug{}).
		Select("flair, COUNT(*) AS count").
		Group("flair").
		Scan(&rows).Error
	if err != nil {
		return nil, domain.Storagef("count by category", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Flair] = row.Count
	}
	return counts, nil
}
