package model

import "time"

type Bug struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReporterUsername string    `gorm:"not null;size:20" json:"reporterUsername"`
	ReporterEmail    string    `gorm:"not null;size:50" json:"reporterEmail"`
	Description      string    `gorm:"not null;size:800" json:"description"`
	Flair            string    `gorm:"size:20" json:"flair"`
	Status           string    `gorm:"not null;default:'Open';size:20" json:"status"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

func (Bug) TableName() string {
	return "bugs"
}

// Well-known status labels. The status column stays free text so the UI can
// supply its own labels; these are the ones the lifecycle itself uses.
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusClosed     = "Closed"
)

// Column bounds, matching the stored schema
const (
	MaxUsernameLen    = 20
	MaxEmailLen       = 50
	MaxDescriptionLen = 800
	MaxFlairLen       = 20
	MaxStatusLen      = 20
)
