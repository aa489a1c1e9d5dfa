package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Lifecycle events that trigger a notification fan-out
const (
	EventStatusChanged = "status_changed"
	EventBugClosed     = "bug_closed"
)

// DispatchOutcome is the result of one delivery attempt to one recipient.
type DispatchOutcome struct {
	Recipient string `json:"recipient"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// DispatchOutcomes implements SQL scanner/valuer for JSON storage
type DispatchOutcomes []DispatchOutcome

func (o DispatchOutcomes) Value() (driver.Value, error) {
	if o == nil {
		return json.Marshal([]DispatchOutcome{})
	}
	return json.Marshal(o)
}

func (o *DispatchOutcomes) Scan(value interface{}) error {
	if value == nil {
		*o = []DispatchOutcome{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return errors.New("failed to unmarshal DispatchOutcomes: not a byte slice")
		}
	}

	return json.Unmarshal(bytes, o)
}

// Recipients implements SQL scanner/valuer for JSON storage
type Recipients []string

func (r Recipients) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(r)
}

func (r *Recipients) Scan(value interface{}) error {
	if value == nil {
		*r = []string{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return errors.New("failed to unmarshal Recipients: not a byte slice")
		}
	}

	return json.Unmarshal(bytes, r)
}

// DispatchRecord logs one notification fan-out: which bug event triggered it,
// the recipient snapshot it was computed from, and the per-recipient outcomes.
// One row = one lifecycle event.
type DispatchRecord struct {
	ID         string           `gorm:"type:uuid;primaryKey" json:"id"`
	BugID      int64            `gorm:"not null;index" json:"bugId"`
	Event      string           `gorm:"not null;size:30" json:"event"`
	Status     string           `gorm:"size:20" json:"status"`
	Subject    string           `gorm:"size:255" json:"subject"`
	Recipients Recipients       `gorm:"type:json;not null" json:"recipients"`
	Outcomes   DispatchOutcomes `gorm:"type:json;not null" json:"outcomes"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func (DispatchRecord) TableName() string {
	return "dispatch_records"
}

// FailedRecipients returns the recipients whose delivery attempt failed.
func (d *DispatchRecord) FailedRecipients() []string {
	var failed []string
	for _, o := range d.Outcomes {
		if !o.Delivered {
			failed = append(failed, o.Recipient)
		}
	}
	return failed
}
