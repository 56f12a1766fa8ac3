package sales

import (
	"strings"
	"time"

	"github.com/printshop-service/pkg/apperr"
)

type ActivityType string

const (
	ActivityCall     ActivityType = "CALL"
	ActivityEmail    ActivityType = "EMAIL"
	ActivityMeeting  ActivityType = "MEETING"
	ActivityNote     ActivityType = "NOTE"
	ActivityFollowUp ActivityType = "FOLLOW_UP"
)

var ActivityTypes = []ActivityType{ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityFollowUp}

func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Activity is a logged touchpoint with a customer, optionally tied to a quotation.
type Activity struct {
	ID          string       `json:"id"`
	CustomerID  string       `json:"customerId"`
	QuotationID string       `json:"quotationId,omitempty"`
	Type        ActivityType `json:"type"`
	Subject     string       `json:"subject"`
	Notes       string       `json:"notes,omitempty"`
	DueAt       *time.Time   `json:"dueAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func (a Activity) Validate() error {
	if a.CustomerID == "" {
		return apperr.Required("customerId")
	}
	if !a.Type.Valid() {
		return apperr.Invalid("type", "unknown activity type "+string(a.Type))
	}
	if strings.TrimSpace(a.Subject) == "" {
		return apperr.Required("subject")
	}
	return nil
}

// Open reports whether the activity still needs doing.
func (a Activity) Open() bool { return a.CompletedAt == nil }

type ActivityFilter struct {
	CustomerID string
	OpenOnly   bool
}

func (f ActivityFilter) Match(a Activity) bool {
	if f.CustomerID != "" && a.CustomerID != f.CustomerID {
		return false
	}
	if f.OpenOnly && !a.Open() {
		return false
	}
	return true
}
