// Package job tracks print jobs through production.
package job

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printshop-service/pkg/apperr"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusCompleted  Status = "COMPLETED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

var Statuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusOnHold,
	StatusCompleted,
	StatusDelivered,
	StatusCancelled,
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusOnHold, StatusCancelled},
	StatusOnHold:     {StatusInProgress, StatusCancelled},
	StatusCompleted:  {StatusDelivered},
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", apperr.Invalid("status", "unknown job status "+s)
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

type Job struct {
	ID          string     `json:"id"`
	JobNumber   string     `json:"jobNumber"`
	CustomerID  string     `json:"customerId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Products    []Product  `json:"products"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Product is a catalog product attached to a job with its quantity and,
// for wide-format work, its dimensions.
type Product struct {
	ID        string          `json:"id"`
	JobID     string          `json:"jobId"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Length    decimal.Decimal `json:"length"`
	Width     decimal.Decimal `json:"width"`
	Notes     string          `json:"notes,omitempty"`
}

func (j Job) Validate() error {
	if j.CustomerID == "" {
		return apperr.Required("customerId")
	}
	if strings.TrimSpace(j.Title) == "" {
		return apperr.Required("title")
	}
	for _, p := range j.Products {
		if p.ProductID == "" {
			return apperr.Required("products.productId")
		}
		if p.Quantity <= 0 {
			return apperr.Invalid("products.quantity", "must be greater than zero")
		}
		if p.Length.IsNegative() || p.Width.IsNegative() {
			return apperr.Invalid("products", "dimensions must not be negative")
		}
	}
	return nil
}

// Clone copies j including its product slice.
func (j Job) Clone() Job {
	out := j
	if j.Products != nil {
		out.Products = append([]Product(nil), j.Products...)
	}
	if j.DueDate != nil {
		due := *j.DueDate
		out.DueDate = &due
	}
	return out
}

type Filter struct {
	Status     Status
	CustomerID string
}

func (f Filter) Match(j Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.CustomerID != "" && j.CustomerID != f.CustomerID {
		return false
	}
	return true
}
