// pkg/invoice/invoice.go

package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/pricing"
)

// Status is the billing state of an invoice.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

var Statuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled}

var transitions = map[Status][]Status{
	StatusDraft:   {StatusSent, StatusCancelled},
	StatusSent:    {StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue: {StatusPaid, StatusCancelled},
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", apperr.Invalid("status", "unknown invoice status "+s)
}

// CanTransition reports whether an invoice may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Outstanding reports whether money is still owed on an invoice in this status.
func (s Status) Outstanding() bool { return s == StatusSent || s == StatusOverdue }

// Invoice represents the invoice data model.
type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	PurchaseOrder string          `json:"purchaseOrder,omitempty"`
	CustomerID    string          `json:"customerId"`
	JobID         string          `json:"jobId,omitempty"`
	Status        Status          `json:"status"`
	IssueDate     time.Time       `json:"issueDate"`
	DueDate       time.Time       `json:"dueDate"`
	Currency      string          `json:"currency"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Total         decimal.Decimal `json:"total"`
	Notes         string          `json:"notes,omitempty"`
	Items         []LineItem      `json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// LineItem represents an item in the invoice. Quotations use the same shape.
type LineItem struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId,omitempty"`
	Description  string          `json:"description"`
	ProductClass catalog.Class   `json:"productClass"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Length       decimal.Decimal `json:"length"`
	Width        decimal.Decimal `json:"width"`
	Area         decimal.Decimal `json:"area"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

// Validate checks the header fields. Items are checked by PriceItems.
func (inv Invoice) Validate() error {
	if inv.CustomerID == "" {
		return apperr.Required("customerId")
	}
	if inv.DueDate.Before(inv.IssueDate) {
		return apperr.Invalid("dueDate", "must not be before issueDate")
	}
	return pricing.ValidateTaxRate(inv.TaxRate)
}

// Reprice recomputes every line and the document totals in place.
func (inv *Invoice) Reprice() error {
	items, totals, err := PriceItems(inv.Items, inv.TaxRate)
	if err != nil {
		return err
	}
	inv.Items = items
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
	return nil
}

// Clone copies inv including its items.
func (inv Invoice) Clone() Invoice {
	out := inv
	if inv.Items != nil {
		out.Items = append([]LineItem(nil), inv.Items...)
	}
	return out
}

// PriceItems returns a copy of items with area and totalPrice filled in, and
// the document totals at taxRate.
func PriceItems(items []LineItem, taxRate decimal.Decimal) ([]LineItem, pricing.Totals, error) {
	out := make([]LineItem, len(items))
	lineTotals := make([]decimal.Decimal, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			return nil, pricing.Totals{}, apperr.Required(fmt.Sprintf("items[%d].description", i))
		}
		if it.ProductClass == "" {
			it.ProductClass = catalog.ClassOther
		}
		if !it.ProductClass.Valid() {
			return nil, pricing.Totals{}, apperr.Invalid(fmt.Sprintf("items[%d].productClass", i), "unknown product class "+string(it.ProductClass))
		}
		res, err := pricing.Price(pricing.Line{
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Length:    it.Length,
			Width:     it.Width,
			AreaBased: it.ProductClass.AreaBased(),
		})
		if err != nil {
			return nil, pricing.Totals{}, itemError(i, err)
		}
		if !it.ProductClass.AreaBased() {
			it.Length = decimal.Zero
			it.Width = decimal.Zero
		}
		it.Area = res.Area
		it.TotalPrice = res.Total
		out[i] = it
		lineTotals[i] = res.Total
	}
	totals, err := pricing.Summarize(lineTotals, taxRate)
	if err != nil {
		return nil, pricing.Totals{}, err
	}
	return out, totals, nil
}

func itemError(i int, err error) error {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return apperr.Invalid(fmt.Sprintf("items[%d].%s", i, verr.Field), verr.Message)
	}
	return err
}

// Filter narrows invoice listings.
type Filter struct {
	Status     Status
	CustomerID string
	JobID      string
	// DueBefore keeps invoices whose due date is strictly before it.
	DueBefore time.Time
}

func (f Filter) Match(inv Invoice) bool {
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if f.JobID != "" && inv.JobID != f.JobID {
		return false
	}
	if !f.DueBefore.IsZero() && !inv.DueDate.Before(f.DueBefore) {
		return false
	}
	return true
}
