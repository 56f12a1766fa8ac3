package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/metrics"
	"github.com/printshop-service/pkg/pricing"
	"github.com/printshop-service/pkg/storage"
)

// ItemInput is a line as submitted by a client. Amounts the server derives
// (area, line total) are not accepted. A nil UnitPrice on a catalog line
// takes the catalog price.
type ItemInput struct {
	ProductID    string           `json:"productId"`
	Description  string           `json:"description"`
	ProductClass catalog.Class    `json:"productClass"`
	Quantity     int              `json:"quantity" validate:"gt=0"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	Length       decimal.Decimal  `json:"length"`
	Width        decimal.Decimal  `json:"width"`
}

// InvoiceInput carries the editable fields of an invoice.
type InvoiceInput struct {
	CustomerID    string           `json:"customerId" validate:"required"`
	JobID         string           `json:"jobId"`
	PurchaseOrder string           `json:"purchaseOrder"`
	IssueDate     *time.Time       `json:"issueDate"`
	DueDate       *time.Time       `json:"dueDate"`
	Currency      string           `json:"currency" validate:"omitempty,len=3"`
	TaxRate       *decimal.Decimal `json:"taxRate"`
	Notes         string           `json:"notes"`
	Items         []ItemInput      `json:"items" validate:"dive"`
}

// Quote is a stateless pricing preview.
type Quote struct {
	Items []invoice.LineItem `json:"items"`
	pricing.Totals
}

type itemResolver struct {
	store storage.ProductStore
}

// resolve turns client lines into priced line items. Lines naming a
// product inherit its class, and its price and name when left out.
func (r itemResolver) resolve(ctx context.Context, in []ItemInput, taxRate decimal.Decimal) ([]invoice.LineItem, pricing.Totals, error) {
	items := make([]invoice.LineItem, len(in))
	for i, it := range in {
		li := invoice.LineItem{
			ProductID:    strings.TrimSpace(it.ProductID),
			Description:  strings.TrimSpace(it.Description),
			ProductClass: it.ProductClass,
			Quantity:     it.Quantity,
			Length:       it.Length,
			Width:        it.Width,
		}
		if it.UnitPrice != nil {
			li.UnitPrice = *it.UnitPrice
		}
		if li.ProductID != "" {
			p, err := r.store.GetProduct(ctx, li.ProductID)
			if err != nil {
				return nil, pricing.Totals{}, referenceError(fmt.Sprintf("items[%d].productId", i), "product", err)
			}
			li.ProductClass = p.Class
			if it.UnitPrice == nil {
				li.UnitPrice = p.UnitPrice
			}
			if li.Description == "" {
				li.Description = p.Name
			}
		} else if it.UnitPrice == nil {
			return nil, pricing.Totals{}, apperr.Required(fmt.Sprintf("items[%d].unitPrice", i))
		}
		items[i] = li
	}
	return invoice.PriceItems(items, taxRate)
}

// Invoices manages invoices and their lifecycle.
type Invoices struct {
	base
	items    itemResolver
	defaults Defaults
}

// Quote prices lines without storing anything.
func (s *Invoices) Quote(ctx context.Context, items []ItemInput, taxRate *decimal.Decimal) (Quote, error) {
	rate := s.defaults.TaxRate
	if taxRate != nil {
		rate = *taxRate
	}
	priced, totals, err := s.items.resolve(ctx, items, rate)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Items: priced, Totals: totals}, nil
}

// build validates in and prices it into an unsaved invoice. self is the id
// of the invoice being edited, empty for a new one.
func (s *Invoices) build(ctx context.Context, self string, in InvoiceInput) (invoice.Invoice, error) {
	inv := invoice.Invoice{
		CustomerID:    strings.TrimSpace(in.CustomerID),
		JobID:         strings.TrimSpace(in.JobID),
		PurchaseOrder: strings.TrimSpace(in.PurchaseOrder),
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		TaxRate:       s.defaults.TaxRate,
		Notes:         in.Notes,
		IssueDate:     s.today(),
	}
	if inv.Currency == "" {
		inv.Currency = s.defaults.Currency
	}
	if in.TaxRate != nil {
		inv.TaxRate = *in.TaxRate
	}
	if in.IssueDate != nil {
		inv.IssueDate = in.IssueDate.UTC()
	}
	inv.DueDate = inv.IssueDate.AddDate(0, 0, s.defaults.PaymentTermsDays)
	if in.DueDate != nil {
		inv.DueDate = in.DueDate.UTC()
	}
	if err := inv.Validate(); err != nil {
		return invoice.Invoice{}, err
	}
	if err := requireCustomer(ctx, s.store, inv.CustomerID); err != nil {
		return invoice.Invoice{}, err
	}
	if inv.JobID != "" {
		j, err := s.store.GetJob(ctx, inv.JobID)
		if err != nil {
			return invoice.Invoice{}, referenceError("jobId", "job", err)
		}
		if j.CustomerID != inv.CustomerID {
			return invoice.Invoice{}, apperr.Invalid("jobId", "job belongs to another customer")
		}
		if err := s.requireUninvoiced(ctx, j, self); err != nil {
			return invoice.Invoice{}, err
		}
	}

	items, totals, err := s.items.resolve(ctx, in.Items, inv.TaxRate)
	if err != nil {
		return invoice.Invoice{}, err
	}
	inv.Items = items
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
	return inv, nil
}

// requireUninvoiced fails when j already has an invoice other than self
// that is not cancelled.
func (s *Invoices) requireUninvoiced(ctx context.Context, j job.Job, self string) error {
	existing, err := s.store.ListInvoices(ctx, invoice.Filter{JobID: j.ID})
	if err != nil {
		return err
	}
	for _, inv := range existing {
		if inv.ID != self && inv.Status != invoice.StatusCancelled {
			return apperr.Conflict("job %s is already invoiced on %s", j.JobNumber, inv.InvoiceNumber)
		}
	}
	return nil
}

// Create stores a DRAFT invoice with server-computed amounts.
func (s *Invoices) Create(ctx context.Context, in InvoiceInput) (invoice.Invoice, error) {
	inv, err := s.build(ctx, "", in)
	if err != nil {
		return invoice.Invoice{}, err
	}
	return s.create(ctx, inv)
}

func (s *Invoices) create(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	inv.Status = invoice.StatusDraft
	created, err := s.store.CreateInvoice(ctx, inv)
	if err != nil {
		return invoice.Invoice{}, err
	}
	metrics.DocumentCreated("invoice")
	s.logger(ctx).Info("invoice created",
		zap.String("invoice_id", created.ID),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.String("total", created.Total.StringFixed(2)))
	return created, nil
}

// Update replaces a DRAFT invoice's fields and items.
func (s *Invoices) Update(ctx context.Context, id string, in InvoiceInput) (invoice.Invoice, error) {
	existing, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if existing.Status != invoice.StatusDraft {
		return invoice.Invoice{}, apperr.Conflict("invoice %s is %s; only DRAFT invoices can be edited", existing.InvoiceNumber, existing.Status)
	}
	inv, err := s.build(ctx, existing.ID, in)
	if err != nil {
		return invoice.Invoice{}, err
	}
	inv.ID = existing.ID
	inv.InvoiceNumber = existing.InvoiceNumber
	inv.Status = existing.Status
	return s.store.UpdateInvoice(ctx, inv)
}

func (s *Invoices) Get(ctx context.Context, id string) (invoice.Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

func (s *Invoices) List(ctx context.Context, f invoice.Filter) ([]invoice.Invoice, error) {
	return s.store.ListInvoices(ctx, f)
}

// SetStatus moves an invoice along its status machine.
func (s *Invoices) SetStatus(ctx context.Context, id, status string) (invoice.Invoice, error) {
	to, err := invoice.ParseStatus(status)
	if err != nil {
		return invoice.Invoice{}, err
	}
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return invoice.Invoice{}, err
	}
	return s.transition(ctx, inv, to)
}

func (s *Invoices) transition(ctx context.Context, inv invoice.Invoice, to invoice.Status) (invoice.Invoice, error) {
	if !invoice.CanTransition(inv.Status, to) {
		return invoice.Invoice{}, apperr.Conflict("invoice %s cannot move from %s to %s", inv.InvoiceNumber, inv.Status, to)
	}
	if to == invoice.StatusSent && len(inv.Items) == 0 {
		return invoice.Invoice{}, apperr.Conflict("invoice %s has no items", inv.InvoiceNumber)
	}
	from := inv.Status
	inv.Status = to
	updated, err := s.store.UpdateInvoice(ctx, inv)
	if err != nil {
		return invoice.Invoice{}, err
	}
	metrics.StatusChanged("invoice", string(to))
	if to == invoice.StatusPaid {
		metrics.InvoicePaid(updated.Currency, updated.Total.InexactFloat64())
	}
	s.logger(ctx).Info("invoice status changed",
		zap.String("invoice_number", updated.InvoiceNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return updated, nil
}

// Delete removes a DRAFT invoice.
func (s *Invoices) Delete(ctx context.Context, id string) error {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != invoice.StatusDraft {
		return apperr.Conflict("invoice %s is %s; only DRAFT invoices can be deleted", inv.InvoiceNumber, inv.Status)
	}
	return s.store.DeleteInvoice(ctx, id)
}

// FromJob drafts an invoice for a job at current catalog prices. A job
// can carry only one invoice that is not cancelled.
func (s *Invoices) FromJob(ctx context.Context, jobID string) (invoice.Invoice, error) {
	j, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if j.Status == job.StatusCancelled {
		return invoice.Invoice{}, apperr.Conflict("job %s is cancelled", j.JobNumber)
	}
	if len(j.Products) == 0 {
		return invoice.Invoice{}, apperr.Conflict("job %s has no products to invoice", j.JobNumber)
	}

	items := make([]ItemInput, len(j.Products))
	for i, jp := range j.Products {
		items[i] = ItemInput{
			ProductID: jp.ProductID,
			Quantity:  jp.Quantity,
			Length:    jp.Length,
			Width:     jp.Width,
		}
	}
	inv, err := s.build(ctx, "", InvoiceInput{
		CustomerID: j.CustomerID,
		JobID:      j.ID,
		Notes:      j.JobNumber + ": " + j.Title,
		Items:      items,
	})
	if err != nil {
		return invoice.Invoice{}, err
	}
	return s.create(ctx, inv)
}

// MarkOverdue moves SENT invoices whose due date has passed to OVERDUE and
// returns how many changed.
func (s *Invoices) MarkOverdue(ctx context.Context) (int, error) {
	due, err := s.store.ListInvoices(ctx, invoice.Filter{Status: invoice.StatusSent, DueBefore: s.today()})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, inv := range due {
		if _, err := s.transition(ctx, inv, invoice.StatusOverdue); err != nil {
			return n, fmt.Errorf("mark %s overdue: %w", inv.InvoiceNumber, err)
		}
		n++
	}
	return n, nil
}
