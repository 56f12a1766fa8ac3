package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/metrics"
	"github.com/printshop-service/pkg/sales"
)

// ActivityInput is the editable part of an activity.
type ActivityInput struct {
	CustomerID  string             `json:"customerId" validate:"required"`
	QuotationID string             `json:"quotationId"`
	Type        sales.ActivityType `json:"type" validate:"required"`
	Subject     string             `json:"subject" validate:"required"`
	Notes       string             `json:"notes"`
	DueAt       *time.Time         `json:"dueAt"`
}

// QuotationInput carries the editable fields of a quotation.
type QuotationInput struct {
	CustomerID string           `json:"customerId" validate:"required"`
	ValidUntil *time.Time       `json:"validUntil"`
	Currency   string           `json:"currency" validate:"omitempty,len=3"`
	TaxRate    *decimal.Decimal `json:"taxRate"`
	Notes      string           `json:"notes"`
	Items      []ItemInput      `json:"items" validate:"dive"`
}

// Sales covers quotations, activities and the pipeline report.
type Sales struct {
	base
	items    itemResolver
	defaults Defaults
}

func (s *Sales) buildActivity(ctx context.Context, in ActivityInput) (sales.Activity, error) {
	a := sales.Activity{
		CustomerID:  strings.TrimSpace(in.CustomerID),
		QuotationID: strings.TrimSpace(in.QuotationID),
		Type:        sales.ActivityType(strings.ToUpper(strings.TrimSpace(string(in.Type)))),
		Subject:     strings.TrimSpace(in.Subject),
		Notes:       in.Notes,
		DueAt:       in.DueAt,
	}
	if err := a.Validate(); err != nil {
		return sales.Activity{}, err
	}
	if err := requireCustomer(ctx, s.store, a.CustomerID); err != nil {
		return sales.Activity{}, err
	}
	if a.QuotationID != "" {
		q, err := s.store.GetQuotation(ctx, a.QuotationID)
		if err != nil {
			return sales.Activity{}, referenceError("quotationId", "quotation", err)
		}
		if q.CustomerID != a.CustomerID {
			return sales.Activity{}, apperr.Invalid("quotationId", "quotation belongs to another customer")
		}
	}
	return a, nil
}

func (s *Sales) CreateActivity(ctx context.Context, in ActivityInput) (sales.Activity, error) {
	a, err := s.buildActivity(ctx, in)
	if err != nil {
		return sales.Activity{}, err
	}
	created, err := s.store.CreateActivity(ctx, a)
	if err != nil {
		return sales.Activity{}, err
	}
	s.logger(ctx).Info("activity logged",
		zap.String("activity_id", created.ID),
		zap.String("customer_id", created.CustomerID),
		zap.String("type", string(created.Type)))
	return created, nil
}

// UpdateActivity replaces the editable fields and keeps completion state.
func (s *Sales) UpdateActivity(ctx context.Context, id string, in ActivityInput) (sales.Activity, error) {
	existing, err := s.store.GetActivity(ctx, id)
	if err != nil {
		return sales.Activity{}, err
	}
	a, err := s.buildActivity(ctx, in)
	if err != nil {
		return sales.Activity{}, err
	}
	a.ID = existing.ID
	a.CompletedAt = existing.CompletedAt
	a.CreatedAt = existing.CreatedAt
	return s.store.UpdateActivity(ctx, a)
}

func (s *Sales) GetActivity(ctx context.Context, id string) (sales.Activity, error) {
	return s.store.GetActivity(ctx, id)
}

func (s *Sales) ListActivities(ctx context.Context, f sales.ActivityFilter) ([]sales.Activity, error) {
	return s.store.ListActivities(ctx, f)
}

func (s *Sales) DeleteActivity(ctx context.Context, id string) error {
	return s.store.DeleteActivity(ctx, id)
}

// CompleteActivity stamps the completion time. Completing twice keeps the
// first timestamp.
func (s *Sales) CompleteActivity(ctx context.Context, id string) (sales.Activity, error) {
	a, err := s.store.GetActivity(ctx, id)
	if err != nil {
		return sales.Activity{}, err
	}
	if !a.Open() {
		return a, nil
	}
	now := s.today()
	a.CompletedAt = &now
	return s.store.UpdateActivity(ctx, a)
}

func (s *Sales) buildQuotation(ctx context.Context, in QuotationInput) (sales.Quotation, error) {
	q := sales.Quotation{
		CustomerID: strings.TrimSpace(in.CustomerID),
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
		TaxRate:    s.defaults.TaxRate,
		Notes:      in.Notes,
		ValidUntil: s.today().AddDate(0, 0, s.defaults.QuoteValidDays),
	}
	if q.Currency == "" {
		q.Currency = s.defaults.Currency
	}
	if in.TaxRate != nil {
		q.TaxRate = *in.TaxRate
	}
	if in.ValidUntil != nil {
		q.ValidUntil = in.ValidUntil.UTC()
	}
	if err := q.Validate(); err != nil {
		return sales.Quotation{}, err
	}
	if err := requireCustomer(ctx, s.store, q.CustomerID); err != nil {
		return sales.Quotation{}, err
	}
	items, totals, err := s.items.resolve(ctx, in.Items, q.TaxRate)
	if err != nil {
		return sales.Quotation{}, err
	}
	q.Items = items
	q.Subtotal = totals.Subtotal
	q.TaxAmount = totals.TaxAmount
	q.Total = totals.Total
	return q, nil
}

// CreateQuotation stores a DRAFT quotation.
func (s *Sales) CreateQuotation(ctx context.Context, in QuotationInput) (sales.Quotation, error) {
	q, err := s.buildQuotation(ctx, in)
	if err != nil {
		return sales.Quotation{}, err
	}
	q.Status = sales.QuotationDraft
	created, err := s.store.CreateQuotation(ctx, q)
	if err != nil {
		return sales.Quotation{}, err
	}
	metrics.DocumentCreated("quotation")
	s.logger(ctx).Info("quotation created",
		zap.String("quotation_id", created.ID),
		zap.String("quote_number", created.QuoteNumber),
		zap.String("total", created.Total.StringFixed(2)))
	return created, nil
}

// UpdateQuotation replaces a DRAFT quotation's fields and items.
func (s *Sales) UpdateQuotation(ctx context.Context, id string, in QuotationInput) (sales.Quotation, error) {
	existing, err := s.store.GetQuotation(ctx, id)
	if err != nil {
		return sales.Quotation{}, err
	}
	if existing.Status != sales.QuotationDraft {
		return sales.Quotation{}, apperr.Conflict("quotation %s is %s; only DRAFT quotations can be edited", existing.QuoteNumber, existing.Status)
	}
	q, err := s.buildQuotation(ctx, in)
	if err != nil {
		return sales.Quotation{}, err
	}
	q.ID = existing.ID
	q.QuoteNumber = existing.QuoteNumber
	q.Status = existing.Status
	return s.store.UpdateQuotation(ctx, q)
}

func (s *Sales) GetQuotation(ctx context.Context, id string) (sales.Quotation, error) {
	return s.store.GetQuotation(ctx, id)
}

func (s *Sales) ListQuotations(ctx context.Context, f sales.QuotationFilter) ([]sales.Quotation, error) {
	return s.store.ListQuotations(ctx, f)
}

// SetQuotationStatus moves a quotation along the pipeline. CONVERTED is
// only reachable through Convert.
func (s *Sales) SetQuotationStatus(ctx context.Context, id, status string) (sales.Quotation, error) {
	to, err := sales.ParseQuotationStatus(status)
	if err != nil {
		return sales.Quotation{}, err
	}
	if to == sales.QuotationConverted {
		return sales.Quotation{}, apperr.Invalid("status", "use the convert action to convert a quotation")
	}
	q, err := s.store.GetQuotation(ctx, id)
	if err != nil {
		return sales.Quotation{}, err
	}
	return s.transitionQuotation(ctx, q, to)
}

func (s *Sales) transitionQuotation(ctx context.Context, q sales.Quotation, to sales.QuotationStatus) (sales.Quotation, error) {
	if !sales.CanTransitionQuotation(q.Status, to) {
		return sales.Quotation{}, apperr.Conflict("quotation %s cannot move from %s to %s", q.QuoteNumber, q.Status, to)
	}
	from := q.Status
	q.Status = to
	updated, err := s.store.UpdateQuotation(ctx, q)
	if err != nil {
		return sales.Quotation{}, err
	}
	metrics.StatusChanged("quotation", string(to))
	s.logger(ctx).Info("quotation status changed",
		zap.String("quote_number", updated.QuoteNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return updated, nil
}

// DeleteQuotation removes a quotation that has not been converted.
func (s *Sales) DeleteQuotation(ctx context.Context, id string) error {
	q, err := s.store.GetQuotation(ctx, id)
	if err != nil {
		return err
	}
	if q.Status == sales.QuotationConverted {
		return apperr.Conflict("quotation %s was converted to an invoice", q.QuoteNumber)
	}
	return s.store.DeleteQuotation(ctx, id)
}

// Convert turns an ACCEPTED quotation into a DRAFT invoice carrying the
// same lines and marks the quotation CONVERTED.
func (s *Sales) Convert(ctx context.Context, id string) (sales.Quotation, invoice.Invoice, error) {
	q, err := s.store.GetQuotation(ctx, id)
	if err != nil {
		return sales.Quotation{}, invoice.Invoice{}, err
	}
	if q.Status != sales.QuotationAccepted {
		return sales.Quotation{}, invoice.Invoice{}, apperr.Conflict("quotation %s is %s; only ACCEPTED quotations can be converted", q.QuoteNumber, q.Status)
	}

	issued := s.today()
	inv := invoice.Invoice{
		CustomerID: q.CustomerID,
		IssueDate:  issued,
		DueDate:    issued.AddDate(0, 0, s.defaults.PaymentTermsDays),
		Currency:   q.Currency,
		TaxRate:    q.TaxRate,
		Notes:      strings.TrimSpace(fmt.Sprintf("Quotation %s\n%s", q.QuoteNumber, q.Notes)),
		Items:      make([]invoice.LineItem, len(q.Items)),
	}
	for i, it := range q.Items {
		it.ID = ""
		inv.Items[i] = it
	}
	if err := inv.Reprice(); err != nil {
		return sales.Quotation{}, invoice.Invoice{}, err
	}
	inv.Status = invoice.StatusDraft

	// the store re-checks ACCEPTED atomically; a concurrent conversion
	// loses here with a conflict and leaves no invoice behind
	converted, created, err := s.store.ConvertQuotation(ctx, q.ID, inv)
	if err != nil {
		return sales.Quotation{}, invoice.Invoice{}, err
	}
	metrics.DocumentCreated("invoice")
	metrics.StatusChanged("quotation", string(sales.QuotationConverted))
	s.logger(ctx).Info("quotation converted",
		zap.String("quote_number", converted.QuoteNumber),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.String("total", created.Total.StringFixed(2)))
	return converted, created, nil
}

// ExpireQuotations moves SENT quotations past their validity date to
// EXPIRED and returns how many changed.
func (s *Sales) ExpireQuotations(ctx context.Context) (int, error) {
	sent, err := s.store.ListQuotations(ctx, sales.QuotationFilter{Status: sales.QuotationSent})
	if err != nil {
		return 0, err
	}
	now := s.today()
	n := 0
	for _, q := range sent {
		if !q.ValidUntil.Before(now) {
			continue
		}
		if _, err := s.transitionQuotation(ctx, q, sales.QuotationExpired); err != nil {
			return n, fmt.Errorf("expire %s: %w", q.QuoteNumber, err)
		}
		n++
	}
	return n, nil
}

// Pipeline reports quotations by stage with open activity and conversion
// figures.
func (s *Sales) Pipeline(ctx context.Context) (sales.Pipeline, error) {
	quotes, err := s.store.ListQuotations(ctx, sales.QuotationFilter{})
	if err != nil {
		return sales.Pipeline{}, err
	}
	open, err := s.store.ListActivities(ctx, sales.ActivityFilter{OpenOnly: true})
	if err != nil {
		return sales.Pipeline{}, err
	}
	return sales.BuildPipeline(quotes, open), nil
}
