package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/sales"
)

func withItemIDs(items []invoice.LineItem) []invoice.LineItem {
	out := make([]invoice.LineItem, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		out[i] = it
	}
	return out
}

// Jobs ------------------------------------------------------------------------

func (s *Store) CreateJob(_ context.Context, j job.Job) (job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[j.ID]; exists && j.ID != "" {
		return job.Job{}, apperr.Conflict("job %s already exists", j.ID)
	}
	j = j.Clone()
	j.ID = s.assignIDLocked(j.ID)
	if j.JobNumber == "" {
		j.JobNumber = s.nextNumberLocked("JOB")
	}
	j.CreatedAt = s.now()
	j.UpdatedAt = j.CreatedAt
	j.Products = s.jobProducts(j.ID, j.Products)
	s.jobs[j.ID] = j
	return j.Clone(), nil
}

func (s *Store) jobProducts(jobID string, in []job.Product) []job.Product {
	out := make([]job.Product, len(in))
	for i, p := range in {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.JobID = jobID
		out[i] = p
	}
	return out
}

func (s *Store) UpdateJob(_ context.Context, j job.Job) (job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.jobs[j.ID]
	if !ok {
		return job.Job{}, apperr.NotFound("job", j.ID)
	}
	j = j.Clone()
	j.JobNumber = existing.JobNumber
	j.CreatedAt = existing.CreatedAt
	j.UpdatedAt = s.now()
	j.Products = s.jobProducts(j.ID, j.Products)
	s.jobs[j.ID] = j
	return j.Clone(), nil
}

func (s *Store) GetJob(_ context.Context, id string) (job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.Job{}, apperr.NotFound("job", id)
	}
	return j.Clone(), nil
}

func (s *Store) ListJobs(_ context.Context, f job.Filter) ([]job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]job.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if f.Match(j) {
			out = append(out, j.Clone())
		}
	}
	sort.Slice(out, func(a, b int) bool { return s.newerFirst(out[a].ID, out[b].ID) })
	return out, nil
}

func (s *Store) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return apperr.NotFound("job", id)
	}
	for invID, inv := range s.invoices {
		if inv.JobID == id {
			inv.JobID = ""
			s.invoices[invID] = inv
		}
	}
	delete(s.jobs, id)
	return nil
}

// Invoices --------------------------------------------------------------------

func (s *Store) CreateInvoice(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createInvoiceLocked(inv)
}

func (s *Store) createInvoiceLocked(inv invoice.Invoice) (invoice.Invoice, error) {
	if _, exists := s.invoices[inv.ID]; exists && inv.ID != "" {
		return invoice.Invoice{}, apperr.Conflict("invoice %s already exists", inv.ID)
	}
	if err := s.checkJobInvoiceLocked(inv); err != nil {
		return invoice.Invoice{}, err
	}
	inv = inv.Clone()
	inv.ID = s.assignIDLocked(inv.ID)
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = s.nextNumberLocked("INV")
	}
	inv.CreatedAt = s.now()
	inv.UpdatedAt = inv.CreatedAt
	inv.Items = withItemIDs(inv.Items)
	s.invoices[inv.ID] = inv
	return inv.Clone(), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoices[inv.ID]
	if !ok {
		return invoice.Invoice{}, apperr.NotFound("invoice", inv.ID)
	}
	if err := s.checkJobInvoiceLocked(inv); err != nil {
		return invoice.Invoice{}, err
	}
	inv = inv.Clone()
	inv.InvoiceNumber = existing.InvoiceNumber
	inv.CreatedAt = existing.CreatedAt
	inv.UpdatedAt = s.now()
	inv.Items = withItemIDs(inv.Items)
	s.invoices[inv.ID] = inv
	return inv.Clone(), nil
}

// checkJobInvoiceLocked mirrors the partial unique index on invoices.job_id.
func (s *Store) checkJobInvoiceLocked(inv invoice.Invoice) error {
	if inv.JobID == "" || inv.Status == invoice.StatusCancelled {
		return nil
	}
	for id, other := range s.invoices {
		if id != inv.ID && other.JobID == inv.JobID && other.Status != invoice.StatusCancelled {
			return apperr.Conflict("job is already invoiced on %s", other.InvoiceNumber)
		}
	}
	return nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return invoice.Invoice{}, apperr.NotFound("invoice", id)
	}
	return inv.Clone(), nil
}

func (s *Store) ListInvoices(_ context.Context, f invoice.Filter) ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]invoice.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if f.Match(inv) {
			out = append(out, inv.Clone())
		}
	}
	sort.Slice(out, func(a, b int) bool { return s.newerFirst(out[a].ID, out[b].ID) })
	return out, nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[id]; !ok {
		return apperr.NotFound("invoice", id)
	}
	for qID, q := range s.quotations {
		if q.ConvertedInvoiceID == id {
			q.ConvertedInvoiceID = ""
			s.quotations[qID] = q
		}
	}
	delete(s.invoices, id)
	return nil
}

// Quotations ------------------------------------------------------------------

func (s *Store) CreateQuotation(_ context.Context, q sales.Quotation) (sales.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.quotations[q.ID]; exists && q.ID != "" {
		return sales.Quotation{}, apperr.Conflict("quotation %s already exists", q.ID)
	}
	q = q.Clone()
	q.ID = s.assignIDLocked(q.ID)
	if q.QuoteNumber == "" {
		q.QuoteNumber = s.nextNumberLocked("QUO")
	}
	q.CreatedAt = s.now()
	q.UpdatedAt = q.CreatedAt
	q.Items = withItemIDs(q.Items)
	s.quotations[q.ID] = q
	return q.Clone(), nil
}

func (s *Store) UpdateQuotation(_ context.Context, q sales.Quotation) (sales.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.quotations[q.ID]
	if !ok {
		return sales.Quotation{}, apperr.NotFound("quotation", q.ID)
	}
	q = q.Clone()
	q.QuoteNumber = existing.QuoteNumber
	q.CreatedAt = existing.CreatedAt
	q.UpdatedAt = s.now()
	q.Items = withItemIDs(q.Items)
	s.quotations[q.ID] = q
	return q.Clone(), nil
}

func (s *Store) GetQuotation(_ context.Context, id string) (sales.Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotations[id]
	if !ok {
		return sales.Quotation{}, apperr.NotFound("quotation", id)
	}
	return q.Clone(), nil
}

func (s *Store) ListQuotations(_ context.Context, f sales.QuotationFilter) ([]sales.Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sales.Quotation, 0, len(s.quotations))
	for _, q := range s.quotations {
		if f.Match(q) {
			out = append(out, q.Clone())
		}
	}
	sort.Slice(out, func(a, b int) bool { return s.newerFirst(out[a].ID, out[b].ID) })
	return out, nil
}

func (s *Store) DeleteQuotation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotations[id]; !ok {
		return apperr.NotFound("quotation", id)
	}
	for aID, a := range s.activities {
		if a.QuotationID == id {
			a.QuotationID = ""
			s.activities[aID] = a
		}
	}
	delete(s.quotations, id)
	return nil
}

func (s *Store) ConvertQuotation(_ context.Context, id string, inv invoice.Invoice) (sales.Quotation, invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotations[id]
	if !ok {
		return sales.Quotation{}, invoice.Invoice{}, apperr.NotFound("quotation", id)
	}
	if q.Status != sales.QuotationAccepted {
		return sales.Quotation{}, invoice.Invoice{}, apperr.Conflict("quotation %s is %s; only ACCEPTED quotations can be converted", q.QuoteNumber, q.Status)
	}
	created, err := s.createInvoiceLocked(inv)
	if err != nil {
		return sales.Quotation{}, invoice.Invoice{}, err
	}
	q = q.Clone()
	q.Status = sales.QuotationConverted
	q.ConvertedInvoiceID = created.ID
	q.UpdatedAt = s.now()
	s.quotations[id] = q
	return q.Clone(), created, nil
}
