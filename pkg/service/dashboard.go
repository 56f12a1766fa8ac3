package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/sales"
)

// Stats is the dashboard summary. Amounts are grouped by currency because
// invoices are not converted.
type Stats struct {
	Customers        int                        `json:"customers"`
	Products         int                        `json:"products"`
	JobsByStatus     map[job.Status]int         `json:"jobsByStatus"`
	InvoicesByStatus map[invoice.Status]int     `json:"invoicesByStatus"`
	Outstanding      map[string]decimal.Decimal `json:"outstanding"`
	Paid             map[string]decimal.Decimal `json:"paid"`
	OpenQuotations   int                        `json:"openQuotations"`
}

type Dashboard struct {
	base
}

func (s *Dashboard) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		JobsByStatus:     make(map[job.Status]int),
		InvoicesByStatus: make(map[invoice.Status]int),
		Outstanding:      make(map[string]decimal.Decimal),
		Paid:             make(map[string]decimal.Decimal),
	}

	customers, err := s.store.ListCustomers(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	st.Customers = len(customers)

	products, err := s.store.ListProducts(ctx, catalog.Filter{})
	if err != nil {
		return Stats{}, err
	}
	st.Products = len(products)

	jobs, err := s.store.ListJobs(ctx, job.Filter{})
	if err != nil {
		return Stats{}, err
	}
	for _, j := range jobs {
		st.JobsByStatus[j.Status]++
	}

	invoices, err := s.store.ListInvoices(ctx, invoice.Filter{})
	if err != nil {
		return Stats{}, err
	}
	for _, inv := range invoices {
		st.InvoicesByStatus[inv.Status]++
		switch {
		case inv.Status.Outstanding():
			st.Outstanding[inv.Currency] = st.Outstanding[inv.Currency].Add(inv.Total)
		case inv.Status == invoice.StatusPaid:
			st.Paid[inv.Currency] = st.Paid[inv.Currency].Add(inv.Total)
		}
	}

	quotes, err := s.store.ListQuotations(ctx, sales.QuotationFilter{})
	if err != nil {
		return Stats{}, err
	}
	for _, q := range quotes {
		switch q.Status {
		case sales.QuotationDraft, sales.QuotationSent, sales.QuotationAccepted:
			st.OpenQuotations++
		}
	}
	return st, nil
}
