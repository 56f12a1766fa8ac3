package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/portal"
	"github.com/printshop-service/pkg/sales"
)

func TestDocumentNumbersAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.CreateInvoice(ctx, invoice.Invoice{CustomerID: "c1", Items: []invoice.LineItem{{Description: "a"}}})
	require.NoError(t, err)
	second, err := s.CreateInvoice(ctx, invoice.Invoice{CustomerID: "c1"})
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", first.InvoiceNumber)
	assert.Equal(t, "INV-000002", second.InvoiceNumber)
	assert.NotEmpty(t, first.Items[0].ID)

	list, err := s.ListInvoices(ctx, invoice.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	j, err := s.CreateJob(ctx, job.Job{CustomerID: "c1", Title: "Banners"})
	require.NoError(t, err)
	assert.Equal(t, "JOB-000001", j.JobNumber)
}

func TestUpdateKeepsNumberAndIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	inv, err := s.CreateInvoice(ctx, invoice.Invoice{CustomerID: "c1", Items: []invoice.LineItem{{Description: "a"}}})
	require.NoError(t, err)

	inv.Items[0].Description = "mutated outside"
	stored, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Items[0].Description)

	stored.InvoiceNumber = "INV-999999"
	updated, err := s.UpdateInvoice(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", updated.InvoiceNumber)

	_, err = s.UpdateInvoice(ctx, invoice.Invoice{ID: "missing"})
	assert.True(t, apperr.IsNotFound(err))
}

func TestCustomerDeleteRestrictions(t *testing.T) {
	ctx := context.Background()
	s := New()

	c, err := s.CreateCustomer(ctx, customer.Customer{Name: "Acme"})
	require.NoError(t, err)
	_, err = s.CreatePortalUser(ctx, portal.User{CustomerID: c.ID, Email: "buyer@acme.test"})
	require.NoError(t, err)
	j, err := s.CreateJob(ctx, job.Job{CustomerID: c.ID, Title: "Signs"})
	require.NoError(t, err)

	err = s.DeleteCustomer(ctx, c.ID)
	assert.True(t, apperr.IsConflict(err))

	require.NoError(t, s.DeleteJob(ctx, j.ID))
	require.NoError(t, s.DeleteCustomer(ctx, c.ID))

	users, err := s.ListPortalUsers(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, users, "portal users cascade with the customer")
}

func TestPortalEmailUnique(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreatePortalUser(ctx, portal.User{CustomerID: "c1", Email: "Buyer@Acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "buyer@acme.test", u.Email)

	_, err = s.CreatePortalUser(ctx, portal.User{CustomerID: "c2", Email: "buyer@acme.test "})
	assert.True(t, apperr.IsConflict(err))

	found, err := s.GetPortalUserByEmail(ctx, "BUYER@acme.test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestProductDeleteInUse(t *testing.T) {
	ctx := context.Background()
	s := New()

	p, err := s.CreateProduct(ctx, catalog.Product{Name: "Vinyl", Class: catalog.ClassWideFormat, Active: true})
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, job.Job{CustomerID: "c1", Title: "Wrap", Products: []job.Product{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	assert.True(t, apperr.IsConflict(s.DeleteProduct(ctx, p.ID)))

	listed, err := s.ListProducts(ctx, catalog.Filter{Class: catalog.ClassWideFormat, ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	none, err := s.ListProducts(ctx, catalog.Filter{PortalOnly: true})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOneOpenInvoicePerJob(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.CreateInvoice(ctx, invoice.Invoice{CustomerID: "c1", JobID: "j1", Status: invoice.StatusDraft})
	require.NoError(t, err)

	_, err = s.CreateInvoice(ctx, invoice.Invoice{CustomerID: "c1", JobID: "j1", Status: invoice.StatusDraft})
	assert.True(t, apperr.IsConflict(err))

	other, err := s.CreateInvoice(ctx, invoice.Invoice{CustomerID: "c1", Status: invoice.StatusDraft})
	require.NoError(t, err)
	other.JobID = "j1"
	_, err = s.UpdateInvoice(ctx, other)
	assert.True(t, apperr.IsConflict(err), "moving another invoice onto the job")

	_, err = s.UpdateInvoice(ctx, first)
	require.NoError(t, err, "an invoice does not clash with itself")

	first.Status = invoice.StatusCancelled
	_, err = s.UpdateInvoice(ctx, first)
	require.NoError(t, err)
	_, err = s.CreateInvoice(ctx, invoice.Invoice{CustomerID: "c1", JobID: "j1", Status: invoice.StatusDraft})
	assert.NoError(t, err, "a cancelled invoice frees the job")
}

func TestConvertQuotationOnce(t *testing.T) {
	ctx := context.Background()
	s := New()

	q, err := s.CreateQuotation(ctx, sales.Quotation{CustomerID: "c1", Status: sales.QuotationSent})
	require.NoError(t, err)
	_, _, err = s.ConvertQuotation(ctx, q.ID, invoice.Invoice{CustomerID: "c1"})
	assert.True(t, apperr.IsConflict(err), "only accepted quotations convert")

	q.Status = sales.QuotationAccepted
	_, err = s.UpdateQuotation(ctx, q)
	require.NoError(t, err)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.ConvertQuotation(ctx, q.ID, invoice.Invoice{CustomerID: "c1", Status: invoice.StatusDraft})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, apperr.IsConflict(err))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	invoices, err := s.ListInvoices(ctx, invoice.Filter{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	got, err := s.GetQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.QuotationConverted, got.Status)
	assert.Equal(t, invoices[0].ID, got.ConvertedInvoiceID)

	_, _, err = s.ConvertQuotation(ctx, "missing", invoice.Invoice{})
	assert.True(t, apperr.IsNotFound(err))
}
