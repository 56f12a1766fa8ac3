// Package storage declares the persistence interfaces the services depend on.
// Implementations live in storage/memory and storage/postgres.
//
// Create methods assign the ID (and document number where one exists) when
// empty and stamp timestamps. Get, Update and Delete return an
// apperr.ErrNotFound error for unknown ids.
package storage

import (
	"context"

	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/portal"
	"github.com/printshop-service/pkg/sales"
)

// CustomerStore persists customer records.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	GetCustomer(ctx context.Context, id string) (customer.Customer, error)
	ListCustomers(ctx context.Context, query string) ([]customer.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

// ProductStore persists the catalog.
type ProductStore interface {
	CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	ListProducts(ctx context.Context, f catalog.Filter) ([]catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// JobStore persists jobs with their products. UpdateJob replaces the
// product list.
type JobStore interface {
	CreateJob(ctx context.Context, j job.Job) (job.Job, error)
	UpdateJob(ctx context.Context, j job.Job) (job.Job, error)
	GetJob(ctx context.Context, id string) (job.Job, error)
	ListJobs(ctx context.Context, f job.Filter) ([]job.Job, error)
	DeleteJob(ctx context.Context, id string) error
}

// InvoiceStore persists invoices with their items. UpdateInvoice replaces
// the item list. A job carries at most one invoice that is not CANCELLED;
// Create and Update return an apperr.ErrConflict error otherwise.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error)
	UpdateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error)
	GetInvoice(ctx context.Context, id string) (invoice.Invoice, error)
	ListInvoices(ctx context.Context, f invoice.Filter) ([]invoice.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
}

// QuotationStore persists quotations with their items.
type QuotationStore interface {
	CreateQuotation(ctx context.Context, q sales.Quotation) (sales.Quotation, error)
	UpdateQuotation(ctx context.Context, q sales.Quotation) (sales.Quotation, error)
	GetQuotation(ctx context.Context, id string) (sales.Quotation, error)
	ListQuotations(ctx context.Context, f sales.QuotationFilter) ([]sales.Quotation, error)
	DeleteQuotation(ctx context.Context, id string) error
	// ConvertQuotation stores inv and moves the ACCEPTED quotation id to
	// CONVERTED, pointing at the new invoice, in one step. A quotation in
	// any other status yields an apperr.ErrConflict error and no invoice.
	ConvertQuotation(ctx context.Context, id string, inv invoice.Invoice) (sales.Quotation, invoice.Invoice, error)
}

// ActivityStore persists sales activities.
type ActivityStore interface {
	CreateActivity(ctx context.Context, a sales.Activity) (sales.Activity, error)
	UpdateActivity(ctx context.Context, a sales.Activity) (sales.Activity, error)
	GetActivity(ctx context.Context, id string) (sales.Activity, error)
	ListActivities(ctx context.Context, f sales.ActivityFilter) ([]sales.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
}

// PortalUserStore persists portal accounts. Emails are unique.
type PortalUserStore interface {
	CreatePortalUser(ctx context.Context, u portal.User) (portal.User, error)
	UpdatePortalUser(ctx context.Context, u portal.User) (portal.User, error)
	GetPortalUser(ctx context.Context, id string) (portal.User, error)
	GetPortalUserByEmail(ctx context.Context, email string) (portal.User, error)
	ListPortalUsers(ctx context.Context, customerID string) ([]portal.User, error)
	DeletePortalUser(ctx context.Context, id string) error
}

// Store is the full set, satisfied by both implementations.
type Store interface {
	CustomerStore
	ProductStore
	JobStore
	InvoiceStore
	QuotationStore
	ActivityStore
	PortalUserStore
}
