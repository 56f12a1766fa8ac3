package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/job"
)

// Customers manages customer records.
type Customers struct {
	base
}

func normalizeCustomer(c customer.Customer) customer.Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Company = strings.TrimSpace(c.Company)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	return c
}

func (s *Customers) Create(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	c = normalizeCustomer(c)
	c.ID = ""
	if err := c.Validate(); err != nil {
		return customer.Customer{}, err
	}
	created, err := s.store.CreateCustomer(ctx, c)
	if err != nil {
		return customer.Customer{}, err
	}
	s.logger(ctx).Info("customer created", zap.String("customer_id", created.ID))
	return created, nil
}

func (s *Customers) Update(ctx context.Context, id string, c customer.Customer) (customer.Customer, error) {
	if _, err := s.store.GetCustomer(ctx, id); err != nil {
		return customer.Customer{}, err
	}
	c = normalizeCustomer(c)
	c.ID = id
	if err := c.Validate(); err != nil {
		return customer.Customer{}, err
	}
	return s.store.UpdateCustomer(ctx, c)
}

func (s *Customers) Get(ctx context.Context, id string) (customer.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// List returns customers matching query on name, company or email.
func (s *Customers) List(ctx context.Context, query string) ([]customer.Customer, error) {
	return s.store.ListCustomers(ctx, query)
}

// Delete removes a customer that owns no jobs, invoices or quotations.
func (s *Customers) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		if apperr.IsConflict(err) {
			return apperr.Conflict("customer %s still has jobs, invoices or quotations", id)
		}
		return err
	}
	s.logger(ctx).Info("customer deleted", zap.String("customer_id", id))
	return nil
}

func (s *Customers) Jobs(ctx context.Context, id string) ([]job.Job, error) {
	if _, err := s.store.GetCustomer(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListJobs(ctx, job.Filter{CustomerID: id})
}

func (s *Customers) Invoices(ctx context.Context, id string) ([]invoice.Invoice, error) {
	if _, err := s.store.GetCustomer(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListInvoices(ctx, invoice.Filter{CustomerID: id})
}

func referenceError(field, entity string, err error) error {
	if apperr.IsNotFound(err) {
		return apperr.Invalid(field, entity+" not found")
	}
	return err
}
