package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/customer"
)

func (s *Store) CreateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID]; exists && c.ID != "" {
		return customer.Customer{}, apperr.Conflict("customer %s already exists", c.ID)
	}
	c.ID = s.assignIDLocked(c.ID)
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customers[c.ID]
	if !ok {
		return customer.Customer{}, apperr.NotFound("customer", c.ID)
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, apperr.NotFound("customer", id)
	}
	return c, nil
}

func (s *Store) ListCustomers(_ context.Context, query string) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]customer.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if c.Matches(query) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return apperr.NotFound("customer", id)
	}
	for _, j := range s.jobs {
		if j.CustomerID == id {
			return apperr.Conflict("customer %s still has jobs", id)
		}
	}
	for _, inv := range s.invoices {
		if inv.CustomerID == id {
			return apperr.Conflict("customer %s still has invoices", id)
		}
	}
	for _, q := range s.quotations {
		if q.CustomerID == id {
			return apperr.Conflict("customer %s still has quotations", id)
		}
	}
	for uid, u := range s.portalUsers {
		if u.CustomerID == id {
			delete(s.portalUsers, uid)
		}
	}
	for aid, a := range s.activities {
		if a.CustomerID == id {
			delete(s.activities, aid)
		}
	}
	delete(s.customers, id)
	return nil
}
