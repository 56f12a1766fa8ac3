package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
)

func (s *Store) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists && p.ID != "" {
		return catalog.Product{}, apperr.Conflict("product %s already exists", p.ID)
	}
	p.ID = s.assignIDLocked(p.ID)
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return catalog.Product{}, apperr.NotFound("product", p.ID)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, apperr.NotFound("product", id)
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context, f catalog.Filter) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return apperr.NotFound("product", id)
	}
	for _, j := range s.jobs {
		for _, jp := range j.Products {
			if jp.ProductID == id {
				return apperr.Conflict("product %s is used by job %s", id, j.JobNumber)
			}
		}
	}
	for invID, inv := range s.invoices {
		for i := range inv.Items {
			if inv.Items[i].ProductID == id {
				inv.Items[i].ProductID = ""
			}
		}
		s.invoices[invID] = inv
	}
	for qID, q := range s.quotations {
		for i := range q.Items {
			if q.Items[i].ProductID == id {
				q.Items[i].ProductID = ""
			}
		}
		s.quotations[qID] = q
	}
	delete(s.products, id)
	return nil
}
