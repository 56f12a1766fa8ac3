package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/cache"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/metrics"
)

// Products manages the catalog and the cached portal view of it.
type Products struct {
	base
	cache cache.Cache
	ttl   time.Duration
}

func (s *Products) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	p.ID = ""
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return catalog.Product{}, err
	}
	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return catalog.Product{}, err
	}
	s.invalidate(ctx)
	s.logger(ctx).Info("product created",
		zap.String("product_id", created.ID),
		zap.String("class", string(created.Class)))
	return created, nil
}

func (s *Products) Update(ctx context.Context, id string, p catalog.Product) (catalog.Product, error) {
	if _, err := s.store.GetProduct(ctx, id); err != nil {
		return catalog.Product{}, err
	}
	p.ID = id
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return catalog.Product{}, err
	}
	updated, err := s.store.UpdateProduct(ctx, p)
	if err != nil {
		return catalog.Product{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *Products) Get(ctx context.Context, id string) (catalog.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Products) List(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	return s.store.ListProducts(ctx, f)
}

// ByClass lists the active products of one class.
func (s *Products) ByClass(ctx context.Context, class string) ([]catalog.Product, error) {
	c, err := catalog.ParseClass(class)
	if err != nil {
		return nil, err
	}
	return s.store.ListProducts(ctx, catalog.Filter{Class: c, ActiveOnly: true})
}

func (s *Products) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if apperr.IsConflict(err) {
			return apperr.Conflict("product %s is used by jobs", id)
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func catalogKey(class catalog.Class) string {
	if class == "" {
		return "catalog:all"
	}
	return "catalog:" + string(class)
}

// PortalCatalog lists portal-visible active products, optionally of one
// class. Results are cached until the catalog changes or the TTL passes.
func (s *Products) PortalCatalog(ctx context.Context, class string) ([]catalog.Product, error) {
	var c catalog.Class
	if strings.TrimSpace(class) != "" {
		parsed, err := catalog.ParseClass(class)
		if err != nil {
			return nil, err
		}
		c = parsed
	}
	key := catalogKey(c)

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger(ctx).Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		var products []catalog.Product
		if err := json.Unmarshal(raw, &products); err == nil {
			metrics.CacheLookup(true)
			return products, nil
		}
	}
	metrics.CacheLookup(false)

	products, err := s.store.ListProducts(ctx, catalog.Filter{Class: c, PortalOnly: true})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []catalog.Product{}
	}
	if raw, err := json.Marshal(products); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger(ctx).Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return products, nil
}

func (s *Products) invalidate(ctx context.Context) {
	keys := []string{catalogKey("")}
	for _, c := range catalog.Classes {
		keys = append(keys, catalogKey(c))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger(ctx).Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
