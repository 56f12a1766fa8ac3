// Package memory is a thread-safe in-memory implementation of the storage
// interfaces. It backs the tests and servers started with database.dsn set to
// "memory", and mirrors the constraints the Postgres schema enforces.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/portal"
	"github.com/printshop-service/pkg/sales"
	"github.com/printshop-service/pkg/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	seq      int64
	order    map[string]int64
	counters map[string]int64

	customers   map[string]customer.Customer
	products    map[string]catalog.Product
	jobs        map[string]job.Job
	invoices    map[string]invoice.Invoice
	quotations  map[string]sales.Quotation
	activities  map[string]sales.Activity
	portalUsers map[string]portal.User
}

func New() *Store {
	return &Store{
		now:         func() time.Time { return time.Now().UTC() },
		order:       make(map[string]int64),
		counters:    make(map[string]int64),
		customers:   make(map[string]customer.Customer),
		products:    make(map[string]catalog.Product),
		jobs:        make(map[string]job.Job),
		invoices:    make(map[string]invoice.Invoice),
		quotations:  make(map[string]sales.Quotation),
		activities:  make(map[string]sales.Activity),
		portalUsers: make(map[string]portal.User),
	}
}

// SetClock replaces the timestamp source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// assignIDLocked fills id when empty and records insertion order.
func (s *Store) assignIDLocked(id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	s.seq++
	s.order[id] = s.seq
	return id
}

// nextNumberLocked returns the next document number for prefix, e.g. INV-000001.
func (s *Store) nextNumberLocked(prefix string) string {
	s.counters[prefix]++
	return fmt.Sprintf("%s-%06d", prefix, s.counters[prefix])
}

// newerFirst orders records by insertion, most recent first.
func (s *Store) newerFirst(a, b string) bool {
	return s.order[a] > s.order[b]
}
