package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/metrics"
)

// JobInput is the editable part of a job.
type JobInput struct {
	CustomerID  string        `json:"customerId" validate:"required"`
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	DueDate     *time.Time    `json:"dueDate"`
	Products    []job.Product `json:"products"`
}

// Jobs manages production jobs and their status.
type Jobs struct {
	base
}

func (s *Jobs) build(ctx context.Context, in JobInput) (job.Job, error) {
	j := job.Job{
		CustomerID:  strings.TrimSpace(in.CustomerID),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueDate:     in.DueDate,
		Products:    in.Products,
	}
	if j.Products == nil {
		j.Products = []job.Product{}
	}
	if err := j.Validate(); err != nil {
		return job.Job{}, err
	}
	if err := requireCustomer(ctx, s.store, j.CustomerID); err != nil {
		return job.Job{}, err
	}
	if _, err := s.checkProducts(ctx, j.Products, nil); err != nil {
		return job.Job{}, err
	}
	return j, nil
}

// checkProducts verifies every job product references a catalog product,
// passes allow when set, and carries dimensions when wide-format.
func (s *Jobs) checkProducts(ctx context.Context, products []job.Product, allow func(catalog.Product) bool) (map[string]catalog.Product, error) {
	seen := make(map[string]catalog.Product, len(products))
	for i, jp := range products {
		field := fmt.Sprintf("products[%d]", i)
		p, ok := seen[jp.ProductID]
		if !ok {
			var err error
			p, err = s.store.GetProduct(ctx, jp.ProductID)
			if err != nil {
				return nil, referenceError(field+".productId", "product", err)
			}
			seen[p.ID] = p
		}
		if allow != nil && !allow(p) {
			return nil, apperr.Invalid(field+".productId", "product is not available")
		}
		if p.Class.AreaBased() && (!jp.Length.IsPositive() || !jp.Width.IsPositive()) {
			return nil, apperr.Invalid(field, "length and width are required for wide-format products")
		}
	}
	return seen, nil
}

// Create stores a new job in PENDING.
func (s *Jobs) Create(ctx context.Context, in JobInput) (job.Job, error) {
	j, err := s.build(ctx, in)
	if err != nil {
		return job.Job{}, err
	}
	return s.create(ctx, j)
}

func (s *Jobs) create(ctx context.Context, j job.Job) (job.Job, error) {
	j.Status = job.StatusPending
	created, err := s.store.CreateJob(ctx, j)
	if err != nil {
		return job.Job{}, err
	}
	metrics.DocumentCreated("job")
	s.logger(ctx).Info("job created",
		zap.String("job_id", created.ID),
		zap.String("job_number", created.JobNumber),
		zap.String("customer_id", created.CustomerID))
	return created, nil
}

// Update replaces the editable fields. Finished jobs are read-only.
func (s *Jobs) Update(ctx context.Context, id string, in JobInput) (job.Job, error) {
	existing, err := s.store.GetJob(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	if existing.Status.Terminal() {
		return job.Job{}, apperr.Conflict("job %s is %s and can no longer be edited", existing.JobNumber, existing.Status)
	}
	j, err := s.build(ctx, in)
	if err != nil {
		return job.Job{}, err
	}
	j.ID = existing.ID
	j.JobNumber = existing.JobNumber
	j.Status = existing.Status
	return s.store.UpdateJob(ctx, j)
}

func (s *Jobs) Get(ctx context.Context, id string) (job.Job, error) {
	return s.store.GetJob(ctx, id)
}

func (s *Jobs) List(ctx context.Context, f job.Filter) ([]job.Job, error) {
	return s.store.ListJobs(ctx, f)
}

// SetStatus moves a job along its status machine.
func (s *Jobs) SetStatus(ctx context.Context, id, status string) (job.Job, error) {
	to, err := job.ParseStatus(status)
	if err != nil {
		return job.Job{}, err
	}
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	if !job.CanTransition(j.Status, to) {
		return job.Job{}, apperr.Conflict("job %s cannot move from %s to %s", j.JobNumber, j.Status, to)
	}
	from := j.Status
	j.Status = to
	updated, err := s.store.UpdateJob(ctx, j)
	if err != nil {
		return job.Job{}, err
	}
	metrics.StatusChanged("job", string(to))
	s.logger(ctx).Info("job status changed",
		zap.String("job_number", updated.JobNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return updated, nil
}

// Delete removes a job that has not started or was cancelled.
func (s *Jobs) Delete(ctx context.Context, id string) error {
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if j.Status != job.StatusPending && j.Status != job.StatusCancelled {
		return apperr.Conflict("job %s is %s; only PENDING or CANCELLED jobs can be deleted", j.JobNumber, j.Status)
	}
	return s.store.DeleteJob(ctx, id)
}
