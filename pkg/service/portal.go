package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/metrics"
	"github.com/printshop-service/pkg/portal"
)

// UserInput is the admin payload for a portal account. Password is
// required on create and optional on update; Active defaults to true.
type UserInput struct {
	CustomerID string `json:"customerId" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	Active     *bool  `json:"active"`
}

// Session is returned by a successful login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      portal.User `json:"user"`
}

// Profile is the caller's own account and customer record.
type Profile struct {
	User     portal.User       `json:"user"`
	Customer customer.Customer `json:"customer"`
}

// OrderInput is a job placed by a portal user.
type OrderInput struct {
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	DueDate     *time.Time    `json:"dueDate"`
	Products    []job.Product `json:"products" validate:"min=1"`
}

// Portal serves portal account administration and the customer-facing
// views. Every customer-facing method is scoped to the caller's claims.
type Portal struct {
	base
	tokens   *portal.Tokens
	products *Products
	jobs     *Jobs
}

func (s *Portal) CreateUser(ctx context.Context, in UserInput) (portal.User, error) {
	u := portal.User{
		CustomerID: strings.TrimSpace(in.CustomerID),
		Email:      portal.NormalizeEmail(in.Email),
		Name:       strings.TrimSpace(in.Name),
		Active:     in.Active == nil || *in.Active,
	}
	if err := u.Validate(); err != nil {
		return portal.User{}, err
	}
	if in.Password == "" {
		return portal.User{}, apperr.Required("password")
	}
	if err := requireCustomer(ctx, s.store, u.CustomerID); err != nil {
		return portal.User{}, err
	}
	hash, err := portal.HashPassword(in.Password)
	if err != nil {
		return portal.User{}, err
	}
	u.PasswordHash = hash
	created, err := s.store.CreatePortalUser(ctx, u)
	if err != nil {
		return portal.User{}, err
	}
	s.logger(ctx).Info("portal user created",
		zap.String("user_id", created.ID),
		zap.String("customer_id", created.CustomerID))
	return created, nil
}

// UpdateUser replaces the account fields, rehashing the password only
// when a new one is given.
func (s *Portal) UpdateUser(ctx context.Context, id string, in UserInput) (portal.User, error) {
	u, err := s.store.GetPortalUser(ctx, id)
	if err != nil {
		return portal.User{}, err
	}
	u.CustomerID = strings.TrimSpace(in.CustomerID)
	u.Email = portal.NormalizeEmail(in.Email)
	u.Name = strings.TrimSpace(in.Name)
	if in.Active != nil {
		u.Active = *in.Active
	}
	if err := u.Validate(); err != nil {
		return portal.User{}, err
	}
	if err := requireCustomer(ctx, s.store, u.CustomerID); err != nil {
		return portal.User{}, err
	}
	if in.Password != "" {
		hash, err := portal.HashPassword(in.Password)
		if err != nil {
			return portal.User{}, err
		}
		u.PasswordHash = hash
	}
	return s.store.UpdatePortalUser(ctx, u)
}

func (s *Portal) GetUser(ctx context.Context, id string) (portal.User, error) {
	return s.store.GetPortalUser(ctx, id)
}

// ListUsers lists accounts, optionally of one customer.
func (s *Portal) ListUsers(ctx context.Context, customerID string) ([]portal.User, error) {
	return s.store.ListPortalUsers(ctx, customerID)
}

func (s *Portal) DeleteUser(ctx context.Context, id string) error {
	return s.store.DeletePortalUser(ctx, id)
}

var errBadCredentials = apperr.Unauthorized("invalid credentials")

// Login checks the credentials and issues a token. Unknown emails, wrong
// passwords and inactive accounts all fail with the same error.
func (s *Portal) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.GetPortalUserByEmail(ctx, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			metrics.PortalLogin("unknown")
			return Session{}, errBadCredentials
		}
		return Session{}, err
	}
	if !u.Active {
		metrics.PortalLogin("inactive")
		return Session{}, errBadCredentials
	}
	if !u.CheckPassword(password) {
		metrics.PortalLogin("bad_password")
		return Session{}, errBadCredentials
	}

	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	now := s.today()
	u.LastLoginAt = &now
	if updated, err := s.store.UpdatePortalUser(ctx, u); err != nil {
		s.logger(ctx).Warn("recording portal login failed", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u = updated
	}
	metrics.PortalLogin("success")
	s.logger(ctx).Info("portal login", zap.String("user_id", u.ID), zap.String("customer_id", u.CustomerID))
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Authenticate verifies a bearer token and that its account is still active.
func (s *Portal) Authenticate(ctx context.Context, token string) (*portal.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetPortalUser(ctx, claims.Subject)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("account no longer exists")
		}
		return nil, err
	}
	if !u.Active || u.CustomerID != claims.CustomerID {
		return nil, apperr.Unauthorized("account disabled")
	}
	return claims, nil
}

func (s *Portal) Me(ctx context.Context, claims *portal.Claims) (Profile, error) {
	u, err := s.store.GetPortalUser(ctx, claims.Subject)
	if err != nil {
		return Profile{}, err
	}
	c, err := s.store.GetCustomer(ctx, u.CustomerID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: u, Customer: c}, nil
}

// Catalog is the cached portal product list.
func (s *Portal) Catalog(ctx context.Context, class string) ([]catalog.Product, error) {
	return s.products.PortalCatalog(ctx, class)
}

func (s *Portal) Orders(ctx context.Context, claims *portal.Claims) ([]job.Job, error) {
	return s.store.ListJobs(ctx, job.Filter{CustomerID: claims.CustomerID})
}

// Order returns one of the caller's jobs; other customers' jobs are
// reported as missing.
func (s *Portal) Order(ctx context.Context, claims *portal.Claims, id string) (job.Job, error) {
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	if j.CustomerID != claims.CustomerID {
		return job.Job{}, apperr.NotFound("job", id)
	}
	return j, nil
}

// PlaceOrder creates a PENDING job for the caller's customer from portal
// catalog products.
func (s *Portal) PlaceOrder(ctx context.Context, claims *portal.Claims, in OrderInput) (job.Job, error) {
	if len(in.Products) == 0 {
		return job.Job{}, apperr.Required("products")
	}
	j := job.Job{
		CustomerID:  claims.CustomerID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueDate:     in.DueDate,
		Products:    in.Products,
	}
	if err := j.Validate(); err != nil {
		return job.Job{}, err
	}
	if _, err := s.jobs.checkProducts(ctx, j.Products, func(p catalog.Product) bool {
		return p.PortalVisible && p.Active
	}); err != nil {
		return job.Job{}, err
	}
	created, err := s.jobs.create(ctx, j)
	if err != nil {
		return job.Job{}, err
	}
	s.logger(ctx).Info("portal order placed",
		zap.String("job_number", created.JobNumber),
		zap.String("user_id", claims.Subject))
	return created, nil
}

// Invoices lists the caller's issued invoices. Drafts stay internal.
func (s *Portal) Invoices(ctx context.Context, claims *portal.Claims) ([]invoice.Invoice, error) {
	all, err := s.store.ListInvoices(ctx, invoice.Filter{CustomerID: claims.CustomerID})
	if err != nil {
		return nil, err
	}
	out := make([]invoice.Invoice, 0, len(all))
	for _, inv := range all {
		if inv.Status != invoice.StatusDraft {
			out = append(out, inv)
		}
	}
	return out, nil
}

// Invoice returns one issued invoice of the caller.
func (s *Portal) Invoice(ctx context.Context, claims *portal.Claims, id string) (invoice.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if inv.CustomerID != claims.CustomerID || inv.Status == invoice.StatusDraft {
		return invoice.Invoice{}, apperr.NotFound("invoice", id)
	}
	return inv, nil
}
