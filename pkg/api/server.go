// Package api exposes the services over HTTP with gorilla/mux.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/printshop-service/pkg/docs" // registers the OpenAPI document
	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/logging"
	"github.com/printshop-service/pkg/metrics"
	"github.com/printshop-service/pkg/service"
)

const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Logger        *zap.Logger
	CORSOrigins   []string
	RatePerSecond float64
	Burst         int
	// Ready reports whether dependencies (the database) are reachable.
	Ready func(ctx context.Context) error
}

// Server routes HTTP requests to the application services.
type Server struct {
	app      *service.Application
	log      *zap.Logger
	validate *validator.Validate
	limiter  *RateLimiter
	cors     *CORS
	ready    func(ctx context.Context) error
	router   *mux.Router
}

func New(app *service.Application, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	s := &Server{
		app:      app,
		log:      opts.Logger,
		validate: newValidator(),
		limiter:  NewRateLimiter(opts.RatePerSecond, opts.Burst),
		cors:     NewCORS(opts.CORSOrigins),
		ready:    opts.Ready,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

// Handler is the root handler, CORS included.
func (s *Server) Handler() http.Handler { return s.cors.Handler(s.router) }

// Limiter is the portal rate limiter, exposed so its cleanup can be scheduled.
func (s *Server) Limiter() *RateLimiter { return s.limiter }

func (s *Server) routes() {
	r := s.router
	r.Use(loggingMiddleware(s.log), metricsMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/customers", s.listCustomers).Methods(http.MethodGet)
	api.HandleFunc("/customers", s.createCustomer).Methods(http.MethodPost)
	api.HandleFunc("/customers/{id}", s.getCustomer).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", s.updateCustomer).Methods(http.MethodPut)
	api.HandleFunc("/customers/{id}", s.deleteCustomer).Methods(http.MethodDelete)
	api.HandleFunc("/customers/{id}/jobs", s.customerJobs).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}/invoices", s.customerInvoices).Methods(http.MethodGet)

	api.HandleFunc("/products", s.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", s.createProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/class/{class}", s.productsByClass).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.getProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.updateProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", s.deleteProduct).Methods(http.MethodDelete)

	api.HandleFunc("/jobs", s.listJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs", s.createJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id}", s.getJob).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", s.updateJob).Methods(http.MethodPut)
	api.HandleFunc("/jobs/{id}", s.deleteJob).Methods(http.MethodDelete)
	api.HandleFunc("/jobs/{id}/status", s.setJobStatus).Methods(http.MethodPatch)

	api.HandleFunc("/pricing/quote", s.quotePricing).Methods(http.MethodPost)
	api.HandleFunc("/invoices", s.listInvoices).Methods(http.MethodGet)
	api.HandleFunc("/invoices", s.createInvoice).Methods(http.MethodPost)
	api.HandleFunc("/invoices/from-job/{jobId}", s.invoiceFromJob).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{id}", s.getInvoice).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", s.updateInvoice).Methods(http.MethodPut)
	api.HandleFunc("/invoices/{id}", s.deleteInvoice).Methods(http.MethodDelete)
	api.HandleFunc("/invoices/{id}/status", s.setInvoiceStatus).Methods(http.MethodPatch)
	api.HandleFunc("/invoices/{id}/pdf", s.invoicePDF).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/preview", s.invoicePreview).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/archive", s.archiveInvoice).Methods(http.MethodPost)

	api.HandleFunc("/sales/activities", s.listActivities).Methods(http.MethodGet)
	api.HandleFunc("/sales/activities", s.createActivity).Methods(http.MethodPost)
	api.HandleFunc("/sales/activities/{id}", s.getActivity).Methods(http.MethodGet)
	api.HandleFunc("/sales/activities/{id}", s.updateActivity).Methods(http.MethodPut)
	api.HandleFunc("/sales/activities/{id}", s.deleteActivity).Methods(http.MethodDelete)
	api.HandleFunc("/sales/activities/{id}/complete", s.completeActivity).Methods(http.MethodPost)
	api.HandleFunc("/sales/quotations", s.listQuotations).Methods(http.MethodGet)
	api.HandleFunc("/sales/quotations", s.createQuotation).Methods(http.MethodPost)
	api.HandleFunc("/sales/quotations/{id}", s.getQuotation).Methods(http.MethodGet)
	api.HandleFunc("/sales/quotations/{id}", s.updateQuotation).Methods(http.MethodPut)
	api.HandleFunc("/sales/quotations/{id}", s.deleteQuotation).Methods(http.MethodDelete)
	api.HandleFunc("/sales/quotations/{id}/status", s.setQuotationStatus).Methods(http.MethodPatch)
	api.HandleFunc("/sales/quotations/{id}/convert", s.convertQuotation).Methods(http.MethodPost)
	api.HandleFunc("/sales/quotations/{id}/pdf", s.quotationPDF).Methods(http.MethodGet)
	api.HandleFunc("/sales/pipeline", s.pipeline).Methods(http.MethodGet)

	api.HandleFunc("/dashboard", s.dashboard).Methods(http.MethodGet)

	// Account administration sits beside the customer-facing portal and is
	// matched first.
	api.HandleFunc("/portal/users", s.listPortalUsers).Methods(http.MethodGet)
	api.HandleFunc("/portal/users", s.createPortalUser).Methods(http.MethodPost)
	api.HandleFunc("/portal/users/{id}", s.getPortalUser).Methods(http.MethodGet)
	api.HandleFunc("/portal/users/{id}", s.updatePortalUser).Methods(http.MethodPut)
	api.HandleFunc("/portal/users/{id}", s.deletePortalUser).Methods(http.MethodDelete)

	portalRouter := api.PathPrefix("/portal").Subrouter()
	portalRouter.Use(s.limiter.Handler)
	portalRouter.HandleFunc("/login", s.portalLogin).Methods(http.MethodPost)

	authed := portalRouter.NewRoute().Subrouter()
	authed.Use(s.portalAuth)
	authed.HandleFunc("/me", s.portalMe).Methods(http.MethodGet)
	authed.HandleFunc("/catalog", s.portalCatalog).Methods(http.MethodGet)
	authed.HandleFunc("/orders", s.portalOrders).Methods(http.MethodGet)
	authed.HandleFunc("/orders", s.portalPlaceOrder).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id}", s.portalOrder).Methods(http.MethodGet)
	authed.HandleFunc("/invoices", s.portalInvoices).Methods(http.MethodGet)
	authed.HandleFunc("/invoices/{id}/pdf", s.portalInvoicePDF).Methods(http.MethodGet)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			logging.FromContext(r.Context(), s.log).Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and runs struct validation.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("body", "request body is empty")
		}
		return apperr.Invalid("body", err.Error())
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Invalid("body", err.Error())
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return apperr.Required(field)
	case "email":
		return apperr.Invalid(field, "is not a valid address")
	case "gt":
		return apperr.Invalid(field, "must be greater than "+fe.Param())
	case "min":
		return apperr.Invalid(field, "must have at least "+fe.Param()+" entries")
	case "len":
		return apperr.Invalid(field, fmt.Sprintf("must be %s characters", fe.Param()))
	default:
		return apperr.Invalid(field, "failed "+fe.Tag()+" check")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to its status. Internal errors are logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context(), s.log).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeFile(w http.ResponseWriter, f service.File, disposition string) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, f.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Body)
}

func pathID(r *http.Request, name string) string { return mux.Vars(r)[name] }
