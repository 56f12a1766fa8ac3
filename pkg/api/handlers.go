package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/job"
	"github.com/printshop-service/pkg/service"
)

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func queryBool(r *http.Request, name string) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperr.Invalid(name, "must be true or false")
	}
	return b, nil
}

// Customers

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Customers.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c customer.Customer
	if err := s.decode(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.app.Customers.Create(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.app.Customers.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var c customer.Customer
	if err := s.decode(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.app.Customers.Update(r.Context(), pathID(r, "id"), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Customers.Delete(r.Context(), pathID(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) customerJobs(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Customers.Jobs(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) customerInvoices(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Customers.Invoices(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Products

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	var f catalog.Filter
	if class := r.URL.Query().Get("class"); class != "" {
		c, err := catalog.ParseClass(class)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		f.Class = c
	}
	active, err := queryBool(r, "active")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f.ActiveOnly = active

	out, err := s.app.Products.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) productsByClass(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Products.ByClass(r.Context(), pathID(r, "class"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := s.decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.app.Products.Create(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Products.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := s.decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.app.Products.Update(r.Context(), pathID(r, "id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Products.Delete(r.Context(), pathID(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Jobs

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	f := job.Filter{CustomerID: r.URL.Query().Get("customerId")}
	if status := r.URL.Query().Get("status"); status != "" {
		st, err := job.ParseStatus(status)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		f.Status = st
	}
	out, err := s.app.Jobs.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var in service.JobInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.app.Jobs.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.app.Jobs.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	var in service.JobInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.app.Jobs.Update(r.Context(), pathID(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Jobs.Delete(r.Context(), pathID(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setJobStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	j, err := s.app.Jobs.SetStatus(r.Context(), pathID(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Dashboard.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
