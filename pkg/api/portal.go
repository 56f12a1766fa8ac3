package api

import (
	"net/http"

	"github.com/printshop-service/pkg/service"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Account administration

func (s *Server) listPortalUsers(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Portal.ListUsers(r.Context(), r.URL.Query().Get("customerId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPortalUser(w http.ResponseWriter, r *http.Request) {
	var in service.UserInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.app.Portal.CreateUser(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) getPortalUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.app.Portal.GetUser(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) updatePortalUser(w http.ResponseWriter, r *http.Request) {
	var in service.UserInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.app.Portal.UpdateUser(r.Context(), pathID(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) deletePortalUser(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Portal.DeleteUser(r.Context(), pathID(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Customer-facing portal. Every handler below runs behind portalAuth.

func (s *Server) portalLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.app.Portal.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) portalMe(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Portal.Me(r.Context(), claimsFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) portalCatalog(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Portal.Catalog(r.Context(), r.URL.Query().Get("class"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) portalOrders(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Portal.Orders(r.Context(), claimsFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) portalOrder(w http.ResponseWriter, r *http.Request) {
	j, err := s.app.Portal.Order(r.Context(), claimsFrom(r.Context()), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) portalPlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in service.OrderInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	j, err := s.app.Portal.PlaceOrder(r.Context(), claimsFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (s *Server) portalInvoices(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Portal.Invoices(r.Context(), claimsFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) portalInvoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, err := s.app.Portal.Invoice(r.Context(), claimsFrom(r.Context()), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.app.Documents.RenderInvoice(r.Context(), inv)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, f, "attachment")
}
