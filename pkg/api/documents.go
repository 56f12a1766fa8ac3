package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/sales"
	"github.com/printshop-service/pkg/service"
)

type quoteRequest struct {
	TaxRate *decimal.Decimal    `json:"taxRate"`
	Items   []service.ItemInput `json:"items" validate:"min=1,dive"`
}

type conversionResponse struct {
	Quotation sales.Quotation `json:"quotation"`
	Invoice   invoice.Invoice `json:"invoice"`
}

// Invoices

func (s *Server) quotePricing(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.app.Invoices.Quote(r.Context(), req.Items, req.TaxRate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := invoice.Filter{CustomerID: q.Get("customerId"), JobID: q.Get("jobId")}
	if status := q.Get("status"); status != "" {
		st, err := invoice.ParseStatus(status)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		f.Status = st
	}
	out, err := s.app.Invoices.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var in service.InvoiceInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.app.Invoices.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) invoiceFromJob(w http.ResponseWriter, r *http.Request) {
	inv, err := s.app.Invoices.FromJob(r.Context(), pathID(r, "jobId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.app.Invoices.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var in service.InvoiceInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.app.Invoices.Update(r.Context(), pathID(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Invoices.Delete(r.Context(), pathID(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.app.Invoices.SetStatus(r.Context(), pathID(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) invoicePDF(w http.ResponseWriter, r *http.Request) {
	f, err := s.app.Documents.InvoicePDF(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, f, "attachment")
}

func (s *Server) invoicePreview(w http.ResponseWriter, r *http.Request) {
	page, err := s.app.Documents.InvoiceHTML(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) archiveInvoice(w http.ResponseWriter, r *http.Request) {
	out, err := s.app.Documents.ArchiveInvoice(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Sales

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	open, err := queryBool(r, "open")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.app.Sales.ListActivities(r.Context(), sales.ActivityFilter{
		CustomerID: r.URL.Query().Get("customerId"),
		OpenOnly:   open,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createActivity(w http.ResponseWriter, r *http.Request) {
	var in service.ActivityInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.app.Sales.CreateActivity(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) getActivity(w http.ResponseWriter, r *http.Request) {
	a, err := s.app.Sales.GetActivity(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) updateActivity(w http.ResponseWriter, r *http.Request) {
	var in service.ActivityInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.app.Sales.UpdateActivity(r.Context(), pathID(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Sales.DeleteActivity(r.Context(), pathID(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) completeActivity(w http.ResponseWriter, r *http.Request) {
	a, err := s.app.Sales.CompleteActivity(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) listQuotations(w http.ResponseWriter, r *http.Request) {
	f := sales.QuotationFilter{CustomerID: r.URL.Query().Get("customerId")}
	if status := r.URL.Query().Get("status"); status != "" {
		st, err := sales.ParseQuotationStatus(status)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		f.Status = st
	}
	out, err := s.app.Sales.ListQuotations(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createQuotation(w http.ResponseWriter, r *http.Request) {
	var in service.QuotationInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.app.Sales.CreateQuotation(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) getQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := s.app.Sales.GetQuotation(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) updateQuotation(w http.ResponseWriter, r *http.Request) {
	var in service.QuotationInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.app.Sales.UpdateQuotation(r.Context(), pathID(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) deleteQuotation(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Sales.DeleteQuotation(r.Context(), pathID(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setQuotationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.app.Sales.SetQuotationStatus(r.Context(), pathID(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) convertQuotation(w http.ResponseWriter, r *http.Request) {
	q, inv, err := s.app.Sales.Convert(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversionResponse{Quotation: q, Invoice: inv})
}

func (s *Server) quotationPDF(w http.ResponseWriter, r *http.Request) {
	f, err := s.app.Documents.QuotationPDF(r.Context(), pathID(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, f, "attachment")
}

func (s *Server) pipeline(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Sales.Pipeline(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
