package service

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/metrics"
	"github.com/printshop-service/pkg/render"
)

// File is a rendered document ready to download.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Archived reports where an invoice PDF was stored.
type Archived struct {
	InvoiceID string `json:"invoiceId"`
	File      string `json:"file"`
	URL       string `json:"url"`
}

// Documents renders invoices and quotations and archives them.
type Documents struct {
	base
	renderer *render.Renderer
	archive  Archiver
}

func (s *Documents) invoiceDocument(ctx context.Context, inv invoice.Invoice) (render.Document, error) {
	c, err := s.store.GetCustomer(ctx, inv.CustomerID)
	if err != nil {
		return render.Document{}, err
	}
	return render.InvoiceDocument(inv, c), nil
}

func (s *Documents) pdf(ctx context.Context, kind string, doc render.Document) (File, error) {
	body, err := s.renderer.PDF(doc)
	if err != nil {
		s.logger(ctx).Error("pdf render failed", zap.String("number", doc.Number), zap.Error(err))
		return File{}, err
	}
	metrics.PDFRendered(kind)
	return File{Name: doc.FileName(), ContentType: "application/pdf", Body: body}, nil
}

// InvoicePDF renders the invoice with the given id.
func (s *Documents) InvoicePDF(ctx context.Context, id string) (File, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return File{}, err
	}
	return s.RenderInvoice(ctx, inv)
}

// RenderInvoice renders an invoice already loaded by the caller.
func (s *Documents) RenderInvoice(ctx context.Context, inv invoice.Invoice) (File, error) {
	doc, err := s.invoiceDocument(ctx, inv)
	if err != nil {
		return File{}, err
	}
	return s.pdf(ctx, "invoice", doc)
}

// InvoiceHTML renders a browser preview of the invoice.
func (s *Documents) InvoiceHTML(ctx context.Context, id string) ([]byte, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.invoiceDocument(ctx, inv)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.renderer.HTML(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Documents) QuotationPDF(ctx context.Context, id string) (File, error) {
	q, err := s.store.GetQuotation(ctx, id)
	if err != nil {
		return File{}, err
	}
	c, err := s.store.GetCustomer(ctx, q.CustomerID)
	if err != nil {
		return File{}, err
	}
	return s.pdf(ctx, "quotation", render.QuotationDocument(q, c))
}

// ArchiveInvoice renders the invoice PDF and uploads it to object storage.
func (s *Documents) ArchiveInvoice(ctx context.Context, id string) (Archived, error) {
	if s.archive == nil {
		return Archived{}, apperr.Unavailable("document archive is not configured")
	}
	f, err := s.InvoicePDF(ctx, id)
	if err != nil {
		return Archived{}, err
	}
	url, err := s.archive.Put(ctx, f.Name, f.ContentType, f.Body)
	metrics.ArchiveUpload(err == nil)
	if err != nil {
		s.logger(ctx).Error("invoice archive failed", zap.String("invoice_id", id), zap.Error(err))
		return Archived{}, err
	}
	s.logger(ctx).Info("invoice archived", zap.String("invoice_id", id), zap.String("url", url))
	return Archived{InvoiceID: id, File: f.Name, URL: url}, nil
}
