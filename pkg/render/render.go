// Package render turns invoices and quotations into printable documents:
// PDF through gofpdf and an HTML preview through html/template.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/sales"
)

//go:embed templates/*.html
var templateFS embed.FS

// Letterhead is the seller block printed on every document.
type Letterhead struct {
	CompanyName    string
	CompanyAddress string
	BankAccount    string
}

// Document is the printable view shared by invoices and quotations.
type Document struct {
	Title     string
	Number    string
	Reference string
	Status    string
	IssueDate time.Time
	DueLabel  string
	DueDate   time.Time
	Currency  string
	BillTo    customer.Customer
	Items     []invoice.LineItem
	TaxRate   decimal.Decimal
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
	Notes     string
	ShowBank  bool
}

// FileName is the download name of the rendered PDF.
func (d Document) FileName() string { return d.Number + ".pdf" }

func InvoiceDocument(inv invoice.Invoice, billTo customer.Customer) Document {
	return Document{
		Title:     "INVOICE",
		Number:    inv.InvoiceNumber,
		Reference: inv.PurchaseOrder,
		Status:    string(inv.Status),
		IssueDate: inv.IssueDate,
		DueLabel:  "Due date",
		DueDate:   inv.DueDate,
		Currency:  inv.Currency,
		BillTo:    billTo,
		Items:     inv.Items,
		TaxRate:   inv.TaxRate,
		Subtotal:  inv.Subtotal,
		TaxAmount: inv.TaxAmount,
		Total:     inv.Total,
		Notes:     inv.Notes,
		ShowBank:  true,
	}
}

func QuotationDocument(q sales.Quotation, billTo customer.Customer) Document {
	return Document{
		Title:     "QUOTATION",
		Number:    q.QuoteNumber,
		Status:    string(q.Status),
		IssueDate: q.CreatedAt,
		DueLabel:  "Valid until",
		DueDate:   q.ValidUntil,
		Currency:  q.Currency,
		BillTo:    billTo,
		Items:     q.Items,
		TaxRate:   q.TaxRate,
		Subtotal:  q.Subtotal,
		TaxAmount: q.TaxAmount,
		Total:     q.Total,
		Notes:     q.Notes,
	}
}

// Renderer holds the letterhead and number formatting used for output.
type Renderer struct {
	head    Letterhead
	printer *message.Printer
	html    *template.Template
}

func New(head Letterhead) *Renderer {
	r := &Renderer{head: head, printer: message.NewPrinter(language.English)}
	r.html = template.Must(template.New("document.html").Funcs(template.FuncMap{
		"money":    r.Amount,
		"date":     formatDate,
		"measure":  formatMeasure,
		"areaLine": func(it invoice.LineItem) bool { return it.ProductClass.AreaBased() },
	}).ParseFS(templateFS, "templates/document.html"))
	return r
}

// Amount formats d with thousands separators and two decimals.
func (r *Renderer) Amount(d decimal.Decimal) string {
	return r.printer.Sprintf("%v", number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// Money prefixes Amount with the currency code.
func (r *Renderer) Money(currency string, d decimal.Decimal) string {
	return strings.TrimSpace(currency + " " + r.Amount(d))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

func formatMeasure(d decimal.Decimal) string { return d.StringFixed(2) }

// HTML writes the preview page for doc.
func (r *Renderer) HTML(w io.Writer, doc Document) error {
	return r.html.Execute(w, struct {
		Head Letterhead
		Doc  Document
	}{r.head, doc})
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Description", 62, "L"},
	{"Qty", 14, "R"},
	{"L x W (m)", 30, "C"},
	{"Area (m2)", 20, "R"},
	{"Unit price", 30, "R"},
	{"Amount", 34, "R"},
}

// PDF renders doc on A4.
func (r *Renderer) PDF(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title+" "+doc.Number, true)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(120, 8, tr(r.head.CompanyName), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(70, 8, tr(doc.Title), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if r.head.CompanyAddress != "" {
		pdf.MultiCell(120, 4.5, tr(r.head.CompanyAddress), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	meta := [][2]string{
		{"Number", doc.Number},
		{"Date", formatDate(doc.IssueDate)},
		{doc.DueLabel, formatDate(doc.DueDate)},
		{"Status", doc.Status},
	}
	if doc.Reference != "" {
		meta = append(meta, [2]string{"PO", doc.Reference})
	}
	top := pdf.GetY()
	for _, m := range meta {
		pdf.SetX(130)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(25, 5, tr(m[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(45, 5, tr(m[1]), "", 1, "R", false, 0, "")
	}
	bottom := pdf.GetY()

	pdf.SetXY(10, top)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 5, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range billToLines(doc.BillTo) {
		pdf.CellFormat(110, 5, tr(line), "", 1, "L", false, 0, "")
	}
	if pdf.GetY() < bottom {
		pdf.SetY(bottom)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, it := range doc.Items {
		size, area := "", ""
		if it.ProductClass.AreaBased() {
			size = formatMeasure(it.Length) + " x " + formatMeasure(it.Width)
			area = it.Area.StringFixed(4)
		}
		cells := []string{
			it.Description,
			fmt.Sprintf("%d", it.Quantity),
			size,
			area,
			r.Amount(it.UnitPrice),
			r.Amount(it.TotalPrice),
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 6, tr(cells[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	totals := [][2]string{
		{"Subtotal", r.Money(doc.Currency, doc.Subtotal)},
		{"Tax (" + doc.TaxRate.String() + "%)", r.Money(doc.Currency, doc.TaxAmount)},
		{"Total", r.Money(doc.Currency, doc.Total)},
	}
	for i, t := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.SetX(120)
		pdf.CellFormat(36, 6, tr(t[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(44, 6, tr(t[1]), "", 1, "R", false, 0, "")
	}

	if doc.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 5, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 4.5, tr(doc.Notes), "", "L", false)
	}
	if doc.ShowBank && r.head.BankAccount != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 4.5, tr("Payment to: "+r.head.BankAccount), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render %s pdf: %w", doc.Number, err)
	}
	return buf.Bytes(), nil
}

func billToLines(c customer.Customer) []string {
	var lines []string
	for _, s := range []string{c.Name, c.Company, c.Address, c.Email, c.Phone} {
		s = strings.TrimSpace(s)
		if s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
