package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/sales"
)

func sampleInvoice() invoice.Invoice {
	issued := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return invoice.Invoice{
		InvoiceNumber: "INV-000042",
		PurchaseOrder: "PO-77",
		Status:        invoice.StatusSent,
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, 30),
		Currency:      "USD",
		TaxRate:       decimal.NewFromInt(16),
		Subtotal:      decimal.RequireFromString("1234.50"),
		TaxAmount:     decimal.RequireFromString("197.52"),
		Total:         decimal.RequireFromString("1432.02"),
		Notes:         "Deliver to reception <front desk>",
		Items: []invoice.LineItem{
			{
				Description:  "Vinyl banner",
				ProductClass: catalog.ClassWideFormat,
				Quantity:     1,
				UnitPrice:    decimal.NewFromInt(10),
				Length:       decimal.NewFromInt(2),
				Width:        decimal.NewFromInt(3),
				Area:         decimal.NewFromInt(6),
				TotalPrice:   decimal.NewFromInt(60),
			},
			{
				Description:  "Business cards",
				ProductClass: catalog.ClassStationery,
				Quantity:     500,
				UnitPrice:    decimal.RequireFromString("2.349"),
				TotalPrice:   decimal.RequireFromString("1174.50"),
			},
		},
	}
}

func TestAmountFormatting(t *testing.T) {
	r := New(Letterhead{})
	assert.Equal(t, "1,234.50", r.Amount(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.00", r.Amount(decimal.Zero))
	assert.Equal(t, "USD 1,432.02", r.Money("USD", decimal.RequireFromString("1432.02")))
}

func TestPDFRendersInvoice(t *testing.T) {
	r := New(Letterhead{CompanyName: "Print Shop", CompanyAddress: "1 Press Lane\nNairobi", BankAccount: "ACC 0001"})
	doc := InvoiceDocument(sampleInvoice(), customer.Customer{Name: "Jane Buyer", Company: "Acme Ltd"})

	out, err := r.PDF(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "INV-000042.pdf", doc.FileName())
}

func TestPDFRendersQuotationWithoutItems(t *testing.T) {
	r := New(Letterhead{CompanyName: "Print Shop"})
	q := sales.Quotation{QuoteNumber: "QUO-000003", Status: sales.QuotationDraft, Currency: "USD"}
	doc := QuotationDocument(q, customer.Customer{Name: "Walk-in"})

	out, err := r.PDF(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "Valid until", doc.DueLabel)
	assert.False(t, doc.ShowBank)
}

func TestHTMLPreview(t *testing.T) {
	r := New(Letterhead{CompanyName: "Print Shop", BankAccount: "ACC 0001"})
	var buf bytes.Buffer
	require.NoError(t, r.HTML(&buf, InvoiceDocument(sampleInvoice(), customer.Customer{Name: "Jane Buyer"})))

	html := buf.String()
	assert.Contains(t, html, "INVOICE INV-000042")
	assert.Contains(t, html, "2.00 x 3.00")
	assert.Contains(t, html, "6.0000")
	assert.Contains(t, html, "USD 1,432.02")
	assert.Contains(t, html, "Payment to: ACC 0001")
	assert.Contains(t, html, "&lt;front desk&gt;")
	assert.Equal(t, 1, strings.Count(html, "2.00 x 3.00"), "only area lines print dimensions")
}
