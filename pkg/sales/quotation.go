// Package sales covers the CRM side: quotations moving through the pipeline
// and the activities logged against customers.
package sales

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/pricing"
)

type QuotationStatus string

const (
	QuotationDraft     QuotationStatus = "DRAFT"
	QuotationSent      QuotationStatus = "SENT"
	QuotationAccepted  QuotationStatus = "ACCEPTED"
	QuotationRejected  QuotationStatus = "REJECTED"
	QuotationExpired   QuotationStatus = "EXPIRED"
	QuotationConverted QuotationStatus = "CONVERTED"
)

// PipelineStages is the order stages are reported in.
var PipelineStages = []QuotationStatus{
	QuotationDraft,
	QuotationSent,
	QuotationAccepted,
	QuotationRejected,
	QuotationExpired,
	QuotationConverted,
}

var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationDraft:    {QuotationSent},
	QuotationSent:     {QuotationAccepted, QuotationRejected, QuotationExpired},
	QuotationAccepted: {QuotationConverted},
}

func ParseQuotationStatus(s string) (QuotationStatus, error) {
	st := QuotationStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range PipelineStages {
		if st == known {
			return st, nil
		}
	}
	return "", apperr.Invalid("status", "unknown quotation status "+s)
}

func CanTransitionQuotation(from, to QuotationStatus) bool {
	for _, next := range quotationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Quotation struct {
	ID                 string             `json:"id"`
	QuoteNumber        string             `json:"quoteNumber"`
	CustomerID         string             `json:"customerId"`
	Status             QuotationStatus    `json:"status"`
	ValidUntil         time.Time          `json:"validUntil"`
	Currency           string             `json:"currency"`
	TaxRate            decimal.Decimal    `json:"taxRate"`
	Subtotal           decimal.Decimal    `json:"subtotal"`
	TaxAmount          decimal.Decimal    `json:"taxAmount"`
	Total              decimal.Decimal    `json:"total"`
	Notes              string             `json:"notes,omitempty"`
	Items              []invoice.LineItem `json:"items"`
	ConvertedInvoiceID string             `json:"convertedInvoiceId,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func (q Quotation) Validate() error {
	if q.CustomerID == "" {
		return apperr.Required("customerId")
	}
	return pricing.ValidateTaxRate(q.TaxRate)
}

// Reprice recomputes every line and the quotation totals in place.
func (q *Quotation) Reprice() error {
	items, totals, err := invoice.PriceItems(q.Items, q.TaxRate)
	if err != nil {
		return err
	}
	q.Items = items
	q.Subtotal = totals.Subtotal
	q.TaxAmount = totals.TaxAmount
	q.Total = totals.Total
	return nil
}

func (q Quotation) Clone() Quotation {
	out := q
	if q.Items != nil {
		out.Items = append([]invoice.LineItem(nil), q.Items...)
	}
	return out
}

type QuotationFilter struct {
	Status     QuotationStatus
	CustomerID string
}

func (f QuotationFilter) Match(q Quotation) bool {
	if f.Status != "" && q.Status != f.Status {
		return false
	}
	if f.CustomerID != "" && q.CustomerID != f.CustomerID {
		return false
	}
	return true
}
