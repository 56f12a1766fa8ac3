package sales

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/invoice"
)

func TestQuotationReprice(t *testing.T) {
	q := Quotation{
		CustomerID: "c1",
		TaxRate:    decimal.NewFromInt(20),
		Items: []invoice.LineItem{
			{Description: "Vinyl wrap", ProductClass: catalog.ClassWideFormat, Quantity: 2, UnitPrice: decimal.NewFromInt(15), Length: decimal.NewFromInt(2), Width: decimal.NewFromInt(1)},
		},
	}
	require.NoError(t, q.Validate())
	require.NoError(t, q.Reprice())
	assert.True(t, decimal.NewFromInt(60).Equal(q.Subtotal))
	assert.True(t, decimal.NewFromInt(12).Equal(q.TaxAmount))
	assert.True(t, decimal.NewFromInt(72).Equal(q.Total))
}

func TestQuotationTransitions(t *testing.T) {
	assert.True(t, CanTransitionQuotation(QuotationDraft, QuotationSent))
	assert.True(t, CanTransitionQuotation(QuotationSent, QuotationExpired))
	assert.True(t, CanTransitionQuotation(QuotationAccepted, QuotationConverted))
	assert.False(t, CanTransitionQuotation(QuotationDraft, QuotationConverted))
	assert.False(t, CanTransitionQuotation(QuotationRejected, QuotationSent))

	_, err := ParseQuotationStatus("won")
	assert.True(t, apperr.IsInvalid(err))
}

func TestActivityValidate(t *testing.T) {
	a := Activity{CustomerID: "c1", Type: ActivityCall, Subject: "Intro call"}
	require.NoError(t, a.Validate())

	a.Type = "FAX"
	assert.True(t, apperr.IsInvalid(a.Validate()))

	a.Type = ActivityNote
	a.Subject = " "
	assert.True(t, apperr.IsInvalid(a.Validate()))
}

func TestBuildPipeline(t *testing.T) {
	quotes := []Quotation{
		{Status: QuotationDraft, Currency: "USD", Total: decimal.NewFromInt(100)},
		{Status: QuotationSent, Currency: "USD", Total: decimal.NewFromInt(250)},
		{Status: QuotationSent, Currency: "USD", Total: decimal.NewFromInt(50)},
		{Status: QuotationConverted, Currency: "USD", Total: decimal.NewFromInt(900)},
		{Status: QuotationRejected, Currency: "USD", Total: decimal.NewFromInt(300)},
		{Status: QuotationExpired, Currency: "USD", Total: decimal.NewFromInt(10)},
	}
	done := time.Now()
	activities := []Activity{
		{Subject: "call back"},
		{Subject: "sent samples", CompletedAt: &done},
	}

	p := BuildPipeline(quotes, activities)
	require.Len(t, p.Stages, len(PipelineStages))
	assert.Equal(t, QuotationDraft, p.Stages[0].Status)

	sent := p.Stages[1]
	assert.Equal(t, 2, sent.Count)
	assert.True(t, decimal.NewFromInt(300).Equal(sent.Value["USD"]))
	assert.True(t, decimal.NewFromInt(400).Equal(p.OpenValue["USD"]))
	assert.Equal(t, 1, p.OpenActivities)
	assert.Equal(t, "0.3333", p.ConversionRate.String())

	empty := BuildPipeline(nil, nil)
	assert.True(t, empty.ConversionRate.IsZero())
	assert.Empty(t, empty.OpenValue)
	assert.Empty(t, empty.Stages[0].Value)
}

func TestBuildPipelineKeepsCurrenciesApart(t *testing.T) {
	quotes := []Quotation{
		{Status: QuotationSent, Currency: "USD", Total: decimal.NewFromInt(100)},
		{Status: QuotationSent, Currency: "JPY", Total: decimal.NewFromInt(15000)},
		{Status: QuotationAccepted, Currency: "JPY", Total: decimal.NewFromInt(5000)},
		{Status: QuotationRejected, Currency: "EUR", Total: decimal.NewFromInt(70)},
	}

	p := BuildPipeline(quotes, nil)
	sent := p.Stages[1]
	require.Equal(t, QuotationSent, sent.Status)
	assert.Equal(t, 2, sent.Count)
	require.Len(t, sent.Value, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(sent.Value["USD"]))
	assert.True(t, decimal.NewFromInt(15000).Equal(sent.Value["JPY"]))

	require.Len(t, p.OpenValue, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(p.OpenValue["USD"]))
	assert.True(t, decimal.NewFromInt(20000).Equal(p.OpenValue["JPY"]))
	_, hasEUR := p.OpenValue["EUR"]
	assert.False(t, hasEUR, "closed stages do not count as open value")
}
