package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReprice(t *testing.T) {
	inv := Invoice{
		CustomerID: "c1",
		TaxRate:    dec("10"),
		Items: []LineItem{
			{Description: "Banner", ProductClass: catalog.ClassWideFormat, Quantity: 1, UnitPrice: dec("10"), Length: dec("2"), Width: dec("3")},
			{Description: "Flyers", ProductClass: catalog.ClassSmallFormat, Quantity: 250, UnitPrice: dec("0.2"), Length: dec("9"), Width: dec("9")},
		},
		// client-supplied totals are discarded
		Total: dec("1"),
	}
	require.NoError(t, inv.Reprice())

	assert.True(t, dec("6").Equal(inv.Items[0].Area))
	assert.True(t, dec("60").Equal(inv.Items[0].TotalPrice))
	assert.True(t, inv.Items[1].Area.IsZero())
	assert.True(t, inv.Items[1].Length.IsZero(), "dimensions dropped for unit-priced lines")
	assert.True(t, dec("50").Equal(inv.Items[1].TotalPrice))
	assert.True(t, dec("110").Equal(inv.Subtotal))
	assert.True(t, dec("11").Equal(inv.TaxAmount))
	assert.True(t, dec("121").Equal(inv.Total))
	assert.True(t, inv.Subtotal.Add(inv.TaxAmount).Equal(inv.Total))
}

func TestPriceItemsErrors(t *testing.T) {
	_, _, err := PriceItems([]LineItem{
		{Description: "ok", Quantity: 1, UnitPrice: dec("1")},
		{Description: "Poster", ProductClass: catalog.ClassWideFormat, Quantity: 1, UnitPrice: dec("1"), Width: dec("1")},
	}, decimal.Zero)
	require.Error(t, err)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[1].length", verr.Field)

	_, _, err = PriceItems([]LineItem{{Quantity: 1}}, decimal.Zero)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[0].description", verr.Field)

	items, totals, err := PriceItems([]LineItem{{Description: "misc", Quantity: 2, UnitPrice: dec("5")}}, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, catalog.ClassOther, items[0].ProductClass)
	assert.True(t, dec("10").Equal(totals.Total))
}

func TestTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusSent))
	assert.True(t, CanTransition(StatusSent, StatusOverdue))
	assert.True(t, CanTransition(StatusOverdue, StatusPaid))
	assert.False(t, CanTransition(StatusPaid, StatusSent))
	assert.False(t, CanTransition(StatusDraft, StatusPaid))
	assert.False(t, CanTransition(StatusCancelled, StatusDraft))

	st, err := ParseStatus(" sent ")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, st)
	_, err = ParseStatus("void")
	assert.True(t, apperr.IsInvalid(err))
}

func TestValidateAndFilter(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := Invoice{CustomerID: "c1", IssueDate: now, DueDate: now.AddDate(0, 0, -1)}
	assert.True(t, apperr.IsInvalid(inv.Validate()))

	inv.DueDate = now.AddDate(0, 0, 30)
	inv.TaxRate = dec("120")
	assert.True(t, apperr.IsInvalid(inv.Validate()))

	inv.TaxRate = dec("16")
	require.NoError(t, inv.Validate())

	inv.Status = StatusSent
	assert.True(t, Filter{Status: StatusSent, DueBefore: now.AddDate(0, 1, 1)}.Match(inv))
	assert.False(t, Filter{DueBefore: now.AddDate(0, 0, 30)}.Match(inv))
	assert.False(t, Filter{CustomerID: "other"}.Match(inv))
}
