package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop-service/pkg/apperr"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPrice(t *testing.T) {
	tests := []struct {
		name      string
		line      Line
		wantArea  string
		wantTotal string
	}{
		{
			name:      "wide format by area",
			line:      Line{AreaBased: true, Length: d("2"), Width: d("3"), UnitPrice: d("10"), Quantity: 1},
			wantArea:  "6",
			wantTotal: "60",
		},
		{
			name:      "wide format multiplies by quantity",
			line:      Line{AreaBased: true, Length: d("1.5"), Width: d("0.8"), UnitPrice: d("12.5"), Quantity: 4},
			wantArea:  "1.2",
			wantTotal: "60",
		},
		{
			name:      "unit priced ignores dimensions",
			line:      Line{Length: d("2"), Width: d("3"), UnitPrice: d("0.35"), Quantity: 500},
			wantArea:  "0",
			wantTotal: "175",
		},
		{
			name:      "rounds half away from zero",
			line:      Line{UnitPrice: d("0.125"), Quantity: 1},
			wantArea:  "0",
			wantTotal: "0.13",
		},
		{
			name:      "zero price is allowed",
			line:      Line{UnitPrice: decimal.Zero, Quantity: 3},
			wantArea:  "0",
			wantTotal: "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Price(tt.line)
			require.NoError(t, err)
			assert.True(t, d(tt.wantArea).Equal(res.Area), "area %s", res.Area)
			assert.True(t, d(tt.wantTotal).Equal(res.Total), "total %s", res.Total)
		})
	}
}

func TestPriceRejects(t *testing.T) {
	tests := []struct {
		name  string
		line  Line
		field string
	}{
		{"zero quantity", Line{UnitPrice: d("1"), Quantity: 0}, "quantity"},
		{"negative quantity", Line{UnitPrice: d("1"), Quantity: -2}, "quantity"},
		{"negative price", Line{UnitPrice: d("-1"), Quantity: 1}, "unitPrice"},
		{"wide format without length", Line{AreaBased: true, Width: d("1"), UnitPrice: d("1"), Quantity: 1}, "length"},
		{"wide format negative width", Line{AreaBased: true, Length: d("1"), Width: d("-1"), UnitPrice: d("1"), Quantity: 1}, "width"},
		{"unit priced negative length", Line{Length: d("-2"), UnitPrice: d("1"), Quantity: 1}, "length"},
		{"unit priced negative width", Line{Width: d("-0.5"), UnitPrice: d("1"), Quantity: 1}, "width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Price(tt.line)
			require.Error(t, err)
			assert.True(t, apperr.IsInvalid(err))
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSummarize(t *testing.T) {
	totals, err := Summarize([]decimal.Decimal{d("60"), d("175"), d("0.13")}, d("16"))
	require.NoError(t, err)
	assert.True(t, d("235.13").Equal(totals.Subtotal), totals.Subtotal.String())
	assert.True(t, d("37.62").Equal(totals.TaxAmount), totals.TaxAmount.String())
	assert.True(t, totals.Subtotal.Add(totals.TaxAmount).Equal(totals.Total))

	empty, err := Summarize(nil, d("20"))
	require.NoError(t, err)
	assert.True(t, empty.Total.IsZero())

	_, err = Summarize(nil, d("100.01"))
	assert.True(t, apperr.IsInvalid(err))
	_, err = Summarize(nil, d("-1"))
	assert.True(t, apperr.IsInvalid(err))
}

func TestValidateTaxRateScale(t *testing.T) {
	assert.NoError(t, ValidateTaxRate(d("16")))
	assert.NoError(t, ValidateTaxRate(d("7.25")))
	assert.NoError(t, ValidateTaxRate(d("7.250")))

	err := ValidateTaxRate(d("7.125"))
	require.Error(t, err)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "taxRate", verr.Field)
	assert.Equal(t, "taxRate: must have at most 2 decimal places", err.Error())
}
