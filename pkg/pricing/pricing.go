// Package pricing holds the line and document arithmetic used by invoices,
// quotations and the pricing preview endpoint. Stored documents are always
// repriced here; amounts sent by clients are never trusted.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/printshop-service/pkg/apperr"
)

const (
	// MoneyPlaces is the scale of every monetary amount.
	MoneyPlaces = 2
	// AreaPlaces is the scale of a computed area.
	AreaPlaces = 4
	// TaxRatePlaces is the scale of a stored tax rate percentage.
	TaxRatePlaces = 2
)

var hundred = decimal.NewFromInt(100)

// Line is one priced row of an invoice or quotation.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
	Length    decimal.Decimal
	Width     decimal.Decimal
	// AreaBased marks wide-format rows priced per square unit.
	AreaBased bool
}

// Result is the computed part of a Line.
type Result struct {
	Area  decimal.Decimal
	Total decimal.Decimal
}

// Totals are the document-level amounts.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
	Total     decimal.Decimal `json:"total"`
}

// Price computes the area and total of a single line.
//
// Area-based lines: area = length × width, total = area × unitPrice × quantity.
// Other lines: total = quantity × unitPrice.
func Price(l Line) (Result, error) {
	if l.Quantity <= 0 {
		return Result{}, apperr.Invalid("quantity", "must be greater than zero")
	}
	if l.UnitPrice.IsNegative() {
		return Result{}, apperr.Invalid("unitPrice", "must not be negative")
	}
	if l.Length.IsNegative() {
		return Result{}, apperr.Invalid("length", "must not be negative")
	}
	if l.Width.IsNegative() {
		return Result{}, apperr.Invalid("width", "must not be negative")
	}
	qty := decimal.NewFromInt(int64(l.Quantity))

	if !l.AreaBased {
		return Result{
			Area:  decimal.Zero,
			Total: Round(qty.Mul(l.UnitPrice)),
		}, nil
	}

	if !l.Length.IsPositive() {
		return Result{}, apperr.Invalid("length", "must be greater than zero for wide-format items")
	}
	if !l.Width.IsPositive() {
		return Result{}, apperr.Invalid("width", "must be greater than zero for wide-format items")
	}
	area := l.Length.Mul(l.Width)
	return Result{
		Area:  area.Round(AreaPlaces),
		Total: Round(area.Mul(l.UnitPrice).Mul(qty)),
	}, nil
}

// Summarize adds up line totals and applies taxRate, a percentage in [0, 100].
func Summarize(lineTotals []decimal.Decimal, taxRate decimal.Decimal) (Totals, error) {
	if err := ValidateTaxRate(taxRate); err != nil {
		return Totals{}, err
	}
	subtotal := decimal.Zero
	for _, t := range lineTotals {
		subtotal = subtotal.Add(t)
	}
	subtotal = Round(subtotal)
	tax := Round(subtotal.Mul(taxRate).Div(hundred))
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}, nil
}

// ValidateTaxRate rejects rates outside [0, 100] and rates finer than the
// two decimal places a stored document keeps.
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return apperr.Invalid("taxRate", "must be between 0 and 100")
	}
	if !rate.Equal(rate.Truncate(TaxRatePlaces)) {
		return apperr.Invalid("taxRate", "must have at most 2 decimal places")
	}
	return nil
}

// Round rounds a monetary amount half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
