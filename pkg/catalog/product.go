// Package catalog describes the products the shop sells.
package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printshop-service/pkg/apperr"
)

// Class groups products by how they are produced and priced.
type Class string

const (
	ClassWideFormat  Class = "WIDE_FORMAT"
	ClassSmallFormat Class = "SMALL_FORMAT"
	ClassSignage     Class = "LARGE_FORMAT_SIGNAGE"
	ClassStationery  Class = "STATIONERY"
	ClassFinishing   Class = "FINISHING"
	ClassOther       Class = "OTHER"
)

// Classes lists every known class in display order.
var Classes = []Class{
	ClassWideFormat,
	ClassSmallFormat,
	ClassSignage,
	ClassStationery,
	ClassFinishing,
	ClassOther,
}

// ParseClass accepts a class name in any case.
func ParseClass(s string) (Class, error) {
	c := Class(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", apperr.Invalid("productClass", "unknown product class "+s)
	}
	return c, nil
}

func (c Class) Valid() bool {
	for _, known := range Classes {
		if c == known {
			return true
		}
	}
	return false
}

// AreaBased reports whether items of this class are priced by length × width.
func (c Class) AreaBased() bool { return c == ClassWideFormat }

// Product is a catalog entry.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Class         Class           `json:"productClass"`
	Unit          string          `json:"unit,omitempty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	PortalVisible bool            `json:"portalVisible"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Validate checks the fields a product must carry before it is stored.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Required("name")
	}
	if !p.Class.Valid() {
		return apperr.Invalid("productClass", "unknown product class "+string(p.Class))
	}
	if p.UnitPrice.IsNegative() {
		return apperr.Invalid("unitPrice", "must not be negative")
	}
	return nil
}

// Filter narrows product listings. Zero value lists everything.
type Filter struct {
	Class      Class
	ActiveOnly bool
	PortalOnly bool
}

// Match reports whether p passes f.
func (f Filter) Match(p Product) bool {
	if f.Class != "" && p.Class != f.Class {
		return false
	}
	if f.ActiveOnly && !p.Active {
		return false
	}
	if f.PortalOnly && !(p.PortalVisible && p.Active) {
		return false
	}
	return true
}
