package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/customer"
)

// SeedResult counts what Seed created.
type SeedResult struct {
	Products    int `json:"products"`
	Customers   int `json:"customers"`
	PortalUsers int `json:"portalUsers"`
}

var sampleProducts = []catalog.Product{
	{Name: "Vinyl banner", Class: catalog.ClassWideFormat, Unit: "m²", UnitPrice: decimal.RequireFromString("18.50"), PortalVisible: true, Active: true},
	{Name: "Self-adhesive vinyl", Class: catalog.ClassWideFormat, Unit: "m²", UnitPrice: decimal.RequireFromString("22.00"), PortalVisible: true, Active: true},
	{Name: "A5 flyers (100)", Class: catalog.ClassSmallFormat, Unit: "pack", UnitPrice: decimal.RequireFromString("35.00"), PortalVisible: true, Active: true},
	{Name: "Business cards (250)", Class: catalog.ClassStationery, Unit: "box", UnitPrice: decimal.RequireFromString("28.00"), PortalVisible: true, Active: true},
	{Name: "Aluminium composite sign", Class: catalog.ClassSignage, Unit: "each", UnitPrice: decimal.RequireFromString("140.00"), Active: true},
	{Name: "Lamination", Class: catalog.ClassFinishing, Unit: "m²", UnitPrice: decimal.RequireFromString("6.00"), Active: true},
}

const sampleCustomerEmail = "orders@acme-signs.test"

// SamplePortalEmail is the portal login Seed creates.
const SamplePortalEmail = "buyer@acme-signs.test"

// Seed loads a sample catalog, customer and portal login. Running it again
// creates nothing new.
func Seed(ctx context.Context, app *Application, portalPassword string) (SeedResult, error) {
	var res SeedResult

	existing, err := app.Products.List(ctx, catalog.Filter{})
	if err != nil {
		return res, err
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[p.Name] = true
	}
	for _, p := range sampleProducts {
		if names[p.Name] {
			continue
		}
		if _, err := app.Products.Create(ctx, p); err != nil {
			return res, fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		res.Products++
	}

	var acme customer.Customer
	found, err := app.Customers.List(ctx, sampleCustomerEmail)
	if err != nil {
		return res, err
	}
	if len(found) > 0 {
		acme = found[0]
	} else {
		acme, err = app.Customers.Create(ctx, customer.Customer{
			Name:    "Acme Signs",
			Company: "Acme Signs Ltd",
			Email:   sampleCustomerEmail,
			Phone:   "+1 555 0100",
			Address: "12 Harbour Road\nPort City",
		})
		if err != nil {
			return res, fmt.Errorf("seed customer: %w", err)
		}
		res.Customers++
	}

	_, err = app.Portal.store.GetPortalUserByEmail(ctx, SamplePortalEmail)
	switch {
	case err == nil:
	case apperr.IsNotFound(err):
		if _, err := app.Portal.CreateUser(ctx, UserInput{
			CustomerID: acme.ID,
			Email:      SamplePortalEmail,
			Name:       "Acme Buyer",
			Password:   portalPassword,
		}); err != nil {
			return res, fmt.Errorf("seed portal user: %w", err)
		}
		res.PortalUsers++
	default:
		return res, err
	}

	app.Customers.logger(ctx).Info("seed complete",
		zap.Int("products", res.Products),
		zap.Int("customers", res.Customers),
		zap.Int("portal_users", res.PortalUsers))
	return res, nil
}
