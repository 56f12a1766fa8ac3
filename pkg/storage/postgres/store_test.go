package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/customer"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/portal"
	"github.com/printshop-service/pkg/sales"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := New(db)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func TestCreateCustomerAssignsIDAndTimestamps(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO customers`).
		WithArgs(sqlmock.AnyArg(), "Acme", "Acme Ltd", "ops@acme.test", "", "", "", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, err := s.CreateCustomer(context.Background(), customer.Customer{Name: "Acme", Company: "Acme Ltd", Email: "ops@acme.test"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, fixedNow, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomerNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM customers WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetCustomer(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomerMalformedID(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM customers WHERE id = \$1`).
		WithArgs("not-a-uuid").
		WillReturnError(&pq.Error{Code: pgInvalidTextRepresentation, Message: `invalid input syntax for type uuid: "not-a-uuid"`})

	_, err := s.GetCustomer(context.Background(), "not-a-uuid")
	assert.True(t, apperr.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCustomersSearchEscapesPattern(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"id", "name", "company", "email", "phone", "address", "notes", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM customers WHERE \(name ILIKE \$1 OR company ILIKE \$1 OR email ILIKE \$1\) ORDER BY lower\(name\)`).
		WithArgs(`%50\%%`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", "Fifty Percent", "", "", "", "", "", fixedNow, fixedNow))

	got, err := s.ListCustomers(context.Background(), " 50% ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fifty Percent", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCustomerTranslatesErrors(t *testing.T) {
	t.Run("referenced", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM customers`).
			WithArgs("c1").
			WillReturnError(&pq.Error{Code: pgForeignKeyViolation, Detail: "still referenced from table jobs"})

		err := s.DeleteCustomer(context.Background(), "c1")
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM customers`).
			WithArgs("c1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.DeleteCustomer(context.Background(), "c1")
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestListProductsPortalFilter(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"id", "name", "description", "product_class", "unit", "unit_price", "portal_visible", "active", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM products WHERE product_class = \$1 AND active = \$2 AND portal_visible = \$3`).
		WithArgs("WIDE_FORMAT", true, true).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", "Vinyl banner", "", "WIDE_FORMAT", "sqm", "12.5000", true, true, fixedNow, fixedNow))

	got, err := s.ListProducts(context.Background(), catalog.Filter{Class: catalog.ClassWideFormat, PortalOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, catalog.ClassWideFormat, got[0].Class)
	assert.True(t, got[0].UnitPrice.Equal(decimal.RequireFromString("12.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceNumbersInsideTransaction(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO invoices .*nextval\('invoice_number_seq'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}).AddRow("INV-000007"))
	mock.ExpectExec(`INSERT INTO invoice_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inv := invoice.Invoice{
		CustomerID: "c1",
		Status:     invoice.StatusDraft,
		IssueDate:  fixedNow,
		DueDate:    fixedNow.AddDate(0, 0, 30),
		Currency:   "KES",
		Items: []invoice.LineItem{{
			Description:  "Banner",
			ProductClass: catalog.ClassWideFormat,
			Quantity:     1,
			UnitPrice:    decimal.NewFromInt(10),
			Length:       decimal.NewFromInt(2),
			Width:        decimal.NewFromInt(3),
		}},
	}
	created, err := s.CreateInvoice(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "INV-000007", created.InvoiceNumber)
	require.Len(t, created.Items, 1)
	assert.NotEmpty(t, created.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceRollsBackOnItemFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO invoices`).
		WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}).AddRow("INV-000008"))
	mock.ExpectExec(`INSERT INTO invoice_items`).
		WillReturnError(&pq.Error{Code: pgCheckViolation, Message: "quantity must be positive"})
	mock.ExpectRollback()

	_, err := s.CreateInvoice(context.Background(), invoice.Invoice{
		CustomerID: "c1",
		Items:      []invoice.LineItem{{Description: "Bad"}},
	})
	assert.True(t, apperr.IsInvalid(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInvoicesLoadsItemsInOneQuery(t *testing.T) {
	s, mock := newMockStore(t)
	invCols := []string{"id", "invoice_number", "purchase_order", "customer_id", "job_id", "status", "issue_date", "due_date",
		"currency", "tax_rate", "subtotal", "tax_amount", "total", "notes", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM invoices WHERE status = \$1 AND due_date < \$2 ORDER BY created_at DESC`).
		WithArgs("SENT", fixedNow).
		WillReturnRows(sqlmock.NewRows(invCols).
			AddRow("i1", "INV-000002", "", "c1", nil, "SENT", fixedNow, fixedNow, "KES", "16.00", "60.00", "9.60", "69.60", "", fixedNow, fixedNow).
			AddRow("i2", "INV-000001", "PO-1", "c1", "j1", "SENT", fixedNow, fixedNow, "KES", "0.00", "0.00", "0.00", "0.00", "", fixedNow, fixedNow))

	itemCols := []string{"invoice_id", "id", "product_id", "description", "product_class", "quantity",
		"unit_price", "length", "width", "area", "total_price"}
	mock.ExpectQuery(`FROM invoice_items WHERE invoice_id = ANY\(\$1::uuid\[\]\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("i1", "li1", nil, "Banner", "WIDE_FORMAT", 1, "10.0000", "2.0000", "3.0000", "6.0000", "60.00"))

	got, err := s.ListInvoices(context.Background(), invoice.Filter{Status: invoice.StatusSent, DueBefore: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Empty(t, got[0].JobID)
	require.Len(t, got[0].Items, 1)
	assert.True(t, got[0].Items[0].Area.Equal(decimal.NewFromInt(6)))
	assert.True(t, got[0].Total.Equal(decimal.RequireFromString("69.60")))

	assert.Equal(t, "j1", got[1].JobID)
	assert.NotNil(t, got[1].Items)
	assert.Empty(t, got[1].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActivitiesOpenOnly(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"id", "customer_id", "quotation_id", "type", "subject", "notes", "due_at", "completed_at", "created_at"}
	mock.ExpectQuery(`FROM sales_activities WHERE customer_id = \$1 AND completed_at IS NULL ORDER BY created_at DESC`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "c1", nil, "CALL", "Follow up on banner quote", "", fixedNow, nil, fixedNow))

	got, err := s.ListActivities(context.Background(), sales.ActivityFilter{CustomerID: "c1", OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].CompletedAt)
	require.NotNil(t, got[0].DueAt)
	assert.True(t, got[0].Open())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePortalUserDuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO portal_users`).
		WithArgs(sqlmock.AnyArg(), "c1", "buyer@acme.test", "", "", true, nil, fixedNow).
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Detail: "Key (email) already exists."})

	_, err := s.CreatePortalUser(context.Background(), portal.User{CustomerID: "c1", Email: " Buyer@Acme.test ", Active: true})
	assert.True(t, apperr.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var quotationCols = []string{"id", "quote_number", "customer_id", "status", "valid_until", "currency", "tax_rate",
	"subtotal", "tax_amount", "total", "notes", "converted_invoice_id", "created_at", "updated_at"}

func TestConvertQuotationLocksAndGuardsStatus(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM quotations WHERE id = \$1 FOR UPDATE`).
		WithArgs("q1").
		WillReturnRows(sqlmock.NewRows(quotationCols).
			AddRow("q1", "QUO-000003", "c1", "ACCEPTED", fixedNow, "USD", "16", "100", "16", "116", "", nil, fixedNow, fixedNow))
	mock.ExpectQuery(`INSERT INTO invoices`).
		WillReturnRows(sqlmock.NewRows([]string{"invoice_number"}).AddRow("INV-000011"))
	mock.ExpectExec(`UPDATE quotations SET status = \$2, converted_invoice_id = \$3, updated_at = \$4\s+WHERE id = \$1 AND status = \$5`).
		WithArgs("q1", "CONVERTED", sqlmock.AnyArg(), fixedNow, "ACCEPTED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM quotation_items`).
		WillReturnRows(sqlmock.NewRows([]string{"quotation_id"}))

	q, inv, err := s.ConvertQuotation(context.Background(), "q1", invoice.Invoice{CustomerID: "c1", Status: invoice.StatusDraft, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "INV-000011", inv.InvoiceNumber)
	assert.Equal(t, sales.QuotationConverted, q.Status)
	assert.Equal(t, inv.ID, q.ConvertedInvoiceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertQuotationAlreadyConverted(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM quotations WHERE id = \$1 FOR UPDATE`).
		WithArgs("q1").
		WillReturnRows(sqlmock.NewRows(quotationCols).
			AddRow("q1", "QUO-000003", "c1", "CONVERTED", fixedNow, "USD", "16", "100", "16", "116", "", "i9", fixedNow, fixedNow))
	mock.ExpectRollback()

	_, _, err := s.ConvertQuotation(context.Background(), "q1", invoice.Invoice{CustomerID: "c1"})
	assert.True(t, apperr.IsConflict(err))
	assert.Contains(t, err.Error(), "QUO-000003 is CONVERTED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceSecondOpenInvoiceForJob(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO invoices`).
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Constraint: jobInvoiceIndex, Detail: "Key (job_id)=(j1) already exists."})
	mock.ExpectRollback()

	_, err := s.CreateInvoice(context.Background(), invoice.Invoice{CustomerID: "c1", JobID: "j1", Status: invoice.StatusDraft})
	assert.True(t, apperr.IsConflict(err))
	assert.Contains(t, err.Error(), "job is already invoiced")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")

	assert.Nil(t, translate(nil, "job", "j1"))
	assert.True(t, apperr.IsInvalid(translate(&pq.Error{Code: pgCheckViolation}, "invoice", "i1")))
	assert.True(t, apperr.IsNotFound(translate(&pq.Error{Code: pgInvalidTextRepresentation}, "job", "not-a-uuid")))

	err := translate(other, "job", "j1")
	assert.ErrorIs(t, err, other)
	assert.False(t, apperr.IsNotFound(err))
}
