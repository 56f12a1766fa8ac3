package postgres

import (
	"context"
	"database/sql"

	"github.com/printshop-service/pkg/invoice"
)

// --- InvoiceStore ------------------------------------------------------------

const invoiceColumns = `id, invoice_number, purchase_order, customer_id, job_id, status, issue_date, due_date,
	currency, tax_rate, subtotal, tax_amount, total, notes, created_at, updated_at`

func scanInvoice(row rowScanner) (invoice.Invoice, error) {
	var (
		inv    invoice.Invoice
		jobID  sql.NullString
		status string
	)
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.PurchaseOrder, &inv.CustomerID, &jobID, &status,
		&inv.IssueDate, &inv.DueDate, &inv.Currency, &inv.TaxRate, &inv.Subtotal, &inv.TaxAmount, &inv.Total,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	inv.JobID = jobID.String
	inv.Status = invoice.Status(status)
	return inv, err
}

func (s *Store) CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		inv, err = s.insertInvoice(ctx, tx, inv)
		return err
	})
	if err != nil {
		return invoice.Invoice{}, translate(err, "invoice", inv.ID)
	}
	return inv, nil
}

// insertInvoice numbers and inserts inv with its items inside tx.
func (s *Store) insertInvoice(ctx context.Context, tx *sql.Tx, inv invoice.Invoice) (invoice.Invoice, error) {
	inv.ID = newID(inv.ID)
	inv.CreatedAt = s.now()
	inv.UpdatedAt = inv.CreatedAt

	row := tx.QueryRowContext(ctx, `
		INSERT INTO invoices (id, invoice_number, purchase_order, customer_id, job_id, status, issue_date, due_date,
			currency, tax_rate, subtotal, tax_amount, total, notes, created_at, updated_at)
		VALUES ($1, 'INV-' || lpad(nextval('invoice_number_seq')::text, 6, '0'), $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING invoice_number
	`, inv.ID, inv.PurchaseOrder, inv.CustomerID, nullString(inv.JobID), string(inv.Status), inv.IssueDate, inv.DueDate,
		inv.Currency, inv.TaxRate, inv.Subtotal, inv.TaxAmount, inv.Total, inv.Notes, inv.CreatedAt, inv.UpdatedAt)
	if err := row.Scan(&inv.InvoiceNumber); err != nil {
		return inv, err
	}
	items, err := invoiceItems.insert(ctx, tx, inv.ID, inv.Items)
	inv.Items = items
	return inv, err
}

func (s *Store) UpdateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	inv.UpdatedAt = s.now()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE invoices
			SET purchase_order = $2, customer_id = $3, job_id = $4, status = $5, issue_date = $6, due_date = $7,
				currency = $8, tax_rate = $9, subtotal = $10, tax_amount = $11, total = $12, notes = $13, updated_at = $14
			WHERE id = $1
			RETURNING invoice_number, created_at
		`, inv.ID, inv.PurchaseOrder, inv.CustomerID, nullString(inv.JobID), string(inv.Status), inv.IssueDate, inv.DueDate,
			inv.Currency, inv.TaxRate, inv.Subtotal, inv.TaxAmount, inv.Total, inv.Notes, inv.UpdatedAt)
		if err := row.Scan(&inv.InvoiceNumber, &inv.CreatedAt); err != nil {
			return err
		}
		items, err := invoiceItems.replace(ctx, tx, inv.ID, inv.Items)
		inv.Items = items
		return err
	})
	if err != nil {
		return invoice.Invoice{}, translate(err, "invoice", inv.ID)
	}
	return inv, nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (invoice.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return invoice.Invoice{}, translate(err, "invoice", id)
	}
	items, err := invoiceItems.load(ctx, s.db, []string{inv.ID})
	if err != nil {
		return invoice.Invoice{}, translate(err, "invoice item", id)
	}
	inv.Items = nonNilItems(items[inv.ID])
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, f invoice.Filter) ([]invoice.Invoice, error) {
	var w where
	if f.Status != "" {
		w.add(`status = $%[1]d`, string(f.Status))
	}
	if f.CustomerID != "" {
		w.add(`customer_id = $%[1]d`, f.CustomerID)
	}
	if f.JobID != "" {
		w.add(`job_id = $%[1]d`, f.JobID)
	}
	if !f.DueBefore.IsZero() {
		w.add(`due_date < $%[1]d`, f.DueBefore)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices`+w.String()+` ORDER BY created_at DESC, invoice_number DESC`, w.args...)
	if err != nil {
		return nil, translate(err, "invoice", "")
	}
	defer rows.Close()

	var (
		result []invoice.Invoice
		ids    []string
	)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := invoiceItems.load(ctx, s.db, ids)
	if err != nil {
		return nil, translate(err, "invoice item", "")
	}
	for i := range result {
		result[i].Items = nonNilItems(items[result[i].ID])
	}
	return result, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return translate(err, "invoice", id)
	}
	return affected(res, "invoice", id)
}

func nonNilItems(items []invoice.LineItem) []invoice.LineItem {
	if items == nil {
		return []invoice.LineItem{}
	}
	return items
}
