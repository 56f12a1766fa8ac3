package postgres

import (
	"context"
	"database/sql"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/invoice"
	"github.com/printshop-service/pkg/sales"
)

// --- QuotationStore ----------------------------------------------------------

const quotationColumns = `id, quote_number, customer_id, status, valid_until, currency, tax_rate,
	subtotal, tax_amount, total, notes, converted_invoice_id, created_at, updated_at`

func scanQuotation(row rowScanner) (sales.Quotation, error) {
	var (
		q         sales.Quotation
		status    string
		converted sql.NullString
	)
	err := row.Scan(&q.ID, &q.QuoteNumber, &q.CustomerID, &status, &q.ValidUntil, &q.Currency, &q.TaxRate,
		&q.Subtotal, &q.TaxAmount, &q.Total, &q.Notes, &converted, &q.CreatedAt, &q.UpdatedAt)
	q.Status = sales.QuotationStatus(status)
	q.ConvertedInvoiceID = converted.String
	return q, err
}

func (s *Store) CreateQuotation(ctx context.Context, q sales.Quotation) (sales.Quotation, error) {
	q.ID = newID(q.ID)
	q.CreatedAt = s.now()
	q.UpdatedAt = q.CreatedAt

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO quotations (id, quote_number, customer_id, status, valid_until, currency, tax_rate,
				subtotal, tax_amount, total, notes, converted_invoice_id, created_at, updated_at)
			VALUES ($1, 'QUO-' || lpad(nextval('quote_number_seq')::text, 6, '0'), $2, $3, $4, $5, $6,
				$7, $8, $9, $10, $11, $12, $13)
			RETURNING quote_number
		`, q.ID, q.CustomerID, string(q.Status), q.ValidUntil, q.Currency, q.TaxRate,
			q.Subtotal, q.TaxAmount, q.Total, q.Notes, nullString(q.ConvertedInvoiceID), q.CreatedAt, q.UpdatedAt)
		if err := row.Scan(&q.QuoteNumber); err != nil {
			return err
		}
		items, err := quotationItems.insert(ctx, tx, q.ID, q.Items)
		q.Items = items
		return err
	})
	if err != nil {
		return sales.Quotation{}, translate(err, "quotation", q.ID)
	}
	return q, nil
}

func (s *Store) UpdateQuotation(ctx context.Context, q sales.Quotation) (sales.Quotation, error) {
	q.UpdatedAt = s.now()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE quotations
			SET customer_id = $2, status = $3, valid_until = $4, currency = $5, tax_rate = $6,
				subtotal = $7, tax_amount = $8, total = $9, notes = $10, converted_invoice_id = $11, updated_at = $12
			WHERE id = $1
			RETURNING quote_number, created_at
		`, q.ID, q.CustomerID, string(q.Status), q.ValidUntil, q.Currency, q.TaxRate,
			q.Subtotal, q.TaxAmount, q.Total, q.Notes, nullString(q.ConvertedInvoiceID), q.UpdatedAt)
		if err := row.Scan(&q.QuoteNumber, &q.CreatedAt); err != nil {
			return err
		}
		items, err := quotationItems.replace(ctx, tx, q.ID, q.Items)
		q.Items = items
		return err
	})
	if err != nil {
		return sales.Quotation{}, translate(err, "quotation", q.ID)
	}
	return q, nil
}

func (s *Store) GetQuotation(ctx context.Context, id string) (sales.Quotation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		return sales.Quotation{}, translate(err, "quotation", id)
	}
	items, err := quotationItems.load(ctx, s.db, []string{q.ID})
	if err != nil {
		return sales.Quotation{}, translate(err, "quotation item", id)
	}
	q.Items = nonNilItems(items[q.ID])
	return q, nil
}

func (s *Store) ListQuotations(ctx context.Context, f sales.QuotationFilter) ([]sales.Quotation, error) {
	var w where
	if f.Status != "" {
		w.add(`status = $%[1]d`, string(f.Status))
	}
	if f.CustomerID != "" {
		w.add(`customer_id = $%[1]d`, f.CustomerID)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+quotationColumns+` FROM quotations`+w.String()+` ORDER BY created_at DESC, quote_number DESC`, w.args...)
	if err != nil {
		return nil, translate(err, "quotation", "")
	}
	defer rows.Close()

	var (
		result []sales.Quotation
		ids    []string
	)
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := quotationItems.load(ctx, s.db, ids)
	if err != nil {
		return nil, translate(err, "quotation item", "")
	}
	for i := range result {
		result[i].Items = nonNilItems(items[result[i].ID])
	}
	return result, nil
}

func (s *Store) DeleteQuotation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return translate(err, "quotation", id)
	}
	return affected(res, "quotation", id)
}

// ConvertQuotation locks the quotation row so concurrent conversions
// serialize; the loser sees CONVERTED and gets a conflict.
func (s *Store) ConvertQuotation(ctx context.Context, id string, inv invoice.Invoice) (sales.Quotation, invoice.Invoice, error) {
	var q sales.Quotation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1 FOR UPDATE`, id)
		var err error
		if q, err = scanQuotation(row); err != nil {
			return err
		}
		if q.Status != sales.QuotationAccepted {
			return apperr.Conflict("quotation %s is %s; only ACCEPTED quotations can be converted", q.QuoteNumber, q.Status)
		}
		if inv, err = s.insertInvoice(ctx, tx, inv); err != nil {
			return err
		}
		q.Status = sales.QuotationConverted
		q.ConvertedInvoiceID = inv.ID
		q.UpdatedAt = s.now()
		_, err = tx.ExecContext(ctx, `
			UPDATE quotations SET status = $2, converted_invoice_id = $3, updated_at = $4
			WHERE id = $1 AND status = $5
		`, q.ID, string(q.Status), q.ConvertedInvoiceID, q.UpdatedAt, string(sales.QuotationAccepted))
		return err
	})
	if apperr.IsConflict(err) {
		return sales.Quotation{}, invoice.Invoice{}, err
	}
	if err != nil {
		return sales.Quotation{}, invoice.Invoice{}, translate(err, "quotation", id)
	}

	items, err := quotationItems.load(ctx, s.db, []string{q.ID})
	if err != nil {
		return sales.Quotation{}, invoice.Invoice{}, translate(err, "quotation item", id)
	}
	q.Items = nonNilItems(items[q.ID])
	return q, inv, nil
}
