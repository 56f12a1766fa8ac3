package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/printshop-service/pkg/catalog"
	"github.com/printshop-service/pkg/invoice"
)

// itemTable names the child table holding the lines of one document kind.
type itemTable struct {
	table  string
	parent string
}

var (
	invoiceItems   = itemTable{table: "invoice_items", parent: "invoice_id"}
	quotationItems = itemTable{table: "quotation_items", parent: "quotation_id"}
)

func (t itemTable) replace(ctx context.Context, tx *sql.Tx, parentID string, items []invoice.LineItem) ([]invoice.LineItem, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE `+t.parent+` = $1`, parentID); err != nil {
		return nil, err
	}
	return t.insert(ctx, tx, parentID, items)
}

func (t itemTable) insert(ctx context.Context, tx *sql.Tx, parentID string, items []invoice.LineItem) ([]invoice.LineItem, error) {
	out := make([]invoice.LineItem, len(items))
	for i, it := range items {
		it.ID = newID(it.ID)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO `+t.table+` (id, `+t.parent+`, product_id, position, description, product_class,
				quantity, unit_price, length, width, area, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, it.ID, parentID, nullString(it.ProductID), i, it.Description, string(it.ProductClass),
			it.Quantity, it.UnitPrice, it.Length, it.Width, it.Area, it.TotalPrice)
		if err != nil {
			return nil, err
		}
		out[i] = it
	}
	return out, nil
}

// load returns the lines of every parent id, keyed by parent.
func (t itemTable) load(ctx context.Context, db *sql.DB, parentIDs []string) (map[string][]invoice.LineItem, error) {
	result := make(map[string][]invoice.LineItem, len(parentIDs))
	if len(parentIDs) == 0 {
		return result, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+t.parent+`, id, product_id, description, product_class, quantity, unit_price, length, width, area, total_price
		FROM `+t.table+`
		WHERE `+t.parent+` = ANY($1::uuid[])
		ORDER BY `+t.parent+`, position
	`, pq.Array(parentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			parentID  string
			it        invoice.LineItem
			productID sql.NullString
			class     string
		)
		if err := rows.Scan(&parentID, &it.ID, &productID, &it.Description, &class, &it.Quantity,
			&it.UnitPrice, &it.Length, &it.Width, &it.Area, &it.TotalPrice); err != nil {
			return nil, err
		}
		it.ProductID = productID.String
		it.ProductClass = catalog.Class(class)
		result[parentID] = append(result[parentID], it)
	}
	return result, rows.Err()
}
