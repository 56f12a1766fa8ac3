package postgres

import (
	"context"

	"github.com/printshop-service/pkg/catalog"
)

// --- ProductStore ------------------------------------------------------------

const productColumns = `id, name, description, product_class, unit, unit_price, portal_visible, active, created_at, updated_at`

func scanProduct(row rowScanner) (catalog.Product, error) {
	var (
		p     catalog.Product
		class string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &class, &p.Unit, &p.UnitPrice, &p.PortalVisible, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	p.Class = catalog.Class(class)
	return p, err
}

func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	p.ID = newID(p.ID)
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Name, p.Description, string(p.Class), p.Unit, p.UnitPrice, p.PortalVisible, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return catalog.Product{}, translate(err, "product", p.ID)
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	p.UpdatedAt = s.now()
	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, product_class = $4, unit = $5, unit_price = $6,
		    portal_visible = $7, active = $8, updated_at = $9
		WHERE id = $1
		RETURNING created_at
	`, p.ID, p.Name, p.Description, string(p.Class), p.Unit, p.UnitPrice, p.PortalVisible, p.Active, p.UpdatedAt)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return catalog.Product{}, translate(err, "product", p.ID)
	}
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return catalog.Product{}, translate(err, "product", id)
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	var w where
	if f.Class != "" {
		w.add(`product_class = $%[1]d`, string(f.Class))
	}
	if f.ActiveOnly || f.PortalOnly {
		w.add(`active = $%[1]d`, true)
	}
	if f.PortalOnly {
		w.add(`portal_visible = $%[1]d`, true)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products`+w.String()+` ORDER BY lower(name)`, w.args...)
	if err != nil {
		return nil, translate(err, "product", "")
	}
	defer rows.Close()

	var result []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return translate(err, "product", id)
	}
	return affected(res, "product", id)
}
