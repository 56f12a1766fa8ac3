package postgres

import (
	"context"
	"strings"

	"github.com/printshop-service/pkg/customer"
)

// --- CustomerStore -----------------------------------------------------------

const customerColumns = `id, name, company, email, phone, address, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	c.ID = newID(c.ID)
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.Name, c.Company, c.Email, c.Phone, c.Address, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return customer.Customer{}, translate(err, "customer", c.ID)
	}
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	c.UpdatedAt = s.now()
	row := s.db.QueryRowContext(ctx, `
		UPDATE customers
		SET name = $2, company = $3, email = $4, phone = $5, address = $6, notes = $7, updated_at = $8
		WHERE id = $1
		RETURNING created_at
	`, c.ID, c.Name, c.Company, c.Email, c.Phone, c.Address, c.Notes, c.UpdatedAt)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return customer.Customer{}, translate(err, "customer", c.ID)
	}
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (customer.Customer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err != nil {
		return customer.Customer{}, translate(err, "customer", id)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, query string) ([]customer.Customer, error) {
	var w where
	if strings.TrimSpace(query) != "" {
		w.add(`(name ILIKE $%[1]d OR company ILIKE $%[1]d OR email ILIKE $%[1]d)`, likePattern(query))
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers`+w.String()+` ORDER BY lower(name)`, w.args...)
	if err != nil {
		return nil, translate(err, "customer", "")
	}
	defer rows.Close()

	var result []customer.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return translate(err, "customer", id)
	}
	return affected(res, "customer", id)
}
