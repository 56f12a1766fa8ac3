package postgres

import (
	"context"
	"database/sql"

	"github.com/printshop-service/pkg/portal"
	"github.com/printshop-service/pkg/sales"
)

// --- ActivityStore -----------------------------------------------------------

const activityColumns = `id, customer_id, quotation_id, type, subject, notes, due_at, completed_at, created_at`

func scanActivity(row rowScanner) (sales.Activity, error) {
	var (
		a           sales.Activity
		quotationID sql.NullString
		kind        string
		due, done   sql.NullTime
	)
	err := row.Scan(&a.ID, &a.CustomerID, &quotationID, &kind, &a.Subject, &a.Notes, &due, &done, &a.CreatedAt)
	a.QuotationID = quotationID.String
	a.Type = sales.ActivityType(kind)
	a.DueAt = timePtr(due)
	a.CompletedAt = timePtr(done)
	return a, err
}

func (s *Store) CreateActivity(ctx context.Context, a sales.Activity) (sales.Activity, error) {
	a.ID = newID(a.ID)
	a.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales_activities (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.CustomerID, nullString(a.QuotationID), string(a.Type), a.Subject, a.Notes,
		nullTime(a.DueAt), nullTime(a.CompletedAt), a.CreatedAt)
	if err != nil {
		return sales.Activity{}, translate(err, "activity", a.ID)
	}
	return a, nil
}

func (s *Store) UpdateActivity(ctx context.Context, a sales.Activity) (sales.Activity, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE sales_activities
		SET customer_id = $2, quotation_id = $3, type = $4, subject = $5, notes = $6, due_at = $7, completed_at = $8
		WHERE id = $1
		RETURNING created_at
	`, a.ID, a.CustomerID, nullString(a.QuotationID), string(a.Type), a.Subject, a.Notes,
		nullTime(a.DueAt), nullTime(a.CompletedAt))
	if err := row.Scan(&a.CreatedAt); err != nil {
		return sales.Activity{}, translate(err, "activity", a.ID)
	}
	return a, nil
}

func (s *Store) GetActivity(ctx context.Context, id string) (sales.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM sales_activities WHERE id = $1`, id)
	a, err := scanActivity(row)
	if err != nil {
		return sales.Activity{}, translate(err, "activity", id)
	}
	return a, nil
}

func (s *Store) ListActivities(ctx context.Context, f sales.ActivityFilter) ([]sales.Activity, error) {
	var w where
	if f.CustomerID != "" {
		w.add(`customer_id = $%[1]d`, f.CustomerID)
	}
	query := `SELECT ` + activityColumns + ` FROM sales_activities` + w.String()
	if f.OpenOnly {
		if len(w.clauses) == 0 {
			query += ` WHERE completed_at IS NULL`
		} else {
			query += ` AND completed_at IS NULL`
		}
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, translate(err, "activity", "")
	}
	defer rows.Close()

	var result []sales.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sales_activities WHERE id = $1`, id)
	if err != nil {
		return translate(err, "activity", id)
	}
	return affected(res, "activity", id)
}

// --- PortalUserStore ---------------------------------------------------------

const portalUserColumns = `id, customer_id, email, name, password_hash, active, last_login_at, created_at`

func scanPortalUser(row rowScanner) (portal.User, error) {
	var (
		u         portal.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.CustomerID, &u.Email, &u.Name, &u.PasswordHash, &u.Active, &lastLogin, &u.CreatedAt)
	u.LastLoginAt = timePtr(lastLogin)
	return u, err
}

func (s *Store) CreatePortalUser(ctx context.Context, u portal.User) (portal.User, error) {
	u.ID = newID(u.ID)
	u.Email = portal.NormalizeEmail(u.Email)
	u.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portal_users (`+portalUserColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.CustomerID, u.Email, u.Name, u.PasswordHash, u.Active, nullTime(u.LastLoginAt), u.CreatedAt)
	if err != nil {
		return portal.User{}, translate(err, "portal user", u.ID)
	}
	return u, nil
}

func (s *Store) UpdatePortalUser(ctx context.Context, u portal.User) (portal.User, error) {
	u.Email = portal.NormalizeEmail(u.Email)
	row := s.db.QueryRowContext(ctx, `
		UPDATE portal_users
		SET customer_id = $2, email = $3, name = $4, password_hash = $5, active = $6, last_login_at = $7
		WHERE id = $1
		RETURNING created_at
	`, u.ID, u.CustomerID, u.Email, u.Name, u.PasswordHash, u.Active, nullTime(u.LastLoginAt))
	if err := row.Scan(&u.CreatedAt); err != nil {
		return portal.User{}, translate(err, "portal user", u.ID)
	}
	return u, nil
}

func (s *Store) GetPortalUser(ctx context.Context, id string) (portal.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+portalUserColumns+` FROM portal_users WHERE id = $1`, id)
	u, err := scanPortalUser(row)
	if err != nil {
		return portal.User{}, translate(err, "portal user", id)
	}
	return u, nil
}

func (s *Store) GetPortalUserByEmail(ctx context.Context, email string) (portal.User, error) {
	email = portal.NormalizeEmail(email)
	row := s.db.QueryRowContext(ctx, `SELECT `+portalUserColumns+` FROM portal_users WHERE email = $1`, email)
	u, err := scanPortalUser(row)
	if err != nil {
		return portal.User{}, translate(err, "portal user", email)
	}
	return u, nil
}

func (s *Store) ListPortalUsers(ctx context.Context, customerID string) ([]portal.User, error) {
	var w where
	if customerID != "" {
		w.add(`customer_id = $%[1]d`, customerID)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+portalUserColumns+` FROM portal_users`+w.String()+` ORDER BY email`, w.args...)
	if err != nil {
		return nil, translate(err, "portal user", "")
	}
	defer rows.Close()

	var result []portal.User
	for rows.Next() {
		u, err := scanPortalUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *Store) DeletePortalUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM portal_users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "portal user", id)
	}
	return affected(res, "portal user", id)
}
