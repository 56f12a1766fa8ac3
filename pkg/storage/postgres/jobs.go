package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/printshop-service/pkg/job"
)

// --- JobStore ----------------------------------------------------------------

const jobColumns = `id, job_number, customer_id, title, description, status, due_date, created_at, updated_at`

func scanJob(row rowScanner) (job.Job, error) {
	var (
		j      job.Job
		status string
		due    sql.NullTime
	)
	err := row.Scan(&j.ID, &j.JobNumber, &j.CustomerID, &j.Title, &j.Description, &status, &due, &j.CreatedAt, &j.UpdatedAt)
	j.Status = job.Status(status)
	j.DueDate = timePtr(due)
	return j, err
}

func (s *Store) CreateJob(ctx context.Context, j job.Job) (job.Job, error) {
	j.ID = newID(j.ID)
	j.CreatedAt = s.now()
	j.UpdatedAt = j.CreatedAt

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO jobs (id, job_number, customer_id, title, description, status, due_date, created_at, updated_at)
			VALUES ($1, 'JOB-' || lpad(nextval('job_number_seq')::text, 6, '0'), $2, $3, $4, $5, $6, $7, $8)
			RETURNING job_number
		`, j.ID, j.CustomerID, j.Title, j.Description, string(j.Status), nullTime(j.DueDate), j.CreatedAt, j.UpdatedAt)
		if err := row.Scan(&j.JobNumber); err != nil {
			return err
		}
		products, err := insertJobProducts(ctx, tx, j.ID, j.Products)
		j.Products = products
		return err
	})
	if err != nil {
		return job.Job{}, translate(err, "job", j.ID)
	}
	return j, nil
}

func insertJobProducts(ctx context.Context, tx *sql.Tx, jobID string, products []job.Product) ([]job.Product, error) {
	out := make([]job.Product, len(products))
	for i, p := range products {
		p.ID = newID(p.ID)
		p.JobID = jobID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO job_products (id, job_id, product_id, position, quantity, length, width, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.ID, jobID, p.ProductID, i, p.Quantity, p.Length, p.Width, p.Notes)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (s *Store) UpdateJob(ctx context.Context, j job.Job) (job.Job, error) {
	j.UpdatedAt = s.now()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE jobs
			SET customer_id = $2, title = $3, description = $4, status = $5, due_date = $6, updated_at = $7
			WHERE id = $1
			RETURNING job_number, created_at
		`, j.ID, j.CustomerID, j.Title, j.Description, string(j.Status), nullTime(j.DueDate), j.UpdatedAt)
		if err := row.Scan(&j.JobNumber, &j.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM job_products WHERE job_id = $1`, j.ID); err != nil {
			return err
		}
		products, err := insertJobProducts(ctx, tx, j.ID, j.Products)
		j.Products = products
		return err
	})
	if err != nil {
		return job.Job{}, translate(err, "job", j.ID)
	}
	return j, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (job.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		return job.Job{}, translate(err, "job", id)
	}
	jobs := []job.Job{j}
	if err := s.loadJobProducts(ctx, jobs); err != nil {
		return job.Job{}, err
	}
	return jobs[0], nil
}

func (s *Store) ListJobs(ctx context.Context, f job.Filter) ([]job.Job, error) {
	var w where
	if f.Status != "" {
		w.add(`status = $%[1]d`, string(f.Status))
	}
	if f.CustomerID != "" {
		w.add(`customer_id = $%[1]d`, f.CustomerID)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs`+w.String()+` ORDER BY created_at DESC, job_number DESC`, w.args...)
	if err != nil {
		return nil, translate(err, "job", "")
	}
	defer rows.Close()

	var result []job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadJobProducts(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadJobProducts fills Products for every job with one query.
func (s *Store) loadJobProducts(ctx context.Context, jobs []job.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	ids := make([]string, len(jobs))
	index := make(map[string]int, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
		index[j.ID] = i
		jobs[i].Products = []job.Product{}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, product_id, quantity, length, width, notes
		FROM job_products
		WHERE job_id = ANY($1::uuid[])
		ORDER BY job_id, position
	`, pq.Array(ids))
	if err != nil {
		return translate(err, "job product", "")
	}
	defer rows.Close()

	for rows.Next() {
		var p job.Product
		if err := rows.Scan(&p.ID, &p.JobID, &p.ProductID, &p.Quantity, &p.Length, &p.Width, &p.Notes); err != nil {
			return err
		}
		i := index[p.JobID]
		jobs[i].Products = append(jobs[i].Products, p)
	}
	return rows.Err()
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return translate(err, "job", id)
	}
	return affected(res, "job", id)
}
