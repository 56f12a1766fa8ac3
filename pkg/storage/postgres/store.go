// Package postgres implements the storage interfaces on PostgreSQL through
// database/sql and github.com/lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/storage"
)

// PostgreSQL error codes the store translates.
const (
	pgInvalidTextRepresentation = "22P02"
	pgForeignKeyViolation       = "23503"
	pgUniqueViolation           = "23505"
	pgCheckViolation            = "23514"
)

// jobInvoiceIndex is the partial unique index allowing one open invoice per job.
const jobInvoiceIndex = "invoices_one_open_per_job"


// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Open connects to dsn with the postgres driver and checks the connection.
func Open(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Ping is used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// translate maps driver errors onto apperr kinds.
func translate(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity, id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgInvalidTextRepresentation:
			// an id that is not a uuid cannot name a stored row
			return apperr.NotFound(entity, id)
		case pgUniqueViolation:
			if pqErr.Constraint == jobInvoiceIndex {
				return apperr.Conflict("job is already invoiced: %s", pqErr.Detail)
			}
			return apperr.Conflict("%s already exists: %s", entity, pqErr.Detail)
		case pgForeignKeyViolation:
			return apperr.Conflict("%s is referenced by or references a missing record: %s", entity, pqErr.Detail)
		case pgCheckViolation:
			return apperr.Invalid(entity, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", entity, err)
}

func affected(res sql.Result, entity, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// where accumulates AND-ed clauses with positional arguments. Each clause
// uses %[1]d for its placeholder index.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
}
