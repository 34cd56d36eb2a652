// Package postgres implements the automation.Store contract against
// PostgreSQL using database/sql and lib/pq. All queries use explicit
// column lists; timestamps the engine does not control are stamped with
// NOW() in SQL.
package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Leo190198/promoShare/internal/automation"
)

// Store implements automation.Store against PostgreSQL.
type Store struct{ db *sql.DB }

// NewStore creates a Postgres-backed automation store.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

var _ automation.Store = (*Store)(nil)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// nullableJSON passes raw JSON to a jsonb column as text, or NULL when
// empty. lib/pq would otherwise encode []byte as bytea.
func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
