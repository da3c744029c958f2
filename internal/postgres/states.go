// Package postgres serves the state reference table from PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/domain"
)

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const listStatesSQL = `
SELECT s.code, s.name, s.fips, c.city
FROM states s
LEFT JOIN state_cities c ON c.state_code = s.code
ORDER BY s.position, c.city`

// StateStore implements address.StateReference over the states and
// state_cities tables.
type StateStore struct {
	db Querier
}

// Compile-time check that StateStore implements address.StateReference.
var _ address.StateReference = (*StateStore)(nil)

// NewStateStore creates a PostgreSQL-backed state reference.
func NewStateStore(db Querier) *StateStore {
	return &StateStore{db: db}
}

// FetchStates returns every state in table order with its known cities.
func (s *StateStore) FetchStates(ctx context.Context) ([]address.StateRecord, error) {
	const op = "postgres.FetchStates"

	rows, err := s.db.Query(ctx, listStatesSQL)
	if err != nil {
		return nil, domain.Unavailable(err, op, "failed to query states")
	}
	defer rows.Close()

	var states []address.StateRecord
	for rows.Next() {
		var (
			code, name, fips string
			city             *string
		)
		if err := rows.Scan(&code, &name, &fips, &city); err != nil {
			return nil, domain.Internal(err, op, "failed to scan state row")
		}

		if n := len(states); n == 0 || states[n-1].Code != code {
			states = append(states, address.StateRecord{Code: code, Name: name, FIPS: fips})
		}
		if city != nil {
			last := &states[len(states)-1]
			last.Cities = append(last.Cities, *city)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(err, op, "failed to read states")
	}

	return states, nil
}
