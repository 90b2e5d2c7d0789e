package repository

import (
	"context"

	"jobboard/internal/database"
)

// Store hands out repositories bound either to the pool or to an open
// transaction. Code written against Store runs unchanged in both.
type Store interface {
	Applications() ApplicationRepository
	Jobs() JobRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type PostgresStore struct {
	db database.DB
	q  database.Querier
}

func NewPostgresStore(db database.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) Applications() ApplicationRepository {
	return NewPostgresApplicationRepository(s.q)
}

func (s *PostgresStore) Jobs() JobRepository {
	return NewPostgresJobRepository(s.q)
}

// WithinTx opens a transaction on the pool. Nested calls reuse the outer one.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if _, inTx := s.q.(database.Tx); inTx {
		return fn(s)
	}
	return database.WithTx(ctx, s.db, func(tx database.Tx) error {
		return fn(&PostgresStore{db: s.db, q: tx})
	})
}
