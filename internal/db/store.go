package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	Pool    *pgxpool.Pool
	Queries *Queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool, Queries: New(pool)}
}

func (s *Store) WithTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	queries := s.Queries.WithTx(tx)
	if err := fn(queries); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// SaveSubmission writes a batch and its period claims in one transaction.
func (s *Store) SaveSubmission(ctx context.Context, arg CreateSubmissionParams) error {
	return s.WithTx(ctx, func(q *Queries) error {
		return q.CreateSubmission(ctx, arg)
	})
}

func (s *Store) GetSubject(ctx context.Context, id int64) (Subject, error) {
	return s.Queries.GetSubject(ctx, id)
}

func (s *Store) GetClass(ctx context.Context, id int64) (Class, error) {
	return s.Queries.GetClass(ctx, id)
}
