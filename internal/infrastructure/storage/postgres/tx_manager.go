package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"herdbook/pkg/logger"
)

var tracer = otel.Tracer("herdbook/postgres")

// Querier is the subset of pgx shared by the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// TxManager keeps the active transaction in the context so that store
// methods and the counter join it without passing pgx.Tx around.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager wraps pool.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

// InTx runs fn in a read-committed transaction. When ctx already carries one,
// fn joins it and the outer call decides commit or rollback.
func (m *TxManager) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.Tx(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "postgres.tx")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transaction rolled back")
		}
		span.End()
	}()

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		// ctx may already be cancelled; the rollback still has to reach the server.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error(ctx, "tx rollback failed", "error", rbErr, "cause", err)
		}
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Tx returns the transaction carried by ctx, or nil.
func (m *TxManager) Tx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// Querier returns the transaction in ctx, or the pool.
func (m *TxManager) Querier(ctx context.Context) Querier {
	if tx := m.Tx(ctx); tx != nil {
		return tx
	}
	return m.pool
}

// ContextQuerier lets the counter service follow the transaction in ctx, so
// SetNext commits together with a settings update.
type ContextQuerier struct {
	Manager *TxManager
}

// QueryRow implements numerator.Querier.
func (q ContextQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.Manager.Querier(ctx).QueryRow(ctx, sql, args...)
}
