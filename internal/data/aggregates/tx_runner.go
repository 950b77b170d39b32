package aggregates

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
)

// TxRunner provides the transaction boundaries services run in.
type TxRunner interface {
	// InTx runs fn in a read-write transaction. fn's error rolls it back.
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
	// InSnapshot runs fn in a read-only transaction that sees one consistent snapshot.
	InSnapshot(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return r.run(ctx, fn)
}

// InSnapshot uses REPEATABLE READ READ ONLY on Postgres. SQLite transactions
// already read from a single snapshot, so the default options are used there.
func (r *gormTxRunner) InSnapshot(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r != nil && r.db != nil && IsPostgres(r.db) {
		return r.run(ctx, fn, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return r.run(ctx, fn)
}

func (r *gormTxRunner) run(ctx context.Context, fn func(dbc dbctx.Context) error, opts ...*sql.TxOptions) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	}, opts...)
}

// IsPostgres reports whether db talks to Postgres.
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres"
}
