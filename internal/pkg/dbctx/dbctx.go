package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New wraps a plain context with no transaction attached.
func New(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// DB returns the transaction when one is attached, otherwise fallback, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	txx := c.Tx
	if txx == nil {
		txx = fallback
	}
	if c.Ctx == nil {
		return txx
	}
	return txx.WithContext(c.Ctx)
}
