package execution

import (
	"context"
	"log/slog"

	"pqleval/pkg/catalog"
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/logging"
	"pqleval/pkg/types"
)

// Expr is a compiled expression.
type Expr interface {
	Eval(scope *env.Env) (datum.Datum, error)
}

// ExprFunc adapts a function to Expr.
type ExprFunc func(scope *env.Env) (datum.Datum, error)

// Eval implements Expr.
func (f ExprFunc) Eval(scope *env.Env) (datum.Datum, error) { return f(scope) }

// Context carries what every evaluator of one execution shares. It is
// created per execution and never mutated afterwards.
type Context struct {
	Ctx     context.Context
	Mode    Mode
	Catalog catalog.Catalog
	Logger  *slog.Logger
}

// NewContext fills in defaults for nil fields.
func NewContext(ctx context.Context, mode Mode, cat catalog.Catalog, logger *slog.Logger) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if cat == nil {
		cat = catalog.NewMemory()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Context{Ctx: ctx, Mode: mode, Catalog: cat, Logger: logger}
}

// Strict reports whether the execution runs in STRICT mode.
func (c *Context) Strict() bool {
	return c.Mode == Strict
}

// Fail applies the typing-mode policy to err. Under PERMISSIVE a recoverable
// error is replaced by MISSING; every other case returns err.
func (c *Context) Fail(err error) (datum.Datum, error) {
	if err == nil {
		return datum.Missing(), nil
	}
	if c.Mode == Permissive && evalerr.IsRecoverable(err) {
		if c.Logger.Enabled(c.Ctx, slog.LevelDebug) {
			c.Logger.Debug("substituted MISSING", logging.ErrorAttrs(err)...)
		}
		return datum.Missing(), nil
	}
	return datum.Missing(), err
}

// Check passes a result through, routing a failure through Fail.
func (c *Context) Check(d datum.Datum, err error) (datum.Datum, error) {
	if err != nil {
		return c.Fail(err)
	}
	return d, nil
}

// Global resolves a catalog global. An unknown name is UnresolvedBinding.
// Under STRICT a value that does not conform to its declared type is a
// TypeMismatch.
func (c *Context) Global(name string) (datum.Datum, error) {
	g, ok, err := c.Catalog.Lookup(c.Ctx, name)
	if err != nil {
		if _, typed := evalerr.KindOf(err); typed {
			return datum.Missing(), err
		}
		return datum.Missing(), evalerr.Wrap(err, evalerr.KindCatalogFailure, "global", "catalog").WithDetail(name)
	}
	if !ok {
		return datum.Missing(), evalerr.Unresolved(name).WithOperation("global")
	}
	if c.Strict() && g.Type.Kind != types.DynamicKind && !g.Type.Conforms(g.Value) {
		return c.Fail(evalerr.TypeMismatch("global %s is not of its declared type %s", name, g.Type).WithOperation("global"))
	}
	return g.Value, nil
}
