package logging

import (
	"errors"
	"log/slog"

	evalerr "pqleval/pkg/error"
)

// WithStatement creates a logger carrying a prepared statement's id.
//
// Example:
//
//	log := logging.WithStatement(stmt.ID())
//	log.Info("statement prepared", "nodes", n)
func WithStatement(id string) *slog.Logger {
	return GetLogger().With("statement", id)
}

// WithRun adds the id of one execution of a statement to base.
//
// Example:
//
//	log := logging.WithRun(logging.WithStatement(stmtID), runID)
//	log.Info("execution finished", "elapsed", time.Since(start))
func WithRun(base *slog.Logger, runID string) *slog.Logger {
	return base.With("run", runID)
}

// WithOperator adds the name of the plan operator being instantiated or run.
func WithOperator(base *slog.Logger, name string) *slog.Logger {
	return base.With("operator", name)
}

// WithComponent creates a logger with a component tag such as "catalog" or "cli".
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// ErrorAttrs returns the structured fields of err: its kind and operation
// when it is an evaluation error, else only the message.
func ErrorAttrs(err error) []any {
	if err == nil {
		return nil
	}
	var e *evalerr.Error
	if errors.As(err, &e) {
		attrs := []any{"error", e.Message, "kind", e.Kind.String()}
		if e.Operation != "" {
			attrs = append(attrs, "op", e.Operation)
		}
		return attrs
	}
	return []any{"error", err.Error()}
}

// WithError adds err's structured fields to base.
func WithError(base *slog.Logger, err error) *slog.Logger {
	return base.With(ErrorAttrs(err)...)
}
