// Package eval is the entry point of the evaluator. An Engine prepares plans
// into immutable statements and executes them against a catalog under a
// typing mode.
//
// Example:
//
//	engine := eval.New(eval.WithLogger(logger))
//	stmt, err := engine.Prepare(root)
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Execute(ctx, stmt, cat, execution.Permissive)
package eval

import (
	"context"
	"crypto/rand"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"pqleval/pkg/catalog"
	"pqleval/pkg/compiler"
	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/execution"
	"pqleval/pkg/logging"
	"pqleval/pkg/plan"
	"pqleval/pkg/types"
)

// Engine prepares and executes statements. It is safe for concurrent use.
type Engine struct {
	logger       *slog.Logger
	maxPrecision int32

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy

	statsMu sync.RWMutex
	stats   Stats
}

// Stats counts statements and executions.
type Stats struct {
	Prepared int64
	Executed int64
	Failed   int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger executions report to. Without it the
// process-wide logger from pkg/logging is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxPrecision caps the precision a DECIMAL cast target may declare.
// Values outside 1..datum.MaxDecimalPrecision are ignored.
func WithMaxPrecision(precision int32) Option {
	return func(e *Engine) {
		if precision >= 1 && precision <= datum.MaxDecimalPrecision {
			e.maxPrecision = precision
		}
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxPrecision: datum.MaxDecimalPrecision,
		entropy:      ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Statement is a validated plan ready for execution. It is never modified
// after Prepare and may be executed concurrently.
type Statement struct {
	id    uuid.UUID
	root  plan.Rex
	nodes int
}

// ID returns the statement's identifier.
func (s *Statement) ID() string { return s.id.String() }

// Plan returns the statement's plan.
func (s *Statement) Plan() plan.Rex { return s.root }

// Nodes returns the number of nodes in the plan.
func (s *Statement) Nodes() int { return s.nodes }

// Prepare validates root and wraps it in a Statement. A malformed plan is an
// InvalidPlan error listing every problem found.
func (e *Engine) Prepare(root plan.Rex) (*Statement, error) {
	if err := plan.Validate(root); err != nil {
		return nil, evalerr.Wrap(err, evalerr.KindInvalidPlan, "prepare", "eval")
	}
	if err := e.checkPrecision(root); err != nil {
		return nil, err
	}

	stmt := &Statement{id: uuid.New(), root: root}
	plan.Walk(root, func(plan.Node) bool {
		stmt.nodes++
		return true
	})

	e.statsMu.Lock()
	e.stats.Prepared++
	e.statsMu.Unlock()

	e.statementLogger(stmt).Debug("statement prepared", "nodes", stmt.nodes)
	return stmt, nil
}

// checkPrecision rejects DECIMAL cast targets wider than the engine allows.
func (e *Engine) checkPrecision(root plan.Rex) error {
	var err error
	plan.Walk(root, func(n plan.Node) bool {
		c, ok := n.(*plan.Cast)
		if !ok || c.Target.Kind != types.DecimalKind || c.Target.Precision <= e.maxPrecision {
			return err == nil
		}
		err = evalerr.InvalidPlan("cast target %s exceeds the maximum precision %d", c.Target, e.maxPrecision).
			WithOperation("prepare")
		return false
	})
	return err
}

func (e *Engine) statementLogger(stmt *Statement) *slog.Logger {
	if e.logger == nil {
		return logging.WithStatement(stmt.ID())
	}
	return e.logger.With("statement", stmt.ID())
}

// newRunID returns a run identifier that sorts after every earlier one.
func (e *Engine) newRunID() string {
	e.entropyMu.Lock()
	defer e.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), e.entropy).String()
}

// Execute evaluates stmt once against cat under mode. Each call compiles a
// private operator tree, so executions never share runtime state.
func (e *Engine) Execute(ctx context.Context, stmt *Statement, cat catalog.Catalog, mode execution.Mode) (datum.Datum, error) {
	if stmt == nil {
		return datum.Missing(), evalerr.InvalidPlan("statement cannot be nil").WithOperation("execute")
	}

	runID := e.newRunID()
	log := logging.WithRun(e.statementLogger(stmt), runID)
	start := time.Now()
	log.Info("execution started", "mode", mode.String())

	result, err := e.run(ctx, stmt, cat, mode, log)
	elapsed := time.Since(start)
	e.record(err)
	if err != nil {
		logging.WithError(log, err).Warn("execution failed", "mode", mode.String(), "duration", elapsed)
		return datum.Missing(), err
	}

	log.Info("execution finished", "mode", mode.String(), "duration", elapsed, "result", result.Kind().String())
	return result, nil
}

func (e *Engine) run(ctx context.Context, stmt *Statement, cat catalog.Catalog, mode execution.Mode, log *slog.Logger) (datum.Datum, error) {
	if err := ctx.Err(); err != nil {
		return datum.Missing(), err
	}
	ectx := execution.NewContext(ctx, mode, cat, log)
	root, err := compiler.Compile(ectx, stmt.root)
	if err != nil {
		return datum.Missing(), err
	}
	return root.Eval(env.Root())
}

func (e *Engine) record(err error) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats.Executed++
	if err != nil {
		e.stats.Failed++
	}
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	e.statsMu.RLock()
	defer e.statsMu.RUnlock()
	return e.stats
}

// Job is one execution request for ExecuteAll.
type Job struct {
	Statement *Statement
	Catalog   catalog.Catalog
	Mode      execution.Mode
}

// Result is the outcome of one Job.
type Result struct {
	Value datum.Datum
	Err   error
}

// ExecuteAll runs jobs in parallel and returns their results in job order.
// A failed job reports its error in its own Result and does not affect the
// others.
func (e *Engine) ExecuteAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range jobs {
		g.Go(func() error {
			v, err := e.Execute(ctx, job.Statement, job.Catalog, job.Mode)
			results[i] = Result{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
