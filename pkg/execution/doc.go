// Package execution is the root of pqleval's runtime evaluator.
//
// The engine uses the iterator (volcano) model: every relational operator
// implements [pqleval/pkg/iterator.RowIterator]. Operators are composed into
// a tree; draining the root pulls one row at a time through the pipeline.
// Expressions are evaluated against the binding environment of the row being
// processed, so correlated subqueries and lateral FROM items see outer
// bindings through the env chain rather than through shared state.
//
// # Sub-packages
//
//   - [pqleval/pkg/execution/expr]        – Expression evaluators, including
//     subqueries, TUPLEUNION, CAST and collection aggregates.
//   - [pqleval/pkg/execution/scan]        – FROM item scans and UNPIVOT.
//   - [pqleval/pkg/execution/join]        – Nested-loop joins: lateral INNER and
//     LEFT, materialized RIGHT and FULL.
//   - [pqleval/pkg/execution/query]       – Filter, sort, limit, offset and
//     EXCLUDE.
//   - [pqleval/pkg/execution/aggregation] – GROUP BY, GROUP AS and aggregate
//     functions.
//   - [pqleval/pkg/execution/setops]      – UNION, INTERSECT, EXCEPT and DISTINCT
//     with bag semantics.
//
// # Typing modes
//
// Every operator and evaluator receives the same [Context]. Data errors are
// routed through [Context.Fail]: under PERMISSIVE they become MISSING where
// they occur, under STRICT they unwind the statement.
package execution
