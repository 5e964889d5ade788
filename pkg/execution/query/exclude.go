package query

import (
	"fmt"

	"pqleval/pkg/datum"
	"pqleval/pkg/env"
	"pqleval/pkg/iterator"
	"pqleval/pkg/plan"
)

// Exclude removes the values reached by a set of paths from every row. Each
// path starts at a binding name; a path with no steps drops the binding.
// Steps that do not match the shape of the value are no-ops.
type Exclude struct {
	*iterator.UnaryOperator
	paths []plan.ExcludePath
}

// NewExclude creates an Exclude over child.
func NewExclude(child iterator.RowIterator, paths []plan.ExcludePath) (*Exclude, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("exclude requires at least one path")
	}

	e := &Exclude{paths: paths}
	op, err := iterator.NewUnaryOperator(child, e.readNext)
	if err != nil {
		return nil, err
	}
	e.UnaryOperator = op
	return e, nil
}

func (e *Exclude) readNext() (*env.Row, error) {
	row, err := e.FetchNext()
	if err != nil || row == nil {
		return row, err
	}
	return excludeRow(row, e.paths), nil
}

// excludeRow removes every path's target from a copy of row. All paths are
// resolved against the row as it came in, so removing one list position
// never shifts the positions another path names.
func excludeRow(row *env.Row, paths []plan.ExcludePath) *env.Row {
	out := make([]env.Binding, 0, len(row.Bindings))
	for _, b := range row.Bindings {
		var steps [][]plan.ExcludeStep
		for _, p := range paths {
			if p.Root == b.Name {
				steps = append(steps, p.Steps)
			}
		}

		value, drop := excludeSteps(b.Value, steps)
		if drop {
			continue
		}
		b.Value = value
		out = append(out, b)
	}
	return env.NewRow(out...)
}

// excludeSteps removes from v everything reached by one of paths, each given
// relative to v. drop reports that a path ends at v itself.
func excludeSteps(v datum.Datum, paths [][]plan.ExcludeStep) (_ datum.Datum, drop bool) {
	if len(paths) == 0 {
		return v, false
	}
	for _, p := range paths {
		if len(p) == 0 {
			return v, true
		}
	}

	switch {
	case v.Kind() == datum.KindStruct:
		fields := make([]datum.Field, 0, v.Len())
		for _, f := range v.Fields() {
			value, gone := excludeSteps(f.Value, below(paths, func(s plan.ExcludeStep) bool {
				return s.Kind == plan.StepFieldWildcard || s.Kind == plan.StepField && s.Name == f.Name
			}))
			if !gone {
				fields = append(fields, datum.F(f.Name, value))
			}
		}
		return datum.StructOwned(fields), false

	case v.IsCollection():
		ordered := v.Kind() == datum.KindList
		elems := make([]datum.Datum, 0, v.Len())
		for i, elem := range v.Elems() {
			value, gone := excludeSteps(elem, below(paths, func(s plan.ExcludeStep) bool {
				return s.Kind == plan.StepIndexWildcard || ordered && s.Kind == plan.StepIndex && s.Index == int64(i)
			}))
			if !gone {
				elems = append(elems, value)
			}
		}
		return datum.Collect(elems, ordered), false
	}
	return v, false
}

// below returns what is left of every path whose first step matches.
func below(paths [][]plan.ExcludeStep, match func(plan.ExcludeStep) bool) [][]plan.ExcludeStep {
	var out [][]plan.ExcludeStep
	for _, p := range paths {
		if match(p[0]) {
			out = append(out, p[1:])
		}
	}
	return out
}
