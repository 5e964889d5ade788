package iterator

import "pqleval/pkg/env"

// Iterate encapsulates the HasNext/Next loop over src. processFunc controls
// the flow: return (false, nil) to stop early, (true, nil) to continue, or an
// error to stop with that error. Nil rows are skipped.
func Iterate(src RowSource, processFunc func(*env.Row) (continueLooping bool, err error)) error {
	for {
		hasNext, err := src.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}

		row, err := src.Next()
		if err != nil {
			return err
		}
		if row == nil {
			continue
		}

		shouldContinue, err := processFunc(row)
		if err != nil {
			return err
		}
		if !shouldContinue {
			break
		}
	}

	return nil
}

// ForEach applies processFunc to each row, stopping at the first error.
func ForEach(src RowSource, processFunc func(*env.Row) error) error {
	return Iterate(src, func(row *env.Row) (bool, error) {
		err := processFunc(row)
		return true, err
	})
}

// Map transforms each row and returns the results in order.
func Map[T any](src RowSource, transform func(*env.Row) (T, error)) ([]T, error) {
	var results []T

	err := Iterate(src, func(row *env.Row) (bool, error) {
		v, err := transform(row)
		if err != nil {
			return false, err
		}
		results = append(results, v)
		return true, nil
	})

	return results, err
}

// Reduce accumulates a value over every row.
func Reduce[T any](src RowSource, initial T, accumulator func(T, *env.Row) (T, error)) (T, error) {
	result := initial

	err := Iterate(src, func(row *env.Row) (bool, error) {
		var err error
		result, err = accumulator(result, row)
		return true, err
	})

	return result, err
}

// Count consumes src and returns the number of rows.
func Count(src RowSource) (int, error) {
	return Reduce(src, 0, func(count int, _ *env.Row) (int, error) {
		return count + 1, nil
	})
}

// Collect consumes src and returns every row.
func Collect(src RowSource) ([]*env.Row, error) {
	return Map(src, func(row *env.Row) (*env.Row, error) {
		return row, nil
	})
}

// Run opens it under parent, feeds every row to processFunc as Iterate does
// and closes it. The close error is reported when reading succeeded.
func Run(it RowIterator, parent *env.Env, processFunc func(*env.Row) (continueLooping bool, err error)) (err error) {
	if err := it.Open(parent); err != nil {
		return err
	}
	defer func() {
		if cerr := it.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Iterate(it, processFunc)
}

// Drain runs it under parent and returns every row.
func Drain(it RowIterator, parent *env.Env) ([]*env.Row, error) {
	var rows []*env.Row
	err := Run(it, parent, func(row *env.Row) (bool, error) {
		rows = append(rows, row)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
