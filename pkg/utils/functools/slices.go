// Package functools holds small generic slice helpers.
package functools

// MapWithError applies fn to every element and stops at the first error,
// which is returned unchanged. A nil slice maps to nil.
func MapWithError[T, R any](in []T, fn func(T) (R, error)) ([]R, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]R, len(in))
	for i, v := range in {
		r, err := fn(v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Map applies fn to every element. A nil slice maps to nil.
func Map[T, R any](in []T, fn func(T) R) []R {
	if in == nil {
		return nil
	}
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
