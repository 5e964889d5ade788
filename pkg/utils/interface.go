package utils

import "reflect"

// IsNil reports whether i is nil or an interface wrapping a typed nil.
//
// Plan nodes are held behind interfaces, so a (*plan.Filter)(nil) stored in a
// plan.Rel compares unequal to nil. Validation uses this helper to reject such
// children before an operator tree is built from them.
func IsNil(i any) bool {
	if i == nil {
		return true
	}

	v := reflect.ValueOf(i)

	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
