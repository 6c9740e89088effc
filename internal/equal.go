package internal

import "reflect"

// IsEqual is the shallow equality used for change detection.
// Comparable values use ==. Slices and maps are the same when they share
// the same backing reference (and, for slices, length). Funcs and other
// uncomparable values are never equal.
func IsEqual(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}

	if va.Type() != vb.Type() {
		return false
	}

	if va.Comparable() && vb.Comparable() {
		return a == b
	}

	switch va.Kind() {
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map:
		return va.Pointer() == vb.Pointer()
	}

	return false
}

// SameInputs reports whether two input sets are equal slot by slot.
func SameInputs[T any](prev, next []T) bool {
	if len(prev) != len(next) {
		return false
	}

	for i := range prev {
		if !IsEqual(prev[i], next[i]) {
			return false
		}
	}

	return true
}
