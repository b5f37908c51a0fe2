package helpers

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// IfElse returns valueIfTrue or valueIfFalse depending on isTrue.
func IfElse[V any](isTrue bool, valueIfTrue, valueIfFalse V) V {
	if isTrue {
		return valueIfTrue
	}
	return valueIfFalse
}

// Sorted returns a sorted copy of the slice, leaving the original untouched.
func Sorted[V constraints.Ordered](s []V) []V {
	ret := slices.Clone(s)
	slices.Sort(ret)
	return ret
}

// SortedKeys returns the keys of a map in ascending order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
