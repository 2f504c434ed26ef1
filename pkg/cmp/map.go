package cmp

// MapEq checks a and b have the same keys with the same values.
func MapEq[K comparable, V comparable](a map[K]V, b map[K]V) bool {
	return MapEqWith(a, b, EqEq[V])
}

// MapEqWith checks a and b have the same keys with equivalent values.
func MapEqWith[K comparable, V any, U any](a map[K]V, b map[K]U, pred BiPredicator[V, U]) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !pred(va, vb) {
			return false
		}
	}
	return true
}
