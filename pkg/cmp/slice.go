package cmp

// SliceEq checks a and b have same elements in same order.
func SliceEq[T comparable](a []T, b []T) bool {
	return SliceEqWith(a, b, EqEq[T])
}

// SliceEqWith checks a and b are equivalent element-wise, in order.
func SliceEqWith[T any, U any](a []T, b []U, pred BiPredicator[T, U]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !pred(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SliceContentEq checks a and b have same elements, ignoring order.
func SliceContentEq[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	count := map[T]int{}
	for _, v := range a {
		count[v] += 1
	}
	for _, v := range b {
		count[v] -= 1
		if count[v] < 0 {
			return false
		}
	}
	return true
}
