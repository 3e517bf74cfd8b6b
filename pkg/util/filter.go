package util

// InPlaceFilter keeps the elements of s for which p is true, reusing the
// backing array.
func InPlaceFilter[T any](s *[]T, p func(T) bool) {
	i := 0
	for _, e := range *s {
		if p(e) {
			(*s)[i] = e
			i++
		}
	}
	*s = (*s)[:i]
}

func RemoveDuplicateInts(values []int) []int {
	seen := map[int]bool{}
	var list []int

	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			list = append(list, value)
		}
	}

	return list
}
