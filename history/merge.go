package history

// mergeByOrderTime stable-merges two sequences already sorted by OrderTime.
// On equal timestamps records of a come first.
func mergeByOrderTime(a, b []Execution) []Execution {
	out := make([]Execution, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].OrderTime().Before(a[i].OrderTime()) {
			out = append(out, b[j])
			j++
			continue
		}
		out = append(out, a[i])
		i++
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
