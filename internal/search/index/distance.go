package index

// EditDistance returns the Levenshtein distance between a and b, giving up
// with max+1 as soon as the distance is known to exceed max.
func EditDistance(a, b []rune, max int) int {
	if diff := len(a) - len(b); diff > max || -diff > max {
		return max + 1
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			rowMin = min(rowMin, curr[j])
		}
		if rowMin > max {
			return max + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// MaxEdits is the fuzzy tolerance for a query term: one edit for short
// terms, two otherwise.
func MaxEdits(term string) int {
	if len([]rune(term)) <= 4 {
		return 1
	}
	return 2
}
