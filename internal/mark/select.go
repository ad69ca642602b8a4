package mark

import "math"

// Select picks the highest scoring value of one category.
//
// Ties go to the lexicographically smallest value name. When fitted is true
// and the best score does not exceed threshold, Select reports no selection.
// An unfitted selection never consults threshold: without a baseline there
// is no zero point to compare against.
func Select(scores map[string]float64, fitted bool, threshold float64) (string, bool) {
	return SelectOrdered(scores, sortedKeys(scores), fitted, threshold)
}

// SelectOrdered is Select with ties going to the value listed first in
// order. Values of scores missing from order are never selected.
func SelectOrdered(scores map[string]float64, order []string, fitted bool, threshold float64) (string, bool) {
	best := ""
	bestScore := math.Inf(-1)
	found := false

	for _, value := range order {
		s, ok := scores[value]
		if !ok {
			continue
		}
		if !found || s > bestScore {
			best, bestScore, found = value, s, true
		}
	}

	if !found {
		return "", false
	}
	if fitted && bestScore <= threshold {
		return "", false
	}
	return best, true
}
