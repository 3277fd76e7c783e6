package grouper

import (
	"math"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Similarity scores two canonical keys in [0,100].
//
// The score is the insert/delete edit-distance ratio
// 100 * (len(a)+len(b)-distance) / (len(a)+len(b)), rounded to the nearest
// integer with halves to even, where a substitution costs two edits. It is symmetric and an
// identical non-empty pair scores 100. Any comparison involving an empty key
// scores 0.
func Similarity(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	ratio := levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	return int(math.RoundToEven(ratio * 100))
}
