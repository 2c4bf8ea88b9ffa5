package airport

// Ratio measures the similarity of a and b in [0,1] as 2·M/T, where M counts
// the characters of the matching blocks found by recursively taking the
// longest common substring (Ratcliff/Obershelp) and T is the combined length.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

func matchingChars(a, b []rune) int {
	i, j, n := longestCommon(a, b)
	if n == 0 {
		return 0
	}
	return n + matchingChars(a[:i], b[:j]) + matchingChars(a[i+n:], b[j+n:])
}

// longestCommon returns the start offsets and length of the first longest
// common substring of a and b.
func longestCommon(a, b []rune) (int, int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	bestI, bestJ, best := 0, 0, 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
					bestI, bestJ = i-best, j-best
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, best
}
