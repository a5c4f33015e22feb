// Package textsim scores how alike two strings are.
package textsim

// Distance returns the Levenshtein edit distance between a and b with unit
// cost for insertion, deletion and substitution. Strings are compared rune by rune.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	// table[i][j] is the distance between rb[:i] and ra[:j].
	table := make([][]int, len(rb)+1)
	for i := range table {
		table[i] = make([]int, len(ra)+1)
		table[i][0] = i
	}
	for j := 0; j <= len(ra); j++ {
		table[0][j] = j
	}

	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				table[i][j] = table[i-1][j-1]
				continue
			}
			table[i][j] = 1 + min(
				table[i-1][j-1], // substitute
				table[i][j-1],   // insert
				table[i-1][j],   // delete
			)
		}
	}

	return table[len(rb)][len(ra)]
}

// Similarity returns a score in [0,1] where 1 means identical:
// (maxLen - Distance(a, b)) / maxLen. Two empty strings are identical.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return float64(maxLen-Distance(a, b)) / float64(maxLen)
}
