package fuzzy

import "strings"

// LevenshteinDistance calculates the edit distance between two strings
// This measures how many single-character edits (insertions, deletions, or substitutions)
// are required to change one string into another
func LevenshteinDistance(s1, s2 string) int {
	s1 = normalizeString(s1)
	s2 = normalizeString(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}

	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[m][n]
}

// Match checks if query fuzzy-matches text within a given threshold
// threshold is the maximum allowed edit distance
func Match(query, text string, threshold int) bool {
	query = normalizeString(query)
	text = normalizeString(text)

	if strings.Contains(text, query) {
		return true
	}

	// Check if any word in text fuzzy-matches the query
	for _, word := range strings.Fields(text) {
		if LevenshteinDistance(query, word) <= threshold {
			return true
		}
		if strings.HasPrefix(word, query) {
			return true
		}
	}

	return false
}

// Threshold picks a typo tolerance based on query length.
func Threshold(query string) int {
	switch {
	case len(query) <= 3:
		return 1
	case len(query) >= 8:
		return 3
	default:
		return 2
	}
}

// MatchContact checks whether a contact's name or email address matches
// the query, tolerating typos proportional to the query length.
func MatchContact(query, name, email string) bool {
	threshold := Threshold(query)

	if Match(query, name, threshold) {
		return true
	}
	if Match(query, email, threshold) {
		return true
	}

	// The local part of the address matches on its own too, so "jsmith"
	// finds jsmith@example.com even when the name is "John Smith".
	if idx := strings.Index(email, "@"); idx > 0 {
		return Match(query, email[:idx], threshold)
	}
	return false
}

// ScoreContact scores how relevant a contact is to a query.
// Higher score = more relevant. Name matches outweigh address matches.
func ScoreContact(query, name, email string) float64 {
	query = normalizeString(query)
	score := 0.0

	nameNorm := normalizeString(name)
	if strings.Contains(nameNorm, query) {
		score += 100.0
		if containsWord(nameNorm, query) {
			score += 50.0
		}
	} else {
		for _, word := range strings.Fields(nameNorm) {
			dist := LevenshteinDistance(query, word)
			if dist <= 2 {
				score += 50.0 - float64(dist)*15
			}
			if strings.HasPrefix(word, query) {
				score += 40.0
			}
		}
	}

	emailNorm := normalizeString(email)
	if strings.Contains(emailNorm, query) {
		score += 60.0
	} else {
		localPart := emailNorm
		if idx := strings.Index(emailNorm, "@"); idx > 0 {
			localPart = emailNorm[:idx]
		}
		if strings.HasPrefix(localPart, query) {
			score += 30.0
		}
	}

	return score
}

// Helper functions

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// normalizeString converts to lowercase and collapses whitespace
func normalizeString(s string) string {
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// containsWord checks if text contains query as a whole word
func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}
