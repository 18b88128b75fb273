// Package match provides edit-distance matching used to rank suggestions
// for misspelled resource types, field names, and option values.
package match

import (
	"sort"
	"strings"
)

// Candidate is a scored suggestion produced by Closest.
type Candidate struct {
	Value    string
	Distance int
}

// Distance returns the Levenshtein edit distance between a and b,
// case-insensitively. Uses the two-row iteration to keep allocation flat.
func Distance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Closest ranks candidates by edit distance to input and returns up to max
// of them, nearest first. Candidates farther than maxDistance are excluded;
// maxDistance <= 0 disables the cutoff. Ties preserve candidate order.
func Closest(input string, candidates []string, max, maxDistance int) []Candidate {
	if max <= 0 || len(candidates) == 0 {
		return nil
	}

	scored := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		d := Distance(input, c)
		if maxDistance > 0 && d > maxDistance {
			continue
		}
		scored = append(scored, Candidate{Value: c, Distance: d})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})

	if len(scored) > max {
		scored = scored[:max]
	}
	return scored
}

// ClosestValues is Closest reduced to the candidate strings.
func ClosestValues(input string, candidates []string, max, maxDistance int) []string {
	ranked := Closest(input, candidates, max, maxDistance)
	if len(ranked) == 0 {
		return nil
	}
	values := make([]string, len(ranked))
	for i, c := range ranked {
		values[i] = c.Value
	}
	return values
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
