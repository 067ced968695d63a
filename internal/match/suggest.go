package match

import (
	"sort"
	"strings"

	"xpack-migrator/internal/common"
)

// DefaultThreshold is the minimum similarity for a name to be suggested.
const DefaultThreshold = 0.6

// Candidate is a known name scored against an unknown one.
type Candidate struct {
	Name  string
	Score float64
}

// CandidateList is sorted by score descending, then by name.
type CandidateList []Candidate

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
func (c CandidateList) Less(i, j int) bool {
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}

	return c[i].Name < c[j].Name
}

// Top returns at most n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// Above returns the candidates scoring at least threshold.
func (c CandidateList) Above(threshold float64) CandidateList {
	var out CandidateList

	for _, cand := range c {
		if cand.Score >= threshold {
			out = append(out, cand)
		}
	}

	return out
}

// Names returns the candidate names in order.
func (c CandidateList) Names() []string {
	out := make([]string, 0, len(c))
	for _, cand := range c {
		out = append(out, cand.Name)
	}

	return out
}

// Rank scores every known name against name. A known name that contains the
// normalized unknown name scores at least the threshold.
func Rank(name string, known []string) CandidateList {
	norm := Normalize(name)
	list := make(CandidateList, 0, len(known))

	for _, k := range known {
		kn := Normalize(k)
		score := Similarity(norm, kn)

		if score < DefaultThreshold && containsAll(kn, norm) {
			score = DefaultThreshold
		}

		list = append(list, Candidate{Name: k, Score: score})
	}

	sort.Sort(list)

	return list
}

// Suggest returns up to n known names similar to name.
func Suggest(name string, known []string, n int) []string {
	return Rank(name, known).Above(DefaultThreshold).Top(n).Names()
}

// DidYouMean formats up to three suggestions as a sentence suffix, or returns
// "" when nothing is similar enough.
func DidYouMean(name string, known []string) string {
	names := Suggest(name, known, 3)
	if common.IsEmpty(names) {
		return ""
	}

	return " Did you mean " + strings.Join(common.Quote(names), ", ") + "?"
}

func containsAll(s, sub string) bool {
	return len(sub) >= 4 && len(s) > len(sub) && strings.Contains(s, sub)
}
