// Package match ranks known names by similarity to an unknown one, to attach
// "did you mean" hints to reported privileges, rule fields and realm types.
//
// Key functions:
//   - Normalize: folds case and strips separators
//   - Levenshtein: computes edit distance between strings
//   - Rank, Suggest: order candidates by normalized similarity
package match
