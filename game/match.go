package game

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// SimilarityThreshold is the minimum normalized similarity for a textual
// guess to count as correct.
const SimilarityThreshold = 0.8

// MatchAnswer decides whether a guess matches the stored answer. All-digit
// guesses must equal the answer's literal text exactly, with no tolerance.
// Textual guesses are compared case-insensitively with a normalized
// edit-distance similarity against SimilarityThreshold.
func MatchAnswer(guess, answer string) bool {
	guess = strings.TrimSpace(guess)
	answer = strings.TrimSpace(answer)
	if guess == "" {
		return false
	}

	if isAllDigits(guess) {
		return guess == answer
	}

	return similarity(strings.ToLower(guess), strings.ToLower(answer)) >= SimilarityThreshold
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similarity maps Levenshtein distance onto [0,1], 1 meaning identical.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
