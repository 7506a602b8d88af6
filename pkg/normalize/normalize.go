// Package normalize turns raw text into the canonical letter sequence used for anagram matching.
package normalize

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinLetters is the smallest normalized length worth searching.
// A single letter can never be split into a multi-word answer.
const MinLetters = 2

// stripMarks decomposes accented letters and drops the combining marks,
// leaving only the base letters behind (É -> E, ñ -> n).
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Result holds the normalized form of a piece of text.
type Result struct {
	// Sequence keeps the letters in their original order.
	Sequence string
	// Sorted has the same letters sorted lexicographically.
	Sorted string
	// Len is the number of letters (runes), not bytes.
	Len int
}

// Searchable reports whether the text has enough letters for a search.
func (r Result) Searchable() bool {
	return r.Len >= MinLetters
}

// Text normalizes arbitrary input: accents are stripped to base letters,
// everything is uppercased, and anything that is not a letter
// (whitespace, punctuation, digits, underscore, symbols) is removed.
func Text(s string) Result {
	letters := Letters(s)
	sorted := slices.Clone(letters)
	slices.Sort(sorted)

	return Result{
		Sequence: string(letters),
		Sorted:   string(sorted),
		Len:      len(letters),
	}
}

// Word returns the normalized letter sequence of a dictionary word, unsorted.
func Word(s string) string {
	return string(Letters(s))
}

// Letters returns the normalized letters of s in input order.
func Letters(s string) []rune {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}

	out := make([]rune, 0, len(stripped))
	for _, r := range strings.ToUpper(stripped) {
		if unicode.IsLetter(r) {
			out = append(out, r)
		}
	}
	return out
}
