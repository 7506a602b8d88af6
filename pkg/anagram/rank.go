package anagram

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/anagramserve/pkg/normalize"
)

// ranked is a canonicalized answer with its sort keys precomputed.
type ranked struct {
	words  []string
	total  int
	joined string
}

// isSelfMatch reports whether path is just the input word handed back:
// a single word whose letters, in order, equal the normalized input.
func isSelfMatch(path []string, sequence string) bool {
	return len(path) == 1 && normalize.Word(path[0]) == sequence
}

// canonicalize orders words by length descending, then alphabetically.
func canonicalize(path []string) []string {
	words := slices.Clone(path)
	slices.SortStableFunc(words, func(a, b string) int {
		la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
		if la != lb {
			return lb - la
		}
		return strings.Compare(a, b)
	})
	return words
}

// rankResults drops the trivial self-match, collapses permutations of the same
// words and sorts by word count ascending, total length descending, then the
// space-joined words.
func rankResults(paths [][]string, sequence string) [][]string {
	seen := make(map[string]bool, len(paths))
	unique := make([]ranked, 0, len(paths))

	for _, path := range paths {
		if len(path) == 0 || isSelfMatch(path, sequence) {
			continue
		}
		words := canonicalize(path)
		joined := strings.Join(words, " ")
		key := strings.ToLower(joined)
		if seen[key] {
			continue
		}
		seen[key] = true

		total := 0
		for _, w := range words {
			total += utf8.RuneCountInString(w)
		}
		unique = append(unique, ranked{words: words, total: total, joined: joined})
	}

	slices.SortFunc(unique, func(a, b ranked) int {
		if len(a.words) != len(b.words) {
			return len(a.words) - len(b.words)
		}
		if a.total != b.total {
			return b.total - a.total
		}
		return strings.Compare(a.joined, b.joined)
	})

	out := make([][]string, len(unique))
	for i, r := range unique {
		out[i] = r.words
	}
	return out
}
