package anagram

import (
	"slices"

	"github.com/bastiangx/anagramserve/pkg/dictionary"
)

// candidate is a dictionary word that fits inside the input letters,
// with its letter counts projected onto the search alphabet.
type candidate struct {
	word   string
	length int
	counts []uint16
}

// candidateSet is the per-search view of the dictionary.
// Words are ordered by length ascending, then dictionary order.
type candidateSet struct {
	alphabet []rune
	index    map[rune]int
	target   []uint16
	total    int
	words    []candidate
	// lengthStart[n] is the first candidate index with length >= n.
	lengthStart []int
}

// newAlphabet builds a dense letter index for the input letters.
func newAlphabet(letters dictionary.Letters) ([]rune, map[rune]int, []uint16) {
	alphabet := make([]rune, 0, len(letters))
	for r := range letters {
		alphabet = append(alphabet, r)
	}
	slices.Sort(alphabet)

	index := make(map[rune]int, len(alphabet))
	target := make([]uint16, len(alphabet))
	for i, r := range alphabet {
		index[r] = i
		target[i] = uint16(letters[r])
	}
	return alphabet, index, target
}

// filterCandidates keeps the words whose letters are a subset of the input letters.
// Words whose normalized form is in exclude are dropped.
func filterCandidates(d *dictionary.Dictionary, letters dictionary.Letters, exclude map[string]bool) *candidateSet {
	alphabet, index, target := newAlphabet(letters)
	total := letters.Len()

	cs := &candidateSet{
		alphabet: alphabet,
		index:    index,
		target:   target,
		total:    total,
	}

	for _, n := range d.Lengths() {
		if n > total {
			break
		}
		for _, e := range d.Bucket(n) {
			if exclude[e.Normalized] || !letters.Contains(e.Letters) {
				continue
			}
			counts := make([]uint16, len(alphabet))
			for r, c := range e.Letters {
				counts[index[r]] = uint16(c)
			}
			cs.words = append(cs.words, candidate{word: e.Word, length: n, counts: counts})
		}
	}

	cs.lengthStart = make([]int, total+2)
	i := 0
	for n := 0; n <= total+1; n++ {
		for i < len(cs.words) && cs.words[i].length < n {
			i++
		}
		cs.lengthStart[n] = i
	}
	return cs
}

// fits reports whether counts can be taken out of remaining one-for-one.
func fits(counts, remaining []uint16) bool {
	for i, c := range counts {
		if c > remaining[i] {
			return false
		}
	}
	return true
}

// subtract returns a fresh copy of remaining minus counts.
func subtract(remaining, counts []uint16) []uint16 {
	next := make([]uint16, len(remaining))
	for i := range remaining {
		next[i] = remaining[i] - counts[i]
	}
	return next
}
