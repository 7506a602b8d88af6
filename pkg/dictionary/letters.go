package dictionary

import (
	"slices"
	"strings"
)

// Letters is a letter multiset: each rune mapped to how often it occurs.
// Zero counts are never stored, so len(l) is the number of distinct letters.
type Letters map[rune]int

// NewLetters counts the runes of an already normalized string.
func NewLetters(normalized string) Letters {
	l := make(Letters, len(normalized))
	for _, r := range normalized {
		l[r]++
	}
	return l
}

// Len returns the total number of letters, i.e. the length of the originating string.
func (l Letters) Len() int {
	n := 0
	for _, c := range l {
		n += c
	}
	return n
}

// Contains reports whether sub fits inside l letter-wise:
// no letter occurs more often in sub than in l.
func (l Letters) Contains(sub Letters) bool {
	if len(sub) > len(l) {
		return false
	}
	for r, c := range sub {
		if l[r] < c {
			return false
		}
	}
	return true
}

// Subtract returns l minus sub as a new multiset.
// ok is false when sub does not fit inside l, in which case l is returned untouched.
func (l Letters) Subtract(sub Letters) (rest Letters, ok bool) {
	if !l.Contains(sub) {
		return l, false
	}
	rest = make(Letters, len(l))
	for r, c := range l {
		if left := c - sub[r]; left > 0 {
			rest[r] = left
		}
	}
	return rest, true
}

// Equal reports whether both multisets hold exactly the same letters.
func (l Letters) Equal(other Letters) bool {
	if len(l) != len(other) {
		return false
	}
	for r, c := range l {
		if other[r] != c {
			return false
		}
	}
	return true
}

// Signature returns the letters sorted into a string, e.g. {C:1, A:2} -> "AAC".
// Two words share a signature exactly when they are anagrams of each other.
func (l Letters) Signature() string {
	keys := make([]rune, 0, len(l))
	for r := range l {
		keys = append(keys, r)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, r := range keys {
		for i := 0; i < l[r]; i++ {
			b.WriteRune(r)
		}
	}
	return b.String()
}
