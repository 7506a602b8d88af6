/*
Package dictionary loads word lists and indexes them for anagram search.

A Dictionary groups its words by letter count and precomputes the letter
multiset of every word, so the search engine can discard whole length buckets
and test candidates without re-counting letters.

Word lists come either as a JSON object keyed by word length, a flat JSON
array, a newline separated token stream or the same structures encoded as
msgpack:

	{"3": ["ARC", "CAR"], "4": ["RACE"]}

	arc
	car
	race

Words are trimmed and uppercased on load. Entries that are empty, or that have
no letters left after normalization, are skipped, and so are exact duplicates.

A Dictionary is immutable once built and safe for concurrent reads. Each one
carries a process-unique ID so caches derived from it can tell instances apart
after a language is reloaded.
*/
package dictionary

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/bastiangx/anagramserve/pkg/normalize"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

var nextID atomic.Uint64

// Entry is a dictionary word with its precomputed letter multiset.
type Entry struct {
	// Word is the display form, trimmed and uppercased.
	Word string
	// Normalized is Word with accents and non-letters removed.
	Normalized string
	Letters    Letters
}

// Dictionary maps word length to the words of that length, in source order.
type Dictionary struct {
	id         uint64
	language   string
	buckets    map[int][]Entry
	lengths    []int
	words      *patricia.Trie
	signatures *patricia.Trie
	count      int
}

// Stats summarizes a loaded dictionary.
type Stats struct {
	Language string      `json:"language" msgpack:"lang"`
	Words    int         `json:"words" msgpack:"words"`
	Buckets  map[int]int `json:"buckets" msgpack:"buckets"`
}

// New builds a dictionary from raw words. It never fails: unusable entries are skipped.
func New(language string, words []string) *Dictionary {
	d, _ := build(context.Background(), language, words)
	return d
}

// build indexes words, checking ctx between entries so a load can be abandoned.
func build(ctx context.Context, language string, words []string) (*Dictionary, error) {
	d := &Dictionary{
		id:         nextID.Add(1),
		language:   language,
		buckets:    make(map[int][]Entry),
		words:      patricia.NewTrie(),
		signatures: patricia.NewTrie(),
	}

	skipped := 0
	for i, raw := range words {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !d.add(raw) {
			skipped++
		}
	}

	d.lengths = make([]int, 0, len(d.buckets))
	for n := range d.buckets {
		d.lengths = append(d.lengths, n)
	}
	slices.Sort(d.lengths)

	log.Debugf("Dictionary %q indexed: %d words in %d buckets (%d skipped)",
		language, d.count, len(d.lengths), skipped)
	return d, nil
}

// add inserts a single raw entry and reports whether it was kept.
func (d *Dictionary) add(raw string) bool {
	word := strings.ToUpper(strings.TrimSpace(raw))
	if word == "" {
		return false
	}
	norm := normalize.Word(word)
	if norm == "" {
		return false
	}
	// Insert refuses existing keys, which doubles as duplicate detection.
	if !d.words.Insert(patricia.Prefix(word), norm) {
		return false
	}

	letters := NewLetters(norm)
	n := utf8.RuneCountInString(norm)
	d.buckets[n] = append(d.buckets[n], Entry{
		Word:       word,
		Normalized: norm,
		Letters:    letters,
	})

	sig := patricia.Prefix(letters.Signature())
	if item := d.signatures.Get(sig); item != nil {
		d.signatures.Set(sig, append(item.([]string), word))
	} else {
		d.signatures.Insert(sig, []string{word})
	}

	d.count++
	return true
}

// ID returns the process-unique identity of this dictionary instance.
func (d *Dictionary) ID() uint64 {
	return d.id
}

// Language returns the language the dictionary was loaded for.
func (d *Dictionary) Language() string {
	return d.language
}

// Len returns the number of indexed words.
func (d *Dictionary) Len() int {
	return d.count
}

// Lengths returns the populated word lengths in ascending order.
func (d *Dictionary) Lengths() []int {
	return slices.Clone(d.lengths)
}

// Bucket returns the words with exactly n letters, in source order.
// The returned slice is shared and must not be modified.
func (d *Dictionary) Bucket(n int) []Entry {
	return d.buckets[n]
}

// Contains reports whether word (case-insensitive) is in the dictionary.
func (d *Dictionary) Contains(word string) bool {
	return d.words.Get(patricia.Prefix(strings.ToUpper(strings.TrimSpace(word)))) != nil
}

// Anagrams returns the single dictionary words made of exactly the letters of text.
func (d *Dictionary) Anagrams(text string) []string {
	sig := normalize.Text(text).Sorted
	if sig == "" {
		return nil
	}
	item := d.signatures.Get(patricia.Prefix(sig))
	if item == nil {
		return nil
	}
	return slices.Clone(item.([]string))
}

// Stats returns word counts per bucket.
func (d *Dictionary) Stats() Stats {
	buckets := make(map[int]int, len(d.buckets))
	for n, entries := range d.buckets {
		buckets[n] = len(entries)
	}
	return Stats{
		Language: d.language,
		Words:    d.count,
		Buckets:  buckets,
	}
}
