// Package anagram is the core: it finds every combination of dictionary words
// whose letters are an exact rearrangement of the input letters, and ranks them.
package anagram

import "github.com/bastiangx/anagramserve/pkg/dictionary"

// AnagramEngine defines the search capability transports depend on.
// Where it executes (in process, a worker goroutine) is up to the caller.
type AnagramEngine interface {
	// Search returns the ranked anagrams of input found in d.
	// An empty result is a valid answer, not an error.
	Search(d *dictionary.Dictionary, input string) (Result, error)
}

var _ AnagramEngine = (*Engine)(nil)
