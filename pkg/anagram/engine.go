package anagram

import (
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/bastiangx/anagramserve/pkg/dictionary"
	"github.com/bastiangx/anagramserve/pkg/normalize"
	"github.com/charmbracelet/log"
)

// DefaultMaxWords caps how many words a single answer may have.
const DefaultMaxWords = 3

// ErrSearchFailed matches every *SearchError through errors.Is.
var ErrSearchFailed = errors.New("search failed")

// SearchError reports a defect hit while searching. It only affects the search
// that raised it; the engine stays usable.
type SearchError struct {
	Input string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Input, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

func (e *SearchError) Is(target error) bool {
	return target == ErrSearchFailed
}

// Options tune the engine.
type Options struct {
	// MaxWords is the longest word sequence considered.
	MaxWords int
	// MaxResults truncates the ranked list; 0 keeps everything.
	MaxResults int
	// ExcludeInputWords drops the words typed by the user from the candidates.
	ExcludeInputWords bool
	// CacheSize is the number of ranked results kept; 0 disables the cache.
	CacheSize int
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MaxWords:  DefaultMaxWords,
		CacheSize: 128,
	}
}

// Result is the outcome of one search.
type Result struct {
	Input string
	// Letters is the sorted normalized input.
	Letters  string
	Anagrams [][]string
	Elapsed  time.Duration
	Cached   bool
}

// Engine runs anagram searches. Each call owns its own candidate set and memo;
// only the optional result cache is shared, and it hands out copies.
type Engine struct {
	opts  Options
	cache *ResultCache
}

// NewEngine creates an engine. Non-positive MaxWords falls back to the default.
func NewEngine(opts Options) *Engine {
	if opts.MaxWords < 1 {
		opts.MaxWords = DefaultMaxWords
	}
	if opts.MaxResults < 0 {
		opts.MaxResults = 0
	}

	e := &Engine{opts: opts}
	if opts.CacheSize > 0 {
		e.cache = NewResultCache(opts.CacheSize)
	}
	return e
}

// Options returns the options the engine runs with.
func (e *Engine) Options() Options {
	return e.opts
}

// Search finds the ranked multi-word anagrams of input in d.
// Inputs with fewer than two letters return an empty result.
func (e *Engine) Search(d *dictionary.Dictionary, input string) (res Result, err error) {
	start := time.Now()
	norm := normalize.Text(input)
	res = Result{Input: input, Letters: norm.Sorted, Anagrams: [][]string{}}

	if !norm.Searchable() || d == nil {
		res.Elapsed = time.Since(start)
		return res, nil
	}

	var exclude map[string]bool
	key := norm.Sequence
	if e.opts.ExcludeInputWords {
		exclude = inputWords(input)
		key += "\x00" + strings.Join(sortedKeys(exclude), " ")
	}

	if e.cache != nil {
		if hit, ok := e.cache.Get(d.ID(), key); ok {
			res.Anagrams = hit
			res.Cached = true
			res.Elapsed = time.Since(start)
			return res, nil
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Search for %q panicked: %v\n%s", input, r, debug.Stack())
			res = Result{Input: input, Letters: norm.Sorted, Anagrams: [][]string{}, Elapsed: time.Since(start)}
			err = &SearchError{Input: input, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	cands := filterCandidates(d, dictionary.NewLetters(norm.Sorted), exclude)
	raw := newSearcher(cands, e.opts.MaxWords).run()
	anagrams := rankResults(raw, norm.Sequence)
	if e.opts.MaxResults > 0 && len(anagrams) > e.opts.MaxResults {
		anagrams = anagrams[:e.opts.MaxResults]
	}

	if e.cache != nil {
		e.cache.Put(d.ID(), key, anagrams)
	}

	res.Anagrams = anagrams
	res.Elapsed = time.Since(start)
	log.Debugf("Search %q: %d candidates, %d raw, %d ranked in %v",
		norm.Sorted, len(cands.words), len(raw), len(anagrams), res.Elapsed)
	return res, nil
}

// Invalidate drops cached results computed against a dictionary instance.
func (e *Engine) Invalidate(dictID uint64) {
	if e.cache != nil {
		e.cache.Invalidate(dictID)
	}
}

// Stats returns cache statistics, empty when the cache is disabled.
func (e *Engine) Stats() map[string]int {
	stats := map[string]int{"maxWords": e.opts.MaxWords}
	if e.cache != nil {
		for k, v := range e.cache.Stats() {
			stats[k] = v
		}
	}
	return stats
}

// inputWords returns the normalized words typed by the user.
func inputWords(input string) map[string]bool {
	words := make(map[string]bool)
	for _, f := range strings.Fields(input) {
		if w := normalize.Word(f); w != "" {
			words[w] = true
		}
	}
	return words
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
