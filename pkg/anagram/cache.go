package anagram

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

type cacheKey struct {
	dictID  uint64
	letters string
}

type cacheEntry struct {
	anagrams   [][]string
	accessTime int64
}

// ResultCache keeps ranked results of recent searches, least recently used
// entries are evicted first. Entries are bound to one dictionary instance and
// are never served for another.
type ResultCache struct {
	entries     map[cacheKey]*cacheEntry
	accessCount int64
	hits        int64
	misses      int64
	maxEntries  int
	mu          sync.Mutex
}

// NewResultCache creates a cache holding at most maxEntries results.
func NewResultCache(maxEntries int) *ResultCache {
	return &ResultCache{
		entries:    make(map[cacheKey]*cacheEntry, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached result for a dictionary and search key.
func (rc *ResultCache) Get(dictID uint64, key string) ([][]string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	entry, ok := rc.entries[cacheKey{dictID, key}]
	if !ok {
		rc.misses++
		return nil, false
	}
	rc.hits++
	entry.accessTime = rc.getNextAccessTime()
	return copyAnagrams(entry.anagrams), true
}

// Put stores a copy of a ranked result.
func (rc *ResultCache) Put(dictID uint64, key string, anagrams [][]string) {
	if rc.maxEntries <= 0 {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	k := cacheKey{dictID, key}
	if _, exists := rc.entries[k]; !exists && len(rc.entries) >= rc.maxEntries {
		rc.evictLRU()
	}
	rc.entries[k] = &cacheEntry{
		anagrams:   copyAnagrams(anagrams),
		accessTime: rc.getNextAccessTime(),
	}
}

// Invalidate removes every entry computed against the given dictionary.
func (rc *ResultCache) Invalidate(dictID uint64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	removed := 0
	for k := range rc.entries {
		if k.dictID == dictID {
			delete(rc.entries, k)
			removed++
		}
	}
	if removed > 0 {
		log.Debugf("Invalidated %d cached results for dictionary %d", removed, dictID)
	}
}

// Len returns the number of cached results.
func (rc *ResultCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

func (rc *ResultCache) Stats() map[string]int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return map[string]int{
		"cachedResults": len(rc.entries),
		"maxResults":    rc.maxEntries,
		"cacheHits":     int(rc.hits),
		"cacheMisses":   int(rc.misses),
	}
}

func (rc *ResultCache) getNextAccessTime() int64 {
	rc.accessCount++
	return rc.accessCount
}

func (rc *ResultCache) evictLRU() {
	var oldest cacheKey
	var oldestTime int64 = math.MaxInt64

	for k, entry := range rc.entries {
		if entry.accessTime < oldestTime {
			oldestTime = entry.accessTime
			oldest = k
		}
	}

	if oldestTime != math.MaxInt64 {
		delete(rc.entries, oldest)
		log.Debugf("Evicted cached result for %q", oldest.letters)
	}
}

func copyAnagrams(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, words := range in {
		out[i] = append([]string(nil), words...)
	}
	return out
}
