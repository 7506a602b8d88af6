package anagram

import (
	"encoding/binary"
)

// searcher enumerates word combinations for one search call. The memo lives
// and dies with it, so nothing leaks between searches or dictionaries.
type searcher struct {
	cands    *candidateSet
	maxWords int
	memo     map[string][][]int
	keyBuf   []byte
}

func newSearcher(cands *candidateSet, maxWords int) *searcher {
	return &searcher{
		cands:    cands,
		maxWords: maxWords,
		memo:     make(map[string][][]int),
		keyBuf:   make([]byte, 0, 2*len(cands.target)+8),
	}
}

// run returns every word sequence whose letters are exactly the input letters.
func (s *searcher) run() [][]string {
	if s.cands.total == 0 || len(s.cands.words) == 0 || s.maxWords < 1 {
		return nil
	}

	seqs := s.completions(s.cands.target, s.cands.total, s.maxWords, 0)
	paths := make([][]string, len(seqs))
	for i, seq := range seqs {
		path := make([]string, len(seq))
		for j, idx := range seq {
			path[j] = s.cands.words[idx].word
		}
		paths[i] = path
	}
	return paths
}

// completions returns the candidate index sequences that spell exactly remaining
// with at most budget more words, choosing indices >= start in non-decreasing
// order so every multiset of words is produced once.
//
// Results depend only on (remaining, budget, start), which is what the memo is
// keyed on; callers prefix their own path when replaying them.
func (s *searcher) completions(remaining []uint16, total, budget, start int) [][]int {
	if total == 0 {
		return [][]int{{}}
	}
	if budget == 0 {
		return nil
	}

	key := s.key(remaining, budget, start)
	if cached, ok := s.memo[key]; ok {
		return cached
	}

	words := s.cands.words
	// The last word has to use up every remaining letter.
	if budget == 1 {
		start = max(start, s.cands.lengthStart[total])
	}

	var out [][]int
	for i := start; i < len(words); i++ {
		c := &words[i]
		if c.length > total {
			break
		}
		if !fits(c.counts, remaining) {
			continue
		}
		next := subtract(remaining, c.counts)
		for _, suffix := range s.completions(next, total-c.length, budget-1, i) {
			seq := make([]int, 0, len(suffix)+1)
			seq = append(seq, i)
			seq = append(seq, suffix...)
			out = append(out, seq)
		}
	}

	s.memo[key] = out
	return out
}

// key encodes the search state as a compact map key.
func (s *searcher) key(remaining []uint16, budget, start int) string {
	buf := s.keyBuf[:0]
	for _, c := range remaining {
		buf = binary.LittleEndian.AppendUint16(buf, c)
	}
	buf = append(buf, byte(budget))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(start))
	s.keyBuf = buf
	return string(buf)
}
