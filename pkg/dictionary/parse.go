package dictionary

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/anagramserve/pkg/normalize"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ParseOptions filter the entries of frequency lists, the "word,frequency" lines
// of text sources. Zero values disable each filter.
type ParseOptions struct {
	// MinFrequency keeps only entries whose frequency is above it. Entries with
	// an unreadable frequency are dropped while it is set.
	MinFrequency float64
	// MinWordLength drops entries with fewer letters.
	MinWordLength int
}

// keepEntry applies the frequency list filters to one "word,frequency" line.
func (o ParseOptions) keepEntry(word, frequency string) bool {
	if o.MinWordLength > 0 && len(normalize.Letters(word)) < o.MinWordLength {
		return false
	}
	if o.MinFrequency <= 0 {
		return true
	}
	freq, err := strconv.ParseFloat(strings.TrimSpace(frequency), 64)
	return err == nil && freq > o.MinFrequency
}

// Prepare reads a word source and builds the dictionary for a language.
// Every failure is returned as a *LoadError, including a source with entries
// of which none survive normalization.
func Prepare(ctx context.Context, language string, src Source, opts ParseOptions) (*Dictionary, error) {
	loadErr := func(err error) error {
		return &LoadError{Language: language, Source: src.Name(), Err: err}
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, loadErr(err)
	}
	defer rc.Close()

	words, err := Parse(ctx, rc, src.Format(), opts)
	if err != nil {
		return nil, loadErr(err)
	}
	if len(words) == 0 {
		log.Warnf("Word source %s for %q has no entries", src.Name(), language)
	}

	d, err := build(ctx, language, words)
	if err != nil {
		return nil, loadErr(err)
	}
	if len(words) > 0 && d.Len() == 0 {
		return nil, loadErr(fmt.Errorf("%w: all %d entries were empty or letterless", ErrNoUsableWords, len(words)))
	}
	return d, nil
}

// Parse decodes a word list into raw words, in source order.
// For length-keyed objects the buckets are visited by ascending length.
// Trailing data after a JSON or msgpack value and text that is not UTF-8 are errors.
func Parse(ctx context.Context, r io.Reader, format Format, opts ParseOptions) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read word source: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if format == FormatAuto {
		format = sniffFormat(data)
	}

	switch format {
	case FormatJSON:
		var v any
		if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &v); err != nil {
			return nil, fmt.Errorf("parse JSON word list: %w", err)
		}
		return collectWords(v)
	case FormatMsgpack:
		var v any
		br := bytes.NewReader(data)
		if err := msgpack.NewDecoder(br).Decode(&v); err != nil {
			return nil, fmt.Errorf("parse msgpack word list: %w", err)
		}
		if br.Len() > 0 {
			return nil, fmt.Errorf("parse msgpack word list: %d bytes of trailing data", br.Len())
		}
		return collectWords(v)
	case FormatText:
		if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
			return nil, errors.New("text word list is not valid UTF-8 text")
		}
		return parseText(ctx, bytes.TrimPrefix(data, utf8BOM), opts)
	}
	return nil, fmt.Errorf("unsupported word list format: %v", format)
}

// parseText splits a token stream. Lines may carry a "word,frequency" pair,
// in which case only the word is kept, subject to opts; '#' starts a comment line.
func parseText(ctx context.Context, data []byte, opts ParseOptions) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var words []string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if word, freq, found := strings.Cut(line, ","); found {
			if !opts.keepEntry(word, freq) {
				continue
			}
			line = word
		}
		words = append(words, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan word list at line %d: %w", lineNo, err)
	}
	return words, nil
}

// collectWords flattens a decoded JSON or msgpack value.
func collectWords(v any) ([]string, error) {
	switch t := v.(type) {
	case []any:
		return stringList(t, "")
	case map[string]any:
		type bucket struct {
			length int
			key    string
		}
		buckets := make([]bucket, 0, len(t))
		for key := range t {
			n, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid length key %q", key)
			}
			buckets = append(buckets, bucket{length: n, key: key})
		}
		slices.SortFunc(buckets, func(a, b bucket) int { return a.length - b.length })

		var words []string
		for _, b := range buckets {
			list, ok := t[b.key].([]any)
			if !ok {
				return nil, fmt.Errorf("bucket %q is %T, want a list of words", b.key, t[b.key])
			}
			ws, err := stringList(list, b.key)
			if err != nil {
				return nil, err
			}
			words = append(words, ws...)
		}
		return words, nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = val
		}
		return collectWords(m)
	case nil:
		return nil, fmt.Errorf("word list is empty")
	}
	return nil, fmt.Errorf("word list is %T, want an object keyed by length or a list", v)
}

func stringList(list []any, key string) ([]string, error) {
	words := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			if key != "" {
				return nil, fmt.Errorf("bucket %q entry %d is %T, want string", key, i, item)
			}
			return nil, fmt.Errorf("entry %d is %T, want string", i, item)
		}
		words = append(words, s)
	}
	return words, nil
}
