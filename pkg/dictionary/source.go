package dictionary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Source provides the raw bytes of a word list.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Format is the encoding of the source, FormatAuto to sniff it.
	Format() Format
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a word list from disk.
type FileSource struct {
	Path string
	Fmt  Format
}

// NewFileSource creates a file source with its format detected from the extension.
func NewFileSource(path string) FileSource {
	return FileSource{Path: path, Fmt: DetectFormat(path)}
}

func (s FileSource) Name() string   { return s.Path }
func (s FileSource) Format() Format { return s.Fmt }

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	return f, nil
}

// BytesSource serves an in-memory word list.
type BytesSource struct {
	Label string
	Data  []byte
	Fmt   Format
}

func (s BytesSource) Name() string {
	if s.Label == "" {
		return "memory"
	}
	return s.Label
}

func (s BytesSource) Format() Format { return s.Fmt }

func (s BytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

// languagePattern keeps language codes from escaping the data dir.
var languagePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// filePatterns lists, in priority order, where a language's word list may live.
var filePatterns = []string{
	"answers_%s.json",
	"%s.json",
	"%s.msgpack",
	"%s.txt",
	"%s.csv",
}

// Locator maps language codes to word list files inside a data directory.
type Locator struct {
	dir string
}

// NewLocator creates a locator rooted at dir.
func NewLocator(dir string) *Locator {
	return &Locator{dir: dir}
}

// Dir returns the directory the locator searches.
func (l *Locator) Dir() string {
	return l.dir
}

// Find returns the word list source for a language.
func (l *Locator) Find(language string) (Source, error) {
	if !languagePattern.MatchString(language) {
		return nil, fmt.Errorf("%w: invalid language code %q", ErrUnknownLanguage, language)
	}
	for _, pattern := range filePatterns {
		path := filepath.Join(l.dir, fmt.Sprintf(pattern, language))
		if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
			log.Debugf("Word list for %q found at %s", language, path)
			return NewFileSource(path), nil
		}
	}
	return nil, fmt.Errorf("%w: no word list for %q in %s", ErrUnknownLanguage, language, l.dir)
}

// Languages scans the data directory for available languages.
func (l *Locator) Languages() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for word lists: %w", err)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if DetectFormat(name) == FormatAuto {
			continue
		}
		lang := strings.TrimSuffix(name, filepath.Ext(name))
		lang = strings.TrimPrefix(lang, "answers_")
		if languagePattern.MatchString(lang) {
			seen[lang] = true
		}
	}

	languages := make([]string, 0, len(seen))
	for lang := range seen {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages, nil
}
