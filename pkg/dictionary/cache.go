package dictionary

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// Resolver finds the word source for a language. *Locator implements it.
type Resolver interface {
	Find(language string) (Source, error)
}

// loadCall tracks one in-flight load so later callers can wait on it.
type loadCall struct {
	done   chan struct{}
	cancel context.CancelFunc
	dict   *Dictionary
	err    error
}

// Cache holds one dictionary per language and manages their (re)loading.
//
// A new Load for a language cancels and supersedes any load still running for
// it. A failed load leaves the previously cached dictionary in place.
type Cache struct {
	resolver  Resolver
	opts      ParseOptions
	dicts     map[string]*Dictionary
	loading   map[string]*loadCall
	onReplace []func(old *Dictionary)
	mu        sync.Mutex
}

// NewCache creates an empty cache that resolves sources through resolver and
// parses them with opts.
func NewCache(resolver Resolver, opts ParseOptions) *Cache {
	return &Cache{
		resolver: resolver,
		opts:     opts,
		dicts:    make(map[string]*Dictionary),
		loading:  make(map[string]*loadCall),
	}
}

// OnReplace registers fn to be called with a dictionary that was replaced or invalidated.
func (c *Cache) OnReplace(fn func(old *Dictionary)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReplace = append(c.onReplace, fn)
}

// Get returns the cached dictionary for a language.
func (c *Cache) Get(language string) (*Dictionary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.dicts[language]
	return d, ok
}

// Ensure returns the cached dictionary, loading it first if needed.
// Concurrent callers share a single in-flight load.
func (c *Cache) Ensure(ctx context.Context, language string) (*Dictionary, error) {
	for {
		c.mu.Lock()
		if d, ok := c.dicts[language]; ok {
			c.mu.Unlock()
			return d, nil
		}
		call, inFlight := c.loading[language]
		c.mu.Unlock()

		if !inFlight {
			d, err := c.Load(ctx, language)
			if errors.Is(err, ErrLoadSuperseded) && ctx.Err() == nil {
				continue
			}
			return d, err
		}

		select {
		case <-call.done:
			if errors.Is(call.err, ErrLoadSuperseded) {
				continue
			}
			return call.dict, call.err
		case <-ctx.Done():
			return nil, &LoadError{Language: language, Err: ctx.Err()}
		}
	}
}

// Load resolves and (re)loads the dictionary for a language.
func (c *Cache) Load(ctx context.Context, language string) (*Dictionary, error) {
	src, err := c.resolver.Find(language)
	if err != nil {
		return nil, &LoadError{Language: language, Err: err}
	}
	return c.LoadFrom(ctx, language, src)
}

// LoadFrom loads a language from an explicit source, replacing the cached
// dictionary on success.
func (c *Cache) LoadFrom(ctx context.Context, language string, src Source) (*Dictionary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	call := &loadCall{done: make(chan struct{}), cancel: cancel}

	c.mu.Lock()
	if prev, ok := c.loading[language]; ok {
		log.Debugf("Superseding in-flight load for %q", language)
		prev.cancel()
	}
	c.loading[language] = call
	c.mu.Unlock()

	d, err := Prepare(ctx, language, src, c.opts)

	c.mu.Lock()
	var old *Dictionary
	current := c.loading[language] == call
	if current {
		delete(c.loading, language)
		if err == nil {
			old = c.dicts[language]
			c.dicts[language] = d
		}
	} else {
		d, err = nil, &LoadError{Language: language, Source: src.Name(), Err: ErrLoadSuperseded}
	}
	call.dict, call.err = d, err
	hooks := c.onReplace
	close(call.done)
	c.mu.Unlock()

	if err != nil {
		log.Warnf("Dictionary load failed: %v", err)
		return nil, err
	}
	log.Debugf("Dictionary %q ready: %d words", language, d.Len())

	if old != nil {
		for _, fn := range hooks {
			fn(old)
		}
	}
	return d, nil
}

// Invalidate drops the cached dictionary for a language.
func (c *Cache) Invalidate(language string) {
	c.mu.Lock()
	old, ok := c.dicts[language]
	delete(c.dicts, language)
	hooks := c.onReplace
	c.mu.Unlock()

	if ok {
		for _, fn := range hooks {
			fn(old)
		}
	}
}

// Languages returns the currently loaded languages, sorted.
func (c *Cache) Languages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	languages := make([]string, 0, len(c.dicts))
	for lang := range c.dicts {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}
