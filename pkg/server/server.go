package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/bastiangx/anagramserve/internal/utils"
	"github.com/bastiangx/anagramserve/pkg/anagram"
	"github.com/bastiangx/anagramserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// LanguageLister reports the languages that can be loaded. *dictionary.Locator implements it.
type LanguageLister interface {
	Languages() ([]string, error)
}

// Options configures request handling.
type Options struct {
	// DefaultLanguage is used when a request carries no "lang".
	DefaultLanguage string
	// MaxInputLen rejects longer search inputs; 0 disables the check.
	MaxInputLen int
}

// Server handles the IPC for anagram searches
type Server struct {
	engine  anagram.AnagramEngine
	dicts   *dictionary.Cache
	lister  LanguageLister
	opts    Options
	decoder *msgpack.Decoder
	writer  *bufio.Writer
	encoder *msgpack.Encoder

	writeMu   sync.Mutex
	searchGen atomic.Uint64
	searches  atomic.Int64
	wg        sync.WaitGroup
}

// NewServer creates a server using stdin/stdout for IPC
func NewServer(engine anagram.AnagramEngine, dicts *dictionary.Cache, lister LanguageLister, opts Options) *Server {
	return NewServerWithIO(os.Stdin, os.Stdout, engine, dicts, lister, opts)
}

// NewServerWithIO creates a server over arbitrary streams.
func NewServerWithIO(r io.Reader, w io.Writer, engine anagram.AnagramEngine, dicts *dictionary.Cache, lister LanguageLister, opts Options) *Server {
	bw := bufio.NewWriter(w)
	return &Server{
		engine:  engine,
		dicts:   dicts,
		lister:  lister,
		opts:    opts,
		decoder: msgpack.NewDecoder(r),
		writer:  bw,
		encoder: msgpack.NewEncoder(bw),
	}
}

// Start announces readiness and serves requests until the input closes or ctx
// is done. Requests still running when the input closes are answered first.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		s.wg.Wait()
		cancel()
	}()

	log.Debug("Starting IPC server.")
	s.send(StatusResponse{Status: StatusReady})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw msgpack.RawMessage
		if err := s.decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("Input closed, shutting down.")
				return nil
			}
			// The stream cannot be resynchronized past a malformed message.
			log.Errorf("Reading request: %v", err)
			s.sendError("", fmt.Errorf("invalid msgpack stream: %w", err))
			return err
		}

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			log.Warnf("Unmarshaling request: %v", err)
			s.sendError("", fmt.Errorf("invalid request: %w", err))
			continue
		}
		s.handleRequest(ctx, req)
	}
}

// handleRequest dispatches on the request action
func (s *Server) handleRequest(ctx context.Context, req Request) {
	log.Debugf("Request %s: %s %q", req.ID, req.Action, utils.Truncate(req.Input, 32))

	switch req.Action {
	case "search":
		s.handleSearch(ctx, req)
	case "load":
		s.handleLoad(ctx, req)
	case "languages":
		s.handleLanguages(req)
	case "info":
		s.handleInfo(req)
	case "lookup":
		s.handleLookup(ctx, req)
	case "health":
		s.handleHealth(req)
	default:
		s.sendError(req.ID, fmt.Errorf("%w: %q", ErrUnsupportedCommand, req.Action))
	}
}

func (s *Server) language(req Request) string {
	if req.Language != "" {
		return req.Language
	}
	return s.opts.DefaultLanguage
}

// handleSearch acknowledges the search and runs it in the background.
// Only the most recent search is ever answered with a result.
func (s *Server) handleSearch(ctx context.Context, req Request) {
	// Bumping the generation and acknowledging happen under one lock, so no older
	// search can slip its answer in after this acknowledgement.
	s.writeMu.Lock()
	gen := s.searchGen.Add(1)
	s.write(StatusResponse{ID: req.ID, Status: StatusInitialized})
	s.writeMu.Unlock()

	if s.opts.MaxInputLen > 0 && utf8.RuneCountInString(req.Input) > s.opts.MaxInputLen {
		s.sendError(req.ID, fmt.Errorf("input exceeds maximum length of %d characters", s.opts.MaxInputLen))
		return
	}

	lang := s.language(req)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.searches.Add(1)

		d, err := s.dicts.Ensure(ctx, lang)
		if err != nil {
			s.sendCurrent(gen, errorResponse(req.ID, err))
			return
		}

		res, err := s.engine.Search(d, req.Input)
		if err != nil {
			s.sendCurrent(gen, errorResponse(req.ID, err))
			return
		}

		sent := s.sendCurrent(gen, SearchResponse{
			ID:        req.ID,
			Status:    StatusCompleted,
			Anagrams:  res.Anagrams,
			Count:     len(res.Anagrams),
			TimeTaken: utils.Micros(res.Elapsed),
		})
		if !sent {
			log.Debugf("Discarding superseded search %s", req.ID)
		}
	}()
}

// handleLoad (re)loads a language in the background. A newer load of the same
// language cancels this one, which is then answered with an error.
func (s *Server) handleLoad(ctx context.Context, req Request) {
	lang := s.language(req)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		var (
			d   *dictionary.Dictionary
			err error
		)
		if req.Path != "" {
			d, err = s.dicts.LoadFrom(ctx, lang, dictionary.NewFileSource(req.Path))
		} else {
			d, err = s.dicts.Load(ctx, lang)
		}
		if err != nil {
			s.sendError(req.ID, err)
			return
		}

		resp := dictionaryResponse(req.ID, StatusLoaded, d)
		resp.Source = req.Path
		s.send(resp)
	}()
}

func (s *Server) handleLanguages(req Request) {
	resp := LanguagesResponse{
		ID:        req.ID,
		Status:    StatusOK,
		Available: []string{},
		Loaded:    s.dicts.Languages(),
	}
	if s.lister != nil {
		available, err := s.lister.Languages()
		if err != nil {
			s.sendError(req.ID, err)
			return
		}
		resp.Available = available
	}
	s.send(resp)
}

func (s *Server) handleInfo(req Request) {
	lang := s.language(req)
	d, ok := s.dicts.Get(lang)
	if !ok {
		s.sendError(req.ID, fmt.Errorf("%w: %q is not loaded", dictionary.ErrUnknownLanguage, lang))
		return
	}
	s.send(dictionaryResponse(req.ID, StatusOK, d))
}

// handleLookup may have to load the language first, so it runs off the read loop.
func (s *Server) handleLookup(ctx context.Context, req Request) {
	lang := s.language(req)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		d, err := s.dicts.Ensure(ctx, lang)
		if err != nil {
			s.sendError(req.ID, err)
			return
		}
		words := d.Anagrams(req.Input)
		if words == nil {
			words = []string{}
		}
		s.send(LookupResponse{ID: req.ID, Status: StatusOK, Words: words})
	}()
}

func (s *Server) handleHealth(req Request) {
	resp := HealthResponse{ID: req.ID, Status: StatusOK, Searches: s.searches.Load()}
	if st, ok := s.engine.(interface{ Stats() map[string]int }); ok {
		resp.Engine = st.Stats()
	}
	s.send(resp)
}

func dictionaryResponse(id, status string, d *dictionary.Dictionary) DictionaryResponse {
	stats := d.Stats()
	buckets := make(map[string]int, len(stats.Buckets))
	for n, count := range stats.Buckets {
		buckets[strconv.Itoa(n)] = count
	}
	return DictionaryResponse{
		ID:       id,
		Status:   status,
		Language: stats.Language,
		Words:    stats.Words,
		Buckets:  buckets,
	}
}

// send encodes one response and flushes it. Safe for concurrent use.
func (s *Server) send(response any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.write(response)
}

// sendCurrent sends response only while gen is still the latest search, and
// reports whether it did.
func (s *Server) sendCurrent(gen uint64, response any) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.searchGen.Load() != gen {
		return false
	}
	s.write(response)
	return true
}

// write must be called with writeMu held.
func (s *Server) write(response any) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id string, err error) {
	s.send(errorResponse(id, err))
}

func errorResponse(id string, err error) ErrorResponse {
	log.Debugf("Request %s failed: %v", id, err)
	return ErrorResponse{ID: id, Status: StatusError, Error: err.Error()}
}
