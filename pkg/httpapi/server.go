// Package httpapi exposes anagram search and dictionary management over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bastiangx/anagramserve/internal/logger"
	"github.com/bastiangx/anagramserve/pkg/anagram"
	"github.com/bastiangx/anagramserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

// LanguageLister reports the languages that can be loaded.
type LanguageLister interface {
	Languages() ([]string, error)
}

// Options configures the HTTP API.
type Options struct {
	Addr            string
	DefaultLanguage string
	// MaxInputLen rejects longer queries; 0 disables the check.
	MaxInputLen int
	// MaxBodyBytes caps uploaded word lists.
	MaxBodyBytes int64
}

// Server represents the HTTP API server
type Server struct {
	engine     anagram.AnagramEngine
	dicts      *dictionary.Cache
	lister     LanguageLister
	opts       Options
	router     *mux.Router
	httpServer *http.Server
	log        *log.Logger
}

// NewServer creates the API server and its routes.
func NewServer(engine anagram.AnagramEngine, dicts *dictionary.Cache, lister LanguageLister, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 32 << 20
	}

	s := &Server{
		engine: engine,
		dicts:  dicts,
		lister: lister,
		opts:   opts,
		log:    logger.New("http"),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/anagrams", s.searchAnagrams).Methods(http.MethodGet)
	api.HandleFunc("/languages", s.listLanguages).Methods(http.MethodGet)
	api.HandleFunc("/dictionaries/{lang:[A-Za-z0-9_-]+}", s.getDictionary).Methods(http.MethodGet)
	api.HandleFunc("/dictionaries/{lang:[A-Za-z0-9_-]+}", s.loadDictionary).Methods(http.MethodPost, http.MethodPut)
	api.HandleFunc("/dictionaries/{lang:[A-Za-z0-9_-]+}", s.dropDictionary).Methods(http.MethodDelete)
	api.HandleFunc("/dictionaries/{lang:[A-Za-z0-9_-]+}/lookup", s.lookupWord).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("no such route"))
	})

	s.router.Use(recoverPanics(s.log))
	s.router.Use(requestLogging(s.log))
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
