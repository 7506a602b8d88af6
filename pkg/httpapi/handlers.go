package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/bastiangx/anagramserve/internal/utils"
	"github.com/bastiangx/anagramserve/pkg/anagram"
	"github.com/bastiangx/anagramserve/pkg/dictionary"
	"github.com/gorilla/mux"
)

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type searchResponse struct {
	Input     string     `json:"input"`
	Letters   string     `json:"letters"`
	Language  string     `json:"lang"`
	Anagrams  [][]string `json:"anagrams"`
	Count     int        `json:"count"`
	TimeTaken int64      `json:"time_us"`
	Cached    bool       `json:"cached"`
}

type languagesResponse struct {
	Available []string `json:"available"`
	Loaded    []string `json:"loaded"`
}

type lookupResponse struct {
	Input string   `json:"input"`
	Words []string `json:"words"`
}

// searchAnagrams handles GET /api/anagrams?q=&lang=&limit=
func (s *Server) searchAnagrams(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("q") {
		writeError(w, http.StatusBadRequest, errors.New("missing 'q' parameter"))
		return
	}
	input := query.Get("q")
	if s.opts.MaxInputLen > 0 && utf8.RuneCountInString(input) > s.opts.MaxInputLen {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query exceeds maximum length of %d characters", s.opts.MaxInputLen))
		return
	}
	limit, err := parseIntParam(query.Get("limit"), 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid 'limit' parameter %q", query.Get("limit")))
		return
	}

	lang := s.language(query.Get("lang"))
	d, err := s.dicts.Ensure(r.Context(), lang)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	res, err := s.engine.Search(d, input)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	anagrams := res.Anagrams
	if limit > 0 && len(anagrams) > limit {
		anagrams = anagrams[:limit]
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Input:     input,
		Letters:   res.Letters,
		Language:  lang,
		Anagrams:  anagrams,
		Count:     len(anagrams),
		TimeTaken: utils.Micros(res.Elapsed),
		Cached:    res.Cached,
	})
}

// listLanguages handles GET /api/languages
func (s *Server) listLanguages(w http.ResponseWriter, r *http.Request) {
	resp := languagesResponse{Available: []string{}, Loaded: s.dicts.Languages()}
	if s.lister != nil {
		available, err := s.lister.Languages()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.Available = available
	}
	writeJSON(w, http.StatusOK, resp)
}

// getDictionary handles GET /api/dictionaries/{lang}
func (s *Server) getDictionary(w http.ResponseWriter, r *http.Request) {
	lang := mux.Vars(r)["lang"]
	d, ok := s.dicts.Get(lang)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q is not loaded", dictionary.ErrUnknownLanguage, lang))
		return
	}
	writeJSON(w, http.StatusOK, d.Stats())
}

// loadDictionary handles POST /api/dictionaries/{lang}. An empty body loads the
// language from the data dir; otherwise the body is the word list itself.
func (s *Server) loadDictionary(w http.ResponseWriter, r *http.Request) {
	lang := mux.Vars(r)["lang"]

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, fmt.Errorf("read word list: %w", err))
		return
	}

	var d *dictionary.Dictionary
	if len(data) == 0 {
		d, err = s.dicts.Load(r.Context(), lang)
	} else {
		src := dictionary.BytesSource{
			Label: "upload",
			Data:  data,
			Fmt:   formatFromContentType(r.Header.Get("Content-Type")),
		}
		d, err = s.dicts.LoadFrom(r.Context(), lang, src)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, d.Stats())
}

// dropDictionary handles DELETE /api/dictionaries/{lang}
func (s *Server) dropDictionary(w http.ResponseWriter, r *http.Request) {
	lang := mux.Vars(r)["lang"]
	if _, ok := s.dicts.Get(lang); !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q is not loaded", dictionary.ErrUnknownLanguage, lang))
		return
	}
	s.dicts.Invalidate(lang)
	w.WriteHeader(http.StatusNoContent)
}

// lookupWord handles GET /api/dictionaries/{lang}/lookup?q=
func (s *Server) lookupWord(w http.ResponseWriter, r *http.Request) {
	lang := mux.Vars(r)["lang"]
	input := r.URL.Query().Get("q")
	if input == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing 'q' parameter"))
		return
	}

	d, err := s.dicts.Ensure(r.Context(), lang)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	words := d.Anagrams(input)
	if words == nil {
		words = []string{}
	}
	writeJSON(w, http.StatusOK, lookupResponse{Input: input, Words: words})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "loaded": s.dicts.Languages()}
	if st, ok := s.engine.(interface{ Stats() map[string]int }); ok {
		resp["engine"] = st.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) language(lang string) string {
	if lang != "" {
		return lang
	}
	return s.opts.DefaultLanguage
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dictionary.ErrUnknownLanguage):
		return http.StatusNotFound
	case errors.Is(err, dictionary.ErrLoadSuperseded):
		return http.StatusConflict
	case errors.Is(err, dictionary.ErrDictionaryLoad):
		return http.StatusUnprocessableEntity
	case errors.Is(err, anagram.ErrSearchFailed):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func formatFromContentType(contentType string) dictionary.Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return dictionary.FormatAuto
	}
	switch mediaType {
	case "application/json":
		return dictionary.FormatJSON
	case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
		return dictionary.FormatMsgpack
	case "text/plain", "text/csv":
		return dictionary.FormatText
	}
	return dictionary.FormatAuto
}

func parseIntParam(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Status: status})
}
