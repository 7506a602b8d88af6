/*
Package server implements the msgpack IPC transport for anagram searches.

The server reads a stream of msgpack encoded requests from stdin and writes
msgpack encoded responses to stdout. Messages are not delimited: each one is a
single msgpack map. Logs never go to stdout.

# IPC

On start the server announces itself:

	{"status": "ready"}

Every request carries an ID, echoed back in each response for it, and an action:

	{"id": "req_001", "action": "search", "in": "racecar", "lang": "en"}

A search is acknowledged right away, then answered once it finishes:

	{"id": "req_001", "status": "initialized"}
	{"id": "req_001", "status": "completed", "r": [["RACE", "ARC"], ["RACE", "CAR"]], "c": 2, "t": 145}

t is the search time in microseconds. A newer search supersedes the one in
flight: the older one is never answered with "completed".

Dictionaries are loaded per language, either from the data dir or from an
explicit path. A new load of a language cancels the one still running for it:

	{"id": "load_001", "action": "load", "lang": "fr"}
	{"id": "load_002", "action": "load", "lang": "en", "path": "/srv/words/en.txt"}

Other actions are "languages", "info", "lookup" (single word anagrams of "in")
and "health". Failures are answered with status "error" and the message in "e".
*/
package server

import "errors"

// ErrUnsupportedCommand is returned for actions the server does not know.
var ErrUnsupportedCommand = errors.New("UnsupportedCommand")

// Response statuses
const (
	StatusReady       = "ready"
	StatusInitialized = "initialized"
	StatusCompleted   = "completed"
	StatusLoaded      = "loaded"
	StatusOK          = "ok"
	StatusError       = "error"
)

// Request - any client message
type Request struct {
	ID       string `msgpack:"id"`
	Action   string `msgpack:"action"`
	Input    string `msgpack:"in,omitempty"`
	Language string `msgpack:"lang,omitempty"`
	Path     string `msgpack:"path,omitempty"`
}

// StatusResponse - bare status message, used for "ready" and "initialized"
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// SearchResponse - completed search
type SearchResponse struct {
	ID        string     `msgpack:"id"`
	Status    string     `msgpack:"status"`
	Anagrams  [][]string `msgpack:"r"`
	Count     int        `msgpack:"c"`
	TimeTaken int64      `msgpack:"t"`
}

// ErrorResponse holds the error message for a failed request
type ErrorResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Error  string `msgpack:"e"`
}

// DictionaryResponse - result of "load" and "info"
type DictionaryResponse struct {
	ID       string         `msgpack:"id"`
	Status   string         `msgpack:"status"`
	Language string         `msgpack:"lang"`
	Words    int            `msgpack:"words"`
	Buckets  map[string]int `msgpack:"buckets,omitempty"`
	Source   string         `msgpack:"source,omitempty"`
}

// LanguagesResponse lists the languages found in the data dir and those already loaded
type LanguagesResponse struct {
	ID        string   `msgpack:"id"`
	Status    string   `msgpack:"status"`
	Available []string `msgpack:"available"`
	Loaded    []string `msgpack:"loaded"`
}

// LookupResponse - single word anagrams
type LookupResponse struct {
	ID     string   `msgpack:"id"`
	Status string   `msgpack:"status"`
	Words  []string `msgpack:"w"`
}

// HealthResponse reports liveness and engine counters
type HealthResponse struct {
	ID       string         `msgpack:"id"`
	Status   string         `msgpack:"status"`
	Searches int64          `msgpack:"searches"`
	Engine   map[string]int `msgpack:"engine,omitempty"`
}
