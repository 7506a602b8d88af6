package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/anagramserve/pkg/anagram"
	"github.com/bastiangx/anagramserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

// wire is a superset of every response shape.
type wire struct {
	ID        string         `msgpack:"id"`
	Status    string         `msgpack:"status"`
	Error     string         `msgpack:"e"`
	Anagrams  [][]string     `msgpack:"r"`
	Count     int            `msgpack:"c"`
	Language  string         `msgpack:"lang"`
	Words     int            `msgpack:"words"`
	Buckets   map[string]int `msgpack:"buckets"`
	Source    string         `msgpack:"source"`
	Available []string       `msgpack:"available"`
	Loaded    []string       `msgpack:"loaded"`
	Lookup    []string       `msgpack:"w"`
	Searches  int64          `msgpack:"searches"`
}

type fixture struct {
	dir    string
	dicts  *dictionary.Cache
	locate *dictionary.Locator
	engine *anagram.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.txt"), []byte("race\ncar\narc\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr.json"), []byte(`{"4":["CAFÉ"]}`), 0644))

	locate := dictionary.NewLocator(dir)
	return &fixture{
		dir:    dir,
		dicts:  dictionary.NewCache(locate, dictionary.ParseOptions{}),
		locate: locate,
		engine: anagram.NewEngine(anagram.DefaultOptions()),
	}
}

func (f *fixture) run(t *testing.T, opts Options, input []byte) []wire {
	t.Helper()
	var out bytes.Buffer
	srv := NewServerWithIO(bytes.NewReader(input), &out, f.engine, f.dicts, f.locate, opts)
	err := srv.Start(context.Background())
	require.NoError(t, err)
	return decodeAll(t, &out)
}

func (f *fixture) session(t *testing.T, reqs ...any) []wire {
	t.Helper()
	return f.run(t, Options{DefaultLanguage: "en", MaxInputLen: 20}, encode(t, reqs...))
}

func encode(t *testing.T, msgs ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, m := range msgs {
		require.NoError(t, enc.Encode(m))
	}
	return buf.Bytes()
}

func decodeAll(t *testing.T, r io.Reader) []wire {
	t.Helper()
	dec := msgpack.NewDecoder(r)
	var out []wire
	for {
		var w wire
		if err := dec.Decode(&w); err != nil {
			require.ErrorIs(t, err, io.EOF)
			return out
		}
		out = append(out, w)
	}
}

func byID(msgs []wire, id string) []wire {
	var out []wire
	for _, m := range msgs {
		if m.ID == id {
			out = append(out, m)
		}
	}
	return out
}

func TestServerReady(t *testing.T) {
	msgs := newFixture(t).session(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, StatusReady, msgs[0].Status)
	assert.Empty(t, msgs[0].ID)
}

func TestServerSearch(t *testing.T) {
	msgs := newFixture(t).session(t, Request{ID: "s1", Action: "search", Input: "racecar"})

	require.Len(t, msgs, 3)
	assert.Equal(t, StatusReady, msgs[0].Status)
	assert.Equal(t, wire{ID: "s1", Status: StatusInitialized}, msgs[1])

	done := msgs[2]
	assert.Equal(t, "s1", done.ID)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, [][]string{{"RACE", "ARC"}, {"RACE", "CAR"}}, done.Anagrams)
	assert.Equal(t, 2, done.Count)
}

func TestServerSearchEmptyResult(t *testing.T) {
	msgs := newFixture(t).session(t, Request{ID: "s1", Action: "search", Input: "a"})

	done := byID(msgs, "s1")
	require.Len(t, done, 2)
	assert.Equal(t, StatusCompleted, done[1].Status)
	assert.Empty(t, done[1].Anagrams)
	assert.Equal(t, 0, done[1].Count)
}

func TestServerSearchErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"too long", Request{ID: "e", Action: "search", Input: "abcdefghijklmnopqrstuvwxyz"}, "maximum length of 20"},
		{"unknown language", Request{ID: "e", Action: "search", Input: "racecar", Language: "xx"}, "unknown language"},
		{"invalid language", Request{ID: "e", Action: "search", Input: "racecar", Language: "../etc"}, "invalid language code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := byID(newFixture(t).session(t, tt.req), "e")
			require.Len(t, msgs, 2)
			assert.Equal(t, StatusInitialized, msgs[0].Status)
			assert.Equal(t, StatusError, msgs[1].Status)
			assert.Contains(t, msgs[1].Error, tt.want)
		})
	}
}

func TestServerUnsupportedCommand(t *testing.T) {
	msgs := byID(newFixture(t).session(t, Request{ID: "x", Action: "complete"}), "x")
	require.Len(t, msgs, 1)
	assert.Equal(t, StatusError, msgs[0].Status)
	assert.Contains(t, msgs[0].Error, "UnsupportedCommand")
}

func TestServerInvalidRequestContinues(t *testing.T) {
	f := newFixture(t)
	input := encode(t, "not a request", Request{ID: "h", Action: "health"})
	msgs := f.run(t, Options{DefaultLanguage: "en"}, input)

	require.Len(t, msgs, 3)
	assert.Equal(t, StatusError, msgs[1].Status)
	assert.Contains(t, msgs[1].Error, "invalid request")
	assert.Equal(t, wire{ID: "h", Status: StatusOK}, msgs[2])
}

func TestServerTruncatedStream(t *testing.T) {
	f := newFixture(t)
	input := encode(t, Request{ID: "h", Action: "health"})

	var out bytes.Buffer
	srv := NewServerWithIO(bytes.NewReader(input[:len(input)-2]), &out, f.engine, f.dicts, f.locate, Options{})
	assert.Error(t, srv.Start(context.Background()))

	msgs := decodeAll(t, &out)
	require.Len(t, msgs, 2)
	assert.Equal(t, StatusError, msgs[1].Status)
}

func TestServerLoad(t *testing.T) {
	f := newFixture(t)
	custom := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(custom, []byte(`["tea","eat","ate","at"]`), 0644))

	msgs := f.session(t,
		Request{ID: "l1", Action: "load", Language: "fr"},
		Request{ID: "l2", Action: "load", Language: "de", Path: custom},
		Request{ID: "l3", Action: "load", Language: "xx"},
	)

	fr := byID(msgs, "l1")
	require.Len(t, fr, 1)
	assert.Equal(t, StatusLoaded, fr[0].Status)
	assert.Equal(t, "fr", fr[0].Language)
	assert.Equal(t, 1, fr[0].Words)

	de := byID(msgs, "l2")
	require.Len(t, de, 1)
	assert.Equal(t, StatusLoaded, de[0].Status)
	assert.Equal(t, 4, de[0].Words)
	assert.Equal(t, map[string]int{"2": 1, "3": 3}, de[0].Buckets)
	assert.Equal(t, custom, de[0].Source)

	xx := byID(msgs, "l3")
	require.Len(t, xx, 1)
	assert.Equal(t, StatusError, xx[0].Status)

	_, ok := f.dicts.Get("de")
	assert.True(t, ok)
}

func TestServerInfoLookupLanguages(t *testing.T) {
	f := newFixture(t)
	_, err := f.dicts.Load(context.Background(), "en")
	require.NoError(t, err)

	msgs := f.session(t,
		Request{ID: "i1", Action: "info"},
		Request{ID: "i2", Action: "info", Language: "fr"},
		Request{ID: "k1", Action: "lookup", Input: "rca"},
		Request{ID: "g1", Action: "languages"},
		Request{ID: "h1", Action: "health"},
	)

	info := byID(msgs, "i1")
	require.Len(t, info, 1)
	assert.Equal(t, StatusOK, info[0].Status)
	assert.Equal(t, 3, info[0].Words)
	assert.Equal(t, map[string]int{"3": 2, "4": 1}, info[0].Buckets)

	missing := byID(msgs, "i2")
	require.Len(t, missing, 1)
	assert.Equal(t, StatusError, missing[0].Status)
	assert.Contains(t, missing[0].Error, "not loaded")

	lookup := byID(msgs, "k1")
	require.Len(t, lookup, 1)
	assert.Equal(t, []string{"CAR", "ARC"}, lookup[0].Lookup)

	langs := byID(msgs, "g1")
	require.Len(t, langs, 1)
	assert.Equal(t, []string{"en", "fr"}, langs[0].Available)
	assert.Equal(t, []string{"en"}, langs[0].Loaded)

	health := byID(msgs, "h1")
	require.Len(t, health, 1)
	assert.Equal(t, StatusOK, health[0].Status)
}

// gatedEngine blocks searches for "slow" until released.
type gatedEngine struct {
	release chan struct{}
	started chan struct{}
}

func (g *gatedEngine) Search(d *dictionary.Dictionary, input string) (anagram.Result, error) {
	if input == "slow" {
		close(g.started)
		<-g.release
	}
	if input == "boom" {
		return anagram.Result{}, &anagram.SearchError{Input: input, Err: errors.New("panic: boom")}
	}
	return anagram.Result{Input: input, Anagrams: [][]string{{input}}}, nil
}

func TestServerSearchSupersedes(t *testing.T) {
	f := newFixture(t)
	engine := &gatedEngine{release: make(chan struct{}), started: make(chan struct{})}

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	srv := NewServerWithIO(inR, outW, engine, f.dicts, f.locate, Options{DefaultLanguage: "en"})

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(context.Background())
		outW.Close()
	}()

	dec := msgpack.NewDecoder(outR)
	enc := msgpack.NewEncoder(inW)
	next := func() wire {
		var w wire
		require.NoError(t, dec.Decode(&w))
		return w
	}

	assert.Equal(t, StatusReady, next().Status)

	require.NoError(t, enc.Encode(Request{ID: "old", Action: "search", Input: "slow"}))
	assert.Equal(t, wire{ID: "old", Status: StatusInitialized}, next())
	select {
	case <-engine.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first search never started")
	}

	require.NoError(t, enc.Encode(Request{ID: "new", Action: "search", Input: "fast"}))
	assert.Equal(t, wire{ID: "new", Status: StatusInitialized}, next())
	latest := next()
	assert.Equal(t, "new", latest.ID)
	assert.Equal(t, StatusCompleted, latest.Status)
	assert.Equal(t, [][]string{{"fast"}}, latest.Anagrams)

	close(engine.release)
	require.NoError(t, inW.Close())
	require.NoError(t, <-done)

	rest := decodeAll(t, outR)
	assert.Empty(t, rest, "the superseded search must not be answered")
}

func TestServerSearchFailure(t *testing.T) {
	f := newFixture(t)
	engine := &gatedEngine{}

	var out bytes.Buffer
	input := encode(t, Request{ID: "b", Action: "search", Input: "boom"})
	srv := NewServerWithIO(bytes.NewReader(input), &out, engine, f.dicts, f.locate, Options{DefaultLanguage: "en"})
	require.NoError(t, srv.Start(context.Background()))

	msgs := byID(decodeAll(t, &out), "b")
	require.Len(t, msgs, 2)
	assert.Equal(t, StatusError, msgs[1].Status)
	assert.Contains(t, msgs[1].Error, "boom")
}

func TestServerStaleSearchNeverAnswered(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	srv := NewServerWithIO(bytes.NewReader(nil), &out, f.engine, f.dicts, f.locate, Options{})

	old := srv.searchGen.Add(1)
	assert.True(t, srv.sendCurrent(old, StatusResponse{ID: "old", Status: StatusCompleted}))

	srv.searchGen.Add(1)
	assert.False(t, srv.sendCurrent(old, StatusResponse{ID: "old", Status: StatusCompleted}))
	assert.False(t, srv.sendCurrent(old, errorResponse("old", errors.New("late"))))

	msgs := decodeAll(t, &out)
	require.Len(t, msgs, 1)
	assert.Equal(t, wire{ID: "old", Status: StatusCompleted}, msgs[0])
}

// slowResolver serves "slow" from a source that blocks until released and
// every other language from the data dir.
type slowResolver struct {
	*dictionary.Locator
	release chan struct{}
}

func (r slowResolver) Find(language string) (dictionary.Source, error) {
	if language == "slow" {
		return gatedSource{release: r.release}, nil
	}
	return r.Locator.Find(language)
}

type gatedSource struct {
	release chan struct{}
}

func (gatedSource) Name() string              { return "gated" }
func (gatedSource) Format() dictionary.Format { return dictionary.FormatText }

func (g gatedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return io.NopCloser(strings.NewReader("tac\ncat\n")), nil
}

func TestServerLookupDoesNotBlockSearch(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	dicts := dictionary.NewCache(slowResolver{Locator: f.locate, release: release}, dictionary.ParseOptions{})

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	srv := NewServerWithIO(inR, outW, f.engine, dicts, f.locate, Options{DefaultLanguage: "en"})

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(context.Background())
		outW.Close()
	}()

	dec := msgpack.NewDecoder(outR)
	enc := msgpack.NewEncoder(inW)
	next := func() wire {
		var w wire
		require.NoError(t, dec.Decode(&w))
		return w
	}

	assert.Equal(t, StatusReady, next().Status)

	require.NoError(t, enc.Encode(Request{ID: "k", Action: "lookup", Language: "slow", Input: "act"}))
	require.NoError(t, enc.Encode(Request{ID: "s", Action: "search", Input: "racecar"}))

	assert.Equal(t, wire{ID: "s", Status: StatusInitialized}, next())
	completed := next()
	assert.Equal(t, "s", completed.ID, "search is answered while the lookup waits on its dictionary")
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, 2, completed.Count)

	close(release)
	lookup := next()
	assert.Equal(t, "k", lookup.ID)
	assert.Equal(t, StatusOK, lookup.Status)
	assert.Equal(t, []string{"TAC", "CAT"}, lookup.Lookup)

	require.NoError(t, inW.Close())
	require.NoError(t, <-done)
	assert.Empty(t, decodeAll(t, outR))
}
