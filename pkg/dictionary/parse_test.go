package dictionary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestParseFormats(t *testing.T) {
	packed, err := msgpack.Marshal(map[string][]string{"4": {"race"}, "3": {"arc", "car"}})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		data   string
		format Format
		want   []string
	}{
		{"json object", `{"4": ["RACE"], "3": ["ARC", "CAR"]}`, FormatJSON, []string{"ARC", "CAR", "RACE"}},
		{"json object numeric order", `{"10": ["ABCDEFGHIJ"], "9": ["ABCDEFGHI"]}`, FormatAuto, []string{"ABCDEFGHI", "ABCDEFGHIJ"}},
		{"json array", ` ["arc", "car"]`, FormatAuto, []string{"arc", "car"}},
		{"text", "arc\r\ncar\n\n# comment\nrace\n", FormatText, []string{"arc", "car", "race"}},
		{"text with frequencies", "arc,12.5\ncar,3\n", FormatAuto, []string{"arc", "car"}},
		{"text tokens", "arc car\trace", FormatAuto, []string{"arc", "car", "race"}},
		{"msgpack", string(packed), FormatAuto, []string{"arc", "car", "race"}},
		{"empty text", "", FormatAuto, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(context.Background(), strings.NewReader(tc.data), tc.format, ParseOptions{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name   string
		data   string
		format Format
	}{
		{"broken json", `{"3": ["ARC"`, FormatJSON},
		{"non numeric key", `{"three": ["ARC"]}`, FormatJSON},
		{"non list bucket", `{"3": "ARC"}`, FormatJSON},
		{"non string entry", `["ARC", 3]`, FormatJSON},
		{"scalar", `"ARC"`, FormatJSON},
		{"null", `null`, FormatJSON},
		{"bad msgpack", "\xc1", FormatMsgpack},
		{"json trailing data", `["ZZZ"] trailing junk {`, FormatAuto},
		{"json second value", `["ARC"] ["CAR"]`, FormatJSON},
		{"msgpack trailing data", "\x91\xa3ARC\xc0", FormatMsgpack},
		{"binary as text", "\x00\xff\xfe\x13\n\xc3\x28", FormatAuto},
		{"invalid utf8 text", "arc\n\xc3\x28\n", FormatText},
		{"nul in text", "arc\x00car", FormatText},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(context.Background(), strings.NewReader(tc.data), tc.format, ParseOptions{})
			assert.Error(t, err)
		})
	}
}

func TestPrepare(t *testing.T) {
	src := BytesSource{Label: "test", Data: []byte(`{"3":["ARC","CAR"],"4":["RACE"]}`)}
	d, err := Prepare(context.Background(), "en", src, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, "en", d.Language())
}

func TestParseFrequencyFilters(t *testing.T) {
	data := "race,10\ncar,3\narc,3.5\nera,abc\na,99\nrace car\n"

	testCases := []struct {
		name string
		opts ParseOptions
		want []string
	}{
		{"no filters", ParseOptions{}, []string{"race", "car", "arc", "era", "a", "race", "car"}},
		{"min frequency", ParseOptions{MinFrequency: 3}, []string{"race", "arc", "a", "race", "car"}},
		{"min length", ParseOptions{MinWordLength: 2}, []string{"race", "car", "arc", "era", "race", "car"}},
		{"both", ParseOptions{MinFrequency: 3, MinWordLength: 2}, []string{"race", "arc", "race", "car"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(context.Background(), strings.NewReader(data), FormatText, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, "lines without a frequency are never filtered")
		})
	}
}

func TestPrepareNoUsableWords(t *testing.T) {
	_, err := Prepare(context.Background(), "en", BytesSource{Label: "digits", Data: []byte("123\n---\n")}, ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoUsableWords))
	assert.True(t, errors.Is(err, ErrDictionaryLoad))

	d, err := Prepare(context.Background(), "en", BytesSource{Label: "empty"}, ParseOptions{})
	require.NoError(t, err, "an empty source is a valid empty dictionary")
	assert.Zero(t, d.Len())
}

func TestPrepareLoadError(t *testing.T) {
	src := BytesSource{Label: "broken", Data: []byte(`{"3":`), Fmt: FormatJSON}
	_, err := Prepare(context.Background(), "en", src, ParseOptions{})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrDictionaryLoad))
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "en", loadErr.Language)
	assert.Equal(t, "broken", loadErr.Source)
	assert.Contains(t, err.Error(), "broken")
}

func TestPrepareCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Prepare(ctx, "en", BytesSource{Data: []byte("arc\ncar")}, ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, ErrDictionaryLoad))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, DetectFormat("answers_nl.json"))
	assert.Equal(t, FormatText, DetectFormat("/tmp/EN.TXT"))
	assert.Equal(t, FormatText, DetectFormat("words.csv"))
	assert.Equal(t, FormatMsgpack, DetectFormat("de.msgpack"))
	assert.Equal(t, FormatAuto, DetectFormat("words"))
}

func TestGetFormatInfo(t *testing.T) {
	info, ok := GetFormatInfo(FormatMsgpack)
	require.True(t, ok)
	assert.Contains(t, info.Extensions, ".msgpack")
	assert.Equal(t, info.Description, FormatMsgpack.String())

	_, ok = GetFormatInfo(FormatAuto)
	assert.False(t, ok)
	assert.Equal(t, "auto", FormatAuto.String())
}
