package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
[search]
max_words = 4
exclude_input_words = true

[dict]
data_dir = "/srv/words"
default_language = "fr"

[http]
addr = "127.0.0.1:9000"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Search.MaxWords)
	assert.True(t, cfg.Search.ExcludeInputWords)
	assert.Equal(t, 128, cfg.Search.CacheSize, "unset keys keep their defaults")
	assert.Equal(t, "/srv/words", cfg.Dict.DataDir)
	assert.Equal(t, "fr", cfg.Dict.DefaultLanguage)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := writeConfig(t, `
[server]
max_input_len = "sixty"
max_results = 50

[search]
max_words = 2

[cli]
default_limit = 10
show_timings = "no"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Server.MaxInputLen, "bad value falls back to default")
	assert.Equal(t, 50, cfg.Server.MaxResults)
	assert.Equal(t, 2, cfg.Search.MaxWords)
	assert.Equal(t, 10, cfg.CLI.DefaultLimit)
	assert.True(t, cfg.CLI.ShowTimings)
}

func TestLoadConfigFrequencyFilters(t *testing.T) {
	path := writeConfig(t, "[dict]\nmin_frequency = 3\nmin_word_length = 2\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Dict.MinFrequency)
	assert.Equal(t, 2, cfg.Dict.MinWordLength)
	assert.Equal(t, "en", cfg.Dict.DefaultLanguage)

	// Broken elsewhere, so the section is salvaged key by key.
	path = writeConfig(t, "[dict]\nmin_frequency = 2\nmin_word_length = \"two\"\n[cli]\nshow_timings = 1\n")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Dict.MinFrequency, "integers are accepted as frequencies")
	assert.Zero(t, cfg.Dict.MinWordLength)
	assert.Zero(t, DefaultConfig().Dict.MinFrequency, "filters are off by default")
}

func TestLoadConfigUnparseable(t *testing.T) {
	path := writeConfig(t, "[server\nmax_results = ")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := writeConfig(t, "[search]\nmax_words = 5\n")

	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 5, cfg.Search.MaxWords)
}

func TestGetActiveConfigPath(t *testing.T) {
	abs := GetActiveConfigPath("config.toml")
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, "/etc/anagramserve.toml", GetActiveConfigPath("/etc/anagramserve.toml"))
}
