/*
Package config manages the TOML config for anagramserve.

The file lives in the user config dir and is created with defaults on first
run. A file that fails to decode as a whole is salvaged section by section, so
one bad value does not throw away the rest.
*/
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bastiangx/anagramserve/internal/utils"
	"github.com/charmbracelet/log"
)

const appName = "anagramserve"

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Search SearchConfig `toml:"search"`
	Dict   DictConfig   `toml:"dict"`
	CLI    CliConfig    `toml:"cli"`
	HTTP   HTTPConfig   `toml:"http"`
}

// ServerConfig has transport related options.
type ServerConfig struct {
	MaxInputLen int `toml:"max_input_len"`
	MaxResults  int `toml:"max_results"`
}

// SearchConfig tunes the anagram engine.
type SearchConfig struct {
	MaxWords          int  `toml:"max_words"`
	ExcludeInputWords bool `toml:"exclude_input_words"`
	CacheSize         int  `toml:"cache_size"`
}

// DictConfig holds dictionary options.
type DictConfig struct {
	DataDir         string `toml:"data_dir"`
	DefaultLanguage string `toml:"default_language"`
	// MinFrequency and MinWordLength filter "word,frequency" lists; 0 disables them.
	MinFrequency  float64 `toml:"min_frequency"`
	MinWordLength int     `toml:"min_word_length"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int  `toml:"default_limit"`
	ShowTimings  bool `toml:"show_timings"`
}

// HTTPConfig holds the HTTP API options.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return executableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", appName)
	if utils.ProbeDir(primaryPath, true).Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", appName)
	if utils.ProbeDir(macOSPath, true).Writable {
		return macOSPath, nil
	}
	return executableDir()
}

// executableDir is the last resort config dir, next to the binary.
func executableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return filepath.Dir(execPath), nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/anagramserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxInputLen: 64,
			MaxResults:  2000,
		},
		Search: SearchConfig{
			MaxWords:          3,
			ExcludeInputWords: false,
			CacheSize:         128,
		},
		Dict: DictConfig{
			DataDir:         "data",
			DefaultLanguage: "en",
		},
		CLI: CliConfig{
			DefaultLimit: 24,
			ShowTimings:  true,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file, salvaging what it can from a broken one.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse re-reads the file loosely and copies over every value that has the right type.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	if section, ok := utils.ExtractSection(tempConfig, "http"); ok {
		if val, ok := utils.ExtractString(section, "addr"); ok {
			config.HTTP.Addr = val
		}
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_input_len"); ok {
		server.MaxInputLen = val
	}
	if val, ok := utils.ExtractInt64(data, "max_results"); ok {
		server.MaxResults = val
	}
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		search.MaxWords = val
	}
	if val, ok := utils.ExtractBool(data, "exclude_input_words"); ok {
		search.ExcludeInputWords = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		search.CacheSize = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		dict.DataDir = val
	}
	if val, ok := utils.ExtractString(data, "default_language"); ok {
		dict.DefaultLanguage = val
	}
	if val, ok := utils.ExtractFloat(data, "min_frequency"); ok {
		dict.MinFrequency = val
	}
	if val, ok := utils.ExtractInt64(data, "min_word_length"); ok {
		dict.MinWordLength = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractBool(data, "show_timings"); ok {
		cli.ShowTimings = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	return utils.WriteTOMLFile(defaultPath, DefaultConfig())
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.ExpandPath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.WriteTOMLFile(configPath, config)
}
