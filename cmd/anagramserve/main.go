// Copyright 2025 The AnagramServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the anagram search server and its CLI [DBG] mode.

AnagramServe finds every combination of up to three dictionary words whose
letters are an exact rearrangement of the input, ignoring case, accents,
spaces and punctuation, and ranks them: fewer words first, then longer words,
then alphabetically.

It can run as a MessagePack IPC server over stdin/stdout for editor and app
integration, as an HTTP API, or as an interactive CLI for trying word lists.

# Usage

Start the IPC server with default settings:

	anagramserve

Serve the HTTP API with a custom data directory and debug logs:

	anagramserve -http :8080 -data /srv/words -d

Run in CLI mode:

	anagramserve -c -lang fr -limit 10

The data directory holds one word list per language, named <lang>.json,
answers_<lang>.json, <lang>.msgpack, <lang>.txt or <lang>.csv. JSON and
msgpack lists are either flat arrays or objects keyed by word length:

	{"3": ["ARC", "CAR"], "4": ["RACE"]}

# Configuration

Runtime configuration lives in a TOML file, created with defaults on first run:

	[server]
	max_input_len = 64
	max_results = 2000

	[search]
	max_words = 3
	exclude_input_words = false
	cache_size = 128

	[dict]
	data_dir = "data"
	default_language = "en"
	min_frequency = 0
	min_word_length = 0

Frequency lists with "word,frequency" lines can be trimmed on load: entries
at or below min_frequency, or with fewer than min_word_length letters, are
dropped. Zero turns a filter off.

Flags given on the command line override the file.

# IPC Protocol

See package server for the message shapes:

	{"id": "req1", "action": "search", "in": "racecar"}
	{"id": "req1", "status": "initialized"}
	{"id": "req1", "status": "completed", "r": [["RACE", "ARC"], ["RACE", "CAR"]], "c": 2, "t": 145}

# Command Line Flags

	-config string
	    Path to a config.toml
	-reset-config
	    Rewrite the default config.toml with defaults and exit
	-data string
	    Directory containing the word lists
	-lang string
	    Default dictionary language
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of IPC server mode
	-http string
	    Serve the HTTP API on this address instead of IPC
	-limit int
	    Number of results shown in CLI mode
	-max-words int
	    Longest word combination searched
	-max-results int
	    Results kept per search, 0 for all
	-exclude-input
	    Never use the words typed by the user in results
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/anagramserve/internal/cli"
	"github.com/bastiangx/anagramserve/internal/logger"
	"github.com/bastiangx/anagramserve/internal/utils"
	"github.com/bastiangx/anagramserve/pkg/anagram"
	"github.com/bastiangx/anagramserve/pkg/config"
	"github.com/bastiangx/anagramserve/pkg/dictionary"
	"github.com/bastiangx/anagramserve/pkg/httpapi"
	"github.com/bastiangx/anagramserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "anagramserve"
	gh      = "https://github.com/bastiangx/anagramserve"
)

// main wires the packages together and picks a mode. It holds no search logic.
func main() {
	defaults := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a config.toml")
	resetConfig := flag.Bool("reset-config", false, "Rewrite the default config.toml with defaults and exit")
	dataDir := flag.String("data", defaults.Dict.DataDir, "Directory containing the word lists")
	language := flag.String("lang", defaults.Dict.DefaultLanguage, "Default dictionary language")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	httpAddr := flag.String("http", "", "Serve the HTTP API on this address instead of IPC")
	limit := flag.Int("limit", defaults.CLI.DefaultLimit, "Number of results shown in CLI mode")
	maxWords := flag.Int("max-words", defaults.Search.MaxWords, "Longest word combination searched")
	maxResults := flag.Int("max-results", defaults.Server.MaxResults, "Results kept per search (0 for all)")
	excludeInput := flag.Bool("exclude-input", defaults.Search.ExcludeInputWords, "Never use the words typed by the user in results")

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	logger.Setup(*debugMode)

	if *resetConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		log.Info("Config file rebuilt with defaults", "path", config.GetActiveConfigPath(""))
		return
	}

	cfg, usedConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedConfig))

	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Dict.DataDir = *dataDir
		case "lang":
			cfg.Dict.DefaultLanguage = *language
		case "limit":
			cfg.CLI.DefaultLimit = *limit
		case "max-words":
			cfg.Search.MaxWords = *maxWords
		case "max-results":
			cfg.Server.MaxResults = *maxResults
		case "exclude-input":
			cfg.Search.ExcludeInputWords = *excludeInput
		case "http":
			cfg.HTTP.Addr = *httpAddr
		}
	})

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	resolvedDataDir, err := pathResolver.GetDataDir(cfg.Dict.DataDir)
	if err != nil {
		log.Fatalf("Failed to resolve data dir: (%v)", err)
	}
	log.Debugf("Using data dir at: %s", resolvedDataDir)
	if *debugMode {
		for k, v := range pathResolver.GetRuntimeInfo() {
			log.Debug("runtime", k, v)
		}
	}

	locator := dictionary.NewLocator(resolvedDataDir)
	dicts := dictionary.NewCache(locator, dictionary.ParseOptions{
		MinFrequency:  cfg.Dict.MinFrequency,
		MinWordLength: cfg.Dict.MinWordLength,
	})
	engine := anagram.NewEngine(anagram.Options{
		MaxWords:          cfg.Search.MaxWords,
		MaxResults:        cfg.Server.MaxResults,
		ExcludeInputWords: cfg.Search.ExcludeInputWords,
		CacheSize:         cfg.Search.CacheSize,
	})
	dicts.OnReplace(func(old *dictionary.Dictionary) {
		engine.Invalidate(old.ID())
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *cliMode:
		log.SetReportTimestamp(false)
		handler := cli.NewInputHandler(engine, dicts, cfg.Dict.DefaultLanguage, cfg.CLI.DefaultLimit, cfg.CLI.ShowTimings, os.Stdin, os.Stdout)
		if err := handler.Start(ctx); err != nil {
			log.Fatalf("CLI error: %v", err)
		}

	case *httpAddr != "":
		api := httpapi.NewServer(engine, dicts, locator, httpapi.Options{
			Addr:            cfg.HTTP.Addr,
			DefaultLanguage: cfg.Dict.DefaultLanguage,
			MaxInputLen:     cfg.Server.MaxInputLen,
		})
		showStartupInfo(resolvedDataDir, "http "+cfg.HTTP.Addr)
		if err := api.ListenAndServe(ctx); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}

	default:
		log.Debug("spawning IPC")
		srv := server.NewServer(engine, dicts, locator, server.Options{
			DefaultLanguage: cfg.Dict.DefaultLanguage,
			MaxInputLen:     cfg.Server.MaxInputLen,
		})
		showStartupInfo(resolvedDataDir, "ipc")
		if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("IPC server error: %v", err)
		}
	}
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ AnagramServe ] Every anagram, ranked.")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo prints basic info about the process to stderr.
func showStartupInfo(dataDir, mode string) {
	l := logger.NewWithConfig(os.Stderr, AppName, log.InfoLevel, false, false, log.TextFormatter)
	l.Infof("Version: %s", Version)
	l.Infof("Process ID: [ %d ]", os.Getpid())
	l.Infof("mode: %s", mode)
	l.Infof("data dir: ( %s )", dataDir)
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")
}
