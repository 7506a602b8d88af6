package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// wordListPatterns are the files that make a directory usable as a data dir.
var wordListPatterns = []string{"*.json", "*.msgpack", "*.txt", "*.csv"}

// DirStatus describes a config or data directory.
type DirStatus struct {
	Path      string
	Exists    bool
	Writable  bool
	WordLists int
	Err       error
}

// ProbeDir inspects dir and counts the word lists in it.
// With create set a missing dir is made and checked for write access;
// without it the dir is only read.
func ProbeDir(dir string, create bool) DirStatus {
	status := DirStatus{Path: dir}

	stat, err := os.Stat(dir)
	switch {
	case err == nil && !stat.IsDir():
		status.Err = fmt.Errorf("%s is not a directory", dir)
		return status
	case err != nil && !create:
		status.Err = err
		return status
	case err != nil:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warnf("Cannot create directory %s: %v", dir, err)
			status.Err = err
			return status
		}
	}

	status.Exists = true
	if create {
		status.Writable = canWrite(dir)
	}
	status.WordLists = countWordLists(dir)
	return status
}

func canWrite(dir string) bool {
	f, err := os.CreateTemp(dir, ".anagramserve-*")
	if err != nil {
		log.Warnf("Cannot write to directory %s: %v", dir, err)
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func countWordLists(dir string) int {
	n := 0
	for _, pattern := range wordListPatterns {
		if matches, err := filepath.Glob(filepath.Join(dir, pattern)); err == nil {
			n += len(matches)
		}
	}
	return n
}

// ExpandPath resolves a leading "~" to the home dir and makes p absolute.
// An empty path stays empty.
func ExpandPath(p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// WriteTOMLFile encodes data to path through a temp file that is renamed into
// place, creating the parent dir if needed.
func WriteTOMLFile(path string, data any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
