package dictionary

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format represents the different word list encodings
type Format int

const (
	FormatAuto    Format = iota // Sniffed from content
	FormatJSON                  // {"<len>": [...]} or [...]
	FormatText                  // One or more tokens per line
	FormatMsgpack               // Same shapes as JSON, msgpack encoded
)

// FormatInfo contains metadata about a word list format
type FormatInfo struct {
	Format      Format
	Description string
	Extensions  []string
}

var supportedFormats = map[Format]FormatInfo{
	FormatJSON: {
		Format:      FormatJSON,
		Description: "JSON word list",
		Extensions:  []string{".json"},
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain text word list",
		Extensions:  []string{".txt", ".csv"},
	},
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Description: "msgpack word list",
		Extensions:  []string{".msgpack", ".mpk"},
	},
}

func (f Format) String() string {
	if f == FormatAuto {
		return "auto"
	}
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// DetectFormat picks a format from the file extension, FormatAuto if unknown.
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		for _, e := range info.Extensions {
			if e == ext {
				return format
			}
		}
	}
	return FormatAuto
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}

// sniffFormat guesses the format from the first significant byte.
func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) == 0 {
		return FormatText
	}

	switch b := trimmed[0]; {
	case b == '{' || b == '[':
		return FormatJSON
	case isMsgpackContainer(data[0]) && !utf8.Valid(data):
		return FormatMsgpack
	}
	return FormatText
}

// isMsgpackContainer reports whether b starts a msgpack map or array.
func isMsgpackContainer(b byte) bool {
	switch {
	case b >= 0x80 && b <= 0x9f: // fixmap, fixarray
		return true
	case b >= 0xdc && b <= 0xdf: // array16/32, map16/32
		return true
	}
	return false
}
