package dictionary

import (
	"errors"
	"fmt"
)

var (
	// ErrDictionaryLoad matches every *LoadError through errors.Is.
	ErrDictionaryLoad = errors.New("dictionary load error")
	// ErrUnknownLanguage is returned when no word list exists for a language.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrLoadSuperseded is returned to a load that was replaced by a newer one for the same language.
	ErrLoadSuperseded = errors.New("dictionary load superseded")
	// ErrNoUsableWords is wrapped when a source has entries but none survive normalization.
	ErrNoUsableWords = errors.New("no usable words")
)

// LoadError describes a word source that could not be read or parsed.
// It is fatal for that language until the load is retried.
type LoadError struct {
	Language string
	Source   string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load dictionary %q: %v", e.Language, e.Err)
	}
	return fmt.Sprintf("load dictionary %q from %s: %v", e.Language, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrDictionaryLoad) match any LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrDictionaryLoad
}
