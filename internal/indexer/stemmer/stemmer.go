// Package stemmer reduces word tokens to their stems. Cyrillic words use the
// Snowball Russian stemmer and Latin words the Porter stemmer; tokens in
// neither script (numbers) pass through unchanged.
package stemmer

import (
	"log/slog"
	"unicode"

	"github.com/kljensen/snowball/russian"
	porterstemmer "github.com/reiver/go-porterstemmer"
)

// Stemmer is stateless and safe for concurrent use.
type Stemmer struct {
	logger *slog.Logger
}

func New() *Stemmer {
	return &Stemmer{
		logger: slog.Default().With("component", "stemmer"),
	}
}

// Stem returns the stem of a lower-case word token. The result may be empty,
// in which case callers drop the token.
func (s *Stemmer) Stem(word string) string {
	if word == "" {
		return ""
	}
	switch scriptOf(word) {
	case cyrillic:
		return russian.Stem(word, true)
	case latin:
		return s.porter(word)
	}
	return word
}

func (s *Stemmer) porter(word string) (stem string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("recovered from panic while stemming", "token", word, "panic", r)
			stem = word
		}
	}()
	return porterstemmer.StemString(word)
}

type script int

const (
	other script = iota
	latin
	cyrillic
)

// scriptOf classifies a token by its first letter.
func scriptOf(word string) script {
	for _, r := range word {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			return cyrillic
		case unicode.Is(unicode.Latin, r):
			return latin
		}
	}
	return other
}
