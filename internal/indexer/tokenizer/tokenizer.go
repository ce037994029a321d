// Package tokenizer splits text into lower-cased word tokens.
//
// Word characters are Latin a-z, digits 0-9, Cyrillic а-я and ё; everything
// else, including punctuation and apostrophes, separates words. Upper-case
// Latin and Cyrillic letters (Ё included) are folded before the check.
package tokenizer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// SegmentWords returns the word tokens of text in order. Input that is not
// valid UTF-8 yields no tokens.
func SegmentWords(text string) []string {
	if !utf8.ValidString(text) {
		return nil
	}
	text = norm.NFC.String(text)

	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		r = fold(r)
		if isWordRune(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func fold(r rune) rune {
	switch {
	case r >= 'A' && r <= 'Z':
		return r + 32
	case r >= 'А' && r <= 'Я':
		return r + 0x20
	case r == 'Ё':
		return 'ё'
	}
	return r
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') ||
		(r >= 'а' && r <= 'я') ||
		r == 'ё'
}
