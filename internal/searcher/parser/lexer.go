package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/tokenizer"
)

type TokenKind int

const (
	Word TokenKind = iota
	And
	Or
	Not
	LParen
	RParen
)

func (k TokenKind) String() string {
	switch k {
	case Word:
		return "WORD"
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	case LParen:
		return "("
	case RParen:
		return ")"
	}
	return "UNKNOWN"
}

// Token is one element of a boolean query. Text holds the normalized term
// for Word tokens and the original spelling for operators.
type Token struct {
	Kind TokenKind
	Text string
}

func (t Token) precedence() int {
	switch t.Kind {
	case Not:
		return 3
	case And:
		return 2
	case Or:
		return 1
	}
	return 0
}

var operators = map[string]TokenKind{
	"ИЛИ": Or, "или": Or, "|": Or,
	"&": And, "&&": And, "И": And, "и": And,
	"!": Not, "НЕ": Not, "не": Not,
	"(": LParen, ")": RParen,
}

var padder = strings.NewReplacer("(", " ( ", ")", " ) ", "!", " ! ")

// Lex splits a boolean query into tokens. Operators are matched against
// whole whitespace-separated segments before any normalization; "(", ")"
// and "!" are split off adjacent words first. Every other segment is
// segmented into words and stemmed, and each non-empty stem becomes a Word.
func Lex(query string, stem Stemmer) []Token {
	var tokens []Token
	for _, segment := range strings.Fields(padder.Replace(query)) {
		if kind, ok := operators[segment]; ok {
			tokens = append(tokens, Token{Kind: kind, Text: segment})
			continue
		}
		for _, w := range tokenizer.SegmentWords(segment) {
			if term := stem.Stem(w); term != "" {
				tokens = append(tokens, Token{Kind: Word, Text: term})
			}
		}
	}
	return tokens
}
