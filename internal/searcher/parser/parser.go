// Package parser turns query text into normalized terms for ranked search
// and evaluates boolean expressions over document id sets.
//
// Boolean operators, from highest to lowest precedence:
//
//	NOT  !  НЕ  не
//	AND  &  &&  И  и
//	OR   |  ИЛИ  или
//
// Parentheses group. Operators missing an operand are dropped rather than
// reported.
package parser

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/tokenizer"
)

// Stemmer normalizes a single lower-case word. An empty result discards the
// word.
type Stemmer interface {
	Stem(word string) string
}

// DocSetIndex is the view of an index the boolean evaluator needs.
// DocIDs returns sorted unique ids, or nil for an unknown term.
type DocSetIndex interface {
	DocIDs(term string) []uint32
	TotalDocs() uint64
}

type Parser struct {
	stem   Stemmer
	logger *slog.Logger
}

func New(stem Stemmer) *Parser {
	return &Parser{
		stem:   stem,
		logger: slog.Default().With("component", "query-parser"),
	}
}

// ParseTerms returns the normalized terms of query in order.
func (p *Parser) ParseTerms(query string) []string {
	var terms []string
	for _, w := range tokenizer.SegmentWords(query) {
		if term := p.stem.Stem(w); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// ParseBoolean evaluates query against idx and returns the matching
// document ids in ascending order.
func (p *Parser) ParseBoolean(query string, idx DocSetIndex) []uint32 {
	return p.Evaluate(ToRPN(Lex(query, p.stem)), idx)
}

// Evaluate runs a postfix token sequence on an operand stack. The result is
// the top of the stack once all tokens are consumed, or empty.
func (p *Parser) Evaluate(rpn []Token, idx DocSetIndex) []uint32 {
	var stack [][]uint32
	for _, tok := range rpn {
		switch tok.Kind {
		case Word:
			stack = append(stack, idx.DocIDs(tok.Text))
		case Not:
			if len(stack) == 0 {
				p.logger.Debug("dropping operator without operand", "operator", tok.Text)
				continue
			}
			top := len(stack) - 1
			stack[top] = Complement(stack[top], idx.TotalDocs())
		case And, Or:
			if len(stack) < 2 {
				p.logger.Debug("dropping operator without operand", "operator", tok.Text)
				continue
			}
			a, b := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]
			if tok.Kind == And {
				stack = append(stack, Intersect(a, b))
			} else {
				stack = append(stack, Union(a, b))
			}
		}
	}
	if len(stack) == 0 {
		return []uint32{}
	}
	// Word operands alias index storage.
	return append([]uint32{}, stack[len(stack)-1]...)
}
