package ssi

import (
	"strings"
	"unicode"
)

// Directive delimiters.
const (
	startDelim = "<!--#"
	endDelim   = "-->"
)

// TextToken is the name of the pseudo-directive carrying literal text.
const TextToken = "TEXT"

// Token is a single lexeme: either a literal text span or a directive verb
// with its parsed attributes. Verb names are uppercased; bare verbs carry
// a zero-valued attribute set.
type Token struct {
	Name  string
	Text  string // literal content, TEXT tokens only
	Attrs Attributes
}

// lexemize splits a document into TEXT and directive tokens. Everything
// outside a <!--# ... --> pair is literal text; the text between a pair is
// tokenized as a directive body. A start delimiter without a matching end
// delimiter fails with [ErrEndMarker] wrapped in a [ParseError] locating
// the unterminated directive.
func lexemize(input string) ([]Token, error) {
	var tokens []Token

	pos := 0

	for {
		offset := strings.Index(input[pos:], startDelim)
		if offset < 0 {
			if pos < len(input) {
				tokens = append(tokens, Token{Name: TextToken, Text: input[pos:]})
			}

			return tokens, nil
		}

		if offset > 0 {
			tokens = append(tokens, Token{
				Name: TextToken,
				Text: input[pos : pos+offset],
			})
		}

		pos += offset + len(startDelim)

		offset = strings.Index(input[pos:], endDelim)
		if offset < 0 {
			return nil, newParseError(ErrEndMarker, input, pos-len(startDelim))
		}

		if offset > 0 {
			tok, err := tokenize(input[pos : pos+offset])
			if err != nil {
				return nil, newParseError(err, input, pos)
			}

			tokens = append(tokens, tok)
		}

		pos += offset + len(endDelim)
	}
}

// tokenize splits a directive body into an uppercased verb and its parsed
// attributes. A body with no interior space is a bare verb.
func tokenize(body string) (Token, error) {
	body = strings.TrimSpace(body)

	verb, attrText, found := cutSpace(body)
	if !found {
		return Token{Name: strings.ToUpper(body)}, nil
	}

	attrs, err := ParseAttributes(attrText)
	if err != nil {
		return Token{}, err
	}

	return Token{Name: strings.ToUpper(verb), Attrs: attrs}, nil
}

// cutSpace splits s around its first run of whitespace.
func cutSpace(s string) (before, after string, found bool) {
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, "", false
	}

	after = strings.TrimLeftFunc(s[idx:], unicode.IsSpace)

	return s[:idx], after, true
}
