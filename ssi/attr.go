package ssi

import (
	"iter"
	"log/slog"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Attributes is an ordered mapping of directive attribute names to values.
// Iteration follows the position of each key's first occurrence; a duplicate
// key overwrites the earlier value in place (last write wins).
type Attributes struct {
	keys []string
	vals map[string]string
}

// Get returns the value for name and whether the attribute is present.
func (a Attributes) Get(name string) (string, bool) {
	val, ok := a.vals[name]

	return val, ok
}

// Len returns the number of distinct attributes.
func (a Attributes) Len() int { return len(a.keys) }

// All returns an iterator over attribute pairs in document order.
func (a Attributes) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, key := range a.keys {
			if !yield(key, a.vals[key]) {
				return
			}
		}
	}
}

func (a *Attributes) set(name, value string) {
	if a.vals == nil {
		a.vals = make(map[string]string)
	}

	if _, seen := a.vals[name]; !seen {
		a.keys = append(a.keys, name)
	}

	a.vals[name] = value
}

// Attribute grammar: name="value" pairs separated by whitespace.
// Names match [a-z0-9$_-]+ and values are double-quoted with no escaping.
// The full input must match; trailing garbage is an error.
var attrLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Name", Pattern: `[a-z0-9$_-]+`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Assign", Pattern: `=`},
	{Name: "whitespace", Pattern: `\s+`},
})

type attrPair struct {
	Name  string `parser:"@Name"`
	Value string `parser:"Assign @String"`
}

type attrList struct {
	Pairs []attrPair `parser:"@@+"`
}

var attrParser = participle.MustBuild[attrList](
	participle.Lexer(attrLexer),
	participle.Map(stripDelims, "String"),
)

// stripDelims removes the surrounding delimiter pair from a token value.
// The grammars define no escaping, so the content is used verbatim.
func stripDelims(tok lexer.Token) (lexer.Token, error) {
	if len(tok.Value) >= 2 {
		tok.Value = tok.Value[1 : len(tok.Value)-1]
	}

	return tok, nil
}

// ParseAttributes parses an attribute list of the form
//
//	name="value" name2="value2" ...
//
// into an ordered [Attributes] mapping. Unquoted values, unbalanced quotes,
// and trailing garbage all fail with [ErrGrammar].
func ParseAttributes(text string) (Attributes, error) {
	list, err := attrParser.ParseString("", text)
	if err != nil {
		return Attributes{}, ErrGrammar.Wrap(err).
			With(slog.String("attributes", text))
	}

	var attrs Attributes
	for _, pair := range list.Pairs {
		attrs.set(pair.Name, pair.Value)
	}

	return attrs, nil
}
