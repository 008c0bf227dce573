package ssi

import (
	"log/slog"
	"regexp"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Expression grammar, alternatives in priority order:
//
//	$word operator /regexp/
//	$word operator ('quoted text' | bare-text)
//	$word
//
// word matches [a-z_]+ and operator is literal = or !=. Any other shape
// (a variable without $, an unsupported operator) fails with [ErrGrammar].
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Var", Pattern: `\$[a-z_]+`},
	{Name: "Op", Pattern: `!=|=`},
	{Name: "Regex", Pattern: `/[^/]*/`},
	{Name: "Quoted", Pattern: `'[^']*'`},
	{Name: "Bare", Pattern: `\S+`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Expression is the parsed form of a conditional expression. Exactly one of
// Regexp or Text is set when Operator is present; an empty field is treated
// as absent throughout evaluation.
type Expression struct {
	Variable string `parser:"@Var ("`
	Operator string `parser:"@Op"`
	Regexp   string `parser:"( @Regex"`
	Text     string `parser:"| @Quoted | @Bare ) )?"`
}

var exprParser = participle.MustBuild[Expression](
	participle.Lexer(exprLexer),
	participle.Map(stripVarSigil, "Var"),
	participle.Map(stripDelims, "Regex", "Quoted"),
)

func stripVarSigil(tok lexer.Token) (lexer.Token, error) {
	if len(tok.Value) > 0 && tok.Value[0] == '$' {
		tok.Value = tok.Value[1:]
	}

	return tok, nil
}

// ParseExpression parses the value of an if/elif expr attribute.
func ParseExpression(text string) (*Expression, error) {
	expr, err := exprParser.ParseString("", text)
	if err != nil {
		return nil, ErrGrammar.Wrap(err).
			With(slog.String("expression", text))
	}

	return expr, nil
}

// Evaluate resolves the expression against env and returns its truth value.
//
// Regex comparisons anchor at the start of the variable's value (an unset
// variable compares as the empty string). When the comparison result is true
// and a match occurred, named capture groups are merged into env, with
// non-participating groups stored as empty strings. Text comparisons use
// plain string equality against the variable's value; an unset variable is
// never equal to any text. A lone variable tests key presence.
func (e *Expression) Evaluate(env *Context) (bool, error) {
	switch {
	case e.Regexp != "":
		return e.evaluateRegexp(env)

	case e.Text != "":
		eq, err := e.operatorIsEqual()
		if err != nil {
			return false, err
		}

		val, ok := env.Lookup(e.Variable)
		matched := ok && val.Kind == ValueText && val.Text == e.Text

		return matched == eq, nil

	case e.Variable != "":
		return env.Has(e.Variable), nil

	default:
		// Unreachable with a validating grammar, but guarded: an empty
		// expression has no defined truth value.
		return false, ErrExpression.
			With(slog.String("reason", "no variable, text, or regexp"))
	}
}

func (e *Expression) evaluateRegexp(env *Context) (bool, error) {
	eq, err := e.operatorIsEqual()
	if err != nil {
		return false, err
	}

	// Anchor at the start only, matching the behavior of the conditional
	// micro-language: the pattern must match a prefix of the value.
	re, err := regexp.Compile(`^(?:` + e.Regexp + `)`)
	if err != nil {
		return false, ErrExpression.Wrap(err).
			With(slog.String("regexp", e.Regexp))
	}

	match := re.FindStringSubmatch(env.text(e.Variable))
	result := (match != nil) == eq

	if result && match != nil {
		for i, name := range re.SubexpNames() {
			if i == 0 || name == "" {
				continue
			}

			env.SetString(name, match[i])
		}
	}

	return result, nil
}

// operatorIsEqual maps the comparison operator to its polarity.
func (e *Expression) operatorIsEqual() (bool, error) {
	switch e.Operator {
	case "=":
		return true, nil

	case "!=":
		return false, nil

	default:
		return false, ErrExpression.
			With(slog.String("operator", e.Operator))
	}
}
