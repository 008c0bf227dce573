package ssi

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/ssi/log"
)

// Verbs recognized by the parser, lowercase.
var directiveVerbs = []string{
	"block", "endblock", "config", "echo",
	"if", "elif", "else", "endif",
	"include", "set",
}

// parser holds configuration for one Parse call.
type parser struct {
	logger log.Logger
}

// Option configures parsing behavior.
type Option func(*parser)

// WithLogger sets the structured logger for trace-level parse debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(p *parser) {
		p.logger = logger
	}
}

// Parse scans input for directives and builds the directive tree.
// All lexer and grammar failures surface here, never during evaluation:
// if/elif expressions are parsed eagerly so a malformed expression fails
// the parse rather than a later render.
func Parse(input string, opts ...Option) (*Document, error) {
	var p parser
	for _, opt := range opts {
		opt(&p)
	}

	tokens, err := lexemize(input)
	if err != nil {
		return nil, err
	}

	p.logger.Trace("lexemized", slog.Int("tokens", len(tokens)))

	doc := &Document{}

	if _, err := p.build(doc, tokens, 0); err != nil {
		return nil, err
	}

	return doc, nil
}

// Render parses input and evaluates it against env in one call.
func Render(
	ctx context.Context,
	input string,
	env *Context,
	opts ...Option,
) (string, error) {
	doc, err := Parse(input, opts...)
	if err != nil {
		return "", err
	}

	return doc.Evaluate(ctx, env)
}

// build adopts nodes into root until a token matching one of root's end
// tags is seen; that terminator is consumed, not re-emitted, and the index
// of the first unconsumed token is returned. A node that opens its own
// scope recurses over the same remaining token stream. The document root
// has no end tags, so an unmatched end tag propagating to the top level is
// adopted as an inert node.
func (p *parser) build(root scope, tokens []Token, pos int) (int, error) {
	for pos < len(tokens) {
		tok := tokens[pos]

		node, err := p.newNode(tok)
		if err != nil {
			return pos, err
		}

		if inner, ok := node.(scope); ok {
			root.adopt(node)

			pos, err = p.build(inner, tokens, pos+1)
			if err != nil {
				return pos, err
			}

			// A trailing alternative closes the conditional that adopted
			// it: the terminator consumed by the innermost alternative ends
			// the whole chain, however many elif links it has. The document
			// root adopts stray alternatives as ordinary children and keeps
			// scanning.
			if isAlternative(node) {
				switch root.(type) {
				case *If, *Elif:
					return pos, nil
				}
			}

			continue
		}

		if slices.Contains(root.endTags(), tok.Name) {
			return pos + 1, nil
		}

		root.adopt(node)
		pos++
	}

	// Only the document root may run out of tokens; any other open scope
	// still owes one of its end tags.
	if tags := root.endTags(); len(tags) > 0 {
		return pos, ErrEndMarker.With(
			slog.String("expected", strings.Join(tags, "|")),
		)
	}

	return pos, nil
}

// newNode constructs the directive node for a token. The verb set is closed
// and known at compile time; dispatch is a plain switch rather than a
// string-keyed registry.
func (p *parser) newNode(tok Token) (Node, error) {
	switch tok.Name {
	case TextToken:
		return &Text{Content: tok.Text}, nil

	case "BLOCK":
		name, err := requireAttr(tok, "name")
		if err != nil {
			return nil, err
		}

		return &Block{Name: name}, nil

	case "ENDBLOCK":
		return &Endblock{}, nil

	case "CONFIG":
		return &Config{Attrs: tok.Attrs}, nil

	case "ECHO":
		name, err := requireAttr(tok, "var")
		if err != nil {
			return nil, err
		}

		node := &Echo{Var: name}
		node.Default, node.HasDefault = tok.Attrs.Get("default")

		return node, nil

	case "IF", "ELIF":
		raw, err := requireAttr(tok, "expr")
		if err != nil {
			return nil, err
		}

		expr, err := ParseExpression(raw)
		if err != nil {
			return nil, err
		}

		p.logger.Trace("conditional",
			slog.String("verb", tok.Name),
			slog.String("expr", raw),
		)

		if tok.Name == "ELIF" {
			return &Elif{If{Expr: expr}}, nil
		}

		return &If{Expr: expr}, nil

	case "ELSE":
		return &Else{}, nil

	case "ENDIF":
		return &Endif{}, nil

	case "INCLUDE":
		node := &Include{}
		node.File, _ = tok.Attrs.Get("file")
		node.Virtual, _ = tok.Attrs.Get("virtual")
		node.Set, _ = tok.Attrs.Get("set")
		node.Stub, _ = tok.Attrs.Get("stub")

		return node, nil

	case "SET":
		name, err := requireAttr(tok, "var")
		if err != nil {
			return nil, err
		}

		value, err := requireAttr(tok, "value")
		if err != nil {
			return nil, err
		}

		return &Set{Var: name, Value: value}, nil

	default:
		err := ErrUnknownDirective.With(slog.String("directive", tok.Name))

		// Suggest the closest recognized verb for likely typos.
		if matches := fuzzy.Find(strings.ToLower(tok.Name), directiveVerbs); len(matches) > 0 {
			err = err.With(slog.String("suggestion", matches[0].Str))
		}

		return nil, err
	}
}

// isAlternative reports whether node is diverted into a conditional's
// trailing alternatives when adopted.
func isAlternative(node Node) bool {
	switch node.(type) {
	case *Elif, *Else:
		return true
	}

	return false
}

func requireAttr(tok Token, name string) (string, error) {
	val, ok := tok.Attrs.Get(name)
	if !ok {
		return "", ErrMissingAttr.With(
			slog.String("directive", strings.ToLower(tok.Name)),
			slog.String("attribute", name),
		)
	}

	return val, nil
}
