package ssi

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultErrorMessage is emitted by echo for a missing variable when no
// default attribute is given and no errmsg value is in the context.
const DefaultErrorMessage = "[an error occurred while processing the directive]"

// Node is one vertex of the directive tree. Evaluate returns the node's
// output fragment, possibly empty, and may mutate env as a side effect.
type Node interface {
	Evaluate(ctx context.Context, env *Context) (string, error)
}

// scope is implemented by nodes that capture children during parsing until
// one of their end tags is seen.
type scope interface {
	Node
	endTags() []string
	adopt(child Node)
}

// evaluateAll is the single fragment-concatenation contract used at every
// scope level: evaluate nodes left to right, threading one mutable context,
// and concatenate the non-empty fragments with no separator.
func evaluateAll(ctx context.Context, nodes []Node, env *Context) (string, error) {
	var out strings.Builder

	for _, node := range nodes {
		frag, err := node.Evaluate(ctx, env)
		if err != nil {
			return "", err
		}

		out.WriteString(frag)
	}

	return out.String(), nil
}

// Document is the synthetic root of a directive tree. It has no end tags,
// so a stray end tag that propagates to the top level is adopted as an
// inert child rather than rejected.
//
// A Document is immutable after Parse and safe for concurrent evaluation
// with distinct contexts.
type Document struct {
	Children []Node
}

// Evaluate renders the document against env and returns the output string.
// Any error aborts the render with no partial output.
func (d *Document) Evaluate(ctx context.Context, env *Context) (string, error) {
	env.logger.TraceContext(ctx, "evaluate document",
		slog.Int("children", len(d.Children)),
	)

	return evaluateAll(ctx, d.Children, env)
}

func (d *Document) endTags() []string { return nil }
func (d *Document) adopt(child Node)  { d.Children = append(d.Children, child) }

// Text is a literal span between directives. It evaluates to itself.
type Text struct {
	Content string
}

func (t *Text) Evaluate(context.Context, *Context) (string, error) {
	return t.Content, nil
}

// Block is a named, deferred fragment. Evaluating the block never produces
// output; it installs a thunk under its name that evaluates the captured
// children when invoked, reading whatever context state exists at
// invocation time. Invoking twice evaluates the children twice.
type Block struct {
	Name     string
	Children []Node
}

func (b *Block) Evaluate(ctx context.Context, env *Context) (string, error) {
	env.logger.TraceContext(ctx, "capture block", slog.String("name", b.Name))

	env.SetThunk(b.Name, func(ctx context.Context) (string, error) {
		return evaluateAll(ctx, b.Children, env)
	})

	return "", nil
}

func (b *Block) endTags() []string { return []string{"ENDBLOCK"} }
func (b *Block) adopt(child Node)  { b.Children = append(b.Children, child) }

// Config merges its attributes into the context (notably errmsg and
// timefmt). It produces no output.
type Config struct {
	Attrs Attributes
}

func (c *Config) Evaluate(_ context.Context, env *Context) (string, error) {
	for key, val := range c.Attrs.All() {
		env.SetString(key, val)
	}

	return "", nil
}

// Echo emits a context value or invokes a named block. A missing variable
// resolves, in priority order, to the default attribute, the errmsg context
// value, then [DefaultErrorMessage].
type Echo struct {
	Var        string
	Default    string
	HasDefault bool
}

func (e *Echo) Evaluate(ctx context.Context, env *Context) (string, error) {
	if val, ok := env.Lookup(e.Var); ok {
		return val.Resolve(ctx)
	}

	if e.HasDefault {
		return e.Default, nil
	}

	if msg, ok := env.Lookup("errmsg"); ok {
		return msg.Resolve(ctx)
	}

	return DefaultErrorMessage, nil
}

// If evaluates its expression and, when true, its children. Otherwise it
// delegates to its trailing alternatives: the first elif or else captured
// at this level, which chains recursively.
type If struct {
	Expr         *Expression
	Children     []Node
	Alternatives []Node
}

func (n *If) Evaluate(ctx context.Context, env *Context) (string, error) {
	ok, err := n.Expr.Evaluate(env)
	if err != nil {
		return "", err
	}

	if ok {
		return evaluateAll(ctx, n.Children, env)
	}

	return evaluateAll(ctx, n.Alternatives, env)
}

func (n *If) endTags() []string { return []string{"ELIF", "ELSE", "ENDIF"} }

// adopt diverts trailing elif and else nodes into the alternatives chain;
// everything else is an ordinary child of the true branch.
func (n *If) adopt(child Node) {
	switch child.(type) {
	case *Elif, *Else:
		n.Alternatives = append(n.Alternatives, child)
	default:
		n.Children = append(n.Children, child)
	}
}

// Elif is an If with a narrower end-tag set.
type Elif struct {
	If
}

func (n *Elif) endTags() []string { return []string{"ELSE", "ENDIF"} }

// Else evaluates its children unconditionally when reached.
type Else struct {
	Children []Node
}

func (n *Else) Evaluate(ctx context.Context, env *Context) (string, error) {
	return evaluateAll(ctx, n.Children, env)
}

func (n *Else) endTags() []string { return []string{"ENDIF"} }
func (n *Else) adopt(child Node)  { n.Children = append(n.Children, child) }

// Set writes a context variable verbatim. The value is not evaluated as an
// expression. It produces no output.
type Set struct {
	Var   string
	Value string
}

func (s *Set) Evaluate(_ context.Context, env *Context) (string, error) {
	env.SetString(s.Var, s.Value)

	return "", nil
}

// Endblock, Endif, and Noop are structural markers with no evaluation
// contract beyond producing nothing. They exist to be matched during AST
// construction; one that reaches the document root unmatched becomes an
// inert leaf.
type (
	Endblock struct{}
	Endif    struct{}
	Noop     struct{}
)

func (*Endblock) Evaluate(context.Context, *Context) (string, error) { return "", nil }
func (*Endif) Evaluate(context.Context, *Context) (string, error)    { return "", nil }
func (*Noop) Evaluate(context.Context, *Context) (string, error)     { return "", nil }
