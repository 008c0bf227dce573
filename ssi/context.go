package ssi

import (
	"context"
	"maps"

	"github.com/ardnew/ssi/log"
)

// ValueKind discriminates the two context value variants.
type ValueKind int

const (
	// ValueText is realized text written by set, config, include set=, or
	// regex capture injection.
	ValueText ValueKind = iota

	// ValueThunk is a deferred fragment installed by a block directive.
	ValueThunk
)

// Thunk produces a fragment when invoked. Block directives install thunks
// that re-evaluate their captured subtree against the current context state,
// so two invocations may yield different output.
type Thunk func(ctx context.Context) (string, error)

// Value is a single context entry: either realized text or a deferred
// fragment producer.
type Value struct {
	Kind  ValueKind
	Text  string
	Thunk Thunk
}

// TextValue wraps a string as a context value.
func TextValue(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// ThunkValue wraps a deferred fragment producer as a context value.
func ThunkValue(fn Thunk) Value {
	return Value{Kind: ValueThunk, Thunk: fn}
}

// Resolve realizes the value, invoking a thunk if necessary.
func (v Value) Resolve(ctx context.Context) (string, error) {
	if v.Kind == ValueThunk && v.Thunk != nil {
		return v.Thunk(ctx)
	}

	return v.Text, nil
}

// Context is the mutable key/value store threaded through one render.
// All nodes share and may mutate it; mutations are visible to every node
// evaluated afterward in document order, including blocks invoked lazily.
// A Context is not safe for concurrent use; use one per render.
type Context struct {
	vars   map[string]Value
	files  FileReader
	fetch  Fetcher
	logger log.Logger
}

// ContextOption configures a new render context.
type ContextOption func(*Context)

// WithVars seeds the context with string variables. Embedders typically
// provide locale and date variables (date_local, date_gmt) here.
func WithVars(vars map[string]string) ContextOption {
	return func(c *Context) {
		for key, val := range vars {
			c.vars[key] = TextValue(val)
		}
	}
}

// WithFileReader sets the collaborator used by include file= directives.
func WithFileReader(files FileReader) ContextOption {
	return func(c *Context) {
		c.files = files
	}
}

// WithFetcher sets the collaborator used by include virtual= directives.
func WithFetcher(fetch Fetcher) ContextOption {
	return func(c *Context) {
		c.fetch = fetch
	}
}

// WithContextLogger sets the structured logger used during evaluation.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithContextLogger(logger log.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext creates an empty render context with default collaborators:
// includes read files from the process working directory and fetch URLs
// with the default HTTP client.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		vars:  make(map[string]Value),
		files: OSFileReader{},
		fetch: &HTTPFetcher{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lookup returns the value stored under key and whether it is present.
func (c *Context) Lookup(key string) (Value, bool) {
	val, ok := c.vars[key]

	return val, ok
}

// Has reports whether key is present, regardless of its value.
func (c *Context) Has(key string) bool {
	_, ok := c.vars[key]

	return ok
}

// SetString writes realized text under key, replacing any prior value.
func (c *Context) SetString(key, value string) {
	c.vars[key] = TextValue(value)
}

// SetThunk installs a deferred fragment producer under key.
func (c *Context) SetThunk(key string, fn Thunk) {
	c.vars[key] = ThunkValue(fn)
}

// Vars returns a snapshot of the realized text variables. Thunks are
// omitted: realizing them requires an evaluation pass.
func (c *Context) Vars() map[string]string {
	snapshot := make(map[string]string, len(c.vars))

	for key, val := range c.vars {
		if val.Kind == ValueText {
			snapshot[key] = val.Text
		}
	}

	return snapshot
}

// Clone returns an independent copy of the context sharing the same
// collaborators, with opts applied to the copy. Embedders build one base
// context and clone it per render. Thunk values still reference the
// original context they were captured against.
func (c *Context) Clone(opts ...ContextOption) *Context {
	clone := &Context{
		vars:   make(map[string]Value, len(c.vars)),
		files:  c.files,
		fetch:  c.fetch,
		logger: c.logger,
	}

	maps.Copy(clone.vars, c.vars)

	for _, opt := range opts {
		opt(clone)
	}

	return clone
}

// text returns the realized text under key, or the empty string when the
// key is absent or holds a thunk. Regex comparisons match against this.
func (c *Context) text(key string) string {
	if val, ok := c.vars[key]; ok && val.Kind == ValueText {
		return val.Text
	}

	return ""
}
