// Package ssi interprets Server-Side-Includes directives embedded in text
// documents. It scans a document for <!--#directive attr="value" --> markers,
// builds a tree of directive nodes interleaved with literal text, and
// evaluates that tree against a mutable key/value context to produce a single
// output string.
//
// # Directives
//
// Recognized verbs (case-insensitive):
//
//	block name="n" ... endblock   capture a deferred, named fragment
//	config k="v" ...              merge attributes into the context
//	echo var="n" [default="d"]    emit a context value or named block
//	if expr="..." [elif] [else] endif
//	include file="p" | virtual="u" [set="n"] [stub="n"]
//	set var="n" value="v"         write a context value verbatim
//
// Conditional expressions form a small micro-language with three shapes,
// tried in priority order:
//
//	$var = /regexp/    regex match (named captures merge into the context)
//	$var = text        string equality ('quoted' or bare text; != negates)
//	$var               existence test
//
// # Evaluation model
//
// Parsing and evaluation are separate passes. Parse produces an immutable
// [Document] that is safe for concurrent evaluation; Evaluate threads one
// mutable [Context] through the tree in document order, so later directives
// observe state written by earlier ones. Named blocks are captured during
// parsing but evaluated lazily: invoking a block (via echo or an include
// stub) re-evaluates its subtree against the context state at invocation
// time, every invocation.
//
// The echo directive is the single graceful-degradation path: a missing
// variable resolves to the default attribute, then the errmsg context value,
// then a fixed error marker. Every other failure aborts the render with no
// partial output.
package ssi
