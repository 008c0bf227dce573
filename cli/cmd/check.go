package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ardnew/ssi/log"
	"github.com/ardnew/ssi/ssi"
)

// Check parses documents without evaluating them, reporting grammar errors
// with their document position.
type Check struct {
	Sources []string `arg:"" help:"Source documents or '-' for stdin" name:"sources" default:"-"`
	AST     bool     `help:"Print the directive tree of each document"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	logger := log.Default()

	var failed int

	for _, source := range c.Sources {
		input, err := readInput(source)
		if err != nil {
			return err
		}

		doc, err := ssi.Parse(input, ssi.WithLogger(logger))
		if err != nil {
			failed++

			fmt.Printf("%s: %v\n", source, err)

			continue
		}

		if c.AST {
			fmt.Printf("%s:\n", source)

			var buf strings.Builder

			dumpNodes(&buf, doc.Children, 1)
			fmt.Print(buf.String())
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to parse",
			failed, len(c.Sources))
	}

	return nil
}

// dumpNodes writes one line per node, indented by tree depth, descending
// into conditional branches and block bodies.
func dumpNodes(buf *strings.Builder, nodes []ssi.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	for _, node := range nodes {
		switch n := node.(type) {
		case *ssi.Text:
			fmt.Fprintf(buf, "%stext %q\n", indent, truncate(n.Content, 40))
		case *ssi.Block:
			fmt.Fprintf(buf, "%sblock name=%s\n", indent, n.Name)
			dumpNodes(buf, n.Children, depth+1)
		case *ssi.Config:
			fmt.Fprintf(buf, "%sconfig%s\n", indent, formatAttrs(n.Attrs))
		case *ssi.Echo:
			if n.HasDefault {
				fmt.Fprintf(buf, "%secho var=%s default=%q\n",
					indent, n.Var, n.Default)
			} else {
				fmt.Fprintf(buf, "%secho var=%s\n", indent, n.Var)
			}
		case *ssi.Elif:
			fmt.Fprintf(buf, "%selif expr=%q\n", indent, formatExpr(n.Expr))
			dumpNodes(buf, n.Children, depth+1)
			dumpNodes(buf, n.Alternatives, depth)
		case *ssi.If:
			fmt.Fprintf(buf, "%sif expr=%q\n", indent, formatExpr(n.Expr))
			dumpNodes(buf, n.Children, depth+1)
			dumpNodes(buf, n.Alternatives, depth)
		case *ssi.Else:
			fmt.Fprintf(buf, "%selse\n", indent)
			dumpNodes(buf, n.Children, depth+1)
		case *ssi.Include:
			fmt.Fprintf(buf, "%sinclude", indent)
			for _, attr := range [...][2]string{
				{"file", n.File},
				{"virtual", n.Virtual},
				{"set", n.Set},
				{"stub", n.Stub},
			} {
				if attr[1] != "" {
					fmt.Fprintf(buf, " %s=%q", attr[0], attr[1])
				}
			}
			buf.WriteByte('\n')
		case *ssi.Set:
			fmt.Fprintf(buf, "%sset var=%s value=%q\n",
				indent, n.Var, n.Value)
		default:
			fmt.Fprintf(buf, "%s%T\n", indent, node)
		}
	}
}

// formatExpr reconstructs the directive's expr attribute text.
func formatExpr(expr *ssi.Expression) string {
	var buf strings.Builder

	buf.WriteByte('$')
	buf.WriteString(expr.Variable)

	if expr.Operator != "" {
		buf.WriteByte(' ')
		buf.WriteString(expr.Operator)
		buf.WriteByte(' ')

		if expr.Regexp != "" {
			buf.WriteByte('/')
			buf.WriteString(expr.Regexp)
			buf.WriteByte('/')
		} else {
			buf.WriteString(expr.Text)
		}
	}

	return buf.String()
}

// formatAttrs renders attributes in declaration order.
func formatAttrs(attrs ssi.Attributes) string {
	var buf strings.Builder

	for key, val := range attrs.All() {
		fmt.Fprintf(&buf, " %s=%q", key, val)
	}

	return buf.String()
}

// truncate shortens s for single-line display.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}
