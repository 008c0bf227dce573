package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ardnew/ssi/log"
	"github.com/ardnew/ssi/ssi"
)

// Render interprets the directives in a document and writes the expanded
// output.
type Render struct {
	Source   string            `arg:"" help:"Source document or '-' for stdin" name:"source" default:"-"`
	Output   string            `help:"Output file or '-' for stdout"                         default:"-"          short:"o"`
	Var      map[string]string `help:"Context variable overrides (name=value)"                                    short:"v"`
	VarsFile string            `help:"YAML file of context variables"                                             type:"existingfile" optional:""`
	TimeFmt  string            `help:"Layout for date_local and date_gmt"                                         placeholder:"LAYOUT"        optional:""`
	Root     string            `help:"Directory resolved against file includes"              default:"."          type:"existingdir"`
	BaseURL  string            `help:"Base URL prepended to virtual includes"                                     placeholder:"URL"           optional:""`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	input, err := readInput(r.Source)
	if err != nil {
		return err
	}

	vars, err := seedVars(r.TimeFmt, r.VarsFile, r.Var)
	if err != nil {
		return err
	}

	logger := log.Default()

	doc, err := ssi.ParseCached(input, ssi.WithLogger(logger))
	if err != nil {
		return ssi.WrapError(err).
			With(slog.String("command", "render"))
	}

	env := newRenderContext(vars, r.Root, r.BaseURL)

	output, err := doc.Evaluate(ctx, env)
	if err != nil {
		return ssi.WrapError(err).
			With(
				slog.String("command", "render"),
				slog.String("source", r.Source),
			)
	}

	logger.Trace("context after render", slog.Any("vars", env.Vars()))

	if r.Output == stdinSource {
		fmt.Print(output)

		return nil
	}

	if err := os.WriteFile(r.Output, []byte(output), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Debug("rendered document",
		slog.String("source", r.Source),
		slog.String("output", r.Output),
		slog.Int("bytes", len(output)),
	)

	return nil
}
