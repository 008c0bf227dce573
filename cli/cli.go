// Package cli contains the command line interface for ssi.
//
// The CLI renders Server-Side-Includes documents (render), validates them
// (check), and serves a directory over HTTP rendering documents on request
// (serve), with logging and optional profiling configuration shared by all
// commands:
//
//	ssi render page.shtml --var name=value
//	ssi check *.shtml
//	ssi serve ./site --addr :8080
package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ssi/cli/cmd"
	"github.com/ardnew/ssi/pkg"
)

// CLI is the top-level command-line interface for ssi.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a document"`
	Check  cmd.Check  `cmd:""                    help:"Parse documents and report errors"`
	Serve  cmd.Serve  `cmd:""                    help:"Serve a directory, rendering documents on request"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`
}

// Run executes the ssi CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	vars := kong.Vars{
		"version": pkg.Name + " " + strings.TrimSpace(pkg.Version),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact: true,
				Summary: true,
			}),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values.
	cli.Log.start(ctx)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	// Execute the selected command
	return ktx.Run(ctx, &cli)
}
