// Package cmd implements the ssi subcommands. Each command is a kong
// struct whose Run method receives the CLI's context.Context binding.
package cmd

import (
	"io"
	"log/slog"
	"maps"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/ssi/log"
	"github.com/ardnew/ssi/ssi"
)

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// DefaultTimeLayout formats the date_local and date_gmt context variables
// seeded for every render.
const DefaultTimeLayout = "Monday, 02-Jan-2006 15:04:05 MST"

// readInput reads a whole document from path, or from stdin when path is
// "-". File reads go through an async read-ahead reader so data is
// pre-fetched while earlier chunks are consumed.
func readInput(path string) (string, error) {
	var reader io.Reader

	if path == stdinSource {
		reader = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return "", ssi.ErrReadInput.Wrap(err).
				With(slog.String("path", path))
		}
		defer file.Close()

		ra := readahead.NewReader(file)
		defer ra.Close()

		reader = ra
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", ssi.ErrReadInput.Wrap(err).
			With(slog.String("path", path))
	}

	return string(data), nil
}

// loadVarsFile reads context variables from a YAML mapping of string keys
// to string values.
func loadVarsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ssi.ErrReadInput.Wrap(err).
			With(slog.String("path", path))
	}

	vars := make(map[string]string)
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, ssi.ErrReadInput.Wrap(err).
			With(slog.String("path", path))
	}

	return vars, nil
}

// dateVars formats the date_local and date_gmt pair with timeLayout, or
// [DefaultTimeLayout] when empty.
func dateVars(timeLayout string) map[string]string {
	if timeLayout == "" {
		timeLayout = DefaultTimeLayout
	}

	now := time.Now()

	return map[string]string{
		"date_local": now.Format(timeLayout),
		"date_gmt":   now.UTC().Format(timeLayout),
	}
}

// seedVars composes the initial context variables for a render: the
// date_local/date_gmt seed, then the vars file, then flag overrides, each
// layer shadowing the one before.
func seedVars(
	timeLayout, varsFile string,
	overrides map[string]string,
) (map[string]string, error) {
	vars := dateVars(timeLayout)

	if varsFile != "" {
		fromFile, err := loadVarsFile(varsFile)
		if err != nil {
			return nil, err
		}

		maps.Copy(vars, fromFile)
	}

	maps.Copy(vars, overrides)

	return vars, nil
}

// newRenderContext builds a render context with the given variables and
// include collaborators rooted at root (file includes) and baseURL
// (virtual includes).
func newRenderContext(
	vars map[string]string,
	root, baseURL string,
) *ssi.Context {
	return ssi.NewContext(
		ssi.WithVars(vars),
		ssi.WithFileReader(ssi.OSFileReader{Root: root}),
		ssi.WithFetcher(&ssi.HTTPFetcher{BaseURL: baseURL}),
		ssi.WithContextLogger(log.Default()),
	)
}
