//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
)

// Version is the semantic version of the ssi module embedded at build time.
//
//go:embed VERSION
var Version string

const (
	// Name is the canonical command and module identifier used across the
	// project. For example, it appears in help text and usage output.
	Name = "ssi"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Server-Side-Includes directive interpreter"
)
