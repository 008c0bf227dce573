package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/ssi/pkg"
)

// cacheDir returns the user cache directory for ssi, falling back to the
// working directory when the platform defines none.
func cacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "."
	}

	return filepath.Join(dir, pkg.Name)
}
