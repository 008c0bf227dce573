package ssi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FileReader is the collaborator behind include file= directives.
// Implementations read the whole file as text with surrounding whitespace
// stripped, and fail if the path does not exist or is unreadable.
type FileReader interface {
	ReadFile(name string) (string, error)
}

// Fetcher is the collaborator behind include virtual= directives.
// Implementations issue an HTTP GET, fail on a non-success status, and
// return the response body as text. No retries are performed; callers
// impose timeouts through ctx.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// OSFileReader reads include files from the local filesystem. If Root is
// set, relative paths are resolved beneath it. Paths are not sandboxed.
type OSFileReader struct {
	Root string
}

func (r OSFileReader) ReadFile(name string) (string, error) {
	if r.Root != "" && !filepath.IsAbs(name) {
		name = filepath.Join(r.Root, name)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return "", ErrReadFile.Wrap(err).With(slog.String("file", name))
	}

	return strings.TrimSpace(string(data)), nil
}

// HTTPFetcher fetches virtual includes over HTTP. A zero value uses
// [http.DefaultClient]. If BaseURL is set, URLs beginning with a slash are
// resolved against it.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.BaseURL != "" && strings.HasPrefix(url, "/") {
		url = strings.TrimSuffix(f.BaseURL, "/") + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", ErrFetch.Wrap(err).With(slog.String("url", url))
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", ErrFetch.Wrap(err).With(slog.String("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		return "", ErrFetch.With(
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ErrFetch.Wrap(err).With(slog.String("url", url))
	}

	return string(body), nil
}

// Include fetches content from a file or URL collaborator. Exactly one of
// File or Virtual must be set (an empty attribute counts as absent); both
// or neither fails with [ErrIncludeConfig] at evaluation time.
//
// With Set, the content is stored under that context key and the include
// site produces no output. Otherwise, empty content falls back to the Stub
// context entry when one is named, invoking it if it is a block.
type Include struct {
	File    string
	Virtual string
	Set     string
	Stub    string
}

func (n *Include) Evaluate(ctx context.Context, env *Context) (string, error) {
	if (n.File != "") == (n.Virtual != "") {
		return "", ErrIncludeConfig.With(
			slog.String("file", n.File),
			slog.String("virtual", n.Virtual),
		)
	}

	var (
		content string
		err     error
	)

	if n.File != "" {
		content, err = env.files.ReadFile(n.File)
	} else {
		content, err = env.fetch.Fetch(ctx, n.Virtual)
	}

	if err != nil {
		return "", err
	}

	if n.Set != "" {
		env.SetString(n.Set, content)

		return "", nil
	}

	if content == "" && n.Stub != "" {
		stub, ok := env.Lookup(n.Stub)
		if !ok {
			return "", ErrStubUndefined.With(slog.String("stub", n.Stub))
		}

		return stub.Resolve(ctx)
	}

	return content, nil
}
