package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yuin/goldmark"

	"github.com/ardnew/ssi/log"
	"github.com/ardnew/ssi/ssi"
)

// documentExts are the extensions served through the interpreter. Markdown
// is interpreted first and then converted to HTML.
var documentExts = map[string]bool{
	".shtml": true,
	".html":  true,
	".stm":   true,
	".md":    true,
}

// Serve runs a development web server that interprets directives in
// documents under a root directory. Parsed documents are cached and
// invalidated when their files change on disk.
type Serve struct {
	Root     string            `arg:"" help:"Directory to serve" name:"root" default:"." type:"existingdir"`
	Addr     string            `help:"Listen address"                        default:":8080"`
	Var      map[string]string `help:"Context variable overrides (name=value)"           short:"v"`
	VarsFile string            `help:"YAML file of context variables"                    type:"existingfile" optional:""`
	TimeFmt  string            `help:"Layout for date_local and date_gmt"                placeholder:"LAYOUT" optional:""`
}

// Run executes the serve command.
func (s *Serve) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	logger := log.Default()

	vars := make(map[string]string)

	if s.VarsFile != "" {
		fromFile, err := loadVarsFile(s.VarsFile)
		if err != nil {
			return err
		}

		maps.Copy(vars, fromFile)
	}

	maps.Copy(vars, s.Var)

	srv := &server{
		root:   s.Root,
		static: http.FileServer(http.Dir(s.Root)),
		docs:   map[string]*ssi.Document{},
		base: ssi.NewContext(
			ssi.WithVars(vars),
			ssi.WithFileReader(ssi.OSFileReader{Root: s.Root}),
			ssi.WithContextLogger(logger),
		),
		timeFmt: s.TimeFmt,
		logger:  logger,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watchTree(watcher, s.Root); err != nil {
		return err
	}

	go srv.invalidate(ctx, watcher)

	hs := &http.Server{
		Addr:           s.Addr,
		Handler:        srv,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()

		shutCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()

		_ = hs.Shutdown(shutCtx)
	}()

	logger.Info("serving documents",
		slog.String("root", s.Root),
		slog.String("addr", s.Addr),
	)

	if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// watchTree registers every directory beneath root with the watcher. New
// subdirectories created while serving are added as their create events
// arrive.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root,
		func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				return watcher.Add(p)
			}

			return nil
		})
}

type server struct {
	root    string
	static  http.Handler
	base    *ssi.Context
	timeFmt string
	logger  log.Logger

	mu   sync.Mutex
	docs map[string]*ssi.Document
}

// invalidate drops cached documents when their files change, and watches
// directories created after startup.
func (srv *server) invalidate(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)

					continue
				}
			}

			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Remove) ||
				event.Op.Has(fsnotify.Rename) {
				srv.mu.Lock()
				delete(srv.docs, event.Name)
				srv.mu.Unlock()

				srv.logger.Debug("invalidated document",
					slog.String("file", event.Name),
				)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			srv.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

func (srv *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" || name == "." {
		name = "index.shtml"
	}

	ext := path.Ext(name)
	if !documentExts[ext] {
		srv.static.ServeHTTP(w, r)

		return
	}

	file := filepath.Join(srv.root, filepath.FromSlash(name))

	doc, err := srv.document(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "%v\n", err)

		return
	}

	reqVars := dateVars(srv.timeFmt)
	reqVars["DOCUMENT_NAME"] = path.Base(name)
	reqVars["DOCUMENT_URI"] = r.URL.Path

	env := srv.base.Clone(
		ssi.WithVars(reqVars),
		ssi.WithFetcher(&ssi.HTTPFetcher{BaseURL: "http://" + r.Host}),
	)

	output, err := doc.Evaluate(r.Context(), env)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		srv.logger.Error("evaluate document",
			slog.String("file", file),
			slog.Any("error", err),
		)

		return
	}

	body := []byte(output)

	if ext == ".md" {
		var buf bytes.Buffer
		if err := goldmark.Convert(body, &buf); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			srv.logger.Error("convert markdown",
				slog.String("file", file),
				slog.Any("error", err),
			)

			return
		}

		body = buf.Bytes()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if _, err := w.Write(body); err != nil {
		srv.logger.Warn("write response", slog.Any("error", err))
	}
}

// document returns the parsed directive tree for file, parsing and caching
// it on first use. A parse failure is not cached.
func (srv *server) document(file string) (*ssi.Document, error) {
	srv.mu.Lock()
	doc, ok := srv.docs[file]
	srv.mu.Unlock()

	if ok {
		return doc, nil
	}

	input, err := readInput(file)
	if err != nil {
		return nil, err
	}

	doc, err = ssi.Parse(input, ssi.WithLogger(srv.logger))
	if err != nil {
		return nil, err
	}

	srv.mu.Lock()
	srv.docs[file] = doc
	srv.mu.Unlock()

	return doc, nil
}
