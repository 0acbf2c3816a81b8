// Package devserver serves a manuscript over HTTP and rebuilds it when the
// source file changes. Open pages reload themselves after each successful
// rebuild.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rsm "github.com/alnah/go-rsm"
	"github.com/alnah/go-rsm/internal/assets"
	"github.com/alnah/go-rsm/internal/render"
)

// Route paths.
const (
	VersionPath     = "/_rsm/version"
	DiagnosticsPath = "/_rsm/diagnostics"
)

// DefaultLongPoll bounds how long a version request waits for a rebuild.
const DefaultLongPoll = 25 * time.Second

// ErrNoSource is returned by New when Options.Source is empty.
var ErrNoSource = errors.New("devserver: no source file")

// Options configures a Server.
type Options struct {
	Source    string // manuscript path
	Builder   *rsm.Builder
	Config    rsm.Config
	StaticDir string        // overrides the embedded runtime files when set
	Interval  time.Duration // source polling period
	LongPoll  time.Duration // version wait limit
	Logger    *slog.Logger
}

// Server holds the latest build of one manuscript.
type Server struct {
	opts   Options
	log    *slog.Logger
	static fs.FS
	router chi.Router

	mu      sync.Mutex
	version int
	doc     string
	diags   []rsm.Diagnostic
	lastErr error
	changed chan struct{} // closed and replaced after each successful build
}

// New creates a Server. Call Rebuild or Watch to produce the first document.
func New(opts Options) (*Server, error) {
	if opts.Source == "" {
		return nil, ErrNoSource
	}
	if opts.Builder == nil {
		opts.Builder = rsm.NewBuilder()
	}
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.LongPoll <= 0 {
		opts.LongPoll = DefaultLongPoll
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	// Pages are only ever served as documents.
	opts.Config.Structured = false

	static := assets.Static()
	if opts.StaticDir != "" {
		info, err := os.Stat(opts.StaticDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: static dir %s", assets.ErrInvalidBasePath, opts.StaticDir)
		}
		static = os.DirFS(opts.StaticDir)
	}

	s := &Server{
		opts:    opts,
		log:     opts.Logger,
		static:  static,
		changed: make(chan struct{}),
	}
	s.setupRoutes()
	if missing := s.missingStatic(); len(missing) > 0 {
		s.log.Warn("baseline runtime files not found; pass --static-dir with a directory holding them",
			"missing", missing, "static_dir", opts.StaticDir)
	}
	return s, nil
}

// missingStatic lists the baseline files the static tree cannot serve. The
// embedded tree ships only the rsm runtime; jQuery and Tooltipster come from
// --static-dir.
func (s *Server) missingStatic() []string {
	base := s.staticPath()
	r, err := assets.NewManifestResolver(base)
	if err != nil {
		return nil
	}
	entries, err := r.Resolve(assets.Baseline())
	if err != nil {
		return nil
	}
	var missing []string
	for _, e := range entries {
		name, ok := strings.CutPrefix(e.Content, base)
		if !ok || e.Kind == assets.KindInline {
			continue
		}
		if _, err := fs.Stat(s.static, name); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.log))

	r.Get("/", s.handleDocument)
	r.Get(VersionPath, s.handleVersion)
	r.Get(DiagnosticsPath, s.handleDiagnostics)

	staticPath := strings.TrimSuffix(s.staticPath(), "/")
	r.Get(staticPath+"/highlight.css", s.handleHighlightCSS)
	r.Handle(staticPath+"/*", http.StripPrefix(staticPath, http.FileServer(http.FS(s.static))))

	s.router = r
}

func (s *Server) staticPath() string {
	if s.opts.Config.StaticPath == "" {
		return rsm.DefaultStaticPath
	}
	return s.opts.Config.StaticPath
}

// Rebuild reads the source and builds it. On failure the previous document
// stays served and the error is kept for the diagnostics page.
func (s *Server) Rebuild(ctx context.Context) error {
	text, err := os.ReadFile(s.opts.Source)
	if err != nil {
		s.fail(err)
		return fmt.Errorf("reading source: %w", err)
	}
	res, err := s.opts.Builder.Build(ctx, rsm.Source{Name: s.opts.Source, Text: string(text)}, s.opts.Config)
	if err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.version++
	s.doc = res.Document()
	s.diags = res.Diagnostics
	s.lastErr = nil
	close(s.changed)
	s.changed = make(chan struct{})
	version := s.version
	s.mu.Unlock()

	s.log.Info("rebuilt", "source", s.opts.Source, "version", version, "diagnostics", len(res.Diagnostics))
	return nil
}

func (s *Server) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.log.Error("build failed", "source", s.opts.Source, "error", err)
}

// Version returns the number of successful builds.
func (s *Server) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving", "addr", addr, "source", s.opts.Source)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc, version, lastErr := s.doc, s.version, s.lastErr
	s.mu.Unlock()

	if version == 0 {
		msg := "no successful build yet"
		if lastErr != nil {
			msg += ": " + lastErr.Error()
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
		return
	}

	page, err := InjectReload(doc, version)
	if err != nil {
		http.Error(w, "injecting reload script: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	since := -1
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "since must be an integer", http.StatusBadRequest)
			return
		}
		since = n
	}

	timer := time.NewTimer(s.opts.LongPoll)
	defer timer.Stop()
wait:
	for {
		s.mu.Lock()
		version, changed := s.version, s.changed
		s.mu.Unlock()
		if version != since {
			break
		}
		select {
		case <-changed:
		case <-timer.C:
			break wait
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(map[string]int{"version": s.Version()})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	diags, lastErr := s.diags, s.lastErr
	s.mu.Unlock()

	var sb strings.Builder
	if lastErr != nil {
		fmt.Fprintf(&sb, "%s: build failed: %v\n", s.opts.Source, lastErr)
	}
	for _, d := range diags {
		fmt.Fprintf(&sb, "%s:%s\n", s.opts.Source, d)
	}
	if sb.Len() == 0 {
		sb.WriteString("no diagnostics\n")
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(sb.String()))
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	css, err := render.HighlightCSS("")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(css))
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
