package web

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"handyman/internal/editor"
	"handyman/internal/model"
	"handyman/internal/schema"
	"handyman/internal/store"
	"handyman/internal/tree"
)

//go:embed templates/*.html static/*.js static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Addr    string
	Store   *store.Store
	Schemas schema.Provider
	Logger  *slog.Logger

	// ReadOnly serves the catalog but rejects saves.
	ReadOnly bool

	// MaxSessions caps the number of live browser sessions; the least
	// recently used one is dropped first.
	MaxSessions int
}

type Server struct {
	cfg     ServerConfig
	tmpl    *template.Template
	store   *store.Store
	schemas schema.Provider
	logger  *slog.Logger

	sessions *sessionRegistry
	hub      *resourceHub
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Store == nil {
		return nil, errors.New("web: catalog store is nil")
	}
	if cfg.Schemas == nil {
		cfg.Schemas = schema.Defaults()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 64
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		tmpl:     tmpl,
		store:    cfg.Store,
		schemas:  cfg.Schemas,
		logger:   cfg.Logger,
		sessions: newSessionRegistry(cfg.MaxSessions),
		hub:      newResourceHub(),
	}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /static/app.js", s.handleAppJS)
	mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.imageDir()))))
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /events", s.handleEvents)

	mux.HandleFunc("GET /load", s.handleLoad)
	mux.HandleFunc("POST /save", s.handleSave)
	mux.HandleFunc("GET /schemas/{type}", s.handleSchema)

	mux.HandleFunc("GET /session/state", s.handleSessionState)
	mux.HandleFunc("GET /session/ws", s.handleWS)
	mux.HandleFunc("POST /session/open/{ref}", s.handleOpen)
	mux.HandleFunc("POST /session/input", s.handleInput)
	mux.HandleFunc("POST /session/home", s.handleDropHome)
	mux.HandleFunc("POST /session/toolbar", s.handleDropToolbar)
	mux.HandleFunc("POST /session/surface", s.handleDropSurface)
	mux.HandleFunc("POST /session/add-offering", s.handleAddOffering)
	mux.HandleFunc("POST /session/add-submenu", s.handleAddSubmenu)
	mux.HandleFunc("POST /session/save", s.handleSaveAll)
	mux.HandleFunc("POST /session/revert", s.handleRevertAll)
	return noStore(s.logRequests(mux))
}

// noStore disables caching on every response; the page and /load must
// always reflect the file on disk.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the websocket upgrade through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) handleAppJS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.js")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// imageDir holds offering images, next to the catalog file.
func (s *Server) imageDir() string {
	return filepath.Join(filepath.Dir(s.store.Path), "images")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// newEditorSession loads the catalog from disk and starts a fresh session
// over it. This is the page's "load" step.
func (s *Server) newEditorSession(ctx context.Context) (*editor.Session, error) {
	cat, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	t, err := tree.Build(cat, s.schemas)
	if err != nil {
		return nil, err
	}
	return editor.New(t, s.schemas, s.persister(), editor.Options{
		Observer: editor.NewLogObserver(s.logger),
	}), nil
}

// persister writes through the store and tells other pages the catalog moved.
func (s *Server) persister() editor.Persister {
	return editor.PersisterFunc(func(ctx context.Context, b model.Batch) error {
		if s.cfg.ReadOnly {
			return errReadOnly
		}
		if err := s.store.Save(ctx, b); err != nil {
			return err
		}
		s.hub.broadcast()
		return nil
	})
}

var errReadOnly = errors.New("server is read-only")

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

type resourceHub struct {
	mu      sync.Mutex
	subs    map[chan struct{}]struct{}
	version int
}

func newResourceHub() *resourceHub {
	return &resourceHub{subs: map[chan struct{}]struct{}{}}
}

func (h *resourceHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *resourceHub) broadcast() {
	h.mu.Lock()
	h.version++
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *resourceHub) currentVersion() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}
