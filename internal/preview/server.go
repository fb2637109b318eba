// Package preview serves one site straight from the database for template
// work: pages render on every request and a filesystem watcher drops the
// template cache when the template directory changes, so a reload shows the
// edit without rebuilding a release.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
	"github.com/free-plinko-game/aff-web-gen/internal/nav"
	"github.com/free-plinko-game/aff-web-gen/internal/render"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

const debounceWindow = 300 * time.Millisecond

// Server previews a single site over HTTP.
type Server struct {
	store    *store.Store
	renderer *render.Renderer
	siteID   int64
	logger   *slog.Logger
}

// NewServer creates a preview server for one site.
func NewServer(st *store.Store, r *render.Renderer, siteID int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, renderer: r, siteID: siteID, logger: logger}
}

// Handler routes static assets to their source directories and everything
// else to the page renderer. Logos resolve against the uploads directory
// because a preview has no release directory to copy them into.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/assets/logos/", http.StripPrefix("/assets/logos/",
		http.FileServer(http.Dir(filepath.Join(s.renderer.UploadsDir, "logos")))))
	mux.Handle("/assets/", http.StripPrefix("/assets/",
		http.FileServer(http.Dir(s.renderer.AssetsDir))))
	mux.HandleFunc("/", s.handlePage)
	return mux
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.LoadSiteGraph(r.Context(), s.siteID)
	if err != nil {
		s.logger.Error("loading site for preview failed", logfields.SiteID(s.siteID), logfields.Error(err))
		http.Error(w, "site unavailable", http.StatusInternalServerError)
		return
	}

	page, ok := matchPage(g.Pages, r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	html, err := s.renderer.RenderPageHTML(g, page)
	if err != nil {
		s.logger.Error("preview render failed", logfields.Page(page.Slug), logfields.Error(err))
		http.Error(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(html)
}

// matchPage resolves a request path to a page by its canonical URL.
func matchPage(pages []store.PageView, path string) (store.PageView, bool) {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	for _, p := range pages {
		if nav.URLFor(p) == path {
			return p, true
		}
	}
	return store.PageView{}, false
}

// Run serves until the context is canceled, watching the template directory
// the whole time.
func (s *Server) Run(ctx context.Context, addr string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(s.renderer.TemplateDir); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("preview server listening", "addr", addr, logfields.SiteID(s.siteID))

	go s.watchLoop(ctx, watcher)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// watchLoop invalidates the template cache after a quiet period, so an
// editor save burst costs one reload, not many.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var mu sync.Mutex
	var timer *time.Timer
	trigger := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceWindow, func() {
			s.renderer.InvalidateTemplates()
			s.logger.Info("templates reloaded", "path", name)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ignoreEvent(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			trigger(ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("template watcher error", logfields.Error(err))
		}
	}
}

// ignoreEvent filters editor droppings that would churn the cache.
func ignoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx")
}
