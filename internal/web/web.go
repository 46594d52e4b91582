// Package web serves the dashboard: the rendered HTML page, the ICS
// export, Prometheus metrics, the PNG preview and a health probe.
package web

import (
	"context"
	"crypto/subtle"
	_ "embed"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/stern1978/calendar/internal/agenda"
	"github.com/stern1978/calendar/internal/config"
	"github.com/stern1978/calendar/internal/export"
	appLog "github.com/stern1978/calendar/internal/log"
	"github.com/stern1978/calendar/internal/metrics"
	"github.com/stern1978/calendar/internal/model"
)

//go:embed template.html
var pageHTML string

var pageTemplate = template.Must(template.New("dashboard").Parse(pageHTML))

// CalendarLister resolves the ordered list of calendar ids to assemble.
type CalendarLister interface {
	ListCalendarIDs(ctx context.Context) ([]string, error)
}

// Server handles all HTTP endpoints of the dashboard.
type Server struct {
	cfg       *config.Config
	lister    CalendarLister
	assembler *agenda.Assembler
	mux       *http.ServeMux

	// One full assembly per cacheTTL at most; requests in between reuse
	// the last result.
	cacheMu sync.RWMutex
	cache   *resultCache
}

const cacheTTL = 30 * time.Second

type resultCache struct {
	result    agenda.Result
	updatedAt time.Time
}

// pageData is what template.html renders.
type pageData struct {
	Today string
	Rows  []model.Row
}

// NewServer constructs a Server around the given provider collaborators.
func NewServer(cfg *config.Config, lister CalendarLister, assembler *agenda.Assembler) *Server {
	s := &Server{
		cfg:       cfg,
		lister:    lister,
		assembler: assembler,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.Handle("/metrics", metrics.Handler())
	return s
}

// Handler returns the root handler, wrapped in Basic Auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware guards every endpoint except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Calendar", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Refresh runs a full assembly pass right now and stores the result. The
// background cron uses this to keep the cache warm and purge stale events
// even when nobody loads the page.
func (s *Server) Refresh(ctx context.Context) (agenda.Result, error) {
	ids, err := s.lister.ListCalendarIDs(ctx)
	if err != nil {
		return agenda.Result{}, err
	}
	res := s.assembler.Assemble(ctx, ids, time.Now())

	s.cacheMu.Lock()
	s.cache = &resultCache{result: res, updatedAt: time.Now()}
	s.cacheMu.Unlock()
	return res, nil
}

// result returns the cached assembly if fresh, refreshing otherwise.
func (s *Server) result(ctx context.Context) (agenda.Result, error) {
	s.cacheMu.RLock()
	c := s.cache
	s.cacheMu.RUnlock()
	if c != nil && time.Since(c.updatedAt) < cacheTTL {
		return c.result, nil
	}
	return s.Refresh(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	res, err := s.result(r.Context())
	if err != nil {
		appLog.Error("assemble for dashboard failed", err)
		http.Error(w, "failed to load calendars", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Today: time.Now().In(s.cfg.Location()).Format("Mon, Jan 02"),
		Rows:  res.Rows,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		appLog.Error("render dashboard failed", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	res, err := s.result(r.Context())
	if err != nil {
		appLog.Error("assemble for ICS export failed", err)
		http.Error(w, "failed to load calendars", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(export.Feed(res.Events)))
}

// handlePreview serves the last captured dashboard snapshot; the cron job
// writes it via internal/capture.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Preview.Path)
}
