package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/interaction"
	"github.com/couchcryptid/precip-chart/internal/observability"
	"github.com/couchcryptid/precip-chart/internal/render"
	"github.com/couchcryptid/precip-chart/internal/zoom"
)

// Chart is the view state the server drives. It is implemented by *chart.Controller.
type Chart interface {
	Frame(highlight string) (render.Frame, uint64)
	Version() uint64
	View() domain.ViewState
	SelectVariable(ctx context.Context, f domain.Field) error
	Brush(ctx context.Context, sel *zoom.Selection) zoom.Outcome
	Tooltip(x, y, pageX, pageY float64) interaction.Tooltip
}

// Server exposes the chart page, chart renders, interaction endpoints,
// and health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *observability.Metrics
	cache      *renderCache

	mu    sync.RWMutex
	chart Chart
}

// NewServer creates an HTTP server. Chart routes answer 503 until SetChart is called.
func NewServer(addr string, ready sharedobs.ReadinessChecker, metrics *observability.Metrics, cacheSize int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		metrics: metrics,
		cache:   newRenderCache(cacheSize),
	}

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /chart.svg", s.withChart(s.handleSVG))
	mux.HandleFunc("GET /chart.png", s.withChart(s.handlePNG))
	mux.HandleFunc("POST /variable", s.withChart(s.handleVariable))
	mux.HandleFunc("POST /brush", s.withChart(s.handleBrush))
	mux.HandleFunc("GET /tooltip", s.withChart(s.handleTooltip))
	mux.HandleFunc("GET /api/view", s.withChart(s.handleView))

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// SetChart makes the chart routes available.
func (s *Server) SetChart(c Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chart = c
}

func (s *Server) currentChart() Chart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chart
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type chartHandler func(w http.ResponseWriter, r *http.Request, c Chart)

func (s *Server) withChart(h chartHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.currentChart()
		if c == nil {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  "chart data is still loading",
			})
			return
		}
		h(w, r, c)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	data := pageData{Fields: domain.Fields, Selected: domain.ActualPrecipitation}
	if c := s.currentChart(); c != nil {
		data.Ready = true
		data.Selected = c.View().Variable
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request, c Chart) {
	s.serveRender(w, r, c, "svg", "image/svg+xml", render.WriteSVG)
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request, c Chart) {
	s.serveRender(w, r, c, "png", "image/png", render.WritePNG)
}

func (s *Server) serveRender(w http.ResponseWriter, r *http.Request, c Chart, format, contentType string, write func(io.Writer, render.Frame) error) {
	highlight := r.URL.Query().Get("highlight")
	key := fmt.Sprintf("%s|%d|%s", format, c.Version(), highlight)

	if body, ok := s.cache.get(key); ok {
		s.metrics.RenderRequests.WithLabelValues(format, "hit").Inc()
		writeBody(w, contentType, body)
		return
	}
	s.metrics.RenderRequests.WithLabelValues(format, "miss").Inc()

	start := time.Now()
	frame, version := c.Frame(highlight)
	var buf bytes.Buffer
	if err := write(&buf, frame); err != nil {
		s.logger.Warn("render failed", "format", format, "variable", frame.Variable, "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.metrics.RenderDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())

	if frame.Transition == 0 {
		s.cache.put(fmt.Sprintf("%s|%d|%s", format, version, highlight), buf.Bytes())
	}
	writeBody(w, contentType, buf.Bytes())
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

func (s *Server) handleVariable(w http.ResponseWriter, r *http.Request, c Chart) {
	f, err := domain.ParseField(r.FormValue("variable"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := c.SelectVariable(r.Context(), f); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type brushResponse struct {
	Outcome string           `json:"outcome"`
	View    domain.ViewState `json:"view"`
	Version uint64           `json:"version"`
}

func (s *Server) handleBrush(w http.ResponseWriter, r *http.Request, c Chart) {
	sel, err := parseSelection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	outcome := c.Brush(r.Context(), sel)
	sharedobs.WriteJSON(w, http.StatusOK, brushResponse{
		Outcome: outcome.String(),
		View:    c.View(),
		Version: c.Version(),
	})
}

// parseSelection reads x0 and x1. Both absent is an empty selection.
func parseSelection(r *http.Request) (*zoom.Selection, error) {
	x0s, x1s := r.FormValue("x0"), r.FormValue("x1")
	if x0s == "" && x1s == "" {
		return nil, nil
	}
	if x0s == "" || x1s == "" {
		return nil, errors.New("x0 and x1 must be given together")
	}
	x0, err := parseCoord("x0", x0s)
	if err != nil {
		return nil, err
	}
	x1, err := parseCoord("x1", x1s)
	if err != nil {
		return nil, err
	}
	return &zoom.Selection{X0: x0, X1: x1}, nil
}

func parseCoord(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: %q is not a finite number", name, s)
	}
	return v, nil
}

func (s *Server) handleTooltip(w http.ResponseWriter, r *http.Request, c Chart) {
	q := r.URL.Query()
	var coords [4]float64
	for i, name := range []string{"x", "y", "pageX", "pageY"} {
		v, err := parseCoord(name, q.Get(name))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		coords[i] = v
	}

	tip := c.Tooltip(coords[0], coords[1], coords[2], coords[3])
	var buf bytes.Buffer
	if err := tooltip.Execute(&buf, tip); err != nil {
		s.logger.Error("render tooltip failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

type viewResponse struct {
	View    domain.ViewState `json:"view"`
	Version uint64           `json:"version"`
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request, c Chart) {
	sharedobs.WriteJSON(w, http.StatusOK, viewResponse{View: c.View(), Version: c.Version()})
}
