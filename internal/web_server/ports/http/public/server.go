package public

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/langowen/metals/deploy/config"
	"github.com/langowen/metals/internal/dashboard"
	"github.com/langowen/metals/internal/entities"
	mwLogger "github.com/langowen/metals/internal/web_server/ports/http/public/middleware/logger"
	"github.com/langowen/metals/internal/web_server/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type Server struct {
	Server  *http.Server
	cfg     *config.Config
	service Service
}

func NewServer(server *http.Server, cfg *config.Config, service Service) *Server {
	return &Server{
		Server:  server,
		cfg:     cfg,
		service: service,
	}
}

func StartServer(ctx context.Context, service Service, cfg *config.Config) <-chan struct{} {
	serverConfig := &http.Server{
		Addr:         ":" + cfg.HTTPServer.Port,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	server := NewServer(serverConfig, cfg, service)
	serverConfig.Handler = server.Router()

	doneChan := make(chan struct{})

	go func() {
		if err := server.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to stop server", "error", err)
		}

		close(doneChan)
	}()

	return doneChan
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New())
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.Health)

	r.Get("/", s.Index)
	r.Route("/api", func(r chi.Router) {
		r.Get("/rates", s.GetRates)
		r.Get("/table", s.GetTable)
		r.Get("/chart", s.GetChart)
		r.Get("/chart.png", s.GetChartPNG)
	})

	return r
}

type indexData struct {
	Page       *service.Page
	TableJSON  template.JS
	ChartJSON  template.JS
	MetalsJSON template.JS
}

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.NewPage()
	if err != nil {
		slog.Error("Failed to build page", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to build page")
		return
	}

	data := indexData{Page: page}
	for dst, v := range map[*template.JS]any{
		&data.TableJSON:  page.Table,
		&data.ChartJSON:  page.Chart,
		&data.MetalsJSON: page.Metals,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			slog.Error("Failed to encode page data", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "failed to build page")
			return
		}
		*dst = template.JS(raw)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		slog.Error("Failed to render page", "error", err)
	}
}

func (s *Server) GetRates(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.service.Rates())
}

func (s *Server) GetTable(w http.ResponseWriter, r *http.Request) {
	table, err := s.service.Table()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, table)
}

func (s *Server) GetChart(w http.ResponseWriter, r *http.Request) {
	chart, err := s.service.Chart(r.URL.Query().Get("session"), filterInput(r))
	if err != nil {
		respondChartError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, chart)
}

func (s *Server) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	img, err := s.service.ChartPNG(r.URL.Query().Get("session"), filterInput(r))
	if err != nil {
		respondChartError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		slog.Error("Failed to write image", "error", err)
	}
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	health, err := s.service.Health(r.Context())
	if err != nil {
		slog.Error("Health check failed", "error", err)
		RespondWithError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	RespondWithJSON(w, http.StatusOK, health)
}

func filterInput(r *http.Request) dashboard.FilterInput {
	q := r.URL.Query()
	return dashboard.FilterInput{
		Metal: q.Get("metal"),
		From:  q.Get("from"),
		To:    q.Get("to"),
	}
}

func respondChartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrUnknownMetal):
		RespondWithError(w, http.StatusBadRequest, "unknown metal", err.Error())
		return
	case errors.Is(err, entities.ErrSessionNotFound):
		RespondWithError(w, http.StatusNotFound, "page session expired, reload the page")
		return
	}

	slog.Error("Failed to build chart", "error", err)
	RespondWithError(w, http.StatusInternalServerError, "failed to build chart")
}

func RespondWithJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func RespondWithError(w http.ResponseWriter, code int, message string, details ...string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)

	errorText := message
	if len(details) > 0 {
		errorText += "\nDetails: " + details[0]
	}

	if _, err := w.Write([]byte(errorText)); err != nil {
		slog.Error("Failed to write error response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
