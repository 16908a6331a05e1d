// Package httpapi exposes health, metrics and the deals query over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pauljones0/steam-deals-bot/internal/deals"
	"github.com/pauljones0/steam-deals-bot/internal/models"
)

const requestTimeout = 2 * time.Minute

type DealsGetter interface {
	Get(ctx context.Context, q models.Query) ([]models.Offer, error)
}

type Server struct {
	Router   chi.Router
	service  DealsGetter
	defaults deals.QueryDefaults
	log      zerolog.Logger
}

// NewServer builds the router. gatherer backs /metrics.
func NewServer(service DealsGetter, defaults deals.QueryDefaults, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	s := &Server{service: service, defaults: defaults, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/deals", s.handleDeals)

	s.Router = r
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeals serves GET /deals?limit=N. A fetch failure is 502; an empty
// result is 200 with [].
func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	offers, err := s.service.Get(r.Context(), s.defaults.Query(limit))
	if err != nil {
		s.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("Fetch deals failed")
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, map[string]string{"error": "fetch failed"})
		return
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	writeJSON(w, http.StatusOK, offers)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
