// Package server provides the HTTP server and routing for the portfolio
// ledger service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	holdingshandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/holdings/handlers"
	ledgerhandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/ledger/handlers"
	performancehandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/performance/handlers"
	portfoliohandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/portfolio/handlers"
	rebalancinghandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/rebalancing/handlers"
	valuationhandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/valuation/handlers"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	DB      *database.DB
	Port    int
	DevMode bool

	PortfolioHandler   *portfoliohandlers.Handler
	LedgerHandler      *ledgerhandlers.Handler
	HoldingsHandler    *holdingshandlers.Handler
	ValuationHandler   *valuationhandlers.Handler
	RebalancingHandler *rebalancinghandlers.Handler
	PerformanceHandler *performancehandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	system *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		system: NewSystemHandlers(cfg.DB, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.system.HandleLiveness)

	s.router.Route("/api", func(r chi.Router) {
		cfg.PortfolioHandler.RegisterRoutes(r)
		cfg.LedgerHandler.RegisterRoutes(r)
		cfg.HoldingsHandler.RegisterRoutes(r)
		cfg.ValuationHandler.RegisterRoutes(r)
		cfg.RebalancingHandler.RegisterRoutes(r)
		cfg.PerformanceHandler.RegisterRoutes(r)

		r.Get("/system/health", s.system.HandleSystemHealth)
	})
}

// Start begins listening for requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs each request with method, path, status and duration
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
