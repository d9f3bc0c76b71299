// Package httptransport assembles the HTTP server and its middleware chain.
package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/densign01/baby-tracker/internal/auth"
	"github.com/densign01/baby-tracker/internal/middleware"
)

// Paths served without a bearer token.
const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

// ServerConfig contains tunables for the HTTP server.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RouterConfig describes the middleware applied in front of the API routes.
type RouterConfig struct {
	Logger       zerolog.Logger
	CORSOrigins  []string
	Auth         auth.Config
	MaxBodyBytes int64
}

// NewRouter returns a chi router running RequestID, RealIP, request logging, panic recovery,
// CORS, the body limit and bearer authentication before the routes added by register.
// /healthz and /metrics bypass authentication.
func NewRouter(cfg RouterConfig, register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
	}
	r.Use(auth.NewMiddleware(cfg.Auth, auth.SkipPaths(HealthPath, MetricsPath)).Wrap)

	r.Method(http.MethodGet, MetricsPath, promhttp.Handler())
	register(r)
	return r
}

// NewServer creates *http.Server with provided handler.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
