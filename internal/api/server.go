// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api assembles the HTTP surface of the storybook service.

It owns the middleware chain, the probe endpoints, and the mount points of the
editor routes, the mobile reader routes, and locally stored assets. Domain
packages only expose chi sub-routers; this package decides where they live.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/config"
	"github.com/taibuivan/storybook/internal/platform/constants"
	"github.com/taibuivan/storybook/internal/platform/middleware"
)

// # Server Definitions

// Server is the configured [http.Server] plus the router it dispatches to.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers is everything the router mounts.
type Handlers struct {
	// Liveness is the /health handler and always returns 200 while the process is alive.
	Liveness http.HandlerFunc

	// Status is the /health-check handler reporting status and server time.
	Status http.HandlerFunc

	// Readiness is the /ready handler and returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Editor manages storybooks and pages.
	Editor *storybook.Handler

	// Mobile is the read-only reader API.
	Mobile *storybook.MobileHandler

	// Languages lists the supported content languages.
	Languages *language.Handler

	// Assets serves stored files under /storage. Nil when assets live in a bucket.
	Assets http.Handler
}

// # Server Initialization

// NewServer binds the router from [NewRouter] to the configured port with
// the standard read, write and idle timeouts.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	router := NewRouter(context, cfg, log, verifier, h)

	return &Server{
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// NewRouter builds the routing tree without a listener.
//
// The context stops the background janitor of the rate limiter.
func NewRouter(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.Trace(constants.AppName))
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.Authenticate(verifier))
	r.Use(chimw.CleanPath)

	// # Probes
	r.Get("/health", h.Liveness)
	r.Get("/health-check", h.Status)
	r.Get("/ready", h.Readiness)

	// # Editor Surface
	r.Group(func(editor chi.Router) {
		editor.Use(chimw.RequestSize(constants.MaxUploadBodyBytes))
		editor.Mount("/storybooks", h.Editor.Routes())
	})

	// # Mobile API
	r.Route("/api", func(api chi.Router) {
		api.Mount("/storybooks", h.Mobile.Routes())
		api.Mount("/languages", h.Languages.Routes())
	})

	// # Stored Assets
	if h.Assets != nil {
		r.Handle("/storage/*", http.StripPrefix("/storage/", h.Assets))
	}

	return r
}

// # Server Lifecycle

// ListenAndServe blocks serving requests. It returns [http.ErrServerClosed]
// after [Server.Shutdown].
func (server *Server) ListenAndServe() error {
	server.log.Info("server_listening", slog.String("addr", server.httpServer.Addr))
	return server.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests to finish.
func (server *Server) Shutdown(timeout time.Duration) error {
	drain, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.httpServer.Shutdown(drain)
}
