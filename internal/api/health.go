// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/storybook/internal/platform/constants"
	"github.com/taibuivan/storybook/internal/platform/respond"
)

// readinessTimeout bounds all dependency checks of one /ready call.
const readinessTimeout = 3 * time.Second

// timestampLayout renders ISO-8601 UTC with microseconds.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Check is a named dependency probe used by the /ready endpoint.
type Check struct {
	// Name labels the dependency in the response ("postgres", "sqlite", "redis").
	Name string

	// Probe returns nil when the dependency is usable.
	Probe func(context.Context) error
}

type healthHandler struct {
	checks []Check
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthHandlers creates the /health, /health-check, and /ready handlers.
func NewHealthHandlers(checks []Check, logger *slog.Logger) (liveness, status, readiness http.HandlerFunc) {
	handler := &healthHandler{checks: checks, logger: logger, now: time.Now}
	return handler.liveness, handler.status, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// status handles GET /health-check, the unauthenticated probe polled by the mobile app.
func (handler *healthHandler) status(writer http.ResponseWriter, request *http.Request) {
	respond.JSON(writer, http.StatusOK, map[string]string{
		constants.FieldStatus:    "ok",
		constants.FieldTimestamp: handler.now().UTC().Format(timestampLayout),
	})
}

// readiness handles GET /ready (Readiness probe).
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	ctx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
	defer cancel()

	results := make([]checkResult, 0, len(handler.checks))
	isSystemReady := true

	for _, check := range handler.checks {
		result := checkResult{Name: check.Name, IsOK: true}
		if err := check.Probe(ctx); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			handler.logger.ErrorContext(ctx, "readiness_check_failed", slog.String("dependency", check.Name), slog.Any("error", err))
		}
		results = append(results, result)
	}

	responseStatus := "ready"
	httpStatus := http.StatusOK
	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	}})
}
