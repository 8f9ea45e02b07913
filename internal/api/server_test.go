// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/api"
	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/config"
	"github.com/taibuivan/storybook/internal/platform/migration"
	"github.com/taibuivan/storybook/internal/platform/sec"
	"github.com/taibuivan/storybook/internal/platform/sqlite"
)

type rejectingVerifier struct{}

func (rejectingVerifier) VerifyToken(string) (*sec.AuthClaims, error) {
	return nil, errors.New("no tokens in this test")
}

func newTestRouter(t *testing.T, checks []api.Check) (http.Handler, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath := filepath.Join(t.TempDir(), "storybook.db")
	require.NoError(t, migration.RunUp(migration.DialectSQLite, dbPath, logger))

	db, err := sqlite.Open(ctx, dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assetRoot := t.TempDir()
	assets, err := blob.NewLocalStore(assetRoot)
	require.NoError(t, err)

	service := storybook.NewService(storybook.NewSQLiteRepository(db), assets, nil, logger)
	liveness, status, readiness := api.NewHealthHandlers(checks, logger)

	cfg := &config.Config{Environment: "development", ServerPort: "0"}
	router := api.NewRouter(ctx, cfg, logger, rejectingVerifier{}, api.Handlers{
		Liveness:  liveness,
		Status:    status,
		Readiness: readiness,
		Editor:    storybook.NewHandler(service),
		Mobile:    storybook.NewMobileHandler(service),
		Languages: language.NewHandler(),
		Assets:    http.FileServer(http.Dir(assets.Root())),
	})

	return router, assetRoot
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	return recorder
}

/*
TestRouter_HealthCheck verifies the status probe returns ok with a UTC timestamp.
*/
func TestRouter_HealthCheck(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	recorder := get(t, router, "/health-check")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])

	stamp, err := time.Parse(time.RFC3339Nano, body["timestamp"])
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), stamp, time.Minute)
}

/*
TestRouter_Readiness verifies a failing dependency degrades the probe to 503.
*/
func TestRouter_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		probe      func(context.Context) error
		wantStatus int
		wantState  string
	}{
		{"All healthy", func(context.Context) error { return nil }, http.StatusOK, "ready"},
		{"Dependency down", func(context.Context) error { return errors.New("connection refused") }, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, []api.Check{{Name: "sqlite", Probe: tt.probe}})

			recorder := get(t, router, "/ready")
			assert.Equal(t, tt.wantStatus, recorder.Code)

			var envelope struct {
				Data struct {
					Status string `json:"status"`
					Checks []struct {
						Name string `json:"name"`
						OK   bool   `json:"ok"`
					} `json:"checks"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
			assert.Equal(t, tt.wantState, envelope.Data.Status)
			require.Len(t, envelope.Data.Checks, 1)
			assert.Equal(t, "sqlite", envelope.Data.Checks[0].Name)
		})
	}
}

/*
TestRouter_Mounts verifies the mobile, language, and asset routes are reachable.
*/
func TestRouter_Mounts(t *testing.T) {
	router, assetRoot := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, get(t, router, "/api/storybooks").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/api/languages").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/storybooks").Code)
	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/storybooks/0192f3c1-0000-7000-8000-000000000000").Code)

	coverDir := filepath.Join(assetRoot, "storybooks", "covers")
	require.NoError(t, os.MkdirAll(coverDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(coverDir, "crow.png"), []byte("png"), 0o644))

	recorder := get(t, router, "/storage/storybooks/covers/crow.png")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "png", recorder.Body.String())
}

/*
TestRouter_AuthenticationChain verifies a rejected token short-circuits with 401.
*/
func TestRouter_AuthenticationChain(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	request := httptest.NewRequest(http.MethodGet, "/storybooks", nil)
	request.Header.Set("Authorization", "Bearer anything")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
