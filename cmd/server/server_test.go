package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/config"
	"github.com/tendant/simple-cms/pkg/simplecms/store/memory"
)

func newTestRouter(t *testing.T, env string, auth AuthConfig) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := simplecms.New(simplecms.WithStore(memory.New()), simplecms.WithLogger(logger))
	require.NoError(t, err)
	router, err := NewRouter(svc, &config.ServerConfig{Environment: env}, auth, logger)
	require.NoError(t, err)
	return router
}

func serve(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, "testing", AuthConfig{})

	rr := serve(router, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestOpenAPIOutsideProduction(t *testing.T) {
	router := newTestRouter(t, "testing", AuthConfig{})

	rr := serve(router, http.MethodPost, "/api/v1/products/categories", `{"name":"Pumps"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = serve(router, http.MethodGet, "/api/v1/products/categories", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Pumps")
}

func TestProductionRequiresAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := simplecms.New(simplecms.WithStore(memory.New()))
	require.NoError(t, err)

	_, err = NewRouter(svc, &config.ServerConfig{Environment: "production"}, AuthConfig{}, logger)
	assert.Error(t, err)
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	router := newTestRouter(t, "production", AuthConfig{JWTSecret: secret})

	rr := serve(router, http.MethodGet, "/api/v1/parts", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	tokenAuth := jwtauth.New("HS256", []byte(secret), nil)
	_, token, err := tokenAuth.Encode(map[string]interface{}{"sub": "editor"})
	require.NoError(t, err)

	rr = serve(router, http.MethodGet, "/api/v1/parts", "", token)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Health checks stay public
	rr = serve(router, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, "testing", AuthConfig{EnableCORS: true})

	rr := serve(router, http.MethodOptions, "/api/v1/parts", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCheckStore(t *testing.T) {
	var pinged []string
	ping := func(databaseURL, schema string) error {
		pinged = append(pinged, databaseURL)
		if databaseURL == "postgres://down/cms" {
			return errors.New("connection refused")
		}
		return nil
	}

	require.NoError(t, checkStore(&config.ServerConfig{StoreType: config.StoreMemory}, ping))
	assert.Empty(t, pinged)

	require.NoError(t, checkStore(&config.ServerConfig{StoreType: config.StorePostgres, StoreURL: "postgres://up/cms"}, ping))
	err := checkStore(&config.ServerConfig{StoreType: config.StorePostgres, StoreURL: "postgres://down/cms"}, ping)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, []string{"postgres://up/cms", "postgres://down/cms"}, pinged)
}
