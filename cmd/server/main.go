package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/api"
	"github.com/tendant/simple-cms/pkg/simplecms/config"
	"github.com/tendant/simple-cms/pkg/simplecms/logging"
)

// AuthConfig selects how /api/v1 is protected. With neither value set the API
// is open, which is only allowed outside production.
type AuthConfig struct {
	ApiKeySHA256 string `env:"API_KEY_SHA256"`
	JWTSecret    string `env:"JWT_SECRET"`
	EnableCORS   bool   `env:"ENABLE_CORS" env-default:"false"`
}

func main() {
	var authConfig AuthConfig
	if err := cleanenv.ReadEnv(&authConfig); err != nil {
		slog.Error("Failed to read auth configuration", "err", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	logger := logging.New(serverConfig.LogLevel, serverConfig.LogFormat)
	slog.SetDefault(logger)

	if err := checkStore(serverConfig, config.PingPostgres); err != nil {
		logger.Error("Store is not reachable", "store", serverConfig.StoreType, "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, err := serverConfig.BuildService(ctx, logger)
	if err != nil {
		logger.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	router, err := NewRouter(svc, serverConfig, authConfig, logger)
	if err != nil {
		logger.Error("Failed to set up routes", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Simple CMS server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"store", serverConfig.StoreType)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}

// checkStore fails fast when the configured database cannot be reached.
func checkStore(serverConfig *config.ServerConfig, pingPostgres func(databaseURL, schema string) error) error {
	if serverConfig.StoreType != config.StorePostgres {
		return nil
	}
	// The schema may not exist yet; BuildStore creates it.
	if err := pingPostgres(serverConfig.StoreURL, ""); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

// NewRouter wires the admin API, health checks and the auth middleware.
func NewRouter(svc simplecms.Service, serverConfig *config.ServerConfig, authConfig AuthConfig, logger *slog.Logger) (http.Handler, error) {
	auth, err := authMiddleware(authConfig, serverConfig.Environment)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(api.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	if authConfig.EnableCORS || serverConfig.Environment == "development" {
		r.Use(cors)
	}

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)

	handler := api.NewHandler(svc, logger)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth...)
		r.Mount("/", handler.Routes())
	})
	return r, nil
}

func authMiddleware(cfg AuthConfig, environment string) ([]func(http.Handler) http.Handler, error) {
	switch {
	case cfg.JWTSecret != "":
		tokenAuth := jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)
		return []func(http.Handler) http.Handler{
			jwtauth.Verifier(tokenAuth),
			jwtauth.Authenticator,
		}, nil
	case cfg.ApiKeySHA256 != "":
		apiKey, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"admin": cfg.ApiKeySHA256,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize API key middleware: %w", err)
		}
		return []func(http.Handler) http.Handler{apiKey}, nil
	case environment == "production":
		return nil, errors.New("API_KEY_SHA256 or JWT_SECRET is required in production")
	}
	return nil, nil
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
