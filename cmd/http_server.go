package cmd

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

	"github.com/frahmantamala/hospital-management/internal/auth"
	"github.com/frahmantamala/hospital-management/internal/permission"
	"github.com/frahmantamala/hospital-management/internal/role"
	"github.com/frahmantamala/hospital-management/internal/transport/rest"
	"github.com/frahmantamala/hospital-management/internal/transport/swagger"
	"github.com/frahmantamala/hospital-management/internal/user"
	"github.com/frahmantamala/hospital-management/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
)

var openAPIPath string

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	App         *Application
	Router      *chi.Mux
	Redis       *redis.Client
	Broadcaster *permission.RedisBroadcaster
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	cfg := deps.App.Config
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", cfg.App.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	if d.Broadcaster != nil {
		if err := d.Broadcaster.Close(); err != nil {
			d.Logger.Error("Broadcaster close error", "error", err)
		}
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.App.Bus.Drain(drainCtx); err != nil {
		d.Logger.Error("Event handlers still running at shutdown", "error", err)
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.App.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	app, err := newApplication(cfg, lg)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{App: app, Router: chi.NewRouter(), Logger: lg}

	health := map[string]rest.Pinger{"postgres": app.DB}

	if cfg.Cache.RedisEnabled {
		ctx := context.Background()
		client, err := permission.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.Redis = client

		broadcaster := permission.NewRedisBroadcaster(client, cfg.Cache.Channel, app.Cache, lg)
		if err := broadcaster.Start(ctx); err != nil {
			deps.close()
			return nil, fmt.Errorf("failed to start invalidation broadcast: %w", err)
		}
		deps.Broadcaster = broadcaster
		health["redis"] = rest.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	doc, err := swagger.Load(context.Background(), openAPIPath)
	if err != nil {
		deps.close()
		return nil, err
	}

	rest.RegisterAllRoutes(deps.Router, rest.Routes{
		Logger:         lg,
		Health:         rest.NewHealthHandler(health),
		Auth:           auth.NewHandler(lg, app.Auth),
		Authz:          app.Authz,
		Users:          user.NewHandler(lg, app.Users),
		Roles:          role.NewHandler(lg, app.Roles),
		Metrics:        app.Metrics,
		OpenAPI:        doc,
		MetricsPath:    cfg.Observability.Metrics.Path,
		BranchHeader:   cfg.Branch.Header,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ExposePanics:   !cfg.App.IsProduction(),
		RequestLogging: true,
	})

	return deps, nil
}

func init() {
	httpServerCmd.Flags().StringVar(&openAPIPath, "openapi", "api/openapi.yml", "OpenAPI document served at /openapi.yml")
}
