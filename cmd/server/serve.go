package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/equipment-visualizer/backend/internal/api"
	"github.com/equipment-visualizer/backend/internal/config"
	"github.com/equipment-visualizer/backend/internal/dataset"
	"github.com/equipment-visualizer/backend/internal/logging"
	"github.com/equipment-visualizer/backend/internal/metrics"
	"github.com/equipment-visualizer/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Advanced.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	repo, err := storage.NewDuckRepository(cfg.Storage.DatabasePath, storage.DuckOptions{
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
		Threads:     cfg.Advanced.DuckDBThreads,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer repo.Close()

	m := metrics.New()
	svc := dataset.NewService(repo, blobs, newRenderer(cfg), cfg.Retention, m, logger)
	e := newEcho(cfg, svc, m, logger)

	// Configure server with settings from config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newBlobStore picks the raw file and report backend
func newBlobStore(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "minio":
		mc := cfg.Storage.Minio
		return storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  mc.Endpoint,
			AccessKey: mc.AccessKey,
			SecretKey: mc.SecretKey,
			Bucket:    mc.Bucket,
			UseSSL:    mc.UseSSL,
			Prefix:    mc.Prefix,
		}, logger)
	default:
		return storage.NewLocalStore(cfg.Storage.BlobDirectory)
	}
}

// newEcho builds the HTTP stack: middleware first, then routes
func newEcho(cfg *config.AppConfig, svc api.DatasetService, m *metrics.Metrics, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.ErrorHandler

	if cfg.Advanced.EnableRequestLogging {
		e.Use(api.RequestLogger(logger))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			// Uploads are bounded by the body limit and server read timeout
			return c.Request().Method == http.MethodPost
		},
		ErrorMessage: "Request timeout - report took too long",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			// PDFs and PNGs are already compressed
			return strings.Contains(c.Path(), "/report") || strings.Contains(c.Path(), "/charts/")
		},
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, cfg.Security.OwnerHeader},
			ExposeHeaders: []string{echo.HeaderContentDisposition},
		}))
	}

	if cfg.Security.RequireAuth {
		e.Use(api.AuthMiddleware(cfg.Security.AuthToken))
	}
	e.Use(api.OwnerMiddleware(cfg.Security.OwnerHeader))

	opts := api.RouteOptions{AllowDeletion: cfg.Security.AllowDatasetDeletion}
	if cfg.Advanced.EnableMetrics {
		e.Use(api.RequestMetrics(m))
		opts.Metrics = m.Handler()
	}

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{Service: svc, Version: Version}), opts)
	return e
}

func printBanner(cfg *config.AppConfig, configPath string) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Chemical Equipment Visualizer Server            ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Storage:    %-45s║\n", cfg.Storage.Backend)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Database:  %-46s║\n", cfg.Storage.DatabasePath)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
