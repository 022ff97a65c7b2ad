package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-erp-agent/internal/ai"
	"go-erp-agent/internal/auth"
	"go-erp-agent/internal/config"
	"go-erp-agent/internal/handlers"
	"go-erp-agent/internal/logger"
	"go-erp-agent/internal/metrics"
	"go-erp-agent/internal/middleware"
	"go-erp-agent/internal/seed"
	"go-erp-agent/internal/services"
	"go-erp-agent/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Set with -ldflags "-X main.Version=... -X main.BuildTime=...".
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	resetSeed bool

	rootCmd = &cobra.Command{
		Use:   "erp",
		Short: "Role-based ERP server",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				log.Println("Warning: No .env file found")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Write the demo data into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), resetSeed)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the server",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("erp version %s (built %s)\n", Version, BuildTime)
		},
	}
)

func init() {
	seedCmd.Flags().BoolVar(&resetSeed, "reset", false, "overwrite existing collections with the demo data")
	rootCmd.AddCommand(serveCmd, seedCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads the config and opens the logger and store shared by every command.
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	s, err := store.New(ctx, cfg, zapLogger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, zapLogger, s, nil
}

func runSeed(ctx context.Context, reset bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, zapLogger, s, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()
	defer s.Close()

	cols, err := demoCollections()
	if err != nil {
		return err
	}
	if reset {
		if err := store.Reset(ctx, s, cols); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
		zapLogger.Info("store reset to demo data")
		return nil
	}
	written, err := store.Initialize(ctx, s, cols)
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	zapLogger.Info("store seeded", zap.Int("collections", len(written)))
	return nil
}

func demoCollections() (map[store.Key][]byte, error) {
	data, err := seed.Default(bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("build demo data: %w", err)
	}
	return data.Collections()
}

func serve() error {
	ctx := context.Background()
	cfg, zapLogger, s, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()
	defer s.Close()

	if cfg.Store.Seed {
		cols, err := demoCollections()
		if err != nil {
			return err
		}
		written, err := store.Initialize(ctx, s, cols)
		if err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		if len(written) > 0 {
			zapLogger.Info("seeded empty collections", zap.Int("collections", len(written)))
		}
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	if gs, ok := s.(*store.GormStore); ok {
		go purgeSessions(purgeCtx, gs, zapLogger)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	sessions := auth.NewManager(s, cfg.Auth, zapLogger, auth.WithMetrics(m))
	svc := services.NewServices(s, zapLogger,
		services.WithMetrics(m),
		services.WithStrictTransitions(cfg.Orders.StrictTransitions))
	agent := ai.NewAgent(svc, cfg.AI, zapLogger, m)
	if !agent.Enabled() {
		zapLogger.Warn("GEMINI_API_KEY not set, assistant disabled")
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("erp"))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(zapLogger))
	r.Use(m.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")

	h := handlers.NewHandlers(svc, sessions, agent, cfg, zapLogger, handlers.BuildInfo{Version: Version, BuildTime: BuildTime})
	handlers.RegisterRoutes(r, h, sessions, m, cfg.Auth.UnauthorizedRedirectDelay)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("base_url", cfg.Server.BaseURL), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	zapLogger.Info("Server exited")
	return nil
}

// purgeSessions deletes expired session rows every hour. Redis and the memory
// store expire sessions on their own.
func purgeSessions(ctx context.Context, s *store.GormStore, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeSessions(ctx)
			if err != nil {
				log.Warn("purge sessions failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
