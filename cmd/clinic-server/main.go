package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/notification"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/middleware"
	"github.com/clinic/clinic/internal/platform/scheduler"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic appointment API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the reminder and past-due sweeps once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			app := buildServices(cfg, logger)
			runner := scheduler.NewRunner(cfg.SweepInterval, logger, app.sweepTasks()...)
			runner.RunOnce(context.Background())
			fmt.Println("Sweep completed.")
			return nil
		},
	}
}

// services holds the wired domain layer shared by serve and sweep.
type services struct {
	notificationSvc *notification.Service
	identitySvc     *identity.Service
	schedulingSvc   *scheduling.Service
}

func buildServices(cfg *config.Config, logger zerolog.Logger) *services {
	notifRepo := notification.NewJSONRepository(filepath.Join(cfg.DataDir, "notifications.json"))
	userRepo := identity.NewJSONRepository(filepath.Join(cfg.DataDir, "users.json"))
	apptRepo := scheduling.NewJSONRepository(filepath.Join(cfg.DataDir, "appointments.json"))

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	notificationSvc := notification.NewService(notifRepo, logger)
	identitySvc := identity.NewService(userRepo, tokens, notificationSvc, logger)
	schedulingSvc := scheduling.NewService(apptRepo, notificationSvc, identitySvc, logger)

	return &services{
		notificationSvc: notificationSvc,
		identitySvc:     identitySvc,
		schedulingSvc:   schedulingSvc,
	}
}

func (s *services) sweepTasks() []scheduler.Task {
	return []scheduler.Task{
		{
			Name: "past-due-appointments",
			Run: func(ctx context.Context) error {
				_, err := s.schedulingSvc.UpdatePastDueStatuses()
				return err
			},
		},
		{
			Name: "reminder-sweep",
			Run: func(ctx context.Context) error {
				_, err := s.notificationSvc.ProcessDueReminders()
				return err
			},
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("running in development mode, auth is bypassed")
	}

	app := buildServices(cfg, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API groups
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	public := e.Group("/api/v1")

	var authMW echo.MiddlewareFunc
	if cfg.IsDev() && cfg.JWTSecret == "" {
		authMW = auth.DevMiddleware("dev@clinic.local", identity.RolePatient)
	} else {
		authMW = auth.Middleware(tokens)
	}
	protected := e.Group("/api/v1", authMW)

	identityHandler := identity.NewHandler(app.identitySvc)
	identityHandler.RegisterPublic(public)
	identityHandler.RegisterProtected(protected)
	scheduling.NewHandler(app.schedulingSvc).Register(protected)
	notification.NewHandler(app.notificationSvc).Register(protected)

	// Background sweeps
	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	runner := scheduler.NewRunner(cfg.SweepInterval, logger, app.sweepTasks()...)
	go runner.Start(sweepCtx)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopSweeps()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
