// Package main initializes and starts the AlphaBase API server, setting up
// configuration, logging, the database, repositories, services, the
// websocket hub and the HTTP router.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/alphabase/internal/auth"
	"github.com/atinyakov/alphabase/internal/config"
	"github.com/atinyakov/alphabase/internal/db"
	"github.com/atinyakov/alphabase/internal/logger"
	"github.com/atinyakov/alphabase/internal/mailer"
	"github.com/atinyakov/alphabase/internal/middleware"
	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/repository"
	"github.com/atinyakov/alphabase/internal/rules"
	"github.com/atinyakov/alphabase/internal/server/handler/http"
	"github.com/atinyakov/alphabase/internal/server/hub"
	"github.com/atinyakov/alphabase/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options, err := config.ParseServer(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	lg := logger.New()
	defer func() { _ = lg.Log.Sync() }()
	if err := lg.Init(options.LogLevel); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	zapLogger := lg.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	purger := db.NewRecipientPurger(postgresDB, options.RecipientRetention, zapLogger.Named("purger"))
	go purger.Run(ctx, time.Hour)

	tokens, err := auth.New(options.JWTSecret, options.TokenTTL)
	if err != nil {
		zapLogger.Fatal("cannot init token manager", zap.Error(err))
	}

	accessRules, err := rules.Load(options.RulesFile)
	if err != nil {
		zapLogger.Fatal("cannot load access rules", zap.Error(err))
	}

	events := hub.New(zapLogger.Named("hub"))
	go events.Run()

	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	settingsRepo := repository.NewPostgresSettingsRepository(postgresDB)
	dataRepo := repository.NewPostgresDataRepository(postgresDB)

	authService := service.NewAuthService(authRepo, tokens)
	settingsService := service.NewSettingsService(settingsRepo, events)
	notificationService := service.NewNotificationService(settingsRepo, mailer.New(zapLogger.Named("mailer")), events, zapLogger)
	dataService := service.NewDataService(dataRepo, accessRules, events)

	limiter := middleware.NewRateLimiter(20, time.Minute)
	limiter.StartCleanup(ctx, 5*time.Minute)

	router := http.NewRouter(http.Handlers{
		Auth:          &http.AuthHandler{AuthService: authService},
		Settings:      &http.SettingsHandler{SettingsService: settingsService},
		Notifications: &http.NotificationHandler{NotificationService: notificationService},
		System:        &http.SystemHandler{Realtime: events},
		Data:          &http.DataHandler{DataService: dataService},
	}, tokens, limiter, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		tlsOn := options.TLSCert != "" && options.TLSKey != ""
		zapLogger.Info("starting server", zap.String("addr", options.Port), zap.Bool("tls", tlsOn))
		if tlsOn {
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	events.Broadcast(models.Event{
		Action:  "system",
		Title:   "Server Shutting Down",
		Message: "Realtime updates will resume when the server is back",
		Kind:    models.EventWarning,
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	// Give the hub a moment to flush the shutdown notice before closing.
	time.Sleep(200 * time.Millisecond)
	events.Stop()
}
