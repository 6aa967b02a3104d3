// Package main runs the AlphaBase console: an interactive terminal client
// for signing in, browsing the monitoring views and managing alert email
// settings.
package main

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/alphabase/internal/client/api"
	"github.com/atinyakov/alphabase/internal/client/console"
	"github.com/atinyakov/alphabase/internal/client/dashboard"
	"github.com/atinyakov/alphabase/internal/client/realtime"
	"github.com/atinyakov/alphabase/internal/client/session"
	"github.com/atinyakov/alphabase/internal/client/terminal"
	"github.com/atinyakov/alphabase/internal/config"
	"github.com/atinyakov/alphabase/internal/logger"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

func main() {
	cfg, err := config.ParseClient(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if cfg.ShowVersion {
		fmt.Printf("AlphaBase Console\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	lg := logger.New()
	if err := lg.InitFile(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = lg.Log.Sync() }()
	zapLogger := lg.Log

	httpClient, err := api.NewHTTPClient(cfg.CAFile, cfg.RequestTimeout)
	if err != nil {
		log.Fatal(err)
	}

	dialer := &websocket.Dialer{Proxy: websocket.DefaultDialer.Proxy, HandshakeTimeout: cfg.RequestTimeout}
	if cfg.CAFile != "" {
		if dialer.TLSClientConfig, err = api.LoadTLSConfig(cfg.CAFile); err != nil {
			log.Fatal(err)
		}
	}

	term := terminal.New(os.Stdout)
	sess := session.New()
	client := api.New(cfg.APIURL, httpClient, sess)

	channel := realtime.New(cfg.WSURL, sess, term.Alert, realtime.Options{
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		AlertDuration:     cfg.AlertDuration,
		Dialer:            dialer,
	}, zapLogger.Named("realtime"))

	views := dashboard.New(client, term, cfg.ChartFile, zapLogger.Named("dashboard"))

	app := console.NewApp(console.Deps{
		View:        term,
		StatusView:  term.Status,
		Session:     sess,
		Auth:        client,
		Settings:    client,
		Realtime:    channel,
		Dashboard:   console.LoaderFunc(views.LoadDashboard),
		Analytics:   console.LoaderFunc(views.LoadAnalytics),
		Collections: console.LoaderFunc(views.LoadCollections),
		Log:         zapLogger,
	}, console.Options{
		StatusDuration:  cfg.StatusDuration,
		WelcomeDuration: cfg.WelcomeDuration,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.StartAutoRefresh(ctx, cfg.DashboardRefresh)
	zapLogger.Info("console started", zap.String("api", cfg.APIURL), zap.String("ws", cfg.WSURL))

	term.Render(app.State())
	repl := terminal.NewREPL(app, terminal.NewPrompter(os.Stdin, term), term)

	// Scanning stdin cannot be interrupted, so the REPL runs aside and an
	// interrupt ends the process without waiting for the next line.
	done := make(chan error, 1)
	go func() { done <- repl.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			zapLogger.Error("console stopped", zap.Error(err))
		}
	case <-ctx.Done():
		term.Printf("\n")
	}
	app.Logout()
}
