// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/lmittmann/tint"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/gate"
	"github.com/danielhkuo/quickly-vote/i18n"
	"github.com/danielhkuo/quickly-vote/ranking"
	"github.com/danielhkuo/quickly-vote/router"
	"github.com/danielhkuo/quickly-vote/scheduler"
	"github.com/danielhkuo/quickly-vote/selection"
	"github.com/danielhkuo/quickly-vote/store"
)

// Selections untouched this long are dropped by the sweep job
const selectionTTL = 24 * time.Hour

func main() {
	var err error

	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)
	displayAppname("quickly vote")

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	if cfg.SeedData {
		if err := seed(dbConn); err != nil {
			slog.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}

	rows := store.New(dbConn)

	selections, err := openSelections(cfg.SelectionStorePath)
	if err != nil {
		slog.Error("selection store failed", "error", err)
		os.Exit(1)
	}
	defer selections.Close()

	provider, err := newProvider(cfg, rows)
	if err != nil {
		slog.Error("auth provider setup failed", "error", err)
		os.Exit(1)
	}

	catalog, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		slog.Error("locale catalog failed", "error", err)
		os.Exit(1)
	}

	g, err := gate.New(cfg.GateOrder, gate.Options{
		Deadline:         cfg.VoteDeadline,
		AllowedCountries: cfg.AllowedCountries,
		RegionAction:     cfg.RegionAction,
		ForceCountry:     cfg.ForceCountry,
		Authenticated:    provider.Authenticated,
	})
	if err != nil {
		slog.Error("gate setup failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Gate ready", "rules", g.Rules())

	poller := ranking.NewPoller(rows, 10*time.Second)

	// Background jobs
	jobs := scheduler.New()
	if err := jobs.Every("rankings", cfg.RankingRefresh, poller.Run); err != nil {
		slog.Error("failed to schedule rankings refresh", "error", err)
		os.Exit(1)
	}
	if err := jobs.Every("selection-sweep", time.Hour, func() {
		n, err := selections.Sweep(selectionTTL)
		if err != nil {
			slog.Error("selection sweep failed", "error", err)
			return
		}
		slog.Debug("selection sweep", "removed", n)
	}); err != nil {
		slog.Error("failed to schedule selection sweep", "error", err)
		os.Exit(1)
	}
	if err := jobs.Every("auth-flow-sweep", 5*time.Minute, func() {
		slog.Debug("auth flow sweep", "removed", provider.SweepFlows())
	}); err != nil {
		slog.Error("failed to schedule auth flow sweep", "error", err)
		os.Exit(1)
	}
	jobs.Start()

	// Create router
	handler, err := router.NewRouter(router.Deps{
		Rows:       rows,
		Selections: selections,
		Provider:   provider,
		Catalog:    catalog,
		Gate:       g,
		Poller:     poller,
		Config:     cfg,
	})
	if err != nil {
		slog.Error("router setup failed", "error", err)
		os.Exit(1)
	}

	// Create server
	server := http.Server{
		Handler:           handler,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "base_url", cfg.BaseURL)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	jobs.Stop(ctx)
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	})))
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func seed(conn *sql.DB) error {
	data, err := db.DefaultSeed()
	if err != nil {
		return err
	}
	if err := db.Seed(conn, data); err != nil {
		return err
	}
	slog.Info("Seed data loaded", "countries", len(data.Countries), "teams", len(data.Teams))
	return nil
}

func openSelections(path string) (selection.Store, error) {
	if path == "" {
		return selection.NewMemoryStore(), nil
	}
	s, err := selection.NewBoltStore(path)
	if err != nil {
		return nil, err
	}
	slog.Info("Selections persisted", "path", path)
	return s, nil
}

func newProvider(cfg cliparse.Config, rows *store.Store) (*auth.Provider, error) {
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.CookieSecure())

	var ex auth.Exchanger
	if cfg.DevLogin {
		slog.Warn("dev login enabled; anyone can sign in")
		ex = auth.DevExchanger{BaseURL: cfg.BaseURL}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		oidcEx, err := auth.NewOIDCExchanger(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.BaseURL+"/auth/callback")
		if err != nil {
			return nil, err
		}
		ex = oidcEx
	}

	return auth.NewProvider(ex, sessions, auth.NewFlowStore(), rows), nil
}
