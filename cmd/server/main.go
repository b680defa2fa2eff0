package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mrtodp/fleetd/internal/config"
	"github.com/mrtodp/fleetd/internal/delegate"
	"github.com/mrtodp/fleetd/internal/fleet"
	"github.com/mrtodp/fleetd/internal/journal"
	"github.com/mrtodp/fleetd/internal/logging"
	"github.com/mrtodp/fleetd/internal/registry"
	"github.com/mrtodp/fleetd/internal/sched"
	"github.com/mrtodp/fleetd/internal/server"
)

func main() {
	cfg := config.DefaultServerConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "Journal database path (default ~/.fleetd/fleetd.db)")
	flag.StringVar(&cfg.FleetManifest, "fleet", cfg.FleetManifest, "Path to a YAML fleet manifest registered at startup")
	flag.StringVar(&cfg.DelegateURL, "delegate-url", cfg.DelegateURL, "URL of a remote delegation service")
	flag.StringVar(&cfg.DelegateScript, "delegate-script", cfg.DelegateScript, "Path to a JavaScript delegation policy")
	flag.IntVar(&cfg.ChannelCapacity, "channel-capacity", cfg.ChannelCapacity, "Dispatch channel capacity (admission blocks when full)")
	flag.StringVar(&cfg.APIKeyFile, "api-keys", cfg.APIKeyFile, "Path to an operator key file (one key per line)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	noJournal := flag.Bool("no-journal", false, "Disable the task outcome journal")

	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Open journal and run migrations.
	var jrnl journal.Journal
	if !*noJournal {
		journalPath := cfg.JournalPath
		if journalPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
				os.Exit(1)
			}
			dir := filepath.Join(home, ".fleetd")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
				os.Exit(1)
			}
			journalPath = filepath.Join(dir, "fleetd.db")
		}

		sq, err := journal.NewSQLite(journalPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open journal: %v\n", err)
			os.Exit(1)
		}
		defer sq.Close()

		if err := sq.Migrate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate journal: %v\n", err)
			os.Exit(1)
		}
		logger.Info("journal ready", "path", journalPath)
		jrnl = sq
	}

	// Build the fleet registry, seeded from the manifest if given.
	reg := registry.New()
	var strengths delegate.StrengthTable
	if cfg.FleetManifest != "" {
		manifest, err := fleet.Load(cfg.FleetManifest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load fleet manifest: %v\n", err)
			os.Exit(1)
		}
		if err := manifest.Apply(reg); err != nil {
			fmt.Fprintf(os.Stderr, "apply fleet manifest: %v\n", err)
			os.Exit(1)
		}
		strengths = manifest.Strengths()
		logger.Info("fleet manifest applied", "path", cfg.FleetManifest, "robots", len(manifest.Robots))
	}

	// Pick the assignment backend.
	var backend delegate.Delegator
	switch {
	case cfg.DelegateScript != "":
		script, err := delegate.LoadScript(cfg.DelegateScript, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load delegation script: %v\n", err)
			os.Exit(1)
		}
		backend = script
		logger.Info("using script delegation policy", "path", cfg.DelegateScript)
	case cfg.DelegateURL != "":
		backend = delegate.NewRemote(cfg.DelegateURL, logger)
		logger.Info("using remote delegation service", "url", cfg.DelegateURL)
	default:
		backend = delegate.NewStatic(strengths, logger)
		logger.Info("using strength table delegation", "robots", len(strengths))
	}

	scheduler := sched.New(reg, backend, jrnl, sched.Config{ChannelCapacity: cfg.ChannelCapacity}, logger)
	dispatcher := sched.NewDispatcher(scheduler, logger)

	var serverOpts []server.Option
	if jrnl != nil {
		serverOpts = append(serverOpts, server.WithJournal(jrnl))
	}

	// Configure operator key authentication.
	if cfg.APIKeyFile != "" {
		keys, err := server.LoadKeys(cfg.APIKeyFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load operator keys: %v\n", err)
			os.Exit(1)
		}
		serverOpts = append(serverOpts, server.WithKeys(keys))
		logger.Info("operator key authentication enabled", "keys", keys.Len())
	}

	srv := server.New(cfg, scheduler, logger, serverOpts...)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start dispatcher in background.
	go func() {
		if err := dispatcher.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("dispatcher failed", "error", err)
		}
	}()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop dispatcher before the HTTP server so the in-flight task finishes.
	if err := dispatcher.Stop(); err != nil {
		logger.Error("dispatcher stop error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
