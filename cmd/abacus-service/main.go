// Package main provides the entry point for abacus-service.
//
// abacus-service is a standalone calculator service providing:
// - REST API for evaluating key sequences and driving sessions
// - Web keypad
// - MCP server for assistant integration
//
// Usage:
//
//	abacus-service                  Start the service (default)
//	abacus-service serve            Start the service
//	abacus-service version          Show version
//	abacus-service status           Show service status
//	abacus-service stop             Stop the running service
//	abacus-service mcp              Start MCP server (stdio mode)
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/abacus/internal/api"
	"github.com/ternarybob/abacus/internal/config"
	"github.com/ternarybob/abacus/internal/logger"
	"github.com/ternarybob/abacus/internal/mcp"
	"github.com/ternarybob/abacus/internal/service"
	"github.com/ternarybob/abacus/pkg/session"
)

// version is set via -ldflags at build time
var version = "dev"

func main() {
	// Set version in API package
	api.SetVersion(version)

	if len(os.Args) < 2 {
		// Default: start service
		if err := cmdServe(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var err error
	switch os.Args[1] {
	case "serve", "start":
		err = cmdServe()
	case "version", "-v", "--version":
		cmdVersion()
	case "status":
		err = cmdStatus()
	case "stop":
		err = cmdStop()
	case "mcp", "mcp-server":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`abacus-service - Calculator service

Usage:
  abacus-service [command]

Commands:
  serve         Start the service (default)
  version       Show version information
  status        Show service status
  stop          Stop the running service
  mcp           Start MCP server (stdio mode)
  help          Show this help

Environment:
  ABACUS_CONFIG     Config file path (default ~/.abacus/config.yaml)
  ABACUS_PORT       Override the listen port
  ABACUS_API_KEY    Require this key on API requests

Examples:
  abacus-service                                      Start the service
  curl localhost:8421/health                          Check service health
  curl -d '{"keys":"0.1+0.2="}' localhost:8421/eval   Evaluate a key sequence`)
}

func cmdVersion() {
	fmt.Printf("abacus-service version %s\n", version)
}

func loadConfig() (*config.Config, string, error) {
	path := config.DefaultConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

// openStore creates the session store, restoring saved sessions when
// persistence is enabled.
func openStore(cfg *config.Config) (*session.Store, int, error) {
	dir := ""
	if cfg.Sessions.Persist {
		dir = cfg.SessionsDir()
	}

	ttl := time.Duration(cfg.Sessions.IdleMinutes) * time.Minute
	store, err := session.NewStore(dir, cfg.Sessions.MaxSessions, session.WithIdleTTL(ttl))
	if err != nil {
		return nil, 0, fmt.Errorf("create session store: %w", err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("load sessions: %w", err)
	}
	return store, loaded, nil
}

func cmdServe() error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}

	// Check if already running
	if running, pid := service.IsRunning(cfg); running {
		return fmt.Errorf("service already running (PID %d)", pid)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	store, loaded, err := openStore(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("sessions", fmt.Sprint(loaded)).Msg("Session store ready")

	var opts []api.Option
	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(store, log, version)
		opts = append(opts, api.WithMCPHandler(mcpServer.HTTPHandler()))
	}
	apiServer := api.NewServer(cfg, store, log, opts...)

	daemon := service.NewDaemon(cfg, log,
		service.WithFlusher(store),
		service.WithConfigWatch(cfgPath, func(next *config.Config) {
			logger.SetLevel(next.Logging.Level)
		}),
	)

	if err := daemon.Start(apiServer.Handler()); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Printf("abacus-service v%s started on %s\n", version, daemon.Addr())
	fmt.Printf("Web keypad: http://%s/web/\n", daemon.Addr())
	if cfg.MCP.Enabled {
		fmt.Printf("MCP: http://%s/mcp\n", daemon.Addr())
	}

	// Wait for shutdown signal
	daemon.Wait()

	return nil
}

func cmdStatus() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	running, pid := service.IsRunning(cfg)
	if running {
		fmt.Printf("abacus-service: running (PID %d)\n", pid)
		fmt.Printf("Address: %s\n", cfg.Address())
	} else {
		fmt.Println("abacus-service: stopped")
	}

	return nil
}

func cmdStop() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	running, pid := service.IsRunning(cfg)
	if !running {
		fmt.Println("abacus-service is not running")
		return nil
	}

	fmt.Printf("Stopping abacus-service (PID %d)...\n", pid)
	if err := service.StopRunning(cfg); err != nil {
		return err
	}

	fmt.Println("abacus-service stopped")
	return nil
}

func cmdMCP() error {
	cfg, _, err := loadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	// stdout carries the protocol, so logs only go to file
	cfg.Logging.Output = []string{"file"}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	store, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.SaveAll(); err != nil {
			log.Error().Err(err).Msg("Failed to save sessions")
		}
	}()

	return mcp.NewServer(store, log, version).ServeStdio()
}
