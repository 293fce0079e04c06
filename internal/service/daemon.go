// Package service provides the core service lifecycle management.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/abacus/internal/config"
)

// Flusher persists in-memory state on shutdown.
type Flusher interface {
	SaveAll() error
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithFlusher registers state to be saved during shutdown.
func WithFlusher(f Flusher) Option {
	return func(d *Daemon) {
		d.flusher = f
	}
}

// WithConfigWatch reloads the config file at path while running and
// passes each new config to onReload.
func WithConfigWatch(path string, onReload func(*config.Config)) Option {
	return func(d *Daemon) {
		d.configPath = path
		d.onReload = onReload
	}
}

// Daemon manages the service lifecycle.
type Daemon struct {
	cfg        *config.Config
	logger     arbor.ILogger
	server     *http.Server
	listener   net.Listener
	flusher    Flusher
	configPath string
	onReload   func(*config.Config)
	watcher    *config.Watcher
	stopCh     chan struct{}
	stoppedCh  chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
	running    bool
}

// NewDaemon creates a new daemon instance.
func NewDaemon(cfg *config.Config, logger arbor.ILogger, opts ...Option) *Daemon {
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start starts the daemon with the given HTTP handler. The listener is
// bound before Start returns, so address errors are reported here.
func (d *Daemon) Start(handler http.Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon already running")
	}

	// Ensure directories exist
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ln, err := net.Listen("tcp", d.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", d.cfg.Address(), err)
	}
	d.listener = ln

	// Write PID file
	if err := d.writePID(); err != nil {
		ln.Close()
		return fmt.Errorf("write PID: %w", err)
	}

	if d.configPath != "" {
		if err := d.startWatcher(); err != nil {
			d.logger.Warn().Err(err).Str("path", d.configPath).Msg("Config reload disabled")
		}
	}

	d.server = &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	d.running = true

	go func() {
		d.logger.Info().Str("address", ln.Addr().String()).Msg("Starting server")
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error().Err(err).Msg("Server error")
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Wait waits for the daemon to stop, handling signals.
func (d *Daemon) Wait() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		d.logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	case <-d.stopCh:
		d.logger.Info().Msg("Stop requested, shutting down")
	}

	d.shutdown()
}

// Stop signals the daemon to stop and waits for Wait to finish shutdown.
func (d *Daemon) Stop() {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()

	if !running {
		return
	}

	d.stopOnce.Do(func() { close(d.stopCh) })
	<-d.stoppedCh
}

// shutdown performs graceful shutdown.
func (d *Daemon) shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.logger.Warn().Err(err).Msg("Config watcher stop error")
		}
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			d.logger.Error().Err(err).Msg("Server shutdown error")
		}
	}

	if d.flusher != nil {
		if err := d.flusher.SaveAll(); err != nil {
			d.logger.Error().Err(err).Msg("Failed to save sessions")
		}
	}

	// Remove PID file
	d.removePID()

	d.running = false
	close(d.stoppedCh)
}

func (d *Daemon) startWatcher() error {
	w, err := config.NewWatcher(d.configPath, 0,
		func(cfg *config.Config) {
			d.logger.Info().Str("path", d.configPath).Msg("Config reloaded")
			if d.onReload != nil {
				d.onReload(cfg)
			}
		},
		func(err error) {
			d.logger.Warn().Err(err).Str("path", d.configPath).Msg("Config reload failed")
		},
	)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	d.watcher = w
	return nil
}

// writePID writes the current process PID to a file.
func (d *Daemon) writePID() error {
	pidPath := d.cfg.PIDPath()
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(pidPath), 0755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// removePID removes the PID file.
func (d *Daemon) removePID() {
	_ = os.Remove(d.cfg.PIDPath())
}

// IsRunning checks if a daemon is already running.
func IsRunning(cfg *config.Config) (bool, int) {
	pidPath := cfg.PIDPath()

	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0
	}

	// Check if process exists by sending signal 0
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	err = process.Signal(syscall.Signal(0))
	if err != nil {
		// Process doesn't exist, clean up stale PID file
		_ = os.Remove(pidPath)
		return false, 0
	}

	return true, pid
}

// StopRunning stops a running daemon.
func StopRunning(cfg *config.Config) error {
	running, pid := IsRunning(cfg)
	if !running {
		return fmt.Errorf("daemon not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	// Send SIGTERM
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	// Wait for process to exit
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if running, _ := IsRunning(cfg); !running {
			return nil
		}
	}

	// Force kill if still running
	if err := process.Kill(); err != nil {
		return fmt.Errorf("kill process: %w", err)
	}

	// Clean up PID file
	_ = os.Remove(cfg.PIDPath())

	return nil
}
