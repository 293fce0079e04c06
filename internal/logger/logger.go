// Package logger builds the arbor logger abacus-service writes through.
package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"

	"github.com/ternarybob/abacus/internal/config"
)

const (
	defaultTimeFormat = "15:04:05.000"
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 5
)

var (
	mu     sync.RWMutex
	global arbor.ILogger
)

// GetLogger returns the process logger. Before SetupLogger or InitLogger
// runs it is a console logger with default settings.
func GetLogger() arbor.ILogger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = arbor.NewLogger().WithConsoleWriter(createWriterConfig(nil, models.LogWriterTypeConsole, ""))
	}
	return global
}

// InitLogger replaces the process logger.
func InitLogger(l arbor.ILogger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// sinks reports which writers logging.output asks for. "both" is accepted
// as shorthand for file and console.
func sinks(outputs []string) (file, console bool) {
	for _, out := range outputs {
		switch out {
		case "file":
			file = true
		case "console", "stdout":
			console = true
		case "both":
			file, console = true, true
		}
	}
	return file, console
}

// SetupLogger builds the logger described by cfg.Logging and installs it
// as the process logger.
func SetupLogger(cfg *config.Config) arbor.ILogger {
	l := arbor.NewLogger()
	toFile, toConsole := sinks(cfg.Logging.Output)
	path := cfg.LogPath()

	var dirErr error
	if toFile {
		if dirErr = os.MkdirAll(filepath.Dir(path), 0755); dirErr == nil {
			l = l.WithFileWriter(createWriterConfig(cfg, models.LogWriterTypeFile, path))
		}
	}
	// The console also takes over when no file writer could be attached
	if toConsole || !toFile || dirErr != nil {
		l = l.WithConsoleWriter(createWriterConfig(cfg, models.LogWriterTypeConsole, ""))
	}
	l = l.WithLevelFromString(cfg.Logging.Level)

	switch {
	case dirErr != nil:
		l.Warn().Err(dirErr).Str("logs_dir", filepath.Dir(path)).Msg("Failed to create logs directory")
	case !toFile && !toConsole:
		l.Warn().Strs("configured_outputs", cfg.Logging.Output).Msg("No log outputs configured, using console")
	}

	InitLogger(l)
	return l
}

// createWriterConfig maps the logging section onto an arbor writer.
// A nil cfg yields the defaults.
func createWriterConfig(cfg *config.Config, writerType models.LogWriterType, filename string) models.WriterConfiguration {
	wc := models.WriterConfiguration{
		Type:       writerType,
		FileName:   filename,
		TimeFormat: defaultTimeFormat,
		OutputType: models.OutputFormatJSON,
		MaxSize:    defaultMaxSizeMB << 20,
		MaxBackups: defaultMaxBackups,
	}
	if cfg == nil {
		return wc
	}

	lc := cfg.Logging
	if lc.TimeFormat != "" {
		wc.TimeFormat = lc.TimeFormat
	}
	if lc.Format == "text" {
		wc.OutputType = models.OutputFormatLogfmt
	}
	if lc.MaxSizeMB > 0 {
		wc.MaxSize = int64(lc.MaxSizeMB) << 20
	}
	if lc.MaxBackups > 0 {
		wc.MaxBackups = lc.MaxBackups
	}
	return wc
}

// SetLevel changes the process logger's level, as on a config reload.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global = global.WithLevelFromString(level)
	}
}

// Discard returns a logger with no writers attached.
func Discard() arbor.ILogger {
	return arbor.NewLogger()
}

// Stop flushes buffered log entries. It may be called more than once.
func Stop() {
	arborcommon.Stop()
}
