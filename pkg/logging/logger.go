// Package logging builds the process logger. Console output goes to stderr
// so workflow results on stdout stay machine-readable; a JSON copy of every
// record is appended to a session-specific file in ~/.replay/logs/.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error
)

// GetSessionID returns or creates the session ID for this execution.
func GetSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// GetLogDirectory returns the directory where session logs are stored,
// creating it if necessary.
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}

func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".replay", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// New builds the process logger. Console records go to stderr at info level,
// or debug when verbose is set. When the session log file can be opened, a
// JSON copy of every record (always at debug level) is appended to it.
//
// If file logging cannot be initialized the logger falls back to stderr only;
// the returned close function is safe to call either way.
func New(verbose bool) (*zap.Logger, func(), error) {
	consoleLevel := zapcore.InfoLevel
	if verbose {
		consoleLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		consoleLevel,
	)

	file, err := openSessionLog()
	if err != nil {
		log := zap.New(consoleCore)
		log.Warn("file logging disabled", zap.Error(err))
		return log, func() { _ = log.Sync() }, nil
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(file),
		zapcore.DebugLevel,
	)

	log := zap.New(zapcore.NewTee(consoleCore, fileCore)).
		With(zap.String("session", GetSessionID()))
	closeFn := func() {
		_ = log.Sync()
		_ = file.Close()
	}
	return log, closeFn, nil
}

// openSessionLog opens the per-session log file in append mode.
func openSessionLog() (*os.File, error) {
	if err := initLogDirectory(); err != nil {
		return nil, err
	}
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-replay.log", GetSessionID()))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}
