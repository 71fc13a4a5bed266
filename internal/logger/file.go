package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/everything/internal/catalog"
)

// FileLogger writes one timestamped log file per run into a log directory and keeps
// a latest.log symlink pointing at the most recent one.
type FileLogger struct {
	runLog   *os.File
	logLevel string
	mu       sync.Mutex
}

// NewFileLoggerWithLevel creates a FileLogger in logDir, creating the directory if
// needed, opening run-YYYYMMDD-HHMMSS.log and repointing latest.log at it.
func NewFileLoggerWithLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		runLog:   file,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== Everything Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// LogReindexComplete writes the reindex summary, including every skipped entry, at
// INFO level.
func (fl *FileLogger) LogReindexComplete(result *catalog.ReindexResult) {
	if result == nil || !fl.shouldLog("info") {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] Reindex complete\n", time.Now().Format("15:04:05")))
	sb.WriteString(fmt.Sprintf("  Run:      %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("  Root:     %s\n", result.Root))
	sb.WriteString(fmt.Sprintf("  Indexed:  %d\n", result.Indexed))
	sb.WriteString(fmt.Sprintf("  Skipped:  %d\n", len(result.Skipped)))
	sb.WriteString(fmt.Sprintf("  Duration: %.1fs\n", result.Duration.Seconds()))
	for _, skipped := range result.Skipped {
		sb.WriteString(fmt.Sprintf("    - %s\n", skipped.Error()))
	}

	fl.writeRunLog(sb.String())
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
