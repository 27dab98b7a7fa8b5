package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/queue"
)

// ItemLogger manages dedicated log files for queue items. Every stage appends
// to the same file, so an item carries one continuous history from resolve
// through organize.
type ItemLogger struct {
	baseDir string
	cfg     *config.Config
}

// NewItemLogger creates a new per-item log manager.
func NewItemLogger(cfg *config.Config) *ItemLogger {
	dir := ""
	if cfg != nil && cfg.Paths.LogDir != "" {
		dir = filepath.Join(cfg.Paths.LogDir, "items")
	}
	return &ItemLogger{
		baseDir: dir,
		cfg:     cfg,
	}
}

// Path returns the log file path for an item. The name depends only on the
// item ID so every stage resolves the same file.
func (l *ItemLogger) Path(item *queue.Item) string {
	if item == nil || l.baseDir == "" {
		return ""
	}
	return filepath.Join(l.baseDir, fmt.Sprintf("item-%d.log", item.ID))
}

// Ensure prepares the log directory and returns the item's log file path.
func (l *ItemLogger) Ensure(item *queue.Item) (string, error) {
	if item == nil {
		return "", fmt.Errorf("queue item is nil")
	}
	if strings.TrimSpace(l.baseDir) == "" {
		return "", fmt.Errorf("item log directory not configured")
	}
	path := l.Path(item)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("ensure item log directory: %w", err)
	}
	return path, nil
}

// CreateHandler builds a slog.Handler appending to the specified path.
func (l *ItemLogger) CreateHandler(path string) (slog.Handler, error) {
	level := "info"
	format := "json"
	if l.cfg != nil {
		if strings.TrimSpace(l.cfg.Logging.Level) != "" {
			level = l.cfg.Logging.Level
		}
		if strings.TrimSpace(l.cfg.Logging.Format) != "" {
			format = l.cfg.Logging.Format
		}
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           format,
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		return nil, err
	}
	return logger.Handler(), nil
}
