package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"svcrunner/internal/config"
	"svcrunner/internal/logger"
)

// FileSink appends events to a rotated JSON Lines file.
type FileSink struct {
	writer *lumberjack.Logger
	mu     sync.Mutex
	closed bool
}

// NewFileSink creates a new FileSink with the given configuration.
func NewFileSink(cfg config.FileConfig) (*FileSink, error) {
	log := logger.WithComponent("file-sink")

	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file sink requires a FilePath")
	}

	// Ensure the directory exists
	dir := filepath.Dir(cfg.FilePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create events directory: %w", err)
		}
	}

	// Set up lumberjack for log rotation
	writer := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}

	log.Info().
		Str("file_path", cfg.FilePath).
		Msg("FileSink initialized")

	return &FileSink{writer: writer}, nil
}

// Send appends one event as a JSON line.
func (s *FileSink) Send(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("sink is closed")
	}

	jsonData, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := s.writer.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}

// Close releases resources held by the FileSink.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.writer.Close()
}
