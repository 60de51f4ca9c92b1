package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the slog handler used for output.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// ParseLogLevel parses a string log level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ParseLogFormat parses a handler format name; empty means text.
func ParseLogFormat(format string) (LogFormat, error) {
	switch strings.ToLower(format) {
	case "", "text", "console":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("invalid log format: %s", format)
	}
}

// NewLogger creates a slog logger writing to output at the given level
func NewLogger(level slog.Level, format LogFormat, output io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(output, opts))
	}
	return slog.New(slog.NewTextHandler(output, opts))
}

// OpenLogger builds a logger from string settings without touching the slog default.
// When logFile is set the returned closer releases it; otherwise the closer is a no-op.
func OpenLogger(levelStr, formatStr, logFile string) (*slog.Logger, io.Closer, error) {
	level, err := ParseLogLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	format, err := ParseLogFormat(formatStr)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		closer = file
	}

	return NewLogger(level, format, output), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FormatBytes formats bytes as human-readable string
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ParseBytes parses a human-readable byte string
func ParseBytes(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	s = strings.ToUpper(strings.TrimSpace(s))

	if strings.HasSuffix(s, "B") {
		s = s[:len(s)-1]
	}

	var multiplier int64 = 1
	var numStr string

	if len(s) > 0 {
		lastChar := s[len(s)-1]
		switch lastChar {
		case 'K':
			multiplier = 1024
			numStr = s[:len(s)-1]
		case 'M':
			multiplier = 1024 * 1024
			numStr = s[:len(s)-1]
		case 'G':
			multiplier = 1024 * 1024 * 1024
			numStr = s[:len(s)-1]
		case 'T':
			multiplier = 1024 * 1024 * 1024 * 1024
			numStr = s[:len(s)-1]
		default:
			numStr = s
		}
	}

	var num float64
	if _, err := fmt.Sscanf(numStr, "%f", &num); err != nil {
		return 0, fmt.Errorf("invalid number format: %s", s)
	}
	if num < 0 {
		return 0, fmt.Errorf("negative size: %s", s)
	}

	return int64(num * float64(multiplier)), nil
}
