package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type (
	LogConfiguration struct {
		Level      string `yaml:"defaultLevel"`
		Format     string `yaml:"format"`
		OutputPath string `yaml:"outputPath"`
		TimeFormat string `yaml:"timeFormat"`

		// NoColor triggers the "colorless" console format, has effect only
		// when Format is "console".
		NoColor bool `yaml:"noColor"`
	}
)

/*
New returns logger for the given configuration.
*/
func New(cfg *LogConfiguration) (*slog.Logger, error) {
	h, err := cfg.Handler()
	if err != nil {
		return nil, fmt.Errorf("creating handler for logger: %w", err)
	}
	return slog.New(h), nil
}

func (cfg *LogConfiguration) Handler() (slog.Handler, error) {
	cfg.initDefaults()

	out, err := cfg.output()
	if err != nil {
		return nil, fmt.Errorf("creating writer for log output: %w", err)
	}

	opts := &slog.HandlerOptions{
		Level:       cfg.logLevel(),
		ReplaceAttr: formatTimeAttr(cfg.TimeFormat),
	}

	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		return slog.NewTextHandler(out, opts), nil
	case "json":
		return slog.NewJSONHandler(out, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

func (cfg *LogConfiguration) initDefaults() {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "stderr"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.TimeFormat == "" {
		if cfg.Format == "console" {
			cfg.TimeFormat = "15:04:05.0000"
		} else {
			cfg.TimeFormat = "2006-01-02T15:04:05.0000Z0700"
		}
	}
}

func (cfg *LogConfiguration) output() (io.Writer, error) {
	switch cfg.OutputPath {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "discard", "null":
		return io.Discard, nil
	}

	file, err := os.OpenFile(filepath.Clean(cfg.OutputPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", cfg.OutputPath, err)
	}
	return file, nil
}

func (cfg *LogConfiguration) logLevel() slog.Level {
	switch strings.ToLower(cfg.Level) {
	case "warning":
		return slog.LevelWarn
	case "trace":
		return slog.LevelDebug
	}

	var lvl slog.Level
	lvl.UnmarshalText([]byte(cfg.Level))
	return lvl
}
