package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yokitheyo/imagekit/internal/config"
)

// Setup initialises zlog and applies the configured level and optional file sink.
// The returned closer flushes the rotating file, if any.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	zlog.Init()

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		zlog.Logger.Warn().Str("level", cfg.Level).Msg("unknown log level, falling back to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.File == "" {
		return nopCloser{}, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	zlog.Logger = zlog.Logger.Output(zerolog.MultiLevelWriter(os.Stdout, rotator))

	zlog.Logger.Info().
		Str("file", cfg.File).
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("max_backups", cfg.MaxBackups).
		Msg("file logging enabled")

	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
