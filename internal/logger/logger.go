package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger settings.
type Config struct {
	Level      string `env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `env:"LOG_ENCODING" env-default:"json"` // json or console
	OutputPath string `env:"LOG_OUTPUT_PATH"`                 // empty means stdout
	Service    string `env:"LOG_SERVICE_NAME" env-default:"storyai"`
	// Sampling drops repeated entries under load; off keeps every line.
	Sampling bool `env:"LOG_SAMPLING" env-default:"false"`
}

// New builds a zap.Logger from cfg. An unknown level falls back to info and
// is reported through the new logger; an unknown encoding falls back to json.
// Every entry carries the service name.
func New(cfg Config) (*zap.Logger, error) {
	level, levelErr := parseLevel(cfg.Level)

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          encoding(cfg.Encoding),
		EncoderConfig:     encoderConfig(),
		OutputPaths:       []string{outputPath(cfg.OutputPath)},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.Sampling {
		zapConfig.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}
	if cfg.Service != "" {
		zapConfig.InitialFields = map[string]any{"service": cfg.Service}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if levelErr != nil {
		logger.Warn("Invalid log level, using info", zap.String("requested_level", cfg.Level), zap.Error(levelErr))
	}
	return logger, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

func encoding(s string) string {
	if e := strings.ToLower(s); e == "console" {
		return e
	}
	return "json"
}

func outputPath(p string) string {
	if p == "" {
		return "stdout"
	}
	return p
}

// encoderConfig uses ISO8601 timestamps under "timestamp" and capital
// level names.
func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}
