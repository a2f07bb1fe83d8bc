// Package logging builds the zap logger used by respd
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raniellyferreira/respkit"
	"github.com/raniellyferreira/respkit/internal/config"
)

// Setup builds a logger from the log configuration
func Setup(cfg config.LogConfig) (*zap.Logger, error) {
	var writer zapcore.WriteSyncer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file: %w", err)
		}
		writer = zapcore.AddSync(f)
	} else {
		writer = zapcore.AddSync(os.Stdout)
	}
	return build(cfg, writer)
}

// New builds a logger writing to w
func New(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	return build(cfg, zapcore.AddSync(w))
}

func build(cfg config.LogConfig, writer zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, writer, level)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// Adapter adapts a zap logger to respkit.Logger
type Adapter struct {
	logger *zap.Logger
}

// NewAdapter wraps logger
func NewAdapter(logger *zap.Logger) *Adapter {
	return &Adapter{logger: logger}
}

func (a *Adapter) Debug(msg string, fields ...respkit.Field) {
	a.logger.Debug(msg, zapFields(fields)...)
}

func (a *Adapter) Info(msg string, fields ...respkit.Field) {
	a.logger.Info(msg, zapFields(fields)...)
}

func (a *Adapter) Error(msg string, fields ...respkit.Field) {
	a.logger.Error(msg, zapFields(fields)...)
}

func zapFields(fields []respkit.Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		if err, ok := f.Value.(error); ok {
			out[i] = zap.NamedError(f.Key, err)
			continue
		}
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// KV adapts a zap logger to the key/value logger interfaces of the server
// and client packages
type KV struct {
	sugar *zap.SugaredLogger
}

// NewKV wraps logger
func NewKV(logger *zap.Logger) *KV {
	return &KV{sugar: logger.Sugar()}
}

func (k *KV) Debug(msg string, fields ...interface{}) { k.sugar.Debugw(msg, fields...) }
func (k *KV) Info(msg string, fields ...interface{})  { k.sugar.Infow(msg, fields...) }
func (k *KV) Error(msg string, fields ...interface{}) { k.sugar.Errorw(msg, fields...) }
