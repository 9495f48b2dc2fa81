// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	flagLogEncoding = "log-encoding"
	flagLogLevel    = "log-level"
)

var (
	encodings = []string{"console", "json"}
	levels    = []string{"trace", "debug", "info", "error"}
)

// Options contains the configuration options for the logger.
type Options struct {
	// LogEncoding is one of console or json.
	LogEncoding string

	// LogLevel is one of trace, debug, info or error.
	// debug enables V(1) messages, trace enables V(2).
	LogLevel string
}

// BindFlags registers the logger flags with the given defaults.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.LogEncoding, flagLogEncoding, "console",
		"Log encoding format. Can be one of 'console' or 'json'.")
	fs.StringVar(&o.LogLevel, flagLogLevel, "info",
		"Log verbosity level. Can be one of 'trace', 'debug', 'info' or 'error'.")
}

// Validate checks the encoding and level values.
func (o *Options) Validate() error {
	if !contains(encodings, o.LogEncoding) {
		return fmt.Errorf("invalid --%s '%s', must be one of: %s",
			flagLogEncoding, o.LogEncoding, strings.Join(encodings, ", "))
	}
	if !contains(levels, o.LogLevel) {
		return fmt.Errorf("invalid --%s '%s', must be one of: %s",
			flagLogLevel, o.LogLevel, strings.Join(levels, ", "))
	}
	return nil
}

// NewLogger returns a zap backed logr.Logger writing to w.
func NewLogger(opts Options, w io.Writer) (logr.Logger, error) {
	if err := opts.Validate(); err != nil {
		return logr.Discard(), err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch opts.LogEncoding {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapLevel(opts.LogLevel))
	return zapr.NewLogger(zap.New(core)), nil
}

// zapLevel maps the level name to a zap level.
// logr V(n) is emitted at zap level -n.
func zapLevel(level string) zapcore.Level {
	switch level {
	case "trace":
		return zapcore.Level(-2)
	case "debug":
		return zapcore.DebugLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
