// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package remote

import (
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger adapts a logr.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logr.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.log.Error(nil, msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.log.Info(msg, append(keysAndValues, "severity", "warning")...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.log.V(1).Info(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.log.V(2).Info(msg, keysAndValues...)
}
