// Package testutils holds shared test fixtures and logging helpers.
package testutils

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a development-style logger writing to the given sink,
// enabled up to the given logr verbosity level.
func NewLogger(w io.Writer, level int) logr.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.Level(-level)) //nolint:gosec
	return zapr.NewLogger(zap.New(core))
}
