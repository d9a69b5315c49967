// Package logging builds the zap logger used for progress output.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys shared by every procedure.
const (
	KeyNetwork = "network"
	KeyAddress = "address"
	KeyTx      = "tx"
	KeyBlock   = "block"
	KeyAmount  = "amount"
)

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeDuration = zapcore.StringDurationEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}

// New returns a console logger on stderr at info level, or debug when
// verbose is set.
func New(verbose bool) *zap.Logger {
	return NewWriter(os.Stderr, verbose)
}

// NewWriter is New with a custom destination.
func NewWriter(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}
