// Package logging wraps zap for every binary in this module, grounded on
// _examples/teranos-QNTX/logger/logger.go: a package-level sugared logger,
// a safe no-op default before Initialize runs, and thin wrapper functions so
// call sites never import zap directly.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the package-level logger every call site uses. It is a no-op
// until Initialize is called, so packages may log during init() safely.
var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize wires up the real logger. jsonOutput selects structured JSON
// lines (for service/production use) over a human-readable console encoder.
func Initialize(jsonOutput bool) error {
	var core zapcore.Core
	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		Logger = l.Sugar()
		return nil
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core = zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zapcore.DebugLevel,
	)
	Logger = zap.New(core).Sugar()
	return nil
}

// Cleanup flushes any buffered log entries. Call before process exit.
func Cleanup() {
	_ = Logger.Sync()
}

func Debug(args ...interface{})                       { Logger.Debug(args...) }
func Debugf(format string, args ...interface{})       { Logger.Debugf(format, args...) }
func Debugw(msg string, kv ...interface{})             { Logger.Debugw(msg, kv...) }
func Info(args ...interface{})                         { Logger.Info(args...) }
func Infof(format string, args ...interface{})        { Logger.Infof(format, args...) }
func Infow(msg string, kv ...interface{})              { Logger.Infow(msg, kv...) }
func Warn(args ...interface{})                         { Logger.Warn(args...) }
func Warnf(format string, args ...interface{})        { Logger.Warnf(format, args...) }
func Warnw(msg string, kv ...interface{})              { Logger.Warnw(msg, kv...) }
func Error(args ...interface{})                        { Logger.Error(args...) }
func Errorf(format string, args ...interface{})       { Logger.Errorf(format, args...) }
func Errorw(msg string, kv ...interface{})             { Logger.Errorw(msg, kv...) }
