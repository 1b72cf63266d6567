package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/awantoch/promptgate/constants"
)

var (
	userLogger     *log.Logger
	userWriter     io.Writer = os.Stdout
	internalLogger *zap.SugaredLogger
	level          = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggerMu       sync.RWMutex
)

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

func init() {
	userLogger = log.New(userWriter, "", 0)
	if os.Getenv(constants.EnvDebug) != "" {
		level.SetLevel(zapcore.DebugLevel)
	}
	buildInternal(os.Stderr)
}

// buildInternal points the internal logger at w. Level changes made through
// SetLevel apply to the new core as well since the atomic level is shared.
func buildInternal(w io.Writer) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		level,
	)
	loggerMu.Lock()
	internalLogger = zap.New(core).Sugar().Named(constants.DefaultServiceName)
	loggerMu.Unlock()
}

func internal() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return internalLogger
}

// User prints plain output meant for the CLI user (stdout, no decoration).
func User(format string, v ...any) {
	loggerMu.RLock()
	l := userLogger
	loggerMu.RUnlock()
	l.Printf(format, v...)
}

func Info(format string, v ...any) {
	internal().Infof(format, v...)
}

func Warn(format string, v ...any) {
	internal().Warnf(format, v...)
}

func Error(format string, v ...any) {
	internal().Errorf(format, v...)
}

func Debug(format string, v ...any) {
	internal().Debugf(format, v...)
}

func SetUserOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	loggerMu.Lock()
	userWriter = w
	userLogger = log.New(userWriter, "", 0)
	loggerMu.Unlock()
}

func SetInternalOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	buildInternal(w)
}

// SetLevel accepts debug, info, warn or error. Unknown values leave the
// level untouched and return an error.
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

// Level reports the current internal log level.
func Level() string {
	return level.Level().String()
}

// Errorf logs the error message and returns it as an error value.
func Errorf(format string, v ...any) error {
	err := fmt.Errorf(format, v...)
	internal().Errorf("%s", err)
	return err
}

// Sync flushes buffered log entries.
func Sync() {
	_ = internal().Sync()
}

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// RequestIDFromContext extracts the request ID from context, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(requestIDKey)
	if s, ok := v.(string); ok {
		return s, true
	}
	return "", false
}

func withRequestID(ctx context.Context, fields []any) []any {
	if reqID, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, "request_id", reqID)
	}
	return fields
}

// InfoCtx logs an info message with context, including request ID if present.
func InfoCtx(ctx context.Context, msg string, fields ...any) {
	internal().Infow(msg, withRequestID(ctx, fields)...)
}

// WarnCtx logs a warning message with context, including request ID if present.
func WarnCtx(ctx context.Context, msg string, fields ...any) {
	internal().Warnw(msg, withRequestID(ctx, fields)...)
}

// ErrorCtx logs an error message with context, including request ID if present.
func ErrorCtx(ctx context.Context, msg string, fields ...any) {
	internal().Errorw(msg, withRequestID(ctx, fields)...)
}

// DebugCtx logs a debug message with context, including request ID if present.
func DebugCtx(ctx context.Context, msg string, fields ...any) {
	internal().Debugw(msg, withRequestID(ctx, fields)...)
}
