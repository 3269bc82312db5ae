package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

var defaultLogger *slog.Logger

func Init(level slog.Level) {
	initWith(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func InitJSON(level slog.Level) {
	initWith(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func initWith(h slog.Handler) {
	defaultLogger = slog.New(h)
	slog.SetDefault(defaultLogger)
}

// Setup configures the default logger from config values. format is one of
// text, json or auto; auto picks text on a terminal and json otherwise.
func Setup(level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "", "auto":
		if isTerminal(os.Stdout) {
			Init(lvl)
		} else {
			InitJSON(lvl)
		}
	case "text":
		Init(lvl)
	case "json":
		InitJSON(lvl)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func Get() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo)
	}
	return defaultLogger
}

func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	Get().DebugContext(ctx, msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}
