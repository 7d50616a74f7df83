// Package logger provides component-tagged logging helpers over log/slog.
// Every subsystem logs under a short component name ("discord", "irc",
// "dispatch", ...) so a single bot process stays greppable.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var log = slog.Default()

// Init configures the process-wide logger. Level is one of
// "debug", "info", "warn", "error"; anything else means info.
func Init(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	log = slog.New(handler)
	slog.SetDefault(log)
}

func attrs(component string, fields map[string]any) []any {
	args := make([]any, 0, 2+2*len(fields))
	args = append(args, "component", component)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func DebugC(component, msg string) {
	log.Debug(msg, "component", component)
}

func DebugCF(component, msg string, fields map[string]any) {
	log.Debug(msg, attrs(component, fields)...)
}

func InfoC(component, msg string) {
	log.Info(msg, "component", component)
}

func InfoCF(component, msg string, fields map[string]any) {
	log.Info(msg, attrs(component, fields)...)
}

func WarnC(component, msg string) {
	log.Warn(msg, "component", component)
}

func WarnCF(component, msg string, fields map[string]any) {
	log.Warn(msg, attrs(component, fields)...)
}

func ErrorC(component, msg string) {
	log.Error(msg, "component", component)
}

func ErrorCF(component, msg string, fields map[string]any) {
	log.Error(msg, attrs(component, fields)...)
}
