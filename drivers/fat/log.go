package fat

import (
	"context"
	"io"
	"log/slog"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func logattrs(logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func debug(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logattrs(logger, slog.LevelDebug, msg, attrs...)
}
func info(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logattrs(logger, slog.LevelInfo, msg, attrs...)
}
func warn(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logattrs(logger, slog.LevelWarn, msg, attrs...)
}
func logerror(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logattrs(logger, slog.LevelError, msg, attrs...)
}
