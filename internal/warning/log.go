package warning

import (
	"context"
	"log/slog"
)

// LogSurface is a modal that only reports its transitions to the log.
type LogSurface struct {
	Kind   Kind
	Logger *slog.Logger
}

func (s LogSurface) Show() error {
	s.logger().Warn("session warning shown", "modal", s.Kind.SurfaceID())
	return nil
}

func (s LogSurface) Hide() error {
	s.logger().Info("session warning hidden", "modal", s.Kind.SurfaceID())
	return nil
}

func (s LogSurface) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// LogToaster writes toasts to the log.
type LogToaster struct {
	Logger *slog.Logger
}

func (t LogToaster) ShowToast(toast Toast) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if toast.Type == ToastError {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, toast.Content, "toast", toast.ID)
	return nil
}
