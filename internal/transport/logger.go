package transport

import "log/slog"

// transportLogger tags records with the transport kind and, when known, the
// board address it talks to.
func transportLogger(kind, target string, attrs ...any) *slog.Logger {
	logger := slog.With("component", "transport", "transport", kind)
	if target != "" {
		logger = logger.With("target", target)
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}

	return logger
}
