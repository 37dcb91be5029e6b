package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

// BeeepSender shows native desktop notifications for headless runs.
type BeeepSender struct {
	logger *slog.Logger
	notify func(title, message string) error
}

func NewBeeepSender(logger *slog.Logger) *BeeepSender {
	if logger == nil {
		logger = slog.Default().With("component", "notifications")
	}

	return &BeeepSender{
		logger: logger,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

func (s *BeeepSender) Send(payload Payload) {
	if s == nil || s.notify == nil {
		return
	}
	title := strings.TrimSpace(payload.Title)
	content := strings.TrimSpace(payload.Content)
	if title == "" && content == "" {
		return
	}
	if err := s.notify(title, content); err != nil {
		s.logger.Warn("desktop notification failed", "title", title, "error", err)
	}
}
