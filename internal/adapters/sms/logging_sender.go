// Package sms holds SMSSender implementations.
package sms

import (
	"context"
	"log/slog"
	"strings"
)

// LoggingSender stands in for a carrier gateway: every message is logged and
// reported as delivered. Recipient numbers are masked in the log.
type LoggingSender struct {
	logger *slog.Logger
}

func NewLoggingSender(logger *slog.Logger) *LoggingSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingSender{logger: logger.With("module", "sms.logging_sender", "layer", "adapter")}
}

func (s *LoggingSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "sms sent (simulated)",
		"operation", "send_sms",
		"outcome", "success",
		"to", MaskPhone(to),
		"body_chars", len([]rune(body)),
	)
	return nil
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	runes := []rune(trimmed)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
