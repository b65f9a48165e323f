// Package notify holds delivery-channel implementations for account
// notifications (password-reset links, welcome messages).
package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to a structured log instead of sending
// them. This is the development and test channel; production deployments
// plug in a real sender behind the same interface.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier returns a notifier logging through log.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

// Notify records the notification at Info level. The body may carry a reset
// token, so it is logged under its own field to ease redaction downstream.
func (n *LogNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	n.log.Info("notification",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// Noop drops every notification.
type Noop struct{}

// Notify discards the notification.
func (Noop) Notify(ctx context.Context, recipient, subject, body string) error {
	return nil
}
