// Package notify logs case notifications. The council's messaging gateway
// plugs in behind the same port once its credentials are provisioned.
package notify

import (
	"context"
	"log/slog"

	"pleito/contexts/adjudication/case-service/ports"
)

type LogDispatcher struct {
	Logger *slog.Logger
}

func (d LogDispatcher) Notify(_ context.Context, event string, recipients []string, payload map[string]any) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("case notification dispatched",
		"event", "case_notification",
		"module", "adjudication/case-service",
		"layer", "adapter",
		"notification", event,
		"recipients", recipients,
		"payload", payload,
	)
}

var _ ports.NotificationDispatcher = LogDispatcher{}
