package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/studioops/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// LogNotifier records billing events in the application log instead of
// publishing them. Used when the notification pipeline is disabled.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event and always succeeds
func (n *LogNotifier) Notify(_ context.Context, customerID uuid.UUID, kind billing.EventKind, payload map[string]any) error {
	n.logger.Info("Billing event",
		zap.String("kind", string(kind)),
		zap.String("customer_id", customerID.String()),
		zap.Any("payload", payload),
	)
	return nil
}
