package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/studioops/backend/internal/domain/billing"
)

// event is the wire envelope published to the notification channel. The
// notification worker (email, portal messages) subscribes to the channel
// and handles delivery.
type event struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	CustomerID string         `json:"customer_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// RedisNotifier publishes billing events to a Redis channel
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a new RedisNotifier
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes the event. Publish does not wait for subscribers, so
// an event published with no worker listening is dropped.
func (n *RedisNotifier) Notify(ctx context.Context, customerID uuid.UUID, kind billing.EventKind, payload map[string]any) error {
	body, err := json.Marshal(event{
		ID:         uuid.New().String(),
		Kind:       string(kind),
		CustomerID: customerID.String(),
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}
	return nil
}
