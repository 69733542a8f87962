package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/common/logger"
	"github.com/villagereg/landregistry/common/queue"
	rediscommon "github.com/villagereg/landregistry/common/redis"
)

// LedgerEvent is the payload published after every successful ledger write.
// The in-process audit worker and the reconciler both consume it.
type LedgerEvent struct {
	Type        string     `json:"type"`
	ParcelID    uuid.UUID  `json:"parcel_id"`
	FromOwnerID *uuid.UUID `json:"from_owner_id,omitempty"`
	ToOwnerID   *uuid.UUID `json:"to_owner_id,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// EventPublisher fans ledger events out to the in-process queue and the
// Redis event stream. Publication is best-effort: the ledger write has
// already committed, so failures are logged and never bubble up.
type EventPublisher struct {
	queue  queue.Queue
	redis  *rediscommon.Client
	stream string
	log    *logger.Logger
}

// NewEventPublisher creates a new event publisher. Both queue and redis are
// optional; a nil sink is skipped.
func NewEventPublisher(q queue.Queue, redis *rediscommon.Client, stream string, log *logger.Logger) *EventPublisher {
	return &EventPublisher{
		queue:  q,
		redis:  redis,
		stream: stream,
		log:    log,
	}
}

// Publish emits a ledger event to all configured sinks
func (p *EventPublisher) Publish(ctx context.Context, event LedgerEvent) {
	event.OccurredAt = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to encode ledger event", "type", event.Type, "error", err)
		return
	}

	if p.queue != nil {
		if err := p.queue.Publish(ctx, event.Type, event.ParcelID.String(), data); err != nil {
			p.log.Warn("failed to publish ledger event to queue", "type", event.Type, "error", err)
		}
	}

	if p.redis != nil {
		_, err := p.redis.AddToStream(ctx, p.stream, map[string]interface{}{
			"type":      event.Type,
			"parcel_id": event.ParcelID.String(),
			"payload":   string(data),
		})
		if err != nil {
			p.log.Warn("failed to publish ledger event to stream", "type", event.Type, "error", err)
		}
	}
}
