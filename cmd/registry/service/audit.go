package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/common/logger"
	"github.com/villagereg/landregistry/common/queue"
)

type auditSink interface {
	Append(ctx context.Context, eventType string, parcelID *uuid.UUID, payload []byte) error
}

// AuditWorker tails the in-process queue and writes every ledger event to the
// audit_log table. It runs alongside the API in the same process.
type AuditWorker struct {
	queue queue.Queue
	sink  auditSink
	log   *logger.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(q queue.Queue, sink auditSink, log *logger.Logger) *AuditWorker {
	return &AuditWorker{
		queue: q,
		sink:  sink,
		log:   log,
	}
}

// Start subscribes to all ledger topics. Consumption stops when ctx is cancelled.
func (w *AuditWorker) Start(ctx context.Context) error {
	topics := []string{queue.TopicParcelRegistered, queue.TopicOwnershipTransferred}

	for _, topic := range topics {
		if err := w.queue.Subscribe(ctx, topic, w.handle); err != nil {
			return err
		}
	}

	w.log.Info("audit worker started", "topics", topics)
	return nil
}

func (w *AuditWorker) handle(ctx context.Context, key string, value []byte) error {
	var event LedgerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		w.log.Error("dropping malformed ledger event", "key", key, "error", err)
		return nil
	}

	var parcelID *uuid.UUID
	if event.ParcelID != uuid.Nil {
		parcelID = &event.ParcelID
	}

	return w.sink.Append(ctx, event.Type, parcelID, value)
}
