package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/common/queue"
)

type mockAuditSink struct {
	appended chan string
}

func newMockAuditSink() *mockAuditSink {
	return &mockAuditSink{appended: make(chan string, 10)}
}

func (m *mockAuditSink) Append(ctx context.Context, eventType string, parcelID *uuid.UUID, payload []byte) error {
	m.appended <- eventType
	return nil
}

// TestAuditWorker verifies published ledger events end up in the audit sink
func TestAuditWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewMemoryQueue(testLogger())
	defer q.Close()

	sink := newMockAuditSink()
	worker := NewAuditWorker(q, sink, testLogger())
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	event := LedgerEvent{
		Type:     queue.TopicParcelRegistered,
		ParcelID: uuid.New(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if err := q.Publish(ctx, event.Type, event.ParcelID.String(), data); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case eventType := <-sink.appended:
		if eventType != queue.TopicParcelRegistered {
			t.Errorf("expected event type %q, got %q", queue.TopicParcelRegistered, eventType)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the audit entry")
	}
}

// TestAuditWorker_MalformedEvent verifies junk on the queue is dropped
// without reaching the sink
func TestAuditWorker_MalformedEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewMemoryQueue(testLogger())
	defer q.Close()

	sink := newMockAuditSink()
	worker := NewAuditWorker(q, sink, testLogger())
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := q.Publish(ctx, queue.TopicOwnershipTransferred, "key", []byte("not json")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	good := LedgerEvent{Type: queue.TopicOwnershipTransferred, ParcelID: uuid.New()}
	data, _ := json.Marshal(good)
	if err := q.Publish(ctx, good.Type, good.ParcelID.String(), data); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// The good event arriving proves the bad one was already skipped, since
	// the topic is consumed in order
	select {
	case eventType := <-sink.appended:
		if eventType != queue.TopicOwnershipTransferred {
			t.Errorf("expected event type %q, got %q", queue.TopicOwnershipTransferred, eventType)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the audit entry")
	}
}
