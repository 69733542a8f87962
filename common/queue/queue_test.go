package queue

import (
	"context"
	"testing"
	"time"

	"github.com/villagereg/landregistry/common/logger"
)

func testQueue(t *testing.T) *MemoryQueue {
	t.Helper()
	q := NewMemoryQueue(logger.New("error", "text"))
	t.Cleanup(func() { q.Close() })
	return q
}

// TestPublishSubscribe verifies the roundtrip through a topic
func TestPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := testQueue(t)

	received := make(chan string, 1)
	err := q.Subscribe(ctx, TopicParcelRegistered, func(ctx context.Context, key string, value []byte) error {
		received <- key
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := q.Publish(ctx, TopicParcelRegistered, "parcel-1", []byte(`{}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case key := <-received:
		if key != "parcel-1" {
			t.Errorf("expected key parcel-1, got %q", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the message")
	}
}

// TestPublishBeforeSubscribe verifies buffered messages are delivered to a
// later subscriber
func TestPublishBeforeSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := testQueue(t)

	if err := q.Publish(ctx, TopicOwnershipTransferred, "parcel-2", []byte(`{}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	received := make(chan struct{})
	err := q.Subscribe(ctx, TopicOwnershipTransferred, func(ctx context.Context, key string, value []byte) error {
		close(received)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the buffered message")
	}
}

// TestPublishAfterClose verifies a closed queue refuses writes
func TestPublishAfterClose(t *testing.T) {
	ctx := context.Background()

	q := NewMemoryQueue(logger.New("error", "text"))
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := q.Publish(ctx, TopicParcelRegistered, "key", nil); err == nil {
		t.Error("expected an error publishing to a closed queue")
	}
}
