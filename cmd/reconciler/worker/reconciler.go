package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/cmd/registry/repository"
	"github.com/villagereg/landregistry/common/logger"
	redisWrapper "github.com/villagereg/landregistry/common/redis"
)

// Reconciler verifies that every parcel's current-owner pointer matches the
// destination of its latest transfer record, and repairs the pointer when it
// does not. The history is the source of truth; the pointer is derived.
//
// It reacts to ledger events from the Redis stream and additionally sweeps
// the whole registry on a fixed interval, so parcels touched while the
// reconciler was down are still checked.
type Reconciler struct {
	redis         *redisWrapper.Client
	parcels       *repository.ParcelRepository
	transfers     *repository.TransferRepository
	logger        *logger.Logger
	stream        string
	consumerGroup string
	consumerName  string
	sweepInterval time.Duration
}

// NewReconciler creates a new reconciler
func NewReconciler(
	redis *redisWrapper.Client,
	parcels *repository.ParcelRepository,
	transfers *repository.TransferRepository,
	log *logger.Logger,
	stream string,
	sweepInterval time.Duration,
) *Reconciler {
	return &Reconciler{
		redis:         redis,
		parcels:       parcels,
		transfers:     transfers,
		logger:        log,
		stream:        stream,
		consumerGroup: "reconciler_workers",
		consumerName:  fmt.Sprintf("reconciler_%s", uuid.New().String()[:8]),
		sweepInterval: sweepInterval,
	}
}

// Start begins stream consumption and the periodic sweep
func (w *Reconciler) Start(ctx context.Context) error {
	w.logger.Info("starting reconciler",
		"stream", w.stream,
		"consumer_name", w.consumerName,
		"sweep_interval", w.sweepInterval)

	if w.redis != nil {
		if err := w.redis.CreateStreamGroup(ctx, w.stream, w.consumerGroup); err != nil {
			return fmt.Errorf("failed to create consumer group: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 2)

	if w.redis != nil {
		go func() {
			errChan <- w.processStream(ctx)
		}()
	}

	go func() {
		errChan <- w.runSweeps(ctx)
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("reconciler stopping")
		return nil
	case err := <-errChan:
		w.logger.Error("reconciler goroutine failed", "error", err)
		cancel()
		return err
	}
}

// processStream checks the parcel named in each ledger event
func (w *Reconciler) processStream(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stream handler stopping")
			return nil
		default:
			if err := w.processNext(ctx); err != nil {
				w.logger.Error("failed to process event", "error", err)
				time.Sleep(1 * time.Second) // Back off on error
			}
		}
	}
}

func (w *Reconciler) processNext(ctx context.Context) error {
	streams, err := w.redis.ReadFromStreamGroup(ctx, w.consumerGroup, w.consumerName, w.stream, 10, 5*time.Second)
	if err != nil {
		return fmt.Errorf("XREADGROUP error: %w", err)
	}

	if streams == nil {
		// Timeout, no messages
		return nil
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := w.handleEvent(ctx, message.Values); err != nil {
				w.logger.Error("failed to handle event", "message_id", message.ID, "error", err)
			}

			if err := w.redis.AckStreamMessage(ctx, w.stream, w.consumerGroup, message.ID); err != nil {
				w.logger.Error("failed to ACK message", "message_id", message.ID, "error", err)
			}
		}
	}

	return nil
}

func (w *Reconciler) handleEvent(ctx context.Context, values map[string]interface{}) error {
	raw, ok := values["parcel_id"].(string)
	if !ok || raw == "" {
		w.logger.Warn("event without parcel_id, skipping")
		return nil
	}

	parcelID, err := uuid.Parse(raw)
	if err != nil {
		w.logger.Warn("event with malformed parcel_id, skipping", "parcel_id", raw)
		return nil
	}

	return w.CheckParcel(ctx, parcelID)
}

// CheckParcel verifies one parcel's pointer against its latest transfer
// record and repairs it on mismatch
func (w *Reconciler) CheckParcel(ctx context.Context, parcelID uuid.UUID) error {
	parcel, err := w.parcels.GetByID(ctx, parcelID)
	if err != nil {
		return err
	}

	latest, err := w.transfers.LatestForParcel(ctx, parcelID)
	if err != nil {
		return err
	}
	if latest == nil {
		// No history yet: a parcel registered without an owner. Nothing to
		// check the pointer against.
		return nil
	}

	if parcel.CurrentOwnerID != nil && *parcel.CurrentOwnerID == latest.ToOwnerID {
		return nil
	}

	w.logger.Warn("current-owner pointer diverged from history, repairing",
		"parcel_id", parcelID,
		"pointer", parcel.CurrentOwnerID,
		"latest_transfer_to", latest.ToOwnerID)

	return w.parcels.RepairCurrentOwner(ctx, parcelID, &latest.ToOwnerID)
}

// runSweeps scans the whole registry for mismatches on a fixed interval
func (w *Reconciler) runSweeps(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	// One sweep at startup, then on every tick
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweep handler stopping")
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Reconciler) sweep(ctx context.Context) {
	mismatches, err := w.parcels.ListOwnerMismatches(ctx)
	if err != nil {
		w.logger.Error("consistency sweep failed", "error", err)
		return
	}

	if len(mismatches) == 0 {
		w.logger.Debug("consistency sweep clean")
		return
	}

	w.logger.Warn("consistency sweep found diverged parcels", "count", len(mismatches))

	for _, m := range mismatches {
		if err := w.parcels.RepairCurrentOwner(ctx, m.ParcelID, &m.LatestToOwner); err != nil {
			w.logger.Error("failed to repair parcel", "parcel_id", m.ParcelID, "error", err)
			continue
		}
		w.logger.Info("repaired current-owner pointer",
			"parcel_id", m.ParcelID,
			"pointer", m.CurrentOwner,
			"latest_transfer_to", m.LatestToOwner)
	}
}
