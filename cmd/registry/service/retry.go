package service

import (
	"context"
	"time"

	"github.com/villagereg/landregistry/common/derrors"
	"github.com/villagereg/landregistry/common/logger"
)

// withRetry runs a ledger write, retrying transient store failures with
// doubling backoff. Non-retryable failures abort immediately. Every ledger
// write is a single transaction, so a failed attempt leaves nothing behind.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, log *logger.Logger, op string, fn func() error) error {
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Conflicts are retryable only with a fresh read, which is the
		// caller's decision; only transient store failures retry here.
		if derrors.KindOf(err) != derrors.KindPersistence {
			return err
		}

		if attempt < attempts {
			log.Warn("ledger write failed, retrying",
				"operation", op,
				"attempt", attempt,
				"backoff", backoff,
				"error", err,
			)

			select {
			case <-ctx.Done():
				return derrors.Wrap(ctx.Err(), derrors.KindPersistence, "ledger write cancelled")
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return derrors.Wrap(err, derrors.KindPersistence, "ledger write failed after retries; no changes were committed")
}
