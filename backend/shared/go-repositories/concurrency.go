package repositories

import (
	"context"
	"fmt"
)

// DefaultConflictRetries bounds RetryOnConflict for callers that have no
// better number.
const DefaultConflictRetries = 3

/*
RetryOnConflict runs fn until it succeeds, fails with something other than a
unique violation, or maxAttempts is exhausted.

fn must be a whole unit of work (typically one transaction) that re-reads
state on every attempt: a unique violation means another writer committed
first and the next read will see its row.
*/
func RetryOnConflict(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(ctx)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
		// someone else inserted first – retry
	}
	return fmt.Errorf("too much contention after %d attempts: %w", maxAttempts, err)
}
