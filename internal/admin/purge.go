package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/csvedit/internal/core"
)

// PurgeTimeout is the maximum duration for a purge.
const PurgeTimeout = 30 * time.Second

// ErrMemoryStore is returned when purging a store that lives only in this
// process, where there is nothing persistent to remove.
var ErrMemoryStore = errors.New("sessions are kept in memory; set DATABASE_URL to purge a database")

// Purge deletes sessions idle for longer than olderThan. A zero olderThan
// deletes every session. This is destructive.
func Purge(ctx context.Context, store core.Store, olderThan time.Duration, now time.Time) (int64, error) {
	if olderThan < 0 {
		return 0, fmt.Errorf("invalid purge age %s", olderThan)
	}

	ctx, cancel := context.WithTimeout(ctx, PurgeTimeout)
	defer cancel()

	// Sessions touched at exactly now are included when purging everything.
	cutoff := now.Add(-olderThan)
	if olderThan == 0 {
		cutoff = now.Add(time.Nanosecond)
	}

	n, err := store.DeleteIdleSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	slog.Info("sessions purged", "sessions", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}
