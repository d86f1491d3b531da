package admin

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/core"
)

func seed(t *testing.T, store core.Store, ages map[string]time.Duration, now time.Time) {
	t.Helper()
	for id, age := range ages {
		err := store.Put(context.Background(), &core.Session{
			ID:        id,
			Document:  core.Parse("a\n1"),
			UpdatedAt: now.Add(-age),
		})
		if err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
	}
}

func TestPurge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ages := map[string]time.Duration{
		"fresh": 0,
		"hour":  time.Hour,
		"old":   48 * time.Hour,
	}

	tests := []struct {
		name      string
		olderThan time.Duration
		want      int64
		remaining int
	}{
		{"idle over a day", 24 * time.Hour, 1, 2},
		{"idle over a minute", time.Minute, 2, 1},
		{"everything", 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := core.NewMemoryStore()
			seed(t, store, ages, now)

			n, err := Purge(context.Background(), store, tt.olderThan, now)
			if err != nil {
				t.Fatalf("Purge: %v", err)
			}
			if n != tt.want {
				t.Errorf("Purge removed %d, want %d", n, tt.want)
			}
			if store.Len() != tt.remaining {
				t.Errorf("store holds %d sessions, want %d", store.Len(), tt.remaining)
			}
		})
	}
}

func TestPurge_NegativeAge(t *testing.T) {
	if _, err := Purge(context.Background(), core.NewMemoryStore(), -time.Second, time.Now()); err == nil {
		t.Fatal("Purge accepted a negative age")
	}
}

func TestOpenStore_MemoryWithoutDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Database.URL = ""

	store, closeStore, err := OpenStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer closeStore()

	if _, ok := store.(*core.MemoryStore); !ok {
		t.Errorf("OpenStore returned %T, want *core.MemoryStore", store)
	}
}
