package fs_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/storage/fs"
)

func BenchmarkFS_Load_1000Reminders(b *testing.B) {
	tmpDir, err := os.MkdirTemp("", "reminders-bench-*")
	if err != nil {
		b.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := fs.NewStore(tmpDir)
	if err != nil {
		b.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	list := make([]domain.Reminder, 1000)
	for i := range list {
		list[i] = domain.Reminder{
			ID:        fmt.Sprintf("r-%d", i),
			Title:     "Benchmark Reminder Payload",
			Kind:      domain.KindRecurring,
			Level:     domain.LevelQuick,
			CreatedAt: now,
			UpdatedAt: now,
			Recurring: &domain.Recurring{
				Schedule:  domain.Schedule{Type: domain.ScheduleDaily, TimeOfDay: domain.TimeOfDay{Hour: 9}},
				NextDueAt: now.Add(time.Duration(i) * time.Hour),
				Enabled:   true,
			},
		}
	}
	if err := store.Save(ctx, "bench", list); err != nil {
		b.Fatalf("setup failed: %v", err)
	}

	for b.Loop() {
		got, err := store.Load(ctx, "bench")
		if err != nil {
			b.Fatalf("Load failed: %v", err)
		}
		if len(got) != 1000 {
			b.Fatalf("expected 1000 reminders, got %d", len(got))
		}
	}
}
