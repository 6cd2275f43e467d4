package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("Increment", func(t *testing.T) {
		storage.Increment(Analyses, 2)
		storage.Increment(SuggestionFallbacks, 1)
		storage.Increment(GenerationCacheHits, 3)
		stats := storage.GetCurrentStats()

		if stats.Analyses != 2 {
			t.Errorf("Expected 2 analyses, got %d", stats.Analyses)
		}
		if stats.SuggestionFallbacks != 1 {
			t.Errorf("Expected 1 fallback, got %d", stats.SuggestionFallbacks)
		}
		if stats.GenerationCacheHits != 3 {
			t.Errorf("Expected 3 cache hits, got %d", stats.GenerationCacheHits)
		}
		if stats.LastUpdated.IsZero() {
			t.Error("LastUpdated should be set")
		}
	})

	t.Run("UnknownCounterIgnored", func(t *testing.T) {
		before := storage.GetCurrentStats()
		storage.Increment(Counter("bogus"), 5)
		after := storage.GetCurrentStats()
		if before != after {
			t.Errorf("unknown counter changed stats: %+v -> %+v", before, after)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		oldMonth := time.Now().AddDate(0, -2, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.stats[oldMonth] = &MonthlyStats{Analyses: 100}
		storage.mutex.Unlock()

		storage.Cleanup(1)

		if _, exists := storage.GetMonthlyStats(oldMonth); exists {
			t.Error("Old stats should have been cleaned up")
		}
		if months := storage.GetAllMonths(); len(months) != 1 {
			t.Errorf("Expected only the current month, got %v", months)
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats().Optimizations

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					storage.Increment(Optimizations, 1)
					storage.GetCurrentStats()
				}
			}()
		}
		wg.Wait()

		if got := storage.GetCurrentStats().Optimizations - before; got != 1000 {
			t.Errorf("Expected 1000 optimizations, got %d", got)
		}
	})

	t.Run("PersistenceOnShutdown", func(t *testing.T) {
		want := storage.GetCurrentStats()
		if err := storage.Shutdown(); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}
		// a second call must not block or panic
		if err := storage.Shutdown(); err != nil {
			t.Fatalf("second Shutdown failed: %v", err)
		}

		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		if err != nil {
			t.Fatalf("Failed to stat file: %v", err)
		}
		if info.Size() > 1024 {
			t.Errorf("File size too large: %d bytes", info.Size())
		}

		reloaded, err := NewStorage(tempDir)
		if err != nil {
			t.Fatalf("Failed to reopen storage: %v", err)
		}
		defer reloaded.Shutdown()

		got := reloaded.GetCurrentStats()
		if got.Analyses != want.Analyses || got.Optimizations != want.Optimizations {
			t.Errorf("reloaded stats %+v, want %+v", got, want)
		}
	})
}

func TestStorageMonthRollover(t *testing.T) {
	now := time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC)
	storage, err := NewStorage(t.TempDir(), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Shutdown()

	storage.Increment(KeywordSuggestions, 1)
	now = now.Add(2 * time.Hour)
	storage.Increment(KeywordSuggestions, 4)

	jan, ok := storage.GetMonthlyStats("2026-01")
	if !ok || jan.KeywordSuggestions != 1 {
		t.Errorf("January stats = %+v (found %v), want 1 suggestion", jan, ok)
	}
	feb, ok := storage.GetMonthlyStats("2026-02")
	if !ok || feb.KeywordSuggestions != 4 {
		t.Errorf("February stats = %+v (found %v), want 4 suggestions", feb, ok)
	}

	months := storage.GetAllMonths()
	if len(months) != 2 || months[0] != "2026-02" {
		t.Errorf("GetAllMonths = %v, want newest first", months)
	}

	storage.Cleanup(2)
	if len(storage.GetAllMonths()) != 2 {
		t.Error("Cleanup(2) should keep both months")
	}
}

func TestStorageLoadsNullFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"null document", "null"},
		{"null month entry", `{"2026-01": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			if err := os.WriteFile(filepath.Join(tempDir, "stats.json"), []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write stats file: %v", err)
			}

			now := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
			storage, err := NewStorage(tempDir, WithClock(func() time.Time { return now }))
			if err != nil {
				t.Fatalf("Failed to create storage: %v", err)
			}
			defer storage.Shutdown()

			storage.Increment(Analyses, 1)
			if got := storage.GetCurrentStats().Analyses; got != 1 {
				t.Errorf("Expected 1 analysis, got %d", got)
			}
		})
	}
}

func TestNilStorageIsNoop(t *testing.T) {
	var s *Storage
	s.Increment(Analyses, 1)
	if got := s.GetCurrentStats(); got != (MonthlyStats{}) {
		t.Errorf("nil storage returned %+v", got)
	}
	if err := s.Shutdown(); err != nil {
		t.Errorf("nil Shutdown returned %v", err)
	}
}
