package storage

import (
	"testing"
	"time"

	"github.com/rewired-gh/stalkd/internal/models"
)

func mustStorage(t *testing.T, maxWeeks, maxRuns int) *Storage {
	t.Helper()
	s, err := New(maxWeeks, maxRuns, ":memory:")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleWeek(id, islandID string) *models.ObservedWeek {
	now := time.Now()
	buy := 94
	return &models.ObservedWeek{
		ID:        id,
		IslandID:  islandID,
		WeekStart: now.Add(-24 * time.Hour),
		BuyPrice:  &buy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStorageAddAndGetWeek(t *testing.T) {
	s := mustStorage(t, 100, 20)
	week := sampleWeek("week-1", "island-1")

	if err := s.AddWeek(week); err != nil {
		t.Fatalf("AddWeek failed: %v", err)
	}

	got, err := s.GetWeek("week-1")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}
	if got.IslandID != "island-1" {
		t.Errorf("IslandID = %q, want island-1", got.IslandID)
	}
	if got.BuyPrice == nil || *got.BuyPrice != 94 {
		t.Errorf("BuyPrice = %v, want 94", got.BuyPrice)
	}
}

func TestStorageAddWeekUpsert(t *testing.T) {
	s := mustStorage(t, 100, 20)
	week := sampleWeek("week-1", "island-1")
	if err := s.AddWeek(week); err != nil {
		t.Fatalf("first AddWeek failed: %v", err)
	}

	newBuy := 99
	week.BuyPrice = &newBuy
	week.UpdatedAt = time.Now()
	if err := s.AddWeek(week); err != nil {
		t.Fatalf("second AddWeek failed: %v", err)
	}

	got, err := s.GetWeek("week-1")
	if err != nil {
		t.Fatalf("GetWeek failed: %v", err)
	}
	if got.BuyPrice == nil || *got.BuyPrice != 99 {
		t.Errorf("BuyPrice after upsert = %v, want 99", got.BuyPrice)
	}
}

func TestStorageGetLatestWeekForIsland(t *testing.T) {
	s := mustStorage(t, 100, 20)
	older := sampleWeek("week-1", "island-1")
	older.WeekStart = time.Now().Add(-14 * 24 * time.Hour)
	newer := sampleWeek("week-2", "island-1")
	newer.WeekStart = time.Now().Add(-7 * 24 * time.Hour)

	if err := s.AddWeek(older); err != nil {
		t.Fatalf("AddWeek(older) failed: %v", err)
	}
	if err := s.AddWeek(newer); err != nil {
		t.Fatalf("AddWeek(newer) failed: %v", err)
	}

	latest, err := s.GetLatestWeekForIsland("island-1")
	if err != nil {
		t.Fatalf("GetLatestWeekForIsland failed: %v", err)
	}
	if latest == nil || latest.ID != "week-2" {
		t.Errorf("latest week = %v, want week-2", latest)
	}
}

func TestStorageAddAndGetRuns(t *testing.T) {
	s := mustStorage(t, 100, 20)
	week := sampleWeek("week-1", "island-1")
	if err := s.AddWeek(week); err != nil {
		t.Fatalf("AddWeek failed: %v", err)
	}

	run := &models.InferenceRun{
		ID:                            "run-1",
		ObservedWeekID:                "week-1",
		FudgeFactorUsed:               0,
		TopPatternNumber:              2,
		TopPatternCategoryProbability: 0.8,
		ResultJSON:                    `[]`,
		RanAt:                         time.Now(),
	}
	if err := s.AddRun(run); err != nil {
		t.Fatalf("AddRun failed: %v", err)
	}

	runs, err := s.GetRunsForWeek("week-1")
	if err != nil {
		t.Fatalf("GetRunsForWeek failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].TopPatternNumber != 2 {
		t.Errorf("TopPatternNumber = %d, want 2", runs[0].TopPatternNumber)
	}
}

func TestStorageRotateWeeks(t *testing.T) {
	s := mustStorage(t, 3, 20)

	for i := 0; i < 5; i++ {
		week := sampleWeek(
			"week-"+time.Now().Add(time.Duration(i)*time.Second).Format("150405.000000000"),
			"island-1",
		)
		week.WeekStart = time.Now().Add(time.Duration(-5+i) * 24 * time.Hour)
		if err := s.AddWeek(week); err != nil {
			t.Fatalf("AddWeek %d failed: %v", i, err)
		}
	}

	if err := s.RotateWeeks(); err != nil {
		t.Fatalf("RotateWeeks failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM weeks`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 weeks after rotation, got %d", count)
	}
}

func TestStorageRotateRuns(t *testing.T) {
	s := mustStorage(t, 100, 3)
	week := sampleWeek("week-1", "island-1")
	if err := s.AddWeek(week); err != nil {
		t.Fatalf("AddWeek failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		run := &models.InferenceRun{
			ID:                            "run-" + time.Now().Add(time.Duration(i)*time.Millisecond).Format("150405.000000000"),
			ObservedWeekID:                "week-1",
			TopPatternNumber:              0,
			TopPatternCategoryProbability: 0.5,
			ResultJSON:                    `[]`,
			RanAt:                         time.Now().Add(time.Duration(i-5) * time.Minute),
		}
		if err := s.AddRun(run); err != nil {
			t.Fatalf("AddRun %d failed: %v", i, err)
		}
	}

	if err := s.RotateRuns(); err != nil {
		t.Fatalf("RotateRuns failed: %v", err)
	}

	runs, err := s.GetRunsForWeek("week-1")
	if err != nil {
		t.Fatalf("GetRunsForWeek failed: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs after rotation, got %d", len(runs))
	}
}
