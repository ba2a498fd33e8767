package planner

import (
	"math"
	"testing"
	"time"
)

func TestAutoAdjustStopsWhenClean(t *testing.T) {
	t.Parallel()
	tk := task("t1", "Easy", hours(2))
	due := monday.AddDate(0, 0, 7)
	tk.Due = &due

	out := ScheduleWithAutoAdjust(snapshotOf(tk), baseConfig(), monday)
	if out.Attempts != 1 {
		t.Fatalf("clean schedule took %d attempts, want 1", out.Attempts)
	}
	if len(out.Misses) != 0 {
		t.Fatalf("got %d misses", len(out.Misses))
	}
	if out.UrgencyWeight != 1.0 {
		t.Fatalf("urgency weight = %v, weights must be untouched on a clean first pass", out.UrgencyWeight)
	}
}

func TestAutoAdjustExhaustsToZero(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.HorizonDays = 0

	// 30h against one 8h day: no weighting can fix a capacity shortfall.
	tk := task("t1", "Impossible", hours(30))
	due := monday.AddDate(0, 0, 1)
	tk.Due = &due

	out := ScheduleWithAutoAdjust(snapshotOf(tk), cfg, monday)
	if out.UrgencyWeight != 0 {
		t.Fatalf("urgency weight = %v, want the final attempt at exactly zero", out.UrgencyWeight)
	}
	// 1.0 down in 0.1 steps plus the final zero attempt.
	if out.Attempts != 11 {
		t.Fatalf("attempts = %d, want 11", out.Attempts)
	}
	if len(out.Misses) == 0 {
		t.Fatal("the shortfall must still be reported")
	}
	// Deadline weight grows to twice its initial value as urgency reaches zero.
	if math.Abs(out.DeadlineWeight-24) > 1e-9 {
		t.Fatalf("deadline weight = %v, want 24", out.DeadlineWeight)
	}
}

func TestAutoAdjustRecoversDeadline(t *testing.T) {
	t.Parallel()
	tags := []Tag{{ID: "tg1", Title: "shiny"}}
	cfg := baseConfig()
	cfg.HorizonDays = 1
	cfg.TagBoosts = map[string]float64{"shiny": 100}
	cfg.BlockMinutes = 8 * 60

	// The boosted filler would hog day one and push the dated task past its
	// deadline; dropping urgency weight lets deadline pressure reclaim it.
	filler := task("b-filler", "Shiny filler", hours(8))
	filler.TagIDs = []string{"tg1"}
	dated := task("a-dated", "Dated", hours(8))
	due := time.Date(2026, 3, 2, 23, 0, 0, 0, time.Local) // Monday evening
	dated.Due = &due

	snap := NewSnapshot([]*Task{filler, dated}, tags, nil)
	out := ScheduleWithAutoAdjust(snap, cfg, monday)

	if len(out.Misses) != 0 {
		t.Fatalf("expected the adjusted schedule to be clean, got %d misses", len(out.Misses))
	}
	if out.Attempts < 2 {
		t.Fatalf("attempts = %d, expected the first pass to miss", out.Attempts)
	}
	if out.UrgencyWeight >= 1.0 {
		t.Fatalf("urgency weight = %v, should have been lowered", out.UrgencyWeight)
	}
	if out.Result.Entries[0].Block.TaskID != "a-dated" {
		t.Fatalf("dated task should end up first, got %s", out.Result.Entries[0].Block.TaskID)
	}
}
