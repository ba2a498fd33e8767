package planner

import (
	"testing"
	"time"
)

func TestSynthesizeLegacyMap(t *testing.T) {
	t.Parallel()
	cfg := Config{DayStartHour: 9, DayHours: 8, SkipWeekdays: []time.Weekday{time.Saturday, time.Sunday}}
	m := SynthesizeLegacyMap(cfg)

	if m.ID != LegacyMapID {
		t.Fatalf("legacy map id = %q", m.ID)
	}
	if _, ok := m.WindowOn(time.Saturday); ok {
		t.Fatal("saturday should be non-working")
	}
	w, ok := m.WindowOn(time.Wednesday)
	if !ok || w.StartHour != 9 || w.EndHour != 17 {
		t.Fatalf("wednesday window = %+v ok=%v", w, ok)
	}
}

func TestRegistrySynthesizesWhenNoMaps(t *testing.T) {
	t.Parallel()
	cfg := Config{DayStartHour: 8, DayHours: 6}
	tk := task("t1", "Task", hours(1))
	r := NewRegistry(cfg, snapshotOf(tk))

	maps := r.MapsFor(tk, snapshotOf(tk))
	if len(maps) != 1 || maps[0].ID != LegacyMapID {
		t.Fatalf("expected the synthesized default map, got %v", maps)
	}
}

func TestMapsForResolutionOrder(t *testing.T) {
	t.Parallel()
	tags := []Tag{{ID: "tg1", Title: "deep"}, {ID: "tg2", Title: "ops"}}
	projects := []Project{{ID: "pr1", Title: "Web"}}
	cfg := Config{
		TimeMaps: []TimeMap{
			allDayMap("evenings", 18, 21),
			allDayMap("mornings", 6, 9),
			allDayMap("work", 9, 17),
		},
		DefaultMapID: "work",
		ProjectMaps:  map[string]string{"Web": "evenings"},
		TagMaps:      map[string]string{"deep": "mornings", "ops": "evenings"},
	}

	// Project assignment wins outright, even with mapped tags present.
	tk := task("t1", "Task", hours(1))
	tk.ProjectID = "pr1"
	tk.TagIDs = []string{"tg1"}
	snap := NewSnapshot([]*Task{tk}, tags, projects)
	r := NewRegistry(cfg, snap)
	if maps := r.MapsFor(tk, snap); len(maps) != 1 || maps[0].ID != "evenings" {
		t.Fatalf("project-mapped task resolved to %v", maps)
	}

	// Multiple mapped tags union, in id order.
	tk2 := task("t2", "Task", hours(1))
	tk2.TagIDs = []string{"tg2", "tg1"}
	snap2 := NewSnapshot([]*Task{tk2}, tags, projects)
	r2 := NewRegistry(cfg, snap2)
	maps := r2.MapsFor(tk2, snap2)
	if len(maps) != 2 || maps[0].ID != "evenings" || maps[1].ID != "mornings" {
		t.Fatalf("tag-mapped task resolved to %v", maps)
	}

	// Nothing assigned: the default.
	tk3 := task("t3", "Task", hours(1))
	snap3 := NewSnapshot([]*Task{tk3}, tags, projects)
	r3 := NewRegistry(cfg, snap3)
	if maps := r3.MapsFor(tk3, snap3); len(maps) != 1 || maps[0].ID != "work" {
		t.Fatalf("unassigned task resolved to %v", maps)
	}
}

func TestAvailableSubtractsFixedTasks(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.NoRescheduleTag = "pinned"
	tags := []Tag{{ID: "tg1", Title: "pinned"}}

	fixed := task("fix", "Standup", hours(2))
	fixed.TagIDs = []string{"tg1"}
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	fixed.Scheduled = &at

	free := task("t1", "Task", hours(4))
	snap := NewSnapshot([]*Task{fixed, free}, tags, nil)
	r := NewRegistry(cfg, snap)
	m, _ := r.Map("work")

	if got := r.Available(m, monday); got != hours(6) {
		t.Fatalf("available = %v, want 6h (8h window minus 2h fixed)", got)
	}
	// The next day is untouched.
	if got := r.Available(m, monday.AddDate(0, 0, 1)); got != hours(8) {
		t.Fatalf("tuesday available = %v, want 8h", got)
	}
}

func TestAvailableClipsFixedOverhang(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.NoRescheduleTag = "pinned"
	tags := []Tag{{ID: "tg1", Title: "pinned"}}

	// 15:00 + 4h overhangs the 17:00 window end; only 2h count.
	fixed := task("fix", "Long meeting", hours(4))
	fixed.TagIDs = []string{"tg1"}
	at := time.Date(2026, 3, 2, 15, 0, 0, 0, time.Local)
	fixed.Scheduled = &at

	snap := NewSnapshot([]*Task{fixed}, tags, nil)
	r := NewRegistry(cfg, snap)
	m, _ := r.Map("work")

	if got := r.Available(m, monday); got != hours(6) {
		t.Fatalf("available = %v, want 6h", got)
	}
}

func TestFixedTaskDetection(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.NoRescheduleTag = "pinned"
	tags := []Tag{{ID: "tg1", Title: "pinned"}}
	at := monday

	tk := task("t1", "Task", hours(1))
	tk.TagIDs = []string{"tg1"}
	tk.Scheduled = &at
	snap := NewSnapshot([]*Task{tk}, tags, nil)
	if !IsFixedTask(tk, snap, cfg) {
		t.Fatal("tagged and scheduled task should be fixed")
	}

	tk.Completed = true
	if IsFixedTask(tk, snap, cfg) {
		t.Fatal("completed task is never fixed")
	}
	tk.Completed = false
	tk.Scheduled = nil
	if IsFixedTask(tk, snap, cfg) {
		t.Fatal("unscheduled task is never fixed")
	}
}
