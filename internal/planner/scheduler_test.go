package planner

import (
	"testing"
	"time"
)

func TestScheduleBlockLayout(t *testing.T) {
	t.Parallel()
	tk := task("t1", "Big feature", hours(12))
	res := Schedule(snapshotOf(tk), baseConfig(), monday)

	if len(res.Unscheduled) != 0 {
		t.Fatalf("expected everything placed, %d blocks left over", len(res.Unscheduled))
	}
	if len(res.Entries) != 6 {
		t.Fatalf("got %d entries, want 6 two-hour blocks", len(res.Entries))
	}

	at := func(day, hour int) time.Time {
		return time.Date(2026, 3, 2+day, hour, 0, 0, 0, time.Local)
	}
	wantStarts := []time.Time{
		at(0, 9), at(0, 11), at(0, 13), at(0, 15), // Monday fills the 8h window
		at(1, 9), at(1, 11), // spills into Tuesday
	}
	for i, e := range res.Entries {
		if !e.Start.Equal(wantStarts[i]) {
			t.Fatalf("entry %d starts %v, want %v", i, e.Start, wantStarts[i])
		}
		if e.End.Sub(e.Start) != hours(2) {
			t.Fatalf("entry %d spans %v, want 2h", i, e.End.Sub(e.Start))
		}
		if e.Block.TaskID != "t1" || e.Block.Index != i {
			t.Fatalf("entry %d is block %s/%d, want t1/%d", i, e.Block.TaskID, e.Block.Index, i)
		}
	}
}

func TestScheduleOrdersByUrgency(t *testing.T) {
	t.Parallel()
	tags := []Tag{{ID: "tg1", Title: "hot"}}
	plain := task("a-plain", "Plain", hours(2))
	boosted := task("b-boosted", "Boosted", hours(2))
	boosted.TagIDs = []string{"tg1"}

	cfg := baseConfig()
	cfg.TagBoosts = map[string]float64{"hot": 10}

	snap := NewSnapshot([]*Task{plain, boosted}, tags, nil)
	res := Schedule(snap, cfg, monday)

	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries", len(res.Entries))
	}
	if res.Entries[0].Block.TaskID != "b-boosted" {
		t.Fatalf("boosted task should go first, got %s", res.Entries[0].Block.TaskID)
	}
	if res.Entries[0].Score.Total <= res.Entries[1].Score.Total {
		t.Fatal("first placement should carry the higher score")
	}
}

func TestScheduleDeadlinePressure(t *testing.T) {
	t.Parallel()
	soon := task("b-soon", "Due soon", hours(2))
	d1 := monday.AddDate(0, 0, 2)
	soon.Due = &d1
	later := task("a-later", "Due later", hours(2))
	d2 := monday.AddDate(0, 0, 10)
	later.Due = &d2

	snap := NewSnapshot([]*Task{soon, later}, nil, nil)
	res := Schedule(snap, baseConfig(), monday)

	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries", len(res.Entries))
	}
	if res.Entries[0].Block.TaskID != "b-soon" {
		t.Fatalf("the tighter deadline should be placed first, got %s", res.Entries[0].Block.TaskID)
	}
}

func TestScheduleDeterministicTieBreak(t *testing.T) {
	t.Parallel()
	// Same creation time, same everything: lexical task id decides.
	a := task("aaa", "One", hours(2))
	b := task("bbb", "Two", hours(2))
	snap := NewSnapshot([]*Task{b, a}, nil, nil)

	for i := 0; i < 3; i++ {
		res := Schedule(snap, baseConfig(), monday)
		if res.Entries[0].Block.TaskID != "aaa" {
			t.Fatalf("run %d: tie broke to %s, want aaa", i, res.Entries[0].Block.TaskID)
		}
	}
}

func TestScheduleRespectsCapacity(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.BlockMinutes = 8 * 60
	a := task("a", "First", hours(8))
	b := task("b", "Second", hours(8))
	snap := NewSnapshot([]*Task{a, b}, nil, nil)
	res := Schedule(snap, cfg, monday)

	byDay := make(map[string]time.Duration)
	for _, e := range res.Entries {
		byDay[e.Start.Format("2006-01-02")] += e.End.Sub(e.Start)
	}
	for day, total := range byDay {
		if total > hours(8) {
			t.Fatalf("day %s carries %v, exceeds the 8h window", day, total)
		}
	}
	if len(res.Entries) != 2 || res.Entries[0].Start.Day() == res.Entries[1].Start.Day() {
		t.Fatalf("two 8h tasks must land on different days: %+v", res.Entries)
	}
}

func TestScheduleDynamicSplit(t *testing.T) {
	t.Parallel()
	cfg := Config{
		BlockMinutes:    4 * 60,
		MinBlockMinutes: 30,
		TimeMaps:        []TimeMap{allDayMap("short", 9, 12)},
		DefaultMapID:    "short",
		HorizonDays:     10,
	}
	tk := task("t1", "Task", hours(4))
	res := Schedule(snapshotOf(tk), cfg, monday)

	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries, want a split across two days", len(res.Entries))
	}
	first, second := res.Entries[0], res.Entries[1]
	if first.End.Sub(first.Start) != hours(3) {
		t.Fatalf("first placement spans %v, want the full 3h day", first.End.Sub(first.Start))
	}
	if second.End.Sub(second.Start) != hours(1) {
		t.Fatalf("carved-off remainder spans %v, want 1h", second.End.Sub(second.Start))
	}
	if second.Start.Day() != first.Start.Day()+1 {
		t.Fatal("remainder should land on the next day")
	}
	// Duration is redistributed, never created.
	var sum time.Duration
	for _, e := range res.Entries {
		sum += e.Block.Estimate
	}
	if sum != hours(4) {
		t.Fatalf("block estimates sum to %v, want 4h", sum)
	}
	if first.Block.Total != 2 || second.Block.Total != 2 {
		t.Fatal("dynamic split must bump Total on all siblings")
	}
}

func TestScheduleLeavesOverflowUnscheduled(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.HorizonDays = 1
	tk := task("t1", "Huge", hours(40))
	res := Schedule(snapshotOf(tk), cfg, monday)

	var placed time.Duration
	for _, e := range res.Entries {
		placed += e.End.Sub(e.Start)
	}
	// Two 8h days inside the horizon (day 0 and day 1).
	if placed != hours(16) {
		t.Fatalf("placed %v, want 16h", placed)
	}
	if len(res.Unscheduled) == 0 {
		t.Fatal("overflow blocks must surface as unscheduled")
	}
	var left time.Duration
	for _, b := range res.Unscheduled {
		left += b.Remaining()
	}
	if placed+left != hours(40) {
		t.Fatalf("placed %v + unscheduled %v != 40h", placed, left)
	}
}

func TestScheduleClipsFirstDayToNow(t *testing.T) {
	t.Parallel()
	tk := task("t1", "Task", hours(8))
	at := time.Date(2026, 3, 2, 13, 0, 0, 0, time.Local)
	res := Schedule(snapshotOf(tk), baseConfig(), at)

	if len(res.Entries) == 0 {
		t.Fatal("expected placements")
	}
	if res.Entries[0].Start.Before(at) {
		t.Fatalf("first placement %v starts before now %v", res.Entries[0].Start, at)
	}
	// Only 4h remain on Monday; the rest moves to Tuesday.
	var mondayTotal time.Duration
	for _, e := range res.Entries {
		if e.Start.Day() == 2 {
			mondayTotal += e.End.Sub(e.Start)
		}
	}
	if mondayTotal != hours(4) {
		t.Fatalf("monday carries %v, want 4h", mondayTotal)
	}
}

func TestScheduleSkipsNonWorkingDays(t *testing.T) {
	t.Parallel()
	m := TimeMap{ID: "weekdays", Name: "weekdays"}
	for d := int(time.Monday); d <= int(time.Friday); d++ {
		m.Days[d] = &Window{StartHour: 9, EndHour: 17}
	}
	cfg := baseConfig()
	cfg.TimeMaps = []TimeMap{m}
	cfg.DefaultMapID = "weekdays"

	// Friday morning with 16h of work: 8h Friday, then the weekend is skipped.
	friday := time.Date(2026, 3, 6, 9, 0, 0, 0, time.Local)
	tk := task("t1", "Task", hours(16))
	cfg.BlockMinutes = 8 * 60
	res := Schedule(snapshotOf(tk), cfg, friday)

	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries", len(res.Entries))
	}
	if wd := res.Entries[1].Start.Weekday(); wd != time.Monday {
		t.Fatalf("second block lands on %v, want Monday", wd)
	}
}
