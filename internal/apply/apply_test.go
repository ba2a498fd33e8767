package apply

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"autoplan/internal/planner"
	"autoplan/internal/store"
	"autoplan/pkg/logx"
)

var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

func testConfig() planner.Config {
	m := planner.TimeMap{ID: "work", Name: "work"}
	for d := 0; d < 7; d++ {
		m.Days[d] = &planner.Window{StartHour: 9, EndHour: 17}
	}
	return planner.Config{
		BlockMinutes:    120,
		MinBlockMinutes: 30,
		TimeMaps:        []planner.TimeMap{m},
		DefaultMapID:    "work",
		HorizonDays:     30,
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "tasks.db")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strp(s string) *string               { return &s }
func durp(d time.Duration) *time.Duration { return &d }

func TestPlanRewritesMultiBlockTask(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	a := New(s, logx.Nop())
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.TaskFields{
		Title:       strp("Write report"),
		Notes:       strp("research first"),
		Estimate:    durp(6 * time.Hour),
		Spent:       durp(time.Hour),
		SpentPerDay: map[string]time.Duration{"2026-02-27": time.Hour},
	})
	if err != nil {
		t.Fatal(err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	res := planner.Schedule(snap, testConfig(), monday)
	rep := a.Plan(ctx, snap, res)
	if len(rep.Errors) != 0 {
		t.Fatalf("errors: %v", rep.Errors)
	}
	// 5h remaining in 2h blocks: the original plus two fresh siblings.
	if rep.Updated != 1 || len(rep.Created) != 2 {
		t.Fatalf("report = %+v", rep)
	}

	after, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}

	orig, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if orig.Title != "Write report I" {
		t.Fatalf("original title = %q", orig.Title)
	}
	info, ok := planner.ParseBlockInfo(orig.Notes)
	if !ok || info.OriginID != id || info.Index != 1 || info.Total != 3 {
		t.Fatalf("original markers = %+v ok=%v", info, ok)
	}
	if orig.Spent != time.Hour || orig.SpentPerDay["2026-02-27"] != time.Hour {
		t.Fatal("tracked effort must stay on block one")
	}
	// Block one = 1h spent + 2h scheduled work.
	if orig.Estimate != 3*time.Hour {
		t.Fatalf("block one estimate = %v", orig.Estimate)
	}
	if orig.Scheduled == nil || !orig.Scheduled.Equal(monday) {
		t.Fatalf("block one scheduled = %v", orig.Scheduled)
	}

	var sum time.Duration
	for _, tk := range after.SortedTasks() {
		sum += tk.Estimate
		if tk.ID == id {
			continue
		}
		bi, ok := planner.ParseBlockInfo(tk.Notes)
		if !ok || bi.OriginID != id {
			t.Fatalf("sibling %q carries markers %+v ok=%v", tk.Title, bi, ok)
		}
		if tk.Scheduled == nil {
			t.Fatalf("sibling %q has no slot", tk.Title)
		}
	}
	if sum != 6*time.Hour {
		t.Fatalf("estimates sum to %v, want the original 6h", sum)
	}
}

func TestPlanSingleBlockOnlySetsSlot(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	a := New(s, logx.Nop())
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.TaskFields{
		Title:    strp("Quick fix"),
		Notes:    strp("just do it"),
		Estimate: durp(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	snap, _ := s.Snapshot(ctx)
	res := planner.Schedule(snap, testConfig(), monday)
	if rep := a.Plan(ctx, snap, res); len(rep.Errors) != 0 {
		t.Fatalf("errors: %v", rep.Errors)
	}

	got, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Quick fix" || got.Notes != "just do it" {
		t.Fatalf("single-block task was rewritten: %+v", got)
	}
	if got.Scheduled == nil {
		t.Fatal("expected a scheduled slot")
	}
}

func TestMergesRestoreOriginal(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	a := New(s, logx.Nop())
	ctx := context.Background()

	id, err := s.CreateTask(ctx, store.TaskFields{
		Title:    strp("Write report"),
		Notes:    strp("research first"),
		Estimate: durp(6 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	snap, _ := s.Snapshot(ctx)
	res := planner.Schedule(snap, testConfig(), monday)
	a.Plan(ctx, snap, res)

	// Split state on disk; now fold it back.
	snap, _ = s.Snapshot(ctx)
	plans := planner.PlanAllMerges(snap)
	if len(plans) != 1 {
		t.Fatalf("got %d merge plans", len(plans))
	}
	rep := a.Merges(ctx, plans)
	if len(rep.Errors) != 0 {
		t.Fatalf("errors: %v", rep.Errors)
	}
	if rep.Deleted != 2 || rep.Updated != 1 {
		t.Fatalf("report = %+v", rep)
	}

	after, _ := s.Snapshot(ctx)
	if len(after.Tasks) != 1 {
		t.Fatalf("got %d tasks after merge, want 1", len(after.Tasks))
	}
	got := after.Task(id)
	if got == nil {
		t.Fatal("original id did not survive")
	}
	if got.Title != "Write report" || got.Notes != "research first" {
		t.Fatalf("merged task = %+v", got)
	}
	if got.Estimate != 6*time.Hour {
		t.Fatalf("estimate = %v", got.Estimate)
	}
	if got.Scheduled != nil {
		t.Fatal("merge must clear the slot")
	}
	if planner.IsSplitBlock(got.Notes) {
		t.Fatal("markers must be gone")
	}
}
