package planner

import (
	"testing"
	"time"
)

func TestSplitConservation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		estimate time.Duration
		spent    time.Duration
		block    time.Duration
		want     []time.Duration
	}{
		{name: "even remainder", estimate: hours(5), block: hours(2), want: []time.Duration{hours(2), hours(2), hours(1)}},
		{name: "exact fit", estimate: hours(4), block: hours(2), want: []time.Duration{hours(2), hours(2)}},
		{name: "single short", estimate: hours(1), block: hours(2), want: []time.Duration{hours(1)}},
		{name: "spent travels with first", estimate: hours(5), spent: hours(1), block: hours(2), want: []time.Duration{hours(3), hours(2)}},
		{name: "spent exceeds one block", estimate: hours(5), spent: hours(4.5), block: hours(2), want: []time.Duration{hours(5)}},
		{name: "zero block size uses default", estimate: hours(3), block: 0, want: []time.Duration{hours(2), hours(1)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tk := task("t1", "Task", tt.estimate)
			tk.Spent = tt.spent
			blocks := SplitTask(tk, snapshotOf(tk), tt.block)

			if len(blocks) != len(tt.want) {
				t.Fatalf("got %d blocks, want %d", len(blocks), len(tt.want))
			}
			var sum time.Duration
			for i, b := range blocks {
				if b.Estimate != tt.want[i] {
					t.Fatalf("block %d estimate = %v, want %v", i, b.Estimate, tt.want[i])
				}
				if b.Total != len(tt.want) {
					t.Fatalf("block %d total = %d, want %d", i, b.Total, len(tt.want))
				}
				if i > 0 && b.Spent != 0 {
					t.Fatalf("block %d carries spent %v, only the first block may", i, b.Spent)
				}
				sum += b.Estimate
			}
			if sum != tt.estimate {
				t.Fatalf("sum of block estimates = %v, want %v", sum, tt.estimate)
			}
			if blocks[0].Spent != tt.spent {
				t.Fatalf("first block spent = %v, want %v", blocks[0].Spent, tt.spent)
			}
		})
	}
}

func TestSplitCompletedOrOverspentYieldsNothing(t *testing.T) {
	t.Parallel()
	tk := task("t1", "Done", hours(2))
	tk.Spent = hours(2)
	if blocks := SplitTask(tk, snapshotOf(tk), hours(1)); blocks != nil {
		t.Fatalf("expected no blocks, got %d", len(blocks))
	}
	tk.Spent = hours(3)
	if blocks := SplitTask(tk, snapshotOf(tk), hours(1)); blocks != nil {
		t.Fatalf("expected no blocks for over-spent task, got %d", len(blocks))
	}
}

func TestSplitAllSkips(t *testing.T) {
	t.Parallel()
	parent := task("parent", "Epic", hours(10))
	child := task("child", "Step", hours(2))
	child.ParentID = "parent"
	done := task("done", "Done", hours(2))
	done.Completed = true
	marked := task("marked", "Old block", hours(2))
	marked.Notes = BlockMarkers("", "orig", "Old block", 1, 2)

	arena := SplitAll(NewSnapshot([]*Task{parent, child, done, marked}, nil, nil), baseConfig())

	if got := arena.TaskIDs(); len(got) != 1 || got[0] != "child" {
		t.Fatalf("expected only child to be split, got %v", got)
	}
}

func TestSplitVirtualTags(t *testing.T) {
	t.Parallel()
	tags := []Tag{{ID: "tg1", Title: "deep"}, {ID: "tg2", Title: "ops"}}
	grandparent := task("gp", "Area", hours(0))
	grandparent.TagIDs = []string{"tg2"}
	parent := task("p", "Epic", hours(0))
	parent.ParentID = "gp"
	leaf := task("leaf", "Step", hours(2))
	leaf.ParentID = "p"
	leaf.TagIDs = []string{"tg1"}

	snap := NewSnapshot([]*Task{grandparent, parent, leaf}, tags, nil)
	blocks := SplitTask(leaf, snap, hours(2))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if len(b.RealTags) != 1 || b.RealTags[0] != "deep" {
		t.Fatalf("real tags = %v, want [deep]", b.RealTags)
	}
	if len(b.VirtualTags) != 1 || b.VirtualTags[0] != "ops" {
		t.Fatalf("virtual tags = %v, want [ops]", b.VirtualTags)
	}
	if got := b.Tags(); len(got) != 2 {
		t.Fatalf("combined tags = %v, want two entries", got)
	}
}

func TestSplitOffRedistributesDuration(t *testing.T) {
	t.Parallel()
	tk := task("t1", "Task", hours(6))
	arena := NewArena()
	arena.addTask(tk.ID, SplitTask(tk, snapshotOf(tk), hours(3)))

	cur := arena.Block("t1", 0)
	nb := arena.SplitOff(cur, hours(1))
	if nb == nil {
		t.Fatal("SplitOff returned nil")
	}

	var sum time.Duration
	for _, b := range arena.Siblings("t1") {
		if b.Total != 3 {
			t.Fatalf("block %d total = %d, want 3 after dynamic split", b.Index, b.Total)
		}
		sum += b.Estimate
	}
	if sum != hours(6) {
		t.Fatalf("sum after dynamic split = %v, want 6h (redistribute, never create)", sum)
	}

	// New sibling is linked right after the block it was carved from.
	order := arena.Ordered("t1")
	if len(order) != 3 || order[0] != cur || order[1] != nb {
		t.Fatalf("unexpected sibling order after split: %v", indexes(order))
	}
}

func indexes(blocks []*Block) []int {
	out := make([]int, len(blocks))
	for i, b := range blocks {
		out[i] = b.Index
	}
	return out
}
