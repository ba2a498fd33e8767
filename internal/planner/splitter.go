package planner

import "time"

// Arena owns all blocks of a run, indexed by (task id, split index). Dynamic
// re-splitting mutates sibling state (total-count bump, pointer relinking);
// funneling that mutation through here keeps the duration-conservation
// invariant mechanically checkable.
type Arena struct {
	siblings map[string][]*Block
	taskIDs  []string
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{siblings: make(map[string][]*Block)}
}

// TaskIDs returns the split task ids in insertion (deterministic) order.
func (a *Arena) TaskIDs() []string { return a.taskIDs }

// Siblings returns the blocks of a task in index order.
func (a *Arena) Siblings(taskID string) []*Block { return a.siblings[taskID] }

// Block returns the block at (taskID, index), or nil.
func (a *Arena) Block(taskID string, index int) *Block {
	sibs := a.siblings[taskID]
	if index < 0 || index >= len(sibs) {
		return nil
	}
	return sibs[index]
}

func (a *Arena) addTask(taskID string, blocks []*Block) {
	if len(blocks) == 0 {
		return
	}
	if _, ok := a.siblings[taskID]; !ok {
		a.taskIDs = append(a.taskIDs, taskID)
	}
	a.siblings[taskID] = blocks
}

// Ordered returns a task's blocks in scheduling order, following the sibling
// links from the head. Index order and list order diverge after a dynamic
// split, because new siblings are appended at the end of the index space but
// linked right after the block they were carved from.
func (a *Arena) Ordered(taskID string) []*Block {
	sibs := a.siblings[taskID]
	if len(sibs) == 0 {
		return nil
	}
	head := -1
	for _, b := range sibs {
		if b.Prev < 0 {
			head = b.Index
			break
		}
	}
	out := make([]*Block, 0, len(sibs))
	for i := head; i >= 0 && i < len(sibs) && len(out) < len(sibs); i = sibs[i].Next {
		out = append(out, sibs[i])
	}
	return out
}

// SplitOff performs a dynamic split: cur keeps `keep` of its remaining work
// and a new trailing sibling carries the rest. The new block is linked right
// after cur and the total count is bumped on every existing sibling, so
// total duration is redistributed, never created or destroyed.
func (a *Arena) SplitOff(cur *Block, keep time.Duration) *Block {
	rest := cur.Remaining() - keep
	if rest <= 0 {
		return nil
	}
	cur.Estimate = cur.Spent + keep

	sibs := a.siblings[cur.TaskID]
	nb := &Block{
		TaskID:      cur.TaskID,
		Index:       len(sibs),
		Estimate:    rest,
		RealTags:    cur.RealTags,
		VirtualTags: cur.VirtualTags,
		Prev:        cur.Index,
		Next:        cur.Next,
	}
	if cur.Next >= 0 {
		sibs[cur.Next].Prev = nb.Index
	}
	cur.Next = nb.Index

	sibs = append(sibs, nb)
	a.siblings[cur.TaskID] = sibs
	for _, b := range sibs {
		b.Total = len(sibs)
	}
	return nb
}

// SplitTask decomposes one task's remaining work into ordered blocks. The
// first block is min(spent+blockSize, estimate) so already-tracked effort and
// one fresh block of work travel together; the rest is cut into full-size
// blocks with a shorter final block absorbing the remainder. Returns nil when
// nothing remains (complete or over-spent).
func SplitTask(t *Task, snap *Snapshot, blockSize time.Duration) []*Block {
	if blockSize <= 0 {
		blockSize = DefaultBlockMinutes * time.Minute
	}
	if t.Remaining() <= 0 {
		return nil
	}

	real := snap.TagNames(t)
	virtual := subtractTags(snap.InheritedTagNames(t), real)

	first := t.Spent + blockSize
	if first > t.Estimate {
		first = t.Estimate
	}
	estimates := []time.Duration{first}
	for rest := t.Estimate - first; rest > 0; rest -= blockSize {
		n := blockSize
		if rest < blockSize {
			n = rest
		}
		estimates = append(estimates, n)
	}

	blocks := make([]*Block, len(estimates))
	for i, est := range estimates {
		b := &Block{
			TaskID:      t.ID,
			Index:       i,
			Total:       len(estimates),
			Estimate:    est,
			RealTags:    real,
			VirtualTags: virtual,
			Prev:        i - 1,
			Next:        i + 1,
		}
		if i == 0 {
			b.Spent = t.Spent
		}
		if i == len(estimates)-1 {
			b.Next = -1
		}
		blocks[i] = b
	}
	return blocks
}

// SplitAll splits every schedulable task into blocks. Skipped at the batch
// level: parents of other tasks (their time is represented through their
// children), completed tasks, tasks already carrying the processed marker,
// and fixed tasks.
func SplitAll(snap *Snapshot, cfg Config) *Arena {
	arena := NewArena()
	for _, t := range snap.SortedTasks() {
		if t.Completed || snap.IsParent(t.ID) || IsSplitBlock(t.Notes) {
			continue
		}
		if IsFixedTask(t, snap, cfg) {
			continue
		}
		arena.addTask(t.ID, SplitTask(t, snap, cfg.BlockSize()))
	}
	return arena
}

func subtractTags(from, remove []string) []string {
	if len(from) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(remove))
	for _, tg := range remove {
		drop[tg] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{}, len(from))
	for _, tg := range from {
		if _, ok := drop[tg]; ok {
			continue
		}
		if _, ok := seen[tg]; ok {
			continue
		}
		seen[tg] = struct{}{}
		out = append(out, tg)
	}
	return out
}
