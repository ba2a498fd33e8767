package planner

import "time"

// Task mirrors the host store's task record. The planner never mutates tasks;
// it only reads them and emits blocks, schedule entries and merge plans.
type Task struct {
	ID        string
	Title     string
	Notes     string
	ProjectID string
	TagIDs    []string
	ParentID  string
	Created   time.Time
	Completed bool

	// Estimate is the total estimated work; Spent is what has been tracked
	// against it so far. SpentPerDay breaks Spent down by calendar day,
	// keyed "2006-01-02" in local time.
	Estimate    time.Duration
	Spent       time.Duration
	SpentPerDay map[string]time.Duration

	// Due is the host's generic due-date field. It doubles as a weak deadline
	// source; a "Deadline:" line in Notes takes precedence over it.
	Due *time.Time

	// Scheduled is an absolute start assigned by a previous run, or set by
	// hand for fixed tasks.
	Scheduled *time.Time
}

// Remaining returns estimate minus spent, floored at zero.
func (t *Task) Remaining() time.Duration {
	r := t.Estimate - t.Spent
	if r < 0 {
		return 0
	}
	return r
}

// Tag is a host tag record.
type Tag struct {
	ID    string
	Title string
}

// Project is a host project record.
type Project struct {
	ID    string
	Title string
}

// Block is one schedulable unit of a task's estimated work. Blocks are
// created per run and discarded at run end; their only durable effect is the
// schedule entries and the host-side apply step.
type Block struct {
	TaskID string

	// Index is the zero-based position among siblings; Total is the sibling
	// count, bumped on every sibling when a dynamic split appends a new one.
	Index int
	Total int

	// Estimate includes the inherited Spent portion on the first block only,
	// so tracked effort and one fresh block of work travel together and the
	// eventual merge-back is lossless.
	Estimate time.Duration
	Spent    time.Duration

	// RealTags are the task's own tag names; VirtualTags are inherited from
	// the ancestor chain. Kept separate for provenance, unioned for
	// scheduling eligibility.
	RealTags    []string
	VirtualTags []string

	// Prev/Next are sibling indexes forming the scheduling order. -1 when
	// absent. After a dynamic split the list order diverges from index order.
	Prev int
	Next int
}

// Remaining returns the calendar time the block still needs.
func (b *Block) Remaining() time.Duration {
	r := b.Estimate - b.Spent
	if r < 0 {
		return 0
	}
	return r
}

// Tags returns real and virtual tags unioned, duplicates removed, real first.
func (b *Block) Tags() []string {
	out := make([]string, 0, len(b.RealTags)+len(b.VirtualTags))
	seen := make(map[string]struct{}, cap(out))
	for _, lst := range [][]string{b.RealTags, b.VirtualTags} {
		for _, tg := range lst {
			if _, ok := seen[tg]; ok {
				continue
			}
			seen[tg] = struct{}{}
			out = append(out, tg)
		}
	}
	return out
}

// Entry is one committed placement of a block.
type Entry struct {
	Block *Block
	Start time.Time
	End   time.Time

	// Score is the urgency breakdown at scheduling time.
	Score Score

	// MapID is the time map the block was placed under.
	MapID string
}

// Result is the outcome of a single scheduler pass.
type Result struct {
	Entries     []Entry
	Unscheduled []*Block
}

// Miss reports a task whose deadline is not (provably) met by the schedule.
type Miss struct {
	TaskID string
	Title  string
	Due    time.Time

	// LastEnd is the end of the task's last scheduled block, nil when
	// nothing was scheduled at all.
	LastEnd *time.Time

	// UnscheduledBlocks counts sibling blocks left without a slot.
	UnscheduledBlocks int

	// OverageDays is how far past the deadline the task finishes. Nil while
	// unscheduled blocks exist, since the true overage is unknowable.
	OverageDays *float64
}
