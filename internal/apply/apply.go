// Package apply writes planner results back to the host store. It is the one
// place with side effects: the planner computes, this package persists.
//
// Failures are collected per item and never abort the batch; the caller
// decides how to surface them.
package apply

import (
	"context"
	"sort"
	"time"

	"autoplan/internal/planner"
	"autoplan/internal/store"
	"autoplan/pkg/logx"
)

// ItemError records one failed host operation.
type ItemError struct {
	TaskID string
	Op     string
	Err    error
}

// Report summarizes an apply batch.
type Report struct {
	Created []string
	Updated int
	Deleted int
	Errors  []ItemError
}

type Applier struct {
	store *store.Store
	log   logx.Logger
}

func New(st *store.Store, log logx.Logger) *Applier {
	return &Applier{store: st, log: log}
}

// taskBlocks is one task's blocks in sibling order, paired with their
// schedule starts where scheduled.
type taskBlocks struct {
	taskID string
	blocks []*planner.Block
	starts map[*planner.Block]time.Time
}

// Plan persists a scheduler result: multi-block tasks are rewritten into
// marker-carrying block tasks (the original keeps its id and becomes block
// one), and every scheduled block gets its concrete start.
func (a *Applier) Plan(ctx context.Context, snap *planner.Snapshot, res *planner.Result) Report {
	var rep Report
	for _, tb := range groupBlocks(res) {
		a.applyTask(ctx, snap, tb, &rep)
	}
	return rep
}

func groupBlocks(res *planner.Result) []taskBlocks {
	byTask := make(map[string]*taskBlocks)
	var order []string
	add := func(b *planner.Block) *taskBlocks {
		tb, ok := byTask[b.TaskID]
		if !ok {
			tb = &taskBlocks{taskID: b.TaskID, starts: make(map[*planner.Block]time.Time)}
			byTask[b.TaskID] = tb
			order = append(order, b.TaskID)
		}
		tb.blocks = append(tb.blocks, b)
		return tb
	}
	// Entries come in commit order, which for one task is sibling order;
	// unscheduled blocks follow in sibling order as well.
	for _, e := range res.Entries {
		add(e.Block).starts[e.Block] = e.Start
	}
	for _, b := range res.Unscheduled {
		add(b)
	}
	sort.Strings(order)

	out := make([]taskBlocks, 0, len(order))
	for _, id := range order {
		out = append(out, *byTask[id])
	}
	return out
}

func (a *Applier) applyTask(ctx context.Context, snap *planner.Snapshot, tb taskBlocks, rep *Report) {
	orig := snap.Task(tb.taskID)
	if orig == nil {
		return
	}

	// A task that fits one block is not split at all; it just gets its slot.
	if len(tb.blocks) == 1 {
		f := store.TaskFields{}
		if start, ok := tb.starts[tb.blocks[0]]; ok {
			s := start
			f.Scheduled = &s
		} else {
			f.ClearScheduled = true
		}
		if err := a.store.UpdateTask(ctx, orig.ID, f); err != nil {
			rep.Errors = append(rep.Errors, ItemError{TaskID: orig.ID, Op: "update", Err: err})
			return
		}
		rep.Updated++
		return
	}

	total := tb.blocks[0].Total
	for i, b := range tb.blocks {
		num := i + 1
		title := planner.BlockTitle(orig.Title, num)
		start, hasStart := tb.starts[b]

		if num == 1 {
			// The original task becomes block one, so tracked effort and the
			// per-day ledger stay where they are.
			notes := planner.BlockMarkers(orig.Notes, orig.ID, orig.Title, num, total)
			est := b.Estimate
			f := store.TaskFields{Title: &title, Notes: &notes, Estimate: &est}
			if hasStart {
				s := start
				f.Scheduled = &s
			} else {
				f.ClearScheduled = true
			}
			if err := a.store.UpdateTask(ctx, orig.ID, f); err != nil {
				rep.Errors = append(rep.Errors, ItemError{TaskID: orig.ID, Op: "update", Err: err})
				continue
			}
			rep.Updated++
			continue
		}

		notes := planner.BlockMarkers("", orig.ID, orig.Title, num, total)
		est := b.Estimate
		created := orig.Created
		tags := append([]string(nil), orig.TagIDs...)
		f := store.TaskFields{
			Title:     &title,
			Notes:     &notes,
			ProjectID: &orig.ProjectID,
			ParentID:  &orig.ParentID,
			Created:   &created,
			Estimate:  &est,
			TagIDs:    &tags,
		}
		if hasStart {
			s := start
			f.Scheduled = &s
		}
		id, err := a.store.CreateTask(ctx, f)
		if err != nil {
			rep.Errors = append(rep.Errors, ItemError{TaskID: orig.ID, Op: "create", Err: err})
			continue
		}
		rep.Created = append(rep.Created, id)
	}
}

// Merges persists merge plans: the surviving task gets the aggregated patch,
// the other siblings are deleted, falling back to marking them complete when
// deletion fails.
func (a *Applier) Merges(ctx context.Context, plans []*planner.MergePlan) Report {
	var rep Report
	for _, p := range plans {
		if p.KeepID == "" {
			continue
		}
		patch := p.Patch
		f := store.TaskFields{
			Title:          &patch.Title,
			Notes:          &patch.Notes,
			Estimate:       &patch.Estimate,
			Spent:          &patch.Spent,
			SpentPerDay:    patch.SpentPerDay,
			Completed:      &patch.Completed,
			ClearScheduled: true,
		}
		if err := a.store.UpdateTask(ctx, p.KeepID, f); err != nil {
			rep.Errors = append(rep.Errors, ItemError{TaskID: p.KeepID, Op: "update", Err: err})
			continue
		}
		rep.Updated++

		for _, id := range p.RemoveIDs {
			err := a.store.DeleteTask(ctx, id)
			if err == nil {
				rep.Deleted++
				continue
			}
			done := true
			if uerr := a.store.UpdateTask(ctx, id, store.TaskFields{Completed: &done}); uerr != nil {
				rep.Errors = append(rep.Errors, ItemError{TaskID: id, Op: "delete", Err: err})
				continue
			}
			a.log.Warn("sibling delete failed, marked complete instead",
				logx.String("task", id), logx.Err(err))
			rep.Updated++
		}
	}
	return rep
}
