package planner

import (
	"sort"
	"time"
)

// TaskPatch is the aggregated field set written back to the surviving task of
// a merge. The host-integration layer applies it.
type TaskPatch struct {
	Title       string
	Notes       string
	Estimate    time.Duration
	Spent       time.Duration
	SpentPerDay map[string]time.Duration
	Completed   bool
}

// MergePlan folds the sibling blocks of one original task back into a single
// representative. RemoveIDs are deleted by the apply step (or marked complete
// when deletion fails).
type MergePlan struct {
	OriginID  string
	KeepID    string
	Patch     TaskPatch
	RemoveIDs []string
}

// MergedSnapshot applies merge plans to a snapshot in memory: removed
// siblings disappear and surviving tasks carry their aggregated patch. Dry
// runs plan against this so previously split state never leaks into a new
// schedule, without touching the host store.
func MergedSnapshot(snap *Snapshot, plans []*MergePlan) *Snapshot {
	if len(plans) == 0 {
		return snap
	}
	removed := make(map[string]bool)
	patches := make(map[string]TaskPatch, len(plans))
	for _, p := range plans {
		if p.KeepID == "" {
			continue
		}
		patches[p.KeepID] = p.Patch
		for _, id := range p.RemoveIDs {
			removed[id] = true
		}
	}

	tasks := make([]*Task, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if removed[t.ID] {
			continue
		}
		patch, ok := patches[t.ID]
		if !ok {
			tasks = append(tasks, t)
			continue
		}
		cp := *t
		cp.Title = patch.Title
		cp.Notes = patch.Notes
		cp.Estimate = patch.Estimate
		cp.Spent = patch.Spent
		cp.SpentPerDay = patch.SpentPerDay
		cp.Completed = patch.Completed
		cp.Scheduled = nil
		tasks = append(tasks, &cp)
	}
	return NewSnapshot(tasks, snap.Tags, snap.Projects)
}

type sibling struct {
	task *Task
	info BlockInfo
}

// PlanMerge builds the merge plan for the split group the given block task
// belongs to. Returns false when the task does not carry the full marker
// pair. Remaining estimate is summed over incomplete siblings only, but
// spent time and the per-day ledgers over all siblings including completed
// ones, so tracked effort is never lost.
func PlanMerge(seed *Task, snap *Snapshot) (*MergePlan, bool) {
	info, ok := ParseBlockInfo(seed.Notes)
	if !ok {
		return nil, false
	}
	return planGroup(info.OriginID, collectSiblings(info.OriginID, snap)), true
}

// PlanAllMerges finds every split group in the snapshot and plans one merge
// per original task id. Run before any scheduling pass so the splitter always
// starts from a clean one-task-per-original-id state.
func PlanAllMerges(snap *Snapshot) []*MergePlan {
	groups := make(map[string][]sibling)
	var order []string
	for _, t := range snap.SortedTasks() {
		info, ok := ParseBlockInfo(t.Notes)
		if !ok {
			continue
		}
		if _, seen := groups[info.OriginID]; !seen {
			order = append(order, info.OriginID)
		}
		groups[info.OriginID] = append(groups[info.OriginID], sibling{task: t, info: info})
	}

	plans := make([]*MergePlan, 0, len(order))
	for _, id := range order {
		plans = append(plans, planGroup(id, groups[id]))
	}
	return plans
}

func collectSiblings(originID string, snap *Snapshot) []sibling {
	var out []sibling
	for _, t := range snap.SortedTasks() {
		info, ok := ParseBlockInfo(t.Notes)
		if !ok || info.OriginID != originID {
			continue
		}
		out = append(out, sibling{task: t, info: info})
	}
	return out
}

func planGroup(originID string, sibs []sibling) *MergePlan {
	sort.SliceStable(sibs, func(i, j int) bool { return sibs[i].info.Index < sibs[j].info.Index })

	plan := &MergePlan{OriginID: originID}
	patch := TaskPatch{SpentPerDay: make(map[string]time.Duration)}

	anyIncomplete := false
	for _, s := range sibs {
		patch.Spent += s.task.Spent
		for day, d := range s.task.SpentPerDay {
			patch.SpentPerDay[day] += d
		}
		if !s.task.Completed {
			patch.Estimate += s.task.Estimate
			anyIncomplete = true
		}
	}
	patch.Completed = !anyIncomplete

	// Prefer the sibling that still carries the original id, else the first
	// incomplete one.
	var keep *sibling
	for i := range sibs {
		if sibs[i].task.ID == originID {
			keep = &sibs[i]
			break
		}
	}
	if keep == nil {
		for i := range sibs {
			if !sibs[i].task.Completed {
				keep = &sibs[i]
				break
			}
		}
	}
	if keep == nil && len(sibs) > 0 {
		keep = &sibs[0]
	}
	if keep == nil {
		return plan
	}

	plan.KeepID = keep.task.ID
	patch.Title = keep.info.Title
	if patch.Title == "" {
		patch.Title = StripRomanSuffix(keep.task.Title)
	}
	patch.Notes = StripMarkers(keep.task.Notes)

	// A completed group keeps its tracked effort but no open estimate beyond
	// what was actually spent.
	if patch.Completed {
		patch.Estimate = patch.Spent
	}
	plan.Patch = patch

	for _, s := range sibs {
		if s.task.ID != plan.KeepID {
			plan.RemoveIDs = append(plan.RemoveIDs, s.task.ID)
		}
	}
	return plan
}
