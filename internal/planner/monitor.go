package planner

import (
	"sort"
	"time"
)

// FindMisses analyses a completed schedule against resolved deadlines. A task
// misses when its last scheduled block ends after the deadline, when sibling
// blocks are left unscheduled, or when it has a deadline but nothing was
// scheduled at all. Unsatisfiable deadlines are reports, never errors.
func FindMisses(snap *Snapshot, res *Result, loc *time.Location) []Miss {
	lastEnd := make(map[string]time.Time)
	for _, e := range res.Entries {
		if e.End.After(lastEnd[e.Block.TaskID]) {
			lastEnd[e.Block.TaskID] = e.End
		}
	}
	unsched := make(map[string]int)
	for _, b := range res.Unscheduled {
		unsched[b.TaskID]++
	}

	seen := make(map[string]bool)
	var ids []string
	for _, e := range res.Entries {
		if !seen[e.Block.TaskID] {
			seen[e.Block.TaskID] = true
			ids = append(ids, e.Block.TaskID)
		}
	}
	for _, b := range res.Unscheduled {
		if !seen[b.TaskID] {
			seen[b.TaskID] = true
			ids = append(ids, b.TaskID)
		}
	}

	var misses []Miss
	for _, id := range ids {
		t := snap.Task(id)
		if t == nil {
			continue
		}
		due, ok := ResolveDeadline(t, loc)
		if !ok {
			continue
		}

		miss := Miss{TaskID: t.ID, Title: t.Title, Due: due, UnscheduledBlocks: unsched[id]}
		if end, ok := lastEnd[id]; ok {
			e := end
			miss.LastEnd = &e
		}

		late := miss.LastEnd != nil && miss.LastEnd.After(due)
		if !late && miss.UnscheduledBlocks == 0 && miss.LastEnd != nil {
			continue
		}
		if miss.UnscheduledBlocks == 0 && miss.LastEnd != nil {
			over := miss.LastEnd.Sub(due).Hours() / 24
			miss.OverageDays = &over
		}
		misses = append(misses, miss)
	}

	sort.SliceStable(misses, func(i, j int) bool {
		if !misses[i].Due.Equal(misses[j].Due) {
			return misses[i].Due.Before(misses[j].Due)
		}
		return misses[i].TaskID < misses[j].TaskID
	})
	return misses
}
