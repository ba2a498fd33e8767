package planner

import "time"

// Schedule runs one full greedy pass: split every schedulable task into
// blocks, then walk simulated calendar days up to the horizon, filling each
// time map's remaining capacity with the highest-urgency eligible block.
//
// Urgency is recomputed after every single assignment, not once per day:
// the duration, oldness and deadline terms are functions of simulated time
// and of each task's shrinking remaining total, so a static pre-sort would be
// wrong after the first assignment.
func Schedule(snap *Snapshot, cfg Config, now time.Time) *Result {
	return scheduleConfigured(snap, cfg.WithDefaults(), now)
}

// scheduleConfigured skips WithDefaults so the auto-adjust loop can drive the
// urgency weight all the way to an explicit zero.
func scheduleConfigured(snap *Snapshot, cfg Config, now time.Time) *Result {
	reg := NewRegistry(cfg, snap)
	arena := SplitAll(snap, cfg)
	return run(snap, cfg, reg, arena, now)
}

func run(snap *Snapshot, cfg Config, reg *Registry, arena *Arena, now time.Time) *Result {
	scheduled := make(map[*Block]bool)

	// Eligibility is a property of the task, resolved once.
	taskMaps := make(map[string]map[string]bool, len(arena.TaskIDs()))
	for _, id := range arena.TaskIDs() {
		set := make(map[string]bool)
		for _, m := range reg.MapsFor(snap.Task(id), snap) {
			set[m.ID] = true
		}
		taskMaps[id] = set
	}

	remainingOf := func(taskID string) time.Duration {
		var sum time.Duration
		for _, b := range arena.Siblings(taskID) {
			if !scheduled[b] {
				sum += b.Remaining()
			}
		}
		return sum
	}
	// Blocks of one task are placed in sibling order; only the head of the
	// unscheduled remainder is ever a candidate.
	headBlock := func(taskID string) *Block {
		for _, b := range arena.Ordered(taskID) {
			if !scheduled[b] {
				return b
			}
		}
		return nil
	}
	pending := func() int {
		n := 0
		for _, id := range arena.TaskIDs() {
			for _, b := range arena.Siblings(id) {
				if !scheduled[b] {
					n++
				}
			}
		}
		return n
	}

	var entries []Entry
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for dayIdx := 0; dayIdx <= cfg.HorizonDays && pending() > 0; dayIdx++ {
		day := startDay.AddDate(0, 0, dayIdx)

		for _, m := range reg.Maps() {
			winStart, _, ok := reg.DayWindow(m, day)
			if !ok {
				continue
			}
			avail := reg.Available(m, day)
			cursor := winStart
			if dayIdx == 0 && now.After(winStart) {
				avail -= now.Sub(winStart)
				cursor = now
			}
			if avail <= 0 {
				continue
			}

			for avail > 0 {
				best, bestScore := pickBest(snap, cfg, arena, taskMaps, m.ID, headBlock, remainingOf, cursor)
				if best == nil {
					break
				}
				need := best.Remaining()
				switch {
				case need <= avail:
					entries = append(entries, Entry{Block: best, Start: cursor, End: cursor.Add(need), Score: bestScore, MapID: m.ID})
					scheduled[best] = true
					cursor = cursor.Add(need)
					avail -= need
				case avail >= cfg.MinBlockSize():
					// Dynamic split: commit only what fits, push the rest
					// into a new trailing sibling.
					arena.SplitOff(best, avail)
					entries = append(entries, Entry{Block: best, Start: cursor, End: cursor.Add(avail), Score: bestScore, MapID: m.ID})
					scheduled[best] = true
					avail = 0
				default:
					// Not even the minimum fits; this map is done for today.
					avail = 0
				}
			}
		}
	}

	var unscheduled []*Block
	for _, id := range arena.TaskIDs() {
		for _, b := range arena.Ordered(id) {
			if !scheduled[b] {
				unscheduled = append(unscheduled, b)
			}
		}
	}
	return &Result{Entries: entries, Unscheduled: unscheduled}
}

// pickBest selects the single highest-urgency unscheduled block eligible for
// the map, evaluated at the simulated clock time a placement would get. Ties
// break by earlier task creation time, then lexical task id, for full
// determinism.
func pickBest(
	snap *Snapshot,
	cfg Config,
	arena *Arena,
	taskMaps map[string]map[string]bool,
	mapID string,
	headBlock func(string) *Block,
	remainingOf func(string) time.Duration,
	at time.Time,
) (*Block, Score) {
	var best *Block
	var bestScore Score
	var bestTask *Task

	for _, id := range arena.TaskIDs() {
		if !taskMaps[id][mapID] {
			continue
		}
		b := headBlock(id)
		if b == nil {
			continue
		}
		t := snap.Task(id)
		sc := Urgency(t, snap, cfg, at, remainingOf(id))
		if best == nil || beats(sc, t, bestScore, bestTask) {
			best, bestScore, bestTask = b, sc, t
		}
	}
	return best, bestScore
}

func beats(s Score, t *Task, cur Score, curTask *Task) bool {
	if s.Total != cur.Total {
		return s.Total > cur.Total
	}
	if !t.Created.Equal(curTask.Created) {
		return t.Created.Before(curTask.Created)
	}
	return t.ID < curTask.ID
}
