package planner

import (
	"math"
	"time"
)

// Score is an urgency total with its component breakdown.
type Score struct {
	Tag      float64
	Project  float64
	Duration float64
	Oldness  float64
	Deadline float64
	Total    float64
}

// Urgency computes the multi-factor urgency of a task at simulated time now.
// remaining is the task's total remaining work; the scheduler passes the sum
// across all unscheduled sibling blocks so multi-block tasks are ranked by
// true remaining effort, not the size of one block.
//
// Total = (tag + project + duration + oldness) * urgencyWeight + deadline.
// Deadline stays outside the urgency multiplier so the auto-adjust loop can
// trade generic urgency against deadline pressure independently.
func Urgency(t *Task, snap *Snapshot, cfg Config, now time.Time, remaining time.Duration) Score {
	var s Score

	for _, name := range snap.EffectiveTagNames(t) {
		s.Tag += cfg.TagBoosts[name]
	}
	if title := snap.ProjectTitle(t.ProjectID); title != "" {
		s.Project = cfg.ProjectBoosts[title]
	}

	s.Duration = durationScore(cfg, remaining.Hours())
	s.Oldness = oldnessScore(cfg, now.Sub(t.Created).Hours()/24)

	if due, ok := ResolveDeadline(t, now.Location()); ok {
		u := due.Sub(now).Hours() / 24
		s.Deadline = DeadlineFactor(cfg.DeadlineFormula, u) * cfg.DeadlineWeight
	}

	s.Total = (s.Tag+s.Project+s.Duration+s.Oldness)*cfg.UrgencyWeight + s.Deadline
	return s
}

func durationScore(cfg Config, h float64) float64 {
	if cfg.DurationWeight <= 0 || h <= 0 {
		return 0
	}
	switch cfg.DurationFormula {
	case DurationLinear:
		return h * cfg.DurationWeight
	case DurationInverse:
		return 1 / (h + 1) * cfg.DurationWeight
	case DurationLog:
		return math.Log(h+1) * cfg.DurationWeight
	default:
		return 0
	}
}

func oldnessScore(cfg Config, d float64) float64 {
	if cfg.OldnessWeight <= 0 || d <= 0 {
		return 0
	}
	switch cfg.OldnessFormula {
	case OldnessLinear:
		return d * cfg.OldnessWeight
	case OldnessLog:
		return math.Log(d+1) * cfg.OldnessWeight
	case OldnessExp:
		return math.Pow(1.1, math.Min(d, 100)) * cfg.OldnessWeight
	default:
		return 0
	}
}
