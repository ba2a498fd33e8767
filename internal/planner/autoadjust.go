package planner

import (
	"math"
	"time"
)

// adjustStep is how much urgency weight is surrendered per attempt.
const adjustStep = 0.1

// AdjustResult is the outcome of the auto-adjust search.
type AdjustResult struct {
	Result *Result
	Misses []Miss

	// Final weights of the last attempt.
	UrgencyWeight  float64
	DeadlineWeight float64
	Attempts       int
}

// ScheduleWithAutoAdjust repeatedly re-runs the scheduler, shifting weight
// from generic urgency to deadline pressure, until no deadlines are missed or
// the urgency weight reaches zero (one final attempt is made at exactly
// zero). The deadline step is sized so urgency hitting zero coincides with
// the deadline weight doubling from its initial value.
//
// This is a one-dimensional monotonic search, not an optimizer: it can only
// de-emphasize non-deadline factors. Misses that persist at weight zero mean
// a genuine capacity shortfall, not a tuning failure.
func ScheduleWithAutoAdjust(snap *Snapshot, cfg Config, now time.Time) *AdjustResult {
	cfg = cfg.WithDefaults()

	uw := cfg.UrgencyWeight
	dw := cfg.DeadlineWeight
	steps := int(math.Ceil(uw / adjustStep))
	if steps < 1 {
		steps = 1
	}
	dwStep := dw / float64(steps)

	out := &AdjustResult{}
	for {
		cfg.UrgencyWeight = uw
		cfg.DeadlineWeight = dw

		res := scheduleConfigured(snap, cfg, now)
		out.Attempts++
		out.Result = res
		out.Misses = FindMisses(snap, res, now.Location())
		out.UrgencyWeight = uw
		out.DeadlineWeight = dw

		if len(out.Misses) == 0 || uw <= 0 {
			return out
		}

		uw = math.Round((uw-adjustStep)*1000) / 1000
		if uw < 0 {
			uw = 0
		}
		dw += dwStep
	}
}
