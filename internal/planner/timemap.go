package planner

import (
	"sort"
	"time"
)

// Window is a single working window within one weekday, in whole hours.
type Window struct {
	StartHour int
	EndHour   int
}

// Minutes returns the window width in minutes.
func (w Window) Minutes() int {
	m := (w.EndHour - w.StartHour) * 60
	if m < 0 {
		return 0
	}
	return m
}

// TimeMap is a named weekly template of working windows. Days is indexed by
// time.Weekday (Sunday = 0); a nil slot means non-working. A map is a value
// object, immutable once resolved for a run.
type TimeMap struct {
	ID   string
	Name string
	Days [7]*Window
}

// WindowOn returns the working window for the given weekday.
func (m TimeMap) WindowOn(d time.Weekday) (Window, bool) {
	w := m.Days[int(d)%7]
	if w == nil || w.Minutes() <= 0 {
		return Window{}, false
	}
	return *w, true
}

// LegacyMapID names the time map synthesized from single-window settings when
// no maps are configured.
const LegacyMapID = "default"

// SynthesizeLegacyMap builds a map from the legacy start-hour/duration/skip-days
// settings.
func SynthesizeLegacyMap(cfg Config) TimeMap {
	m := TimeMap{ID: LegacyMapID, Name: "Default hours"}
	skip := make(map[time.Weekday]bool, len(cfg.SkipWeekdays))
	for _, d := range cfg.SkipWeekdays {
		skip[d] = true
	}
	for d := 0; d < 7; d++ {
		if skip[time.Weekday(d)] {
			continue
		}
		m.Days[d] = &Window{StartHour: cfg.DayStartHour, EndHour: cfg.DayStartHour + cfg.DayHours}
	}
	return m
}

type fixedSpan struct {
	start time.Time
	end   time.Time
}

// Registry resolves which time maps apply to a task and how many minutes
// remain on a given day after externally-fixed commitments.
type Registry struct {
	cfg  Config
	maps []TimeMap
	byID map[string]TimeMap

	defaultID string
	fixed     []fixedSpan
}

// NewRegistry builds the per-run registry. When no maps are configured, one
// is synthesized from the legacy single-window settings. Fixed tasks (tagged
// with the no-reschedule tag and carrying a scheduled start) are collected
// here once; their window is scheduled start plus estimate.
func NewRegistry(cfg Config, snap *Snapshot) *Registry {
	r := &Registry{cfg: cfg, byID: make(map[string]TimeMap)}

	maps := cfg.TimeMaps
	if len(maps) == 0 {
		maps = []TimeMap{SynthesizeLegacyMap(cfg)}
		r.defaultID = LegacyMapID
	} else {
		r.defaultID = cfg.DefaultMapID
		if _, ok := findMap(maps, r.defaultID); !ok {
			r.defaultID = maps[0].ID
		}
	}
	r.maps = append([]TimeMap(nil), maps...)
	sort.SliceStable(r.maps, func(i, j int) bool { return r.maps[i].ID < r.maps[j].ID })
	for _, m := range r.maps {
		r.byID[m.ID] = m
	}

	for _, t := range snap.SortedTasks() {
		if !IsFixedTask(t, snap, cfg) {
			continue
		}
		start := *t.Scheduled
		r.fixed = append(r.fixed, fixedSpan{start: start, end: start.Add(t.Estimate)})
	}
	return r
}

func findMap(maps []TimeMap, id string) (TimeMap, bool) {
	for _, m := range maps {
		if m.ID == id {
			return m, true
		}
	}
	return TimeMap{}, false
}

// IsFixedTask reports whether the task is excluded from rescheduling and its
// already-assigned time counts as consumed capacity.
func IsFixedTask(t *Task, snap *Snapshot, cfg Config) bool {
	if cfg.NoRescheduleTag == "" || t.Scheduled == nil || t.Completed {
		return false
	}
	for _, name := range snap.EffectiveTagNames(t) {
		if name == cfg.NoRescheduleTag {
			return true
		}
	}
	return false
}

// Maps returns all maps in deterministic (id) order.
func (r *Registry) Maps() []TimeMap { return r.maps }

// Map returns a map by id.
func (r *Registry) Map(id string) (TimeMap, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// MapsFor resolves the maps a task schedules under: explicit project
// assignment first, then tag assignments (a task may match several maps via
// several tags), then the default map.
func (r *Registry) MapsFor(t *Task, snap *Snapshot) []TimeMap {
	if title := snap.ProjectTitle(t.ProjectID); title != "" {
		if id, ok := r.cfg.ProjectMaps[title]; ok {
			if m, ok := r.byID[id]; ok {
				return []TimeMap{m}
			}
		}
	}

	var out []TimeMap
	seen := make(map[string]struct{})
	for _, name := range snap.EffectiveTagNames(t) {
		id, ok := r.cfg.TagMaps[name]
		if !ok {
			continue
		}
		m, ok := r.byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	if len(out) > 0 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out
	}

	if m, ok := r.byID[r.defaultID]; ok {
		return []TimeMap{m}
	}
	return nil
}

// DayWindow returns the absolute start and end of the map's working window on
// the given calendar day.
func (r *Registry) DayWindow(m TimeMap, day time.Time) (time.Time, time.Time, bool) {
	w, ok := m.WindowOn(day.Weekday())
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	y, mo, d := day.Date()
	start := time.Date(y, mo, d, w.StartHour, 0, 0, 0, day.Location())
	end := time.Date(y, mo, d, w.EndHour, 0, 0, 0, day.Location())
	return start, end, true
}

// Available returns the schedulable time on the given day under the given
// map: window width minus the overlap of fixed-task windows, each clipped to
// that day's working window.
func (r *Registry) Available(m TimeMap, day time.Time) time.Duration {
	start, end, ok := r.DayWindow(m, day)
	if !ok {
		return 0
	}
	avail := end.Sub(start)
	for _, f := range r.fixed {
		avail -= overlap(f.start, f.end, start, end)
	}
	if avail < 0 {
		return 0
	}
	return avail
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	s := aStart
	if bStart.After(s) {
		s = bStart
	}
	e := aEnd
	if bEnd.Before(e) {
		e = bEnd
	}
	if !e.After(s) {
		return 0
	}
	return e.Sub(s)
}
