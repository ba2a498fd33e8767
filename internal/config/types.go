package config

import (
	"time"

	"autoplan/internal/planner"
)

// Config is the on-disk configuration. YAML and JSON are both accepted; YAML
// is coerced to JSON and strict-decoded, so unknown keys are rejected early.
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Storage StorageConfig `json:"storage"`
	Planner PlannerConfig `json:"planner"`
	Daemon  *DaemonConfig `json:"daemon,omitempty"`
	Notify  *NotifyConfig `json:"notify,omitempty"`
}

type LoggingConfig struct {
	Level   string `json:"level,omitempty"`
	Console bool   `json:"console,omitempty"`
}

type StorageConfig struct {
	// Path of the SQLite task database.
	Path string `json:"path"`

	// BusyTimeout is a Go duration string (e.g. "5s").
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// PlannerConfig carries the scheduling knobs. Every field is optional;
// invalid or missing values silently fall back to documented defaults and are
// never fatal.
type PlannerConfig struct {
	UrgencyWeight  float64 `json:"urgency_weight,omitempty"`
	DeadlineWeight float64 `json:"deadline_weight,omitempty"`

	DurationFormula string  `json:"duration_formula,omitempty"` // linear|inverse|log|none
	DurationWeight  float64 `json:"duration_weight,omitempty"`
	OldnessFormula  string  `json:"oldness_formula,omitempty"` // linear|log|exponential|none
	OldnessWeight   float64 `json:"oldness_weight,omitempty"`
	DeadlineFormula string  `json:"deadline_formula,omitempty"` // linear|aggressive

	BlockMinutes    int `json:"block_minutes,omitempty"`
	MinBlockMinutes int `json:"min_block_minutes,omitempty"`

	TagBoosts     map[string]float64 `json:"tag_boosts,omitempty"`
	ProjectBoosts map[string]float64 `json:"project_boosts,omitempty"`

	TimeMaps    []TimeMapConfig   `json:"time_maps,omitempty"`
	TagMaps     map[string]string `json:"tag_maps,omitempty"`
	ProjectMaps map[string]string `json:"project_maps,omitempty"`
	DefaultMap  string            `json:"default_map,omitempty"`

	// Legacy single-window settings, used to synthesize a time map when
	// time_maps is empty.
	DayStartHour int   `json:"day_start_hour,omitempty"`
	DayHours     int   `json:"day_hours,omitempty"`
	SkipWeekdays []int `json:"skip_weekdays,omitempty"` // 0=Sunday .. 6=Saturday

	NoRescheduleTag string `json:"no_reschedule_tag,omitempty"`
	HorizonDays     int    `json:"horizon_days,omitempty"`
	AutoAdjust      bool   `json:"auto_adjust,omitempty"`
}

// TimeMapConfig is one weekly template. Days maps weekday names (sun..sat)
// to windows; omitted days are non-working.
type TimeMapConfig struct {
	ID   string                  `json:"id"`
	Name string                  `json:"name,omitempty"`
	Days map[string]WindowConfig `json:"days"`
}

type WindowConfig struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type DaemonConfig struct {
	Enabled bool `json:"enabled"`

	// Schedule is a cron spec ("30 6 * * *") or a daily HH:MM ("06:30").
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"` // IANA TZ

	// WatchConfig re-plans when this config file changes on disk.
	WatchConfig bool `json:"watch_config,omitempty"`
	PlanOnStart bool `json:"plan_on_start,omitempty"`
}

type NotifyConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token,omitempty"`
	ChatID     int64  `json:"chat_id,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// PlannerValues converts the on-disk knobs to the engine's explicit config
// value. Unrecognized formula names and out-of-range numbers fall back to the
// engine defaults via planner.Config.WithDefaults.
func (c *Config) PlannerValues() planner.Config {
	p := c.Planner
	out := planner.Config{
		UrgencyWeight:   p.UrgencyWeight,
		DeadlineWeight:  p.DeadlineWeight,
		TagBoosts:       p.TagBoosts,
		ProjectBoosts:   p.ProjectBoosts,
		DurationFormula: planner.ParseDurationFormula(p.DurationFormula),
		DurationWeight:  p.DurationWeight,
		OldnessFormula:  planner.ParseOldnessFormula(p.OldnessFormula),
		OldnessWeight:   p.OldnessWeight,
		DeadlineFormula: planner.ParseDeadlineFormula(p.DeadlineFormula),
		BlockMinutes:    p.BlockMinutes,
		MinBlockMinutes: p.MinBlockMinutes,
		TagMaps:         p.TagMaps,
		ProjectMaps:     p.ProjectMaps,
		DefaultMapID:    p.DefaultMap,
		DayStartHour:    p.DayStartHour,
		DayHours:        p.DayHours,
		NoRescheduleTag: p.NoRescheduleTag,
		HorizonDays:     p.HorizonDays,
		AutoAdjust:      p.AutoAdjust,
	}
	for _, d := range p.SkipWeekdays {
		if d >= 0 && d <= 6 {
			out.SkipWeekdays = append(out.SkipWeekdays, time.Weekday(d))
		}
	}
	for _, tm := range p.TimeMaps {
		m := planner.TimeMap{ID: tm.ID, Name: tm.Name}
		for name, w := range tm.Days {
			d, ok := weekdayNames[name]
			if !ok {
				continue
			}
			if w.End <= w.Start {
				continue
			}
			m.Days[int(d)] = &planner.Window{StartHour: w.Start, EndHour: w.End}
		}
		if m.ID != "" {
			out.TimeMaps = append(out.TimeMaps, m)
		}
	}
	return out.WithDefaults()
}
