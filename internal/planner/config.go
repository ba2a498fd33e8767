package planner

import (
	"strings"
	"time"
)

// Documented defaults. Invalid or missing config values fall back to these;
// they are never fatal.
const (
	DefaultBlockMinutes    = 120
	DefaultMinBlockMinutes = 30
	DefaultHorizonDays     = 60
	DefaultUrgencyWeight   = 1.0
	DefaultDeadlineWeight  = 12.0
	DefaultDayStartHour    = 9
	DefaultDayHours        = 8
)

// DurationFormula selects how remaining hours translate into a score.
type DurationFormula int

const (
	DurationNone DurationFormula = iota
	DurationLinear
	DurationInverse // 1/(h+1): favors short tasks
	DurationLog
)

// OldnessFormula selects how age in days translates into a score.
type OldnessFormula int

const (
	OldnessNone OldnessFormula = iota
	OldnessLinear
	OldnessLog
	OldnessExp // 1.1^min(d,100), capped to avoid numeric blow-up
)

// DeadlineFormula selects the days-until-due mapping.
type DeadlineFormula int

const (
	DeadlineLinear DeadlineFormula = iota
	DeadlineAggressive
)

// ParseDurationFormula maps legacy config strings onto the closed enum.
// Unrecognized values fall back to linear.
func ParseDurationFormula(s string) DurationFormula {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return DurationNone
	case "inverse":
		return DurationInverse
	case "log", "logarithmic":
		return DurationLog
	case "linear", "":
		return DurationLinear
	default:
		return DurationLinear
	}
}

// ParseOldnessFormula maps legacy config strings onto the closed enum.
// Unrecognized values fall back to linear.
func ParseOldnessFormula(s string) OldnessFormula {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return OldnessNone
	case "log", "logarithmic":
		return OldnessLog
	case "exp", "exponential":
		return OldnessExp
	case "linear", "":
		return OldnessLinear
	default:
		return OldnessLinear
	}
}

// ParseDeadlineFormula maps legacy config strings onto the closed enum.
// Unrecognized values fall back to linear.
func ParseDeadlineFormula(s string) DeadlineFormula {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aggressive":
		return DeadlineAggressive
	default:
		return DeadlineLinear
	}
}

// Config is the explicit planner configuration value, threaded as a parameter
// into every function in this package. Loading and persistence live in the
// host-integration layer.
type Config struct {
	// Urgency weighting. Deadline stays outside the urgency multiplier so
	// the auto-adjust loop can shift emphasis toward deadlines without
	// altering the deadline formula itself.
	UrgencyWeight  float64
	DeadlineWeight float64

	TagBoosts     map[string]float64 // by tag name
	ProjectBoosts map[string]float64 // by project title

	DurationFormula DurationFormula
	DurationWeight  float64
	OldnessFormula  OldnessFormula
	OldnessWeight   float64
	DeadlineFormula DeadlineFormula

	BlockMinutes    int
	MinBlockMinutes int

	// Time-map resolution inputs. ProjectMaps is keyed by project title,
	// TagMaps by tag name; values are time map ids.
	TimeMaps     []TimeMap
	ProjectMaps  map[string]string
	TagMaps      map[string]string
	DefaultMapID string

	// Legacy single-window settings used to synthesize a map when TimeMaps
	// is empty.
	DayStartHour int
	DayHours     int
	SkipWeekdays []time.Weekday

	// NoRescheduleTag marks fixed tasks: their scheduled window is treated
	// as capacity already consumed and they are never (re)planned.
	NoRescheduleTag string

	HorizonDays int
	AutoAdjust  bool
}

// WithDefaults returns a copy with every missing or invalid value replaced by
// its documented default.
func (c Config) WithDefaults() Config {
	if c.UrgencyWeight <= 0 {
		c.UrgencyWeight = DefaultUrgencyWeight
	}
	if c.DeadlineWeight <= 0 {
		c.DeadlineWeight = DefaultDeadlineWeight
	}
	if c.BlockMinutes <= 0 {
		c.BlockMinutes = DefaultBlockMinutes
	}
	if c.MinBlockMinutes <= 0 {
		c.MinBlockMinutes = DefaultMinBlockMinutes
	}
	if c.MinBlockMinutes > c.BlockMinutes {
		c.MinBlockMinutes = c.BlockMinutes
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = DefaultHorizonDays
	}
	if c.DayStartHour <= 0 || c.DayStartHour > 23 {
		c.DayStartHour = DefaultDayStartHour
	}
	if c.DayHours <= 0 || c.DayStartHour+c.DayHours > 24 {
		c.DayHours = DefaultDayHours
		if c.DayStartHour+c.DayHours > 24 {
			c.DayHours = 24 - c.DayStartHour
		}
	}
	return c
}

// BlockSize returns the configured block size as a duration.
func (c Config) BlockSize() time.Duration {
	return time.Duration(c.BlockMinutes) * time.Minute
}

// MinBlockSize returns the configured minimum block size as a duration.
func (c Config) MinBlockSize() time.Duration {
	return time.Duration(c.MinBlockMinutes) * time.Minute
}
