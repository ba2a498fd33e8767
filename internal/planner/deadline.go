package planner

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// deadlineLine matches a notes-embedded "Deadline: <date>[ time]" line. The
// notes field carries this next to user content, so the rest of the line is
// handed to the date parser and anything unparseable just yields no deadline.
var deadlineLine = regexp.MustCompile(`(?mi)^\s*deadline:\s*(.+?)\s*$`)

// ResolveDeadline returns the task's effective deadline. A notes-embedded
// deadline takes precedence over the generic due-date field, because the
// latter is reused for scheduling, not deadline semantics.
func ResolveDeadline(t *Task, loc *time.Location) (time.Time, bool) {
	if m := deadlineLine.FindStringSubmatch(t.Notes); m != nil {
		if d, ok := ParseDeadlineDate(m[1], loc); ok {
			return d, true
		}
	}
	if t.Due != nil {
		return normalizeMidnight(*t.Due), true
	}
	return time.Time{}, false
}

var (
	trailingTime = regexp.MustCompile(`\s+(\d{1,2})[.:](\d{2})$`)
	isoDate      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDate    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// ParseDeadlineDate parses the accepted date grammars: ISO (YYYY-MM-DD),
// named month (Jan 2, 2006 / January 2, 2006) and slash dates, each with an
// optional trailing H:MM or H.MM time. Slash dates are disambiguated
// heuristically: a first component above 12 is the day, otherwise it is read
// as month/day. A date without an explicit time is pushed to 23:59:59.999 so
// a same-day deadline is not treated as already past.
func ParseDeadlineDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	hour, minute, hasTime := -1, -1, false
	if m := trailingTime.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h >= 0 && h <= 23 && mi >= 0 && mi <= 59 {
			hour, minute, hasTime = h, mi, true
			s = strings.TrimSpace(s[:len(s)-len(m[0])])
		}
	}

	var year, month, day int
	switch {
	case isoDate.MatchString(s):
		m := isoDate.FindStringSubmatch(s)
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
	case slashDate.MatchString(s):
		m := slashDate.FindStringSubmatch(s)
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		year, _ = strconv.Atoi(m[3])
		if a > 12 {
			day, month = a, b
		} else {
			month, day = a, b
		}
	default:
		parsed := false
		for _, layout := range []string{"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "January 2 2006"} {
			if d, err := time.ParseInLocation(layout, s, loc); err == nil {
				year, month, day = d.Year(), int(d.Month()), d.Day()
				parsed = true
				break
			}
		}
		if !parsed {
			return time.Time{}, false
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	if hasTime {
		return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), true
	}
	return time.Date(year, time.Month(month), day, 23, 59, 59, int(999*time.Millisecond), loc), true
}

// normalizeMidnight pushes a timestamp at local or UTC midnight to the end of
// that day. Due dates are commonly stored as bare dates; treating them as
// 00:00 would mark a same-day deadline missed before the day begins.
func normalizeMidnight(d time.Time) time.Time {
	atMidnight := func(t time.Time) bool {
		return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
	}
	if atMidnight(d) {
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), d.Location())
	}
	if u := d.UTC(); atMidnight(u) {
		return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC).In(d.Location())
	}
	return d
}

// DeadlineFactor maps days-until-due onto [0.2, 1.0] according to the
// configured formula.
//
// Linear: u <= -7 -> 1.0, u >= 14 -> 0.2, linear in between.
//
// Aggressive: piecewise-linear with breakpoints at u = -7, 0, 7, 14 giving
// [0.9, 1.0] when overdue, [0.5, 0.9] due within a week, [0.2, 0.5] due
// within two weeks, and 0.2 beyond.
func DeadlineFactor(f DeadlineFormula, daysUntilDue float64) float64 {
	u := daysUntilDue
	switch f {
	case DeadlineAggressive:
		switch {
		case u <= -7:
			return 1.0
		case u <= 0:
			return lerp(u, -7, 0, 1.0, 0.9)
		case u <= 7:
			return lerp(u, 0, 7, 0.9, 0.5)
		case u <= 14:
			return lerp(u, 7, 14, 0.5, 0.2)
		default:
			return 0.2
		}
	default:
		switch {
		case u <= -7:
			return 1.0
		case u >= 14:
			return 0.2
		default:
			return lerp(u, -7, 14, 1.0, 0.2)
		}
	}
}

func lerp(x, x0, x1, y0, y1 float64) float64 {
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
