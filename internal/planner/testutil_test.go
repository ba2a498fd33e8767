package planner

import "time"

// Monday 2026-03-02 09:00 local; most tests plan from here.
var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func task(id, title string, estimate time.Duration) *Task {
	return &Task{
		ID:       id,
		Title:    title,
		Estimate: estimate,
		Created:  monday.AddDate(0, 0, -30),
	}
}

func snapshotOf(tasks ...*Task) *Snapshot {
	return NewSnapshot(tasks, nil, nil)
}

// allDayMap is an every-day window from start to end o'clock.
func allDayMap(id string, start, end int) TimeMap {
	m := TimeMap{ID: id, Name: id}
	for d := 0; d < 7; d++ {
		m.Days[d] = &Window{StartHour: start, EndHour: end}
	}
	return m
}

func baseConfig() Config {
	return Config{
		BlockMinutes:    120,
		MinBlockMinutes: 30,
		TimeMaps:        []TimeMap{allDayMap("work", 9, 17)},
		DefaultMapID:    "work",
		HorizonDays:     30,
	}
}
