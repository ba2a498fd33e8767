// Package planner implements the scheduling engine: urgency scoring, task
// splitting into blocks, weekly time-map capacity accounting, the greedy
// day-by-day assignment loop, deadline-miss detection, the auto-adjust weight
// search, and the merge reconciler that folds previously split blocks back
// into a single task.
//
// Everything in this package is synchronous and deterministic over an
// in-memory Snapshot. Host I/O (store, notifications) lives elsewhere.
package planner
