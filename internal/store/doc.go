// Package store is the host task store: a SQLite database holding tasks,
// tags, projects, per-day spent ledgers and an opaque config blob. It is the
// asynchronous boundary of the system; the planner itself only ever sees an
// in-memory snapshot fetched from here once per run.
package store
