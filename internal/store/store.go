package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"autoplan/internal/planner"
	"autoplan/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

var ErrNotFound = errors.New("task not found")

// Config configures the store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}

// Store is the SQLite-backed host task store.
type Store struct {
	db  *sql.DB
	log logx.Logger
}

// Open opens (and migrates) the database at cfg.Path.
func Open(cfg Config, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	s := &Store{db: db, log: log}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Snapshot fetches all tasks, tags and projects in one go for a planner run.
func (s *Store) Snapshot(ctx context.Context) (*planner.Snapshot, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return planner.NewSnapshot(tasks, tags, projects), nil
}

func (s *Store) ListTasks(ctx context.Context) ([]*planner.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, notes, project_id, parent_id, created_ms, completed,
		        estimate_min, spent_min, due_ms, scheduled_ms
		 FROM tasks ORDER BY created_ms, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*planner.Task
	byID := make(map[string]*planner.Task)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, byID); err != nil {
		return nil, err
	}
	if err := s.attachSpentDays(ctx, byID); err != nil {
		return nil, err
	}
	return tasks, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanTask(r rowScanner) (*planner.Task, error) {
	var (
		t           planner.Task
		createdMS   int64
		completed   int
		estimateMin int64
		spentMin    int64
		dueMS       sql.NullInt64
		schedMS     sql.NullInt64
	)
	err := r.Scan(&t.ID, &t.Title, &t.Notes, &t.ProjectID, &t.ParentID,
		&createdMS, &completed, &estimateMin, &spentMin, &dueMS, &schedMS)
	if err != nil {
		return nil, err
	}
	t.Created = time.UnixMilli(createdMS)
	t.Completed = completed != 0
	t.Estimate = time.Duration(estimateMin) * time.Minute
	t.Spent = time.Duration(spentMin) * time.Minute
	if dueMS.Valid {
		d := time.UnixMilli(dueMS.Int64)
		t.Due = &d
	}
	if schedMS.Valid {
		d := time.UnixMilli(schedMS.Int64)
		t.Scheduled = &d
	}
	return &t, nil
}

func (s *Store) attachTags(ctx context.Context, byID map[string]*planner.Task) error {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, tag_id FROM task_tags ORDER BY task_id, tag_id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var taskID, tagID string
		if err := rows.Scan(&taskID, &tagID); err != nil {
			return err
		}
		if t, ok := byID[taskID]; ok {
			t.TagIDs = append(t.TagIDs, tagID)
		}
	}
	return rows.Err()
}

func (s *Store) attachSpentDays(ctx context.Context, byID map[string]*planner.Task) error {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, day, minutes FROM spent_days`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var taskID, day string
		var minutes int64
		if err := rows.Scan(&taskID, &day, &minutes); err != nil {
			return err
		}
		if t, ok := byID[taskID]; ok {
			if t.SpentPerDay == nil {
				t.SpentPerDay = make(map[string]time.Duration)
			}
			t.SpentPerDay[day] = time.Duration(minutes) * time.Minute
		}
	}
	return rows.Err()
}

// GetTask loads one task with tags and ledger.
func (s *Store) GetTask(ctx context.Context, id string) (*planner.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, notes, project_id, parent_id, created_ms, completed,
		        estimate_min, spent_min, due_ms, scheduled_ms
		 FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	byID := map[string]*planner.Task{t.ID: t}
	if err := s.attachTags(ctx, byID); err != nil {
		return nil, err
	}
	if err := s.attachSpentDays(ctx, byID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) ListTags(ctx context.Context) ([]planner.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM tags ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []planner.Tag
	for rows.Next() {
		var tg planner.Tag
		if err := rows.Scan(&tg.ID, &tg.Title); err != nil {
			return nil, err
		}
		out = append(out, tg)
	}
	return out, rows.Err()
}

func (s *Store) ListProjects(ctx context.Context) ([]planner.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM projects ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []planner.Project
	for rows.Next() {
		var p planner.Project
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// EnsureTag returns the tag with the given title, creating it if needed.
func (s *Store) EnsureTag(ctx context.Context, title string) (planner.Tag, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return planner.Tag{}, errors.New("empty tag title")
	}
	var tg planner.Tag
	err := s.db.QueryRowContext(ctx, `SELECT id, title FROM tags WHERE title = ?`, title).Scan(&tg.ID, &tg.Title)
	if err == nil {
		return tg, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return planner.Tag{}, err
	}
	tg = planner.Tag{ID: uuid.NewString(), Title: title}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tags(id, title) VALUES(?,?)`, tg.ID, tg.Title)
	return tg, err
}

// EnsureProject returns the project with the given title, creating it if needed.
func (s *Store) EnsureProject(ctx context.Context, title string) (planner.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return planner.Project{}, errors.New("empty project title")
	}
	var p planner.Project
	err := s.db.QueryRowContext(ctx, `SELECT id, title FROM projects WHERE title = ?`, title).Scan(&p.ID, &p.Title)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return planner.Project{}, err
	}
	p = planner.Project{ID: uuid.NewString(), Title: title}
	_, err = s.db.ExecContext(ctx, `INSERT INTO projects(id, title) VALUES(?,?)`, p.ID, p.Title)
	return p, err
}

// TaskFields is a partial field set for create/update. Nil pointers leave the
// column untouched on update and take defaults on create.
type TaskFields struct {
	ID        string // create only; empty means a fresh uuid
	Title     *string
	Notes     *string
	ProjectID *string
	ParentID  *string
	Created   *time.Time
	Completed *bool
	Estimate  *time.Duration
	Spent     *time.Duration

	Due      *time.Time
	ClearDue bool

	Scheduled      *time.Time
	ClearScheduled bool

	// TagIDs replaces the tag set wholesale when non-nil.
	TagIDs *[]string

	// SpentPerDay replaces the ledger wholesale when non-nil.
	SpentPerDay map[string]time.Duration
}

// CreateTask inserts a task and returns its id.
func (s *Store) CreateTask(ctx context.Context, f TaskFields) (string, error) {
	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := time.Now()
	if f.Created != nil {
		created = *f.Created
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks(id, title, notes, project_id, parent_id, created_ms, completed,
		                   estimate_min, spent_min, due_ms, scheduled_ms)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		id, strVal(f.Title), strVal(f.Notes), strVal(f.ProjectID), strVal(f.ParentID),
		created.UnixMilli(), boolInt(f.Completed), durMin(f.Estimate), durMin(f.Spent),
		msOrNil(f.Due), msOrNil(f.Scheduled),
	)
	if err != nil {
		return "", err
	}
	if f.TagIDs != nil {
		if err := replaceTags(ctx, tx, id, *f.TagIDs); err != nil {
			return "", err
		}
	}
	if f.SpentPerDay != nil {
		if err := replaceSpentDays(ctx, tx, id, f.SpentPerDay); err != nil {
			return "", err
		}
	}
	return id, tx.Commit()
}

// UpdateTask applies the non-nil fields to an existing task.
func (s *Store) UpdateTask(ctx context.Context, id string, f TaskFields) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if f.Title != nil {
		set("title", *f.Title)
	}
	if f.Notes != nil {
		set("notes", *f.Notes)
	}
	if f.ProjectID != nil {
		set("project_id", *f.ProjectID)
	}
	if f.ParentID != nil {
		set("parent_id", *f.ParentID)
	}
	if f.Created != nil {
		set("created_ms", f.Created.UnixMilli())
	}
	if f.Completed != nil {
		set("completed", boolInt(f.Completed))
	}
	if f.Estimate != nil {
		set("estimate_min", durMin(f.Estimate))
	}
	if f.Spent != nil {
		set("spent_min", durMin(f.Spent))
	}
	if f.ClearDue {
		set("due_ms", nil)
	} else if f.Due != nil {
		set("due_ms", f.Due.UnixMilli())
	}
	if f.ClearScheduled {
		set("scheduled_ms", nil)
	} else if f.Scheduled != nil {
		set("scheduled_ms", f.Scheduled.UnixMilli())
	}

	if len(sets) > 0 {
		res, err := tx.ExecContext(ctx,
			"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?",
			append(args, id)...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
	}
	if f.TagIDs != nil {
		if err := replaceTags(ctx, tx, id, *f.TagIDs); err != nil {
			return err
		}
	}
	if f.SpentPerDay != nil {
		if err := replaceSpentDays(ctx, tx, id, f.SpentPerDay); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteTask removes a task, its tag links and its ledger.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM spent_days WHERE task_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetConfigBlob returns the opaque blob stored under key, nil when absent.
func (s *Store) GetConfigBlob(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config_blob WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// PutConfigBlob stores the opaque blob under key.
func (s *Store) PutConfigBlob(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO config_blob(key, value) VALUES(?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func replaceTags(ctx context.Context, tx *sql.Tx, taskID string, tagIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_tags(task_id, tag_id) VALUES(?,?)`, taskID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func replaceSpentDays(ctx context.Context, tx *sql.Tx, taskID string, ledger map[string]time.Duration) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM spent_days WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	days := make([]string, 0, len(ledger))
	for day := range ledger {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO spent_days(task_id, day, minutes) VALUES(?,?,?)`,
			taskID, day, int64(ledger[day]/time.Minute)); err != nil {
			return err
		}
	}
	return nil
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func boolInt(p *bool) int {
	if p != nil && *p {
		return 1
	}
	return 0
}

func durMin(p *time.Duration) int64 {
	if p == nil {
		return 0
	}
	return int64(*p / time.Minute)
}

func msOrNil(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UnixMilli()
}
