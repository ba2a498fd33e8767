package planner

import "sort"

// Snapshot is the immutable per-run view of the host state. It is fetched
// once per run; nothing mutates it while the planner works, so no locking is
// needed anywhere in this package.
type Snapshot struct {
	Tasks    []*Task
	Tags     []Tag
	Projects []Project

	byID      map[string]*Task
	tagTitle  map[string]string
	projTitle map[string]string
	hasChild  map[string]bool
}

// NewSnapshot indexes the given records. The parent index is precomputed here
// so ancestor-tag lookups don't rescan the flat task list per task.
func NewSnapshot(tasks []*Task, tags []Tag, projects []Project) *Snapshot {
	s := &Snapshot{
		Tasks:     tasks,
		Tags:      tags,
		Projects:  projects,
		byID:      make(map[string]*Task, len(tasks)),
		tagTitle:  make(map[string]string, len(tags)),
		projTitle: make(map[string]string, len(projects)),
		hasChild:  make(map[string]bool),
	}
	for _, t := range tasks {
		s.byID[t.ID] = t
	}
	for _, t := range tasks {
		if t.ParentID != "" {
			s.hasChild[t.ParentID] = true
		}
	}
	for _, tg := range tags {
		s.tagTitle[tg.ID] = tg.Title
	}
	for _, p := range projects {
		s.projTitle[p.ID] = p.Title
	}
	return s
}

// Task returns the task with the given id, or nil.
func (s *Snapshot) Task(id string) *Task { return s.byID[id] }

// IsParent reports whether other tasks reference id as their parent. Parent
// tasks are never split; their time is represented through their children.
func (s *Snapshot) IsParent(id string) bool { return s.hasChild[id] }

// TagNames resolves a task's own tag ids to names. Unknown ids are skipped.
func (s *Snapshot) TagNames(t *Task) []string {
	if len(t.TagIDs) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.TagIDs))
	for _, id := range t.TagIDs {
		if name, ok := s.tagTitle[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

// InheritedTagNames walks the ancestor chain and collects tag names of every
// ancestor, nearest first. Cycles in parent links are tolerated.
func (s *Snapshot) InheritedTagNames(t *Task) []string {
	var out []string
	seen := map[string]struct{}{t.ID: {}}
	cur := t
	for cur.ParentID != "" {
		parent := s.byID[cur.ParentID]
		if parent == nil {
			break
		}
		if _, ok := seen[parent.ID]; ok {
			break
		}
		seen[parent.ID] = struct{}{}
		out = append(out, s.TagNames(parent)...)
		cur = parent
	}
	return out
}

// EffectiveTagNames returns own plus inherited tag names, deduplicated.
func (s *Snapshot) EffectiveTagNames(t *Task) []string {
	own := s.TagNames(t)
	inherited := s.InheritedTagNames(t)
	if len(inherited) == 0 {
		return own
	}
	out := make([]string, 0, len(own)+len(inherited))
	seen := make(map[string]struct{}, cap(out))
	for _, lst := range [][]string{own, inherited} {
		for _, name := range lst {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// ProjectTitle resolves a project id to its title, "" when unknown.
func (s *Snapshot) ProjectTitle(id string) string { return s.projTitle[id] }

// SortedTasks returns tasks ordered by creation time, then id, for
// deterministic iteration independent of host store ordering.
func (s *Snapshot) SortedTasks() []*Task {
	out := append([]*Task(nil), s.Tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
