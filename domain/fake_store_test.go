package domain

import (
	"context"
	"sort"
	"strings"
	"time"
)

// fakeStore is an in-memory implementation of every store interface, shared
// by the service tests.
type fakeStore struct {
	workspaces map[string]Workspace
	members    map[string]Member
	tasks      map[string]Task
	projects   map[string]Project

	taskWrites int
	failTasks  map[string]error // task id -> error forced on UpdateTask
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workspaces: map[string]Workspace{},
		members:    map[string]Member{},
		tasks:      map[string]Task{},
		projects:   map[string]Project{},
	}
}

func (f *fakeStore) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	ws, ok := f.workspaces[id]
	if !ok {
		return nil, nil
	}
	return &ws, nil
}

func (f *fakeStore) ListWorkspaces(ctx context.Context, ids []string) ([]Workspace, error) {
	out := []Workspace{}
	for _, id := range ids {
		if ws, ok := f.workspaces[id]; ok {
			out = append(out, ws)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertWorkspace(ctx context.Context, ws Workspace) error {
	f.workspaces[ws.ID] = ws
	return nil
}

func (f *fakeStore) UpdateWorkspace(ctx context.Context, ws Workspace) error {
	f.workspaces[ws.ID] = ws
	return nil
}

func (f *fakeStore) DeleteWorkspace(ctx context.Context, id string) error {
	delete(f.workspaces, id)
	return nil
}

func (f *fakeStore) GetMember(ctx context.Context, workspaceID, userID string) (*Member, error) {
	for _, m := range f.members {
		if m.WorkspaceID == workspaceID && m.UserID == userID {
			cpy := m
			return &cpy, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetMemberByID(ctx context.Context, memberID string) (*Member, error) {
	m, ok := f.members[memberID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeStore) ListMembers(ctx context.Context, workspaceID string) ([]Member, error) {
	out := []Member{}
	for _, m := range f.members {
		if m.WorkspaceID == workspaceID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListMembershipsForUser(ctx context.Context, userID string) ([]Member, error) {
	out := []Member{}
	for _, m := range f.members {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertMember(ctx context.Context, m Member) error {
	f.members[m.ID] = m
	return nil
}

func (f *fakeStore) UpdateMember(ctx context.Context, m Member) error {
	f.members[m.ID] = m
	return nil
}

func (f *fakeStore) DeleteMember(ctx context.Context, workspaceID, memberID string) error {
	delete(f.members, memberID)
	return nil
}

func (f *fakeStore) DeleteWorkspaceMembers(ctx context.Context, workspaceID string) error {
	for id, m := range f.members {
		if m.WorkspaceID == workspaceID {
			delete(f.members, id)
		}
	}
	return nil
}

func (f *fakeStore) GetProject(ctx context.Context, id string) (*Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) ListProjects(ctx context.Context, workspaceID string) ([]Project, error) {
	out := []Project{}
	for _, p := range f.projects {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) InsertProject(ctx context.Context, p Project) error {
	f.projects[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateProject(ctx context.Context, p Project) error {
	f.projects[p.ID] = p
	return nil
}

func (f *fakeStore) DeleteProject(ctx context.Context, workspaceID, id string) error {
	delete(f.projects, id)
	return nil
}

func (f *fakeStore) DeleteWorkspaceProjects(ctx context.Context, workspaceID string) error {
	for id, p := range f.projects {
		if p.WorkspaceID == workspaceID {
			delete(f.projects, id)
		}
	}
	return nil
}

func (f *fakeStore) GetTask(ctx context.Context, id string) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) GetTasks(ctx context.Context, ids []string) ([]Task, error) {
	out := []Task{}
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) QueryTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	out := []Task{}
	for _, t := range f.tasks {
		if t.WorkspaceID != filter.WorkspaceID {
			continue
		}
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		if filter.AssigneeID != "" && t.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.DueDate != nil && !sameDay(t.DueDate, *filter.DueDate) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CountTasks(ctx context.Context, filter TaskCountFilter) (int, error) {
	n := 0
	for _, t := range f.tasks {
		if filter.Matches(t) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, t Task) error {
	f.tasks[t.ID] = t
	f.taskWrites++
	return nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, t Task) error {
	if err, ok := f.failTasks[t.ID]; ok {
		return err
	}
	f.tasks[t.ID] = t
	f.taskWrites++
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, workspaceID, id string) error {
	delete(f.tasks, id)
	f.taskWrites++
	return nil
}

func (f *fakeStore) DeleteWorkspaceTasks(ctx context.Context, workspaceID string) error {
	for id, t := range f.tasks {
		if t.WorkspaceID == workspaceID {
			delete(f.tasks, id)
		}
	}
	return nil
}

func (f *fakeStore) DeleteProjectTasks(ctx context.Context, workspaceID, projectID string) error {
	for id, t := range f.tasks {
		if t.WorkspaceID == workspaceID && t.ProjectID == projectID {
			delete(f.tasks, id)
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
